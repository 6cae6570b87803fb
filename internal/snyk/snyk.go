package snyk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/snyk-jira-sync/internal/httputil"
	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

const (
	// DefaultBaseURL is the Snyk v1 REST root.
	DefaultBaseURL = "https://api.snyk.io/v1"

	requestTimeout = 30 * time.Second

	// Two attempts with a one second base delay, doubling. All Snyk calls
	// here are reads, so retrying any failure is safe.
	retryAttempts  = 2
	retryBaseDelay = time.Second
)

// Organization is the Snyk org owning the scanned projects. The slug feeds
// the deep links rendered into issue descriptions.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// Project is one scanned target. Name carries the combined
// "artifact(branch):file" form that normalization splits apart.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Origin string `json:"origin"`
	Branch string `json:"branch"`
}

// Issue is one raw aggregated finding as the API reports it.
type Issue struct {
	ID          string    `json:"id"`
	PkgName     string    `json:"pkgName"`
	PkgVersions []string  `json:"pkgVersions"`
	IssueData   IssueData `json:"issueData"`
	FixInfo     FixInfo   `json:"fixInfo"`
}

// IssueData is the nested detail block of an aggregated issue.
type IssueData struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Severity    string              `json:"severity"`
	URL         string              `json:"url"`
	Identifiers map[string][]string `json:"identifiers"`
	CVSSScore   float64             `json:"cvssScore"`
}

type FixInfo struct {
	FixedIn []string `json:"fixedIn"`
}

// Client is a thin wrapper over the Snyk v1 REST API covering the three
// calls a reconciliation pass needs.
type Client struct {
	BaseURL    string
	token      string
	hc         *http.Client
	retryDelay time.Duration
}

// NewClient builds a Client for the given API token.
func NewClient(token string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, syncerr.E("snyk.NewClient", syncerr.KindClientInit, "empty API token", nil)
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		token:      token,
		hc:         &http.Client{Timeout: requestTimeout},
		retryDelay: retryBaseDelay,
	}, nil
}

// Organization resolves one org by id. The v1 API lists the orgs visible
// to the token, so this fetches the list and selects from it.
func (c *Client) Organization(ctx context.Context, orgID string) (Organization, error) {
	var out struct {
		Orgs []Organization `json:"orgs"`
	}
	if err := c.get(ctx, "/orgs", &out); err != nil {
		return Organization{}, syncerr.E("snyk.Organization", syncerr.KindRemoteCall, "list orgs failed", err)
	}
	for _, org := range out.Orgs {
		if org.ID == orgID {
			return org, nil
		}
	}
	return Organization{}, syncerr.E("snyk.Organization", syncerr.KindRemoteCall,
		fmt.Sprintf("organization %s not visible to this token", orgID), nil)
}

// Project fetches a single project in the org.
func (c *Client) Project(ctx context.Context, orgID, projectID string) (Project, error) {
	var out Project
	path := fmt.Sprintf("/org/%s/project/%s", orgID, projectID)
	if err := c.get(ctx, path, &out); err != nil {
		return Project{}, syncerr.E("snyk.Project", syncerr.KindRemoteCall,
			fmt.Sprintf("fetch project %s failed", projectID), err)
	}
	return out, nil
}

// AggregatedIssues fetches the project's aggregated issue set with no
// server-side filter; severity policy belongs to the caller.
func (c *Client) AggregatedIssues(ctx context.Context, orgID, projectID string) ([]Issue, error) {
	body := struct {
		Filters struct{} `json:"filters"`
	}{}
	var out struct {
		Issues []Issue `json:"issues"`
	}
	path := fmt.Sprintf("/org/%s/project/%s/aggregated-issues", orgID, projectID)
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, syncerr.E("snyk.AggregatedIssues", syncerr.KindRemoteCall,
			fmt.Sprintf("fetch issues for project %s failed", projectID), err)
	}
	return out.Issues, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.withRetry(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.withRetry(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) withRetry(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var data []byte
	err := httputil.Retry(ctx, retryAttempts, c.retryDelay, func() error {
		b, err := c.call(ctx, method, path, body)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// call issues one request and returns the raw response body.
func (c *Client) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := data
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	return data, nil
}
