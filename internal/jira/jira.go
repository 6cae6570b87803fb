package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/snyk-jira-sync/internal/httputil"
	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

const (
	// createBatchSize bounds one bulk create call; the API rejects larger
	// batches.
	createBatchSize = 50

	requestTimeout = 30 * time.Second
	retryAttempts  = 2
	retryBaseDelay = time.Second
)

// Issue is the projection of a tracked issue the reconciler needs: its key
// and label set, nothing more.
type Issue struct {
	Key    string
	Labels []string
}

// CreateRequest is the payload for one new issue. Labels carries exactly
// the finding's tracking identity; that label is what future runs search
// for.
type CreateRequest struct {
	ProjectKey  string
	Summary     string
	Description string
	Components  []string
	DueDate     string
	Labels      []string
}

// CreatedIssue identifies an issue the tracker reports as created.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Client wraps the Jira REST v2 and Agile APIs behind the three calls the
// engine needs.
type Client struct {
	BaseURL    string
	token      string
	hc         *http.Client
	retryDelay time.Duration
}

// NewClient validates the server URL and builds a Client authenticating
// with a bearer token.
func NewClient(serverURL, token string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, syncerr.E("jira.NewClient", syncerr.KindClientInit,
			fmt.Sprintf("invalid server URL %q", serverURL), err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, syncerr.E("jira.NewClient", syncerr.KindClientInit, "empty API token", nil)
	}
	return &Client{
		BaseURL:    strings.TrimRight(serverURL, "/"),
		token:      token,
		hc:         &http.Client{Timeout: requestTimeout},
		retryDelay: retryBaseDelay,
	}, nil
}

type searchResponse struct {
	StartAt    int `json:"startAt"`
	MaxResults int `json:"maxResults"`
	Total      int `json:"total"`
	Issues     []struct {
		Key    string `json:"key"`
		Fields struct {
			Labels []string `json:"labels"`
		} `json:"fields"`
	} `json:"issues"`
}

// SearchIssues runs a JQL query for one result page and reports whether
// more pages remain beyond it. Only the labels field is requested. Search
// is read-only, so it retries like the scanner calls do.
func (c *Client) SearchIssues(ctx context.Context, jql string, startAt, maxResults int) ([]Issue, bool, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", "labels")
	path := "/rest/api/2/search?" + q.Encode()

	var out searchResponse
	err := httputil.Retry(ctx, retryAttempts, c.retryDelay, func() error {
		var page searchResponse
		data, err := c.call(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}
		out = page
		return nil
	})
	if err != nil {
		return nil, false, syncerr.E("jira.SearchIssues", syncerr.KindRemoteCall, "search failed", err)
	}

	issues := make([]Issue, 0, len(out.Issues))
	for _, raw := range out.Issues {
		issues = append(issues, Issue{Key: raw.Key, Labels: raw.Fields.Labels})
	}
	hasMore := out.StartAt+len(out.Issues) < out.Total
	return issues, hasMore, nil
}

type nameRef struct {
	Name string `json:"name"`
}

type issueFields struct {
	Project struct {
		Key string `json:"key"`
	} `json:"project"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Components  []nameRef `json:"components,omitempty"`
	DueDate     string    `json:"duedate,omitempty"`
	IssueType   nameRef   `json:"issuetype"`
	Labels      []string  `json:"labels"`
}

type issueUpdate struct {
	Fields issueFields `json:"fields"`
}

// CreateIssues submits the requests as bulk create calls, chunked to the
// batch limit. Mutations never retry; an ambiguous failure must surface
// instead of risking double-filed issues. Issues created before a failing
// chunk are still returned so the caller can link them.
func (c *Client) CreateIssues(ctx context.Context, reqs []CreateRequest) ([]CreatedIssue, error) {
	created := make([]CreatedIssue, 0, len(reqs))
	for start := 0; start < len(reqs); start += createBatchSize {
		end := start + createBatchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		chunk := reqs[start:end]

		body := struct {
			IssueUpdates []issueUpdate `json:"issueUpdates"`
		}{IssueUpdates: make([]issueUpdate, 0, len(chunk))}
		for _, r := range chunk {
			f := issueFields{
				Summary:     r.Summary,
				Description: r.Description,
				DueDate:     r.DueDate,
				IssueType:   nameRef{Name: "Bug"},
				Labels:      r.Labels,
			}
			f.Project.Key = r.ProjectKey
			for _, name := range r.Components {
				f.Components = append(f.Components, nameRef{Name: name})
			}
			body.IssueUpdates = append(body.IssueUpdates, issueUpdate{Fields: f})
		}

		var out struct {
			Issues []CreatedIssue `json:"issues"`
			Errors []struct {
				Status        int             `json:"status"`
				ElementErrors json.RawMessage `json:"elementErrors"`
			} `json:"errors"`
		}
		data, err := c.post(ctx, "/rest/api/2/issue/bulk", body)
		if err != nil {
			return created, syncerr.E("jira.CreateIssues", syncerr.KindRemoteCall, "bulk create failed", err)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return created, syncerr.E("jira.CreateIssues", syncerr.KindRemoteCall, "decode bulk create response", err)
		}
		created = append(created, out.Issues...)
		if len(out.Errors) > 0 {
			return created, syncerr.E("jira.CreateIssues", syncerr.KindRemoteCall,
				fmt.Sprintf("%d of %d creates rejected", len(out.Errors), len(chunk)), nil)
		}
	}
	return created, nil
}

// AddIssuesToEpic links the created issues under the parent epic in one
// Agile API call. No-op for an empty key list.
func (c *Client) AddIssuesToEpic(ctx context.Context, epicID string, issueKeys []string) error {
	if len(issueKeys) == 0 {
		return nil
	}
	body := struct {
		Issues []string `json:"issues"`
	}{Issues: issueKeys}
	if _, err := c.post(ctx, "/rest/agile/1.0/epic/"+url.PathEscape(epicID)+"/issue", body); err != nil {
		return syncerr.E("jira.AddIssuesToEpic", syncerr.KindRemoteCall,
			fmt.Sprintf("linking %d issues to epic %s failed", len(issueKeys), epicID), err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.call(ctx, http.MethodPost, path, payload)
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
	req.Header.Set("Authorization", "Bearer "+c.token)
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
