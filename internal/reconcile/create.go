package reconcile

import (
	"sort"
	"time"

	"github.com/yourorg/snyk-jira-sync/internal/config"
	"github.com/yourorg/snyk-jira-sync/internal/jira"
	"github.com/yourorg/snyk-jira-sync/internal/model"
)

// CreationResult reports what the creator did with one artifact's new
// findings, or would have done in dry-run mode.
type CreationResult struct {
	DryRun  bool
	Planned int
	Keys    []string
}

// buildCreateRequests renders one create request per finding, most severe
// first so the worst findings land at the top of the batch. The input is
// left untouched.
func buildCreateRequests(findings []model.Finding, cfg config.Config, orgSlug, snykProjectID string, now time.Time) []jira.CreateRequest {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if a, b := sorted[i].Severity.Rank(), sorted[j].Severity.Rank(); a != b {
			return a > b
		}
		return sorted[i].SnykID < sorted[j].SnykID
	})

	reqs := make([]jira.CreateRequest, 0, len(sorted))
	for _, f := range sorted {
		reqs = append(reqs, jira.CreateRequest{
			ProjectKey:  cfg.JiraProjectID,
			Summary:     f.JiraSummary(),
			Description: f.JiraDescription(orgSlug, snykProjectID),
			Components:  f.Components,
			DueDate:     f.DueDate(now),
			Labels:      []string{f.TrackingID},
		})
	}
	return reqs
}
