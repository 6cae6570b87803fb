package reconcile

import (
	"strings"

	"github.com/yourorg/snyk-jira-sync/internal/jira"
	"github.com/yourorg/snyk-jira-sync/internal/model"
)

// newFindings returns the findings whose tracking id is not carried as a
// label by any tracked issue. This is what keeps repeated runs idempotent:
// a finding seen again under the same identity is already represented by
// its label and is never filed twice. Tracked issues may carry unrelated
// labels, so only labels with the tracking prefix are considered, and
// membership is a hash set because both sides can be large.
func newFindings(findings []model.Finding, tracked []jira.Issue, labelPrefix string) []model.Finding {
	seen := make(map[string]struct{})
	for _, issue := range tracked {
		for _, label := range issue.Labels {
			if strings.HasPrefix(label, labelPrefix) {
				seen[label] = struct{}{}
			}
		}
	}

	fresh := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if _, ok := seen[f.TrackingID]; !ok {
			fresh = append(fresh, f)
		}
	}
	return fresh
}
