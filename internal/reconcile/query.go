package reconcile

import (
	"fmt"
	"strings"

	"github.com/yourorg/snyk-jira-sync/internal/model"
)

// buildTrackedQuery renders the JQL that finds every issue already filed
// for the given findings. ok is false when there are no findings, which
// means no query should run at all; an empty OR clause is not valid JQL.
func buildTrackedQuery(projectID string, findings []model.Finding) (jql string, ok bool) {
	if len(findings) == 0 {
		return "", false
	}
	clauses := make([]string, 0, len(findings))
	for _, f := range findings {
		clauses = append(clauses, fmt.Sprintf(`label="%s"`, f.TrackingID))
	}
	return fmt.Sprintf("project=%s AND (%s)", projectID, strings.Join(clauses, " OR ")), true
}
