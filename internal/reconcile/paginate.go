package reconcile

import (
	"context"
	"fmt"

	"github.com/yourorg/snyk-jira-sync/internal/jira"
)

// searchPageSize is the page size for tracked-issue searches.
const searchPageSize = 50

// fetchAllTracked walks the tracker's paged search until every matching
// issue is collected. The offset only ever moves forward, and an empty
// page ends the walk even when the tracker still claims more results, so
// an inconsistent total can never loop the pass forever.
func fetchAllTracked(ctx context.Context, tracker Tracker, jql string) ([]jira.Issue, error) {
	var all []jira.Issue
	for startAt := 0; ; startAt += searchPageSize {
		page, hasMore, err := tracker.SearchIssues(ctx, jql, startAt, searchPageSize)
		if err != nil {
			return nil, fmt.Errorf("search page at offset %d: %w", startAt, err)
		}
		all = append(all, page...)
		if !hasMore || len(page) == 0 {
			return all, nil
		}
	}
}
