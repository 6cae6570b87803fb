package exclude

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

// Rules maps an artifact name to the compiled patterns that suppress its
// files. A missing entry means nothing is excluded for that artifact.
type Rules map[string][]*regexp.Regexp

// Load reads a JSON object of artifact name to regex pattern list and
// compiles every pattern up front, so a bad pattern kills the run before
// any reconciliation instead of mid-pass. Read and decode failures are
// io-kind errors (exit 1); a pattern that does not compile is a config-kind
// error (exit 2) naming both the pattern and its artifact.
func Load(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, syncerr.E("exclude.Load", syncerr.KindIO,
			fmt.Sprintf("failed to load file %s", path), err)
	}
	var patterns map[string][]string
	if err := json.Unmarshal(raw, &patterns); err != nil {
		return nil, syncerr.E("exclude.Load", syncerr.KindIO,
			fmt.Sprintf("failed to parse file %s", path), err)
	}

	rules := make(Rules, len(patterns))
	for artifact, pats := range patterns {
		compiled := make([]*regexp.Regexp, 0, len(pats))
		for _, p := range pats {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, syncerr.E("exclude.Load", syncerr.KindConfig,
					fmt.Sprintf("invalid exclusion pattern %q for %s", p, artifact), err)
			}
			compiled = append(compiled, re)
		}
		rules[artifact] = compiled
	}
	return rules, nil
}

// Excluded reports whether any of the artifact's patterns matches the file
// path. Matching is a search, not a full match, so a pattern hits anywhere
// in the path.
func (r Rules) Excluded(artifact, filePath string) bool {
	for _, re := range r[artifact] {
		if re.MatchString(filePath) {
			return true
		}
	}
	return false
}

// Patterns counts the compiled patterns across all artifacts.
func (r Rules) Patterns() int {
	n := 0
	for _, pats := range r {
		n += len(pats)
	}
	return n
}
