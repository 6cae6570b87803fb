package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

const (
	// DefaultLabelPrefix marks the tracker labels this tool owns. Changing
	// it orphans every previously filed issue, so it stays configurable but
	// defaulted.
	DefaultLabelPrefix = "snyk-jira-integration:"

	DefaultExcludeFilePath = "exclude_files.json"
)

// Config carries the run-scoped settings. It is loaded once at startup,
// passed by value and never mutated afterwards.
type Config struct {
	SnykAPIToken    string
	JiraAPIToken    string
	SnykOrgID       string
	SnykProjectID   string
	JiraServerURL   string
	JiraProjectID   string
	JiraLabelPrefix string
	JiraComponents  []string
	JiraEpicID      string
	DryRun          bool
	ExcludeFilePath string
}

// requiredVars in the order they are checked. The names are part of the
// deployment contract and cannot change.
var requiredVars = []string{
	"SNYK_API_TOKEN",
	"JIRA_API_TOKEN",
	"SNYK_ORG_ID",
	"JIRA_SERVER",
	"JIRA_PROJECT_ID",
	"JIRA_COMPONENT_NAMES",
	"JIRA_EPIC_ID",
	"SNYK_PROJECT_ID",
}

func getDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads the environment into a Config. A missing required variable
// returns a config-kind error naming it, which the caller turns into exit
// code 2.
func Load() (Config, error) {
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			return Config{}, syncerr.E("config.Load", syncerr.KindConfig,
				fmt.Sprintf("%s env variable not defined", name), nil)
		}
	}
	cfg := Config{
		SnykAPIToken:    os.Getenv("SNYK_API_TOKEN"),
		JiraAPIToken:    os.Getenv("JIRA_API_TOKEN"),
		SnykOrgID:       os.Getenv("SNYK_ORG_ID"),
		SnykProjectID:   os.Getenv("SNYK_PROJECT_ID"),
		JiraServerURL:   os.Getenv("JIRA_SERVER"),
		JiraProjectID:   os.Getenv("JIRA_PROJECT_ID"),
		JiraLabelPrefix: getDefault("JIRA_LABEL_PREFIX", DefaultLabelPrefix),
		JiraComponents:  splitCSV(os.Getenv("JIRA_COMPONENT_NAMES")),
		JiraEpicID:      os.Getenv("JIRA_EPIC_ID"),
		// Any non-empty value enables dry run, even "false". Deployments
		// disable it by unsetting the variable.
		DryRun:          os.Getenv("DRY_RUN") != "",
		ExcludeFilePath: getDefault("EXCLUDE_FILES_FILE_PATH", DefaultExcludeFilePath),
	}
	return cfg, nil
}
