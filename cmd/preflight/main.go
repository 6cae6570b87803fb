package main

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/snyk-jira-sync/internal/config"
	"github.com/yourorg/snyk-jira-sync/internal/exclude"
	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

// preflight checks the deployment surface without touching Snyk or Jira:
// it loads the environment and compiles the exclusion rules, exiting the
// way the sync binary would. Useful as a CI gate for config changes.
func main() {
	var (
		excludeFile = flag.String("exclude-file", "", "exclusion rule file (overrides EXCLUDE_FILES_FILE_PATH)")
	)
	flag.Parse()

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("configuration incomplete")
		os.Exit(syncerr.ExitCode(err))
	}

	path := cfg.ExcludeFilePath
	if *excludeFile != "" {
		path = *excludeFile
	}
	rules, err := exclude.Load(path)
	if err != nil {
		logrus.WithError(err).Error("cannot load exclusion rules")
		os.Exit(syncerr.ExitCode(err))
	}

	logrus.WithFields(logrus.Fields{
		"jira_project":       cfg.JiraProjectID,
		"jira_epic":          cfg.JiraEpicID,
		"snyk_project":       cfg.SnykProjectID,
		"components":         strings.Join(cfg.JiraComponents, ","),
		"excluded_artifacts": len(rules),
		"exclude_patterns":   rules.Patterns(),
		"dry_run":            cfg.DryRun,
	}).Info("preflight ok")
}
