package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/snyk-jira-sync/internal/config"
	"github.com/yourorg/snyk-jira-sync/internal/exclude"
	"github.com/yourorg/snyk-jira-sync/internal/jira"
	"github.com/yourorg/snyk-jira-sync/internal/reconcile"
	"github.com/yourorg/snyk-jira-sync/internal/snyk"
	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

func main() {
	// Load environment variables from .env files if present. This helps local dev.
	// Try current directory and one level up (in case run from cmd/sync).
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	logrus.SetLevel(logrus.InfoLevel)
	log := logrus.WithField("run_id", uuid.NewString())

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("configuration incomplete")
		os.Exit(syncerr.ExitCode(err))
	}
	if cfg.DryRun {
		log.Info("DRY_RUN is enabled, no issues will be created")
	}

	rules, err := exclude.Load(cfg.ExcludeFilePath)
	if err != nil {
		log.WithError(err).Error("cannot load exclusion rules")
		os.Exit(syncerr.ExitCode(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	scanner, err := snyk.NewClient(cfg.SnykAPIToken)
	if err != nil {
		log.WithError(err).Error("cannot build snyk client")
		os.Exit(syncerr.ExitCode(err))
	}
	tracker, err := jira.NewClient(cfg.JiraServerURL, cfg.JiraAPIToken)
	if err != nil {
		log.WithError(err).Error("cannot build jira client")
		os.Exit(syncerr.ExitCode(err))
	}

	runner := reconcile.NewRunner(cfg, rules, scanner, tracker, log)
	sum, err := runner.Run(ctx)
	if err != nil {
		log.WithError(err).Error("reconciliation aborted")
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"artifacts":       sum.Artifacts,
		"excluded":        sum.ExcludedFiles,
		"findings":        sum.Findings,
		"invalid":         sum.Invalid,
		"already_tracked": sum.AlreadyTracked,
		"created":         sum.Created,
		"failed":          sum.FailedArtifacts,
		"dry_run":         sum.DryRun,
	}).Info("reconciliation complete")
}
