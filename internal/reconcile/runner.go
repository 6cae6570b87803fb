package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/snyk-jira-sync/internal/config"
	"github.com/yourorg/snyk-jira-sync/internal/exclude"
	"github.com/yourorg/snyk-jira-sync/internal/jira"
	"github.com/yourorg/snyk-jira-sync/internal/model"
	"github.com/yourorg/snyk-jira-sync/internal/snyk"
)

// Scanner is the slice of the Snyk client the engine consumes.
type Scanner interface {
	Organization(ctx context.Context, orgID string) (snyk.Organization, error)
	Project(ctx context.Context, orgID, projectID string) (snyk.Project, error)
	AggregatedIssues(ctx context.Context, orgID, projectID string) ([]snyk.Issue, error)
}

// Tracker is the slice of the Jira client the engine consumes.
type Tracker interface {
	SearchIssues(ctx context.Context, jql string, startAt, maxResults int) ([]jira.Issue, bool, error)
	CreateIssues(ctx context.Context, reqs []jira.CreateRequest) ([]jira.CreatedIssue, error)
	AddIssuesToEpic(ctx context.Context, epicID string, issueKeys []string) error
}

// Runner drives one full reconciliation pass: fetch findings per artifact,
// drop excluded and already-tracked ones, file the rest under the epic.
// Artifacts are processed strictly one after another; the only state
// crossing artifact boundaries is the read-only rule set and config.
type Runner struct {
	cfg     config.Config
	rules   exclude.Rules
	scanner Scanner
	tracker Tracker
	log     *logrus.Entry
}

func NewRunner(cfg config.Config, rules exclude.Rules, scanner Scanner, tracker Tracker, log *logrus.Entry) *Runner {
	return &Runner{cfg: cfg, rules: rules, scanner: scanner, tracker: tracker, log: log}
}

// Run performs one pass over the configured artifacts. Failing to resolve
// the org or the project happens before any artifact work and is fatal to
// the pass; once the artifacts are known, each one fails independently.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	org, err := r.scanner.Organization(ctx, r.cfg.SnykOrgID)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve organization: %w", err)
	}
	r.log.WithFields(logrus.Fields{"org": org.Name, "slug": org.Slug}).Info("resolved snyk organization")

	project, err := r.scanner.Project(ctx, r.cfg.SnykOrgID, r.cfg.SnykProjectID)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve project %s: %w", r.cfg.SnykProjectID, err)
	}

	summary := r.processAll(ctx, org, []snyk.Project{project})
	summary.DryRun = r.cfg.DryRun
	return summary, nil
}

// processAll reconciles each artifact in turn. One artifact failing is
// logged and never blocks the rest.
func (r *Runner) processAll(ctx context.Context, org snyk.Organization, projects []snyk.Project) Summary {
	var total Summary
	for _, project := range projects {
		s, err := r.processProject(ctx, org, project)
		total.Add(s)
		if err != nil {
			total.FailedArtifacts++
			r.log.WithError(err).WithField("project", project.Name).Error("artifact reconciliation failed")
		}
	}
	return total
}

func (r *Runner) processProject(ctx context.Context, org snyk.Organization, project snyk.Project) (Summary, error) {
	var s Summary
	s.Artifacts = 1

	artifact, filePath := splitProjectName(project.Name, project.Branch)
	plog := r.log.WithFields(logrus.Fields{
		"project": artifact,
		"file":    filePath,
		"branch":  project.Branch,
	})

	if r.rules.Excluded(artifact, filePath) {
		s.ExcludedFiles = 1
		plog.Info("skipping file, matched by an exclusion pattern")
		return s, nil
	}

	plog.Info("looking for vulnerabilities")

	raw, err := r.scanner.AggregatedIssues(ctx, r.cfg.SnykOrgID, project.ID)
	if err != nil {
		return s, fmt.Errorf("fetch aggregated issues: %w", err)
	}
	if len(raw) == 0 {
		plog.Info("no vulnerabilities reported")
		return s, nil
	}

	findings := r.normalizeAll(raw, artifactContext{
		Artifact: artifact,
		FilePath: filePath,
		Branch:   project.Branch,
	}, plog, &s)
	if len(findings) == 0 {
		plog.Info("no actionable vulnerabilities")
		return s, nil
	}
	s.Findings = len(findings)

	jql, ok := buildTrackedQuery(r.cfg.JiraProjectID, findings)
	if !ok {
		return s, nil
	}

	tracked, err := fetchAllTracked(ctx, r.tracker, jql)
	if err != nil {
		return s, fmt.Errorf("search tracked issues: %w", err)
	}

	fresh := newFindings(findings, tracked, r.cfg.JiraLabelPrefix)
	s.AlreadyTracked = len(findings) - len(fresh)
	if len(fresh) == 0 {
		plog.Info("all vulnerabilities already tracked")
		return s, nil
	}

	res, err := r.createIssues(ctx, fresh, org, project, plog)
	if res.DryRun {
		s.Created = res.Planned
	} else {
		s.Created = len(res.Keys)
	}
	if err != nil {
		return s, err
	}
	return s, nil
}

// normalizeAll converts raw records into findings, skipping malformed ones
// and everything below the filing threshold. Severity policy lives here,
// with the orchestrator, not in normalization.
func (r *Runner) normalizeAll(raw []snyk.Issue, actx artifactContext, plog *logrus.Entry, s *Summary) []model.Finding {
	out := make([]model.Finding, 0, len(raw))
	for _, issue := range raw {
		f, err := normalizeIssue(issue, actx, r.cfg)
		if err != nil {
			s.Invalid++
			plog.WithError(err).WithField("issue_id", issue.ID).Error("skipping malformed finding")
			continue
		}
		if !f.Severity.Actionable() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// createIssues files one issue per finding. In dry-run mode nothing is
// submitted and only the would-be count is reported. A live run submits
// the batch, then links every created key under the configured epic.
func (r *Runner) createIssues(ctx context.Context, findings []model.Finding, org snyk.Organization, project snyk.Project, plog *logrus.Entry) (CreationResult, error) {
	res := CreationResult{DryRun: r.cfg.DryRun, Planned: len(findings)}
	if res.DryRun {
		plog.WithField("count", len(findings)).Info("dry run, no issues created")
		return res, nil
	}

	reqs := buildCreateRequests(findings, r.cfg, org.Slug, project.ID, time.Now())
	created, err := r.tracker.CreateIssues(ctx, reqs)
	for _, issue := range created {
		res.Keys = append(res.Keys, issue.Key)
		plog.WithField("key", issue.Key).Info("created jira issue")
	}
	if err != nil {
		return res, fmt.Errorf("create issues: %w", err)
	}

	if err := r.tracker.AddIssuesToEpic(ctx, r.cfg.JiraEpicID, res.Keys); err != nil {
		return res, fmt.Errorf("link to epic: %w", err)
	}
	plog.WithFields(logrus.Fields{"epic": r.cfg.JiraEpicID, "count": len(res.Keys)}).Info("added issues to epic")
	return res, nil
}
