package reconcile

import (
	"fmt"
	"strings"

	"github.com/yourorg/snyk-jira-sync/internal/config"
	"github.com/yourorg/snyk-jira-sync/internal/model"
	"github.com/yourorg/snyk-jira-sync/internal/snyk"
	"github.com/yourorg/snyk-jira-sync/internal/syncerr"
)

// artifactContext pins raw findings to the scanned unit they came from.
type artifactContext struct {
	Artifact string
	FilePath string
	Branch   string
}

// splitProjectName splits the scanner's combined name field. The artifact
// is everything before the first colon with any trailing "(branch)" suffix
// stripped; the file path is everything after that colon, empty when the
// name carries none.
func splitProjectName(name, branch string) (artifact, filePath string) {
	artifact, filePath, _ = strings.Cut(name, ":")
	artifact = strings.TrimSuffix(artifact, "("+branch+")")
	return artifact, filePath
}

// normalizeIssue validates one raw record and builds the immutable Finding
// the rest of the pass works with. A record without a usable id or severity
// is rejected with a validation-kind error so the caller can skip it
// without abandoning the artifact.
func normalizeIssue(raw snyk.Issue, actx artifactContext, cfg config.Config) (model.Finding, error) {
	id := raw.ID
	if id == "" {
		id = raw.IssueData.ID
	}
	if id == "" {
		return model.Finding{}, syncerr.E("reconcile.normalize", syncerr.KindValidation,
			"issue record has no id", nil)
	}

	severity, err := model.ParseSeverity(raw.IssueData.Severity)
	if err != nil {
		return model.Finding{}, syncerr.E("reconcile.normalize", syncerr.KindValidation,
			fmt.Sprintf("issue %s has no usable severity", id), err)
	}

	f := model.Finding{
		SnykID:          id,
		Title:           raw.IssueData.Title,
		URL:             raw.IssueData.URL,
		Branch:          actx.Branch,
		PackageName:     raw.PkgName,
		PackageVersions: raw.PkgVersions,
		FixedIn:         raw.FixInfo.FixedIn,
		ArtifactName:    actx.Artifact,
		FilePath:        actx.FilePath,
		Severity:        severity,
		CVSSScore:       raw.IssueData.CVSSScore,
		Identifiers:     raw.IssueData.Identifiers,
		Components:      cfg.JiraComponents,
	}
	f.TrackingID = model.TrackingID(cfg.JiraLabelPrefix, actx.Artifact, actx.FilePath, actx.Branch, id)
	return f, nil
}
