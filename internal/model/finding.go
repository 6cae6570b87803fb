package model

import (
	"fmt"
	"strings"
	"time"
)

// Finding is one vulnerability instance in one scanned artifact. A Finding
// is built once per run from a raw scanner record and never mutated; the
// "already filed" state lives entirely in the tracker's labels, so nothing
// here is persisted.
type Finding struct {
	SnykID          string
	TrackingID      string
	Title           string
	URL             string
	Branch          string
	PackageName     string
	PackageVersions []string
	FixedIn         []string
	ArtifactName    string
	FilePath        string
	Severity        Severity
	CVSSScore       float64
	Identifiers     map[string][]string
	Components      []string
}

// TrackingID derives the label that marks a finding as filed. The same
// inputs always produce the same label, and a finding that moves to another
// file or branch produces a new one, so label search is a reliable
// "already filed" check. Double quotes are swapped for single quotes so the
// result can sit inside a quoted query literal.
func TrackingID(prefix, artifact, filePath, branch, snykID string) string {
	id := prefix + artifact + ":" + filePath + ":" + branch + ":" + snykID
	return strings.ReplaceAll(id, `"`, "'")
}

// CVEs returns the finding's CVE identifiers, if any.
func (f Finding) CVEs() []string {
	return f.Identifiers["CVE"]
}

// JiraSummary renders the one-line issue summary. The leading CVE segment
// is dropped when the finding carries no CVE identifier.
func (f Finding) JiraSummary() string {
	var b strings.Builder
	b.WriteString("Snyk - ")
	if cves := f.CVEs(); len(cves) > 0 {
		fmt.Fprintf(&b, "[%s] - ", cves[0])
	}
	fmt.Fprintf(&b, "[%s] - [%s] - %s - %s - %s",
		f.Severity, f.Branch, f.ArtifactName, f.FilePath, f.Title)
	return b.String()
}

// JiraDescription renders the issue body in Jira wiki markup, ending with a
// deep link to the exact issue in the Snyk UI.
func (f Finding) JiraDescription(orgSlug, snykProjectID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Project of origin: %s*\n", f.ArtifactName)
	fmt.Fprintf(&b, "*File: %s*\n", f.FilePath)
	fmt.Fprintf(&b, "*Branch: %s*\n", f.Branch)
	fmt.Fprintf(&b, "*Severity: %s*\n\n", f.Severity)
	fmt.Fprintf(&b, "Vulnerable package: %s\n", f.PackageName)
	fmt.Fprintf(&b, "Vulnerable versions: %s\n", strings.Join(f.PackageVersions, ", "))
	fmt.Fprintf(&b, "Fixed in: %s\n", strings.Join(f.FixedIn, ", "))
	fmt.Fprintf(&b, "More information: %s\n", f.URL)
	fmt.Fprintf(&b, "CVSS score: %.1f\n", f.CVSSScore)
	fmt.Fprintf(&b, "CVE identifiers: %s\n", strings.Join(f.CVEs(), ", "))
	fmt.Fprintf(&b, "More info can be found in https://app.snyk.io/org/%s/project/%s#issue-%s",
		orgSlug, snykProjectID, f.SnykID)
	return b.String()
}

// DueDate computes the remediation deadline relative to now: a week for
// critical findings, thirty days for everything else, formatted YYYY-MM-DD.
func (f Finding) DueDate(now time.Time) string {
	days := 30
	if f.Severity == SeverityCritical {
		days = 7
	}
	return now.AddDate(0, 0, days).Format("2006-01-02")
}
