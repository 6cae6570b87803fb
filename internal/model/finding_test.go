package model

import (
	"strings"
	"testing"
	"time"
)

func TestTrackingIDDeterministic(t *testing.T) {
	a := TrackingID("snyk-jira-integration:", "myorg/repo", "path/to/Dockerfile", "main", "SNYK-JS-LODASH-567746")
	b := TrackingID("snyk-jira-integration:", "myorg/repo", "path/to/Dockerfile", "main", "SNYK-JS-LODASH-567746")
	if a != b {
		t.Fatalf("identical inputs produced different identities: %q vs %q", a, b)
	}
	want := "snyk-jira-integration:myorg/repo:path/to/Dockerfile:main:SNYK-JS-LODASH-567746"
	if a != want {
		t.Fatalf("TrackingID = %q, want %q", a, want)
	}
}

func TestTrackingIDContextSensitivity(t *testing.T) {
	base := TrackingID("p:", "myorg/repo", "Dockerfile", "main", "SNYK-1")
	tests := []struct {
		name string
		got  string
	}{
		{"different branch", TrackingID("p:", "myorg/repo", "Dockerfile", "release-1.2", "SNYK-1")},
		{"different file", TrackingID("p:", "myorg/repo", "other/Dockerfile", "main", "SNYK-1")},
		{"different artifact", TrackingID("p:", "myorg/other", "Dockerfile", "main", "SNYK-1")},
		{"different id", TrackingID("p:", "myorg/repo", "Dockerfile", "main", "SNYK-2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got == base {
				t.Fatalf("%s still produced %q", tt.name, base)
			}
		})
	}
}

func TestTrackingIDQuoteSafe(t *testing.T) {
	id := TrackingID("p:", `repo"with"quotes`, "file", "main", "SNYK-1")
	if strings.Contains(id, `"`) {
		t.Fatalf("identity %q contains a double quote", id)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"critical", SeverityCritical, false},
		{"CRITICAL", SeverityCritical, false},
		{"High", SeverityHigh, false},
		{" medium ", SeverityMedium, false},
		{"moderate", SeverityMedium, false},
		{"low", SeverityLow, false},
		{"", SeverityUnknown, true},
		{"bogus", SeverityUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeverity(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSeverityActionable(t *testing.T) {
	if !SeverityCritical.Actionable() || !SeverityHigh.Actionable() {
		t.Fatal("critical and high must be actionable")
	}
	if SeverityMedium.Actionable() || SeverityLow.Actionable() || SeverityUnknown.Actionable() {
		t.Fatal("medium, low and unknown must not be actionable")
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	if !(SeverityCritical.Rank() > SeverityHigh.Rank() &&
		SeverityHigh.Rank() > SeverityMedium.Rank() &&
		SeverityMedium.Rank() > SeverityLow.Rank() &&
		SeverityLow.Rank() > SeverityUnknown.Rank()) {
		t.Fatal("severity ranks are not strictly ordered")
	}
}

func TestDueDate(t *testing.T) {
	now := time.Date(2024, 3, 28, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityCritical, "2024-04-04"},
		{SeverityHigh, "2024-04-27"},
		{SeverityMedium, "2024-04-27"},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			f := Finding{Severity: tt.severity}
			if got := f.DueDate(now); got != tt.want {
				t.Fatalf("DueDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJiraSummary(t *testing.T) {
	f := Finding{
		SnykID:       "SNYK-JS-LODASH-567746",
		Title:        "Prototype Pollution",
		Branch:       "main",
		ArtifactName: "myorg/repo",
		FilePath:     "package.json",
		Severity:     SeverityHigh,
		Identifiers:  map[string][]string{"CVE": {"CVE-2020-8203"}},
	}
	want := "Snyk - [CVE-2020-8203] - [high] - [main] - myorg/repo - package.json - Prototype Pollution"
	if got := f.JiraSummary(); got != want {
		t.Fatalf("JiraSummary = %q, want %q", got, want)
	}

	f.Identifiers = nil
	want = "Snyk - [high] - [main] - myorg/repo - package.json - Prototype Pollution"
	if got := f.JiraSummary(); got != want {
		t.Fatalf("JiraSummary without CVE = %q, want %q", got, want)
	}
}

func TestJiraDescription(t *testing.T) {
	f := Finding{
		SnykID:          "SNYK-JS-LODASH-567746",
		Title:           "Prototype Pollution",
		URL:             "https://snyk.io/vuln/SNYK-JS-LODASH-567746",
		Branch:          "main",
		PackageName:     "lodash",
		PackageVersions: []string{"4.17.15"},
		FixedIn:         []string{"4.17.16"},
		ArtifactName:    "myorg/repo",
		FilePath:        "package.json",
		Severity:        SeverityHigh,
		CVSSScore:       7.4,
		Identifiers:     map[string][]string{"CVE": {"CVE-2020-8203"}},
	}
	desc := f.JiraDescription("my-org-slug", "11111111-2222-3333-4444-555555555555")

	for _, want := range []string{
		"*Project of origin: myorg/repo*",
		"*File: package.json*",
		"*Branch: main*",
		"*Severity: high*",
		"Vulnerable package: lodash",
		"Vulnerable versions: 4.17.15",
		"Fixed in: 4.17.16",
		"More information: https://snyk.io/vuln/SNYK-JS-LODASH-567746",
		"CVSS score: 7.4",
		"CVE identifiers: CVE-2020-8203",
		"https://app.snyk.io/org/my-org-slug/project/11111111-2222-3333-4444-555555555555#issue-SNYK-JS-LODASH-567746",
	} {
		if !strings.Contains(desc, want) {
			t.Fatalf("description missing %q:\n%s", want, desc)
		}
	}
}
