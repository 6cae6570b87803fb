package reconcile

// Summary accounts for one reconciliation pass.
type Summary struct {
	Artifacts       int // artifacts examined
	ExcludedFiles   int // artifacts skipped by exclusion rules
	Findings        int // actionable findings after the severity gate
	Invalid         int // raw records skipped as malformed
	AlreadyTracked  int // findings already carried as tracker labels
	Created         int // issues filed, or planned when DryRun is set
	FailedArtifacts int // artifacts abandoned after a remote failure
	DryRun          bool
}

// Add folds another artifact's counts into the pass totals.
func (s *Summary) Add(o Summary) {
	s.Artifacts += o.Artifacts
	s.ExcludedFiles += o.ExcludedFiles
	s.Findings += o.Findings
	s.Invalid += o.Invalid
	s.AlreadyTracked += o.AlreadyTracked
	s.Created += o.Created
	s.FailedArtifacts += o.FailedArtifacts
}
