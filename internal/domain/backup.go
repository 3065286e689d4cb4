package domain

// StepResult pairs a named pipeline step with its typed outcome.
type StepResult struct {
	Step    string
	Outcome Outcome
}

// BackupReport accumulates what one backup run did: the outcome of every
// step and the artifacts it produced.
type BackupReport struct {
	RunID     string
	Steps     []StepResult
	Artifacts []Artifact
}

// Record appends a step outcome to the report.
func (r *BackupReport) Record(step string, o Outcome) {
	r.Steps = append(r.Steps, StepResult{Step: step, Outcome: o})
}

// HasFatal reports whether any step ended fatally.
func (r *BackupReport) HasFatal() bool {
	for _, s := range r.Steps {
		if s.Outcome.IsFatal() {
			return true
		}
	}
	return false
}

// FirstFatal returns the first fatal step error, or nil.
func (r *BackupReport) FirstFatal() error {
	for _, s := range r.Steps {
		if s.Outcome.IsFatal() {
			return s.Outcome.Err
		}
	}
	return nil
}
