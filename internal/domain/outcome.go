package domain

import "fmt"

// OutcomeStatus classifies how a pipeline step ended.
type OutcomeStatus string

const (
	StatusOK    OutcomeStatus = "ok"
	StatusWarn  OutcomeStatus = "warn"
	StatusFatal OutcomeStatus = "fatal"
)

// Outcome is the typed per-step result of a pipeline stage. Components
// return it; the driver decides whether to continue or abort. This replaces
// implicit control-flow suppression of best-effort failures.
type Outcome struct {
	Status OutcomeStatus
	Reason string
	Err    error
}

// Ok returns a successful outcome.
func Ok() Outcome {
	return Outcome{Status: StatusOK}
}

// Skipped returns a successful outcome carrying a reason, for steps that
// legitimately had nothing to do.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusOK, Reason: reason}
}

// Warnf returns a non-fatal outcome; the pipeline logs and continues.
func Warnf(format string, args ...any) Outcome {
	return Outcome{Status: StatusWarn, Reason: fmt.Sprintf(format, args...)}
}

// Fatal returns an aborting outcome wrapping the underlying error.
func Fatal(err error) Outcome {
	return Outcome{Status: StatusFatal, Reason: err.Error(), Err: err}
}

func (o Outcome) IsFatal() bool { return o.Status == StatusFatal }
func (o Outcome) IsWarn() bool  { return o.Status == StatusWarn }
