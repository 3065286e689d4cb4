package domain

// ConfirmToken is the literal an operator must type before a destructive
// restore proceeds.
const ConfirmToken = "RESTORE"

// RestoreRequest carries validated operator input for one restore run.
// Immutable once validated.
type RestoreRequest struct {
	DatabaseArtifact string
	MediaArtifact    string
	ForceConfirmed   bool
}

// Confirm decides whether a destructive restore may proceed. Pure so the
// prompt wiring stays out of the decision (the CLI supplies the token).
func Confirm(expected, supplied string, force bool) bool {
	if force {
		return true
	}
	return supplied == expected
}

// RestoreStatus is the terminal state of a restore run.
type RestoreStatus string

const (
	// RestoreCompleted: the restore committed and a report was emitted.
	RestoreCompleted RestoreStatus = "completed"
	// RestoreAborted: validation or confirmation stopped the run before
	// any mutation.
	RestoreAborted RestoreStatus = "aborted"
	// RestoreFailed: a fatal error hit during the destructive section;
	// partial state is possible and the pre-restore snapshot is the
	// rollback path.
	RestoreFailed RestoreStatus = "failed"
)

// VerificationReport summarizes the post-restore diagnostic queries.
// Surfaced to the operator only, never persisted.
type VerificationReport struct {
	TableCount      int
	RLSEnabledCount int
}

// RestoreResult is returned to the CLI after a restore run ends.
type RestoreResult struct {
	Status             RestoreStatus
	Report             *VerificationReport
	PreRestoreSnapshot string
}
