package out

import "context"

// IntentConfirmer obtains the operator's confirmation token for a
// destructive operation. The decision itself is domain.Confirm; this only
// collects the input.
type IntentConfirmer interface {
	Token(ctx context.Context, prompt string) (string, error)
}
