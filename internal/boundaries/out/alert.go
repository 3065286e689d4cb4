package out

import "context"

// AlertSink emits a structured failure notification to an external channel.
// Delivery is best effort; implementations must never propagate their own
// failures into the pipeline.
type AlertSink interface {
	Notify(ctx context.Context, summary string)
}
