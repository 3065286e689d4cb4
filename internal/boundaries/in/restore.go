package in

import (
	"context"

	"github.com/bnema/lifeboat/internal/domain"
)

// RestoreService drives the restore state machine.
type RestoreService interface {
	Run(ctx context.Context, req domain.RestoreRequest) (*domain.RestoreResult, error)
}
