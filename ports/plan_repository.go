package ports

import (
	"context"

	"pcgstreams/internal/streams"

	"github.com/google/uuid"
)

// PlanRepository persists validated stream plans so runs can be replayed
type PlanRepository interface {
	Save(ctx context.Context, plan *streams.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*streams.Plan, error)
	List(ctx context.Context, limit, offset int) ([]*streams.Plan, error)
}
