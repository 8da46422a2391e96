package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"time"

	"pcgstreams/internal/errors"
	"pcgstreams/internal/streams"
	"pcgstreams/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PlanRepositoryImpl implements PlanRepository on any sqlx driver. Queries
// are written with ? placeholders and rebound for the connected driver.
type PlanRepositoryImpl struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new SQL plan repository
func NewPlanRepository(db *sqlx.DB) ports.PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

type planRow struct {
	ID          string    `db:"id"`
	Label       string    `db:"label"`
	Layout      string    `db:"layout"`
	WorkerCount int       `db:"worker_count"`
	CreatedAt   time.Time `db:"created_at"`
}

type entryRow struct {
	PlanID string `db:"plan_id"`
	Worker int    `db:"worker"`
	Seed   string `db:"seed"`
	Stream int64  `db:"stream"`
}

// Save stores the plan and all of its entries in one transaction
func (r *PlanRepositoryImpl) Save(ctx context.Context, plan *streams.Plan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to begin transaction"))
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO stream_plans (id, label, layout, worker_count, created_at)
		VALUES (:id, :label, :layout, :worker_count, :created_at)
	`, planRow{
		ID:          plan.ID.String(),
		Label:       plan.Label,
		Layout:      plan.Layout,
		WorkerCount: plan.Count(),
		CreatedAt:   plan.CreatedAt,
	})
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to insert plan"))
	}

	for _, e := range plan.Entries {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO stream_plan_entries (plan_id, worker, seed, stream)
			VALUES (:plan_id, :worker, :seed, :stream)
		`, entryRow{
			PlanID: plan.ID.String(),
			Worker: e.Worker,
			Seed:   strconv.FormatUint(e.Seed, 10),
			Stream: int64(e.Stream),
		})
		if err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to insert entry for worker %d", e.Worker))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to commit plan"))
	}
	return nil
}

// GetByID loads a plan with its entries ordered by worker
func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*streams.Plan, error) {
	var row planRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, label, layout, worker_count, created_at
		FROM stream_plans
		WHERE id = ?
	`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("plan " + id.String())
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to load plan"))
	}

	return r.hydrate(ctx, row)
}

// List returns plans newest first
func (r *PlanRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*streams.Plan, error) {
	var rows []planRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, label, layout, worker_count, created_at
		FROM stream_plans
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list plans"))
	}

	plans := make([]*streams.Plan, 0, len(rows))
	for _, row := range rows {
		plan, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (r *PlanRepositoryImpl) hydrate(ctx context.Context, row planRow) (*streams.Plan, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "stored plan id %q is not a UUID", row.ID))
	}

	var entries []entryRow
	err = r.db.SelectContext(ctx, &entries, r.db.Rebind(`
		SELECT plan_id, worker, seed, stream
		FROM stream_plan_entries
		WHERE plan_id = ?
		ORDER BY worker
	`), row.ID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to load plan entries"))
	}
	if len(entries) != row.WorkerCount {
		return nil, errors.DatabaseError("plan " + row.ID + " has " + strconv.Itoa(len(entries)) + " entries, expected " + strconv.Itoa(row.WorkerCount))
	}

	plan := &streams.Plan{
		ID:        id,
		Label:     row.Label,
		Layout:    row.Layout,
		Entries:   make([]streams.Entry, len(entries)),
		CreatedAt: row.CreatedAt.UTC(),
	}
	for i, e := range entries {
		s, err := strconv.ParseUint(e.Seed, 10, 64)
		if err != nil {
			return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "stored seed %q is not a uint64", e.Seed))
		}
		plan.Entries[i] = streams.Entry{Worker: e.Worker, Seed: s, Stream: int(e.Stream)}
	}
	return plan, nil
}
