package testkit

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"

	"pcgstreams/adapters/rng"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/pcg"
	"pcgstreams/internal/seed"
	"pcgstreams/internal/streams"
	"pcgstreams/ports"

	"github.com/google/uuid"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	plans *InMemoryPlanRepository // Shared plan ledger
	rng   *rng.PCGAdapter
}

// NewTestKit creates a test kit with an empty in-memory ledger
func NewTestKit() *TestKit {
	return &TestKit{
		plans: NewInMemoryPlanRepository(),
		rng:   rng.NewPCGAdapter(nil),
	}
}

// PlanRepository returns the shared in-memory plan ledger
func (t *TestKit) PlanRepository() *InMemoryPlanRepository {
	return t.plans
}

// RNGAdapter returns the pcg32 stream adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// SplitRequest builds a permutation request where every worker uses master
// on its own stream
func SplitRequest(x, y []float64, workers int, master uint64) ports.PermutationRequest {
	seeds := make([]seed.Value, workers)
	streamIdx := make([]int, workers)
	for i := range seeds {
		seeds[i] = seed.Numeric{float64(master)}
		streamIdx[i] = i
	}
	return ports.PermutationRequest{X: x, Y: y, Workers: workers, Seeds: seeds, Streams: streamIdx}
}

// LinearSample returns n nearly collinear pairs
func LinearSample(n int) ([]float64, []float64) {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = float64(i) + float64(i%10)*0.1
	}
	return x, y
}

// NoiseSample returns n independent standard normal pairs drawn from one
// pcg32 stream
func NoiseSample(n int, s, stream uint64) ([]float64, []float64) {
	src := rand.New(pcg.New(s, stream))
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = src.NormFloat64()
		y[i] = src.NormFloat64()
	}
	return x, y
}

// InMemoryPlanRepository implements PlanRepository with in-memory storage
type InMemoryPlanRepository struct {
	plans map[uuid.UUID]*streams.Plan
	mu    sync.RWMutex
}

// NewInMemoryPlanRepository creates an empty ledger
func NewInMemoryPlanRepository() *InMemoryPlanRepository {
	return &InMemoryPlanRepository{plans: make(map[uuid.UUID]*streams.Plan)}
}

// type check
var _ ports.PlanRepository = (*InMemoryPlanRepository)(nil)

func (s *InMemoryPlanRepository) Save(ctx context.Context, plan *streams.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.ID]; exists {
		return errors.DatabaseError("plan " + plan.ID.String() + " already exists")
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *InMemoryPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*streams.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, errors.NotFound("plan " + id.String())
	}
	return clonePlan(plan), nil
}

func (s *InMemoryPlanRepository) List(ctx context.Context, limit, offset int) ([]*streams.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*streams.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		all = append(all, clonePlan(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	if offset >= len(all) {
		return []*streams.Plan{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

// Len returns the number of stored plans
func (s *InMemoryPlanRepository) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

func clonePlan(p *streams.Plan) *streams.Plan {
	c := *p
	c.Entries = append([]streams.Entry(nil), p.Entries...)
	return &c
}
