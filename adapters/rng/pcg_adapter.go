package rng

import (
	"context"
	"math/rand/v2"

	"pcgstreams/internal"
	"pcgstreams/internal/pcg"
	"pcgstreams/internal/seed"
	"pcgstreams/internal/streams"
	"pcgstreams/ports"
)

// DefaultLabel is used in length mismatch errors when a request has no label
const DefaultLabel = "workers"

// PCGAdapter implements ports.RNGPort with pcg32 generators
type PCGAdapter struct {
	conv   seed.Converter
	logger *internal.Logger
}

// NewPCGAdapter creates an adapter; a nil converter selects seed.Default
func NewPCGAdapter(conv seed.Converter) *PCGAdapter {
	if conv == nil {
		conv = seed.Default
	}
	return &PCGAdapter{conv: conv, logger: internal.DefaultLogger}
}

// type check
var _ ports.RNGPort = (*PCGAdapter)(nil)

// SeededStream creates a deterministic generator whose stream is derived from
// name. The generator may be shared between goroutines.
func (a *PCGAdapter) SeededStream(ctx context.Context, name string, s uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(pcg.NewLocked(pcg.New(s, NameStream(name)))), nil
}

// Streams validates the request and builds one generator per worker
func (a *PCGAdapter) Streams(ctx context.Context, req ports.StreamRequest) ([]*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := req.Label
	if label == "" {
		label = DefaultLabel
	}

	plan, err := streams.NewPlan(label, req.Count, req.Seeds, req.Streams, a.conv)
	if err != nil {
		a.logger.Debug("[PCGAdapter] rejected %d %s: %v", req.Count, label, err)
		return nil, err
	}

	a.logger.Trace("[PCGAdapter] built %d %s streams", plan.Count(), label)
	return plan.Sources(), nil
}

// NameStream hashes an operation name into a stream index (djb2)
func NameStream(name string) uint64 {
	var hash uint64 = 5381
	for _, c := range name {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}
