package ports

import (
	"context"
	"math/rand/v2"

	"pcgstreams/internal/seed"
)

// StreamRequest asks for Count parallel generators, one per seed/stream pair.
// Label names the counted entity in length mismatch errors.
type StreamRequest struct {
	Label   string
	Count   int
	Seeds   []seed.Value
	Streams []int
}

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// Streams validates the request and returns one independent generator per
	// entry; either all Count generators are returned or none
	Streams(ctx context.Context, req StreamRequest) ([]*rand.Rand, error)
}
