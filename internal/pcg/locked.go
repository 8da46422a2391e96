package pcg

import (
	"math/rand/v2"
	"sync"
)

// Locked is a [rand.Source] over a single PCG32 that is safe for concurrent
// use. Callers that own one generator per goroutine should use *PCG32
// directly.
type Locked struct {
	// mu protects gen.
	mu *sync.Mutex

	gen *PCG32
}

// NewLocked returns a new properly initialized *Locked wrapping gen.
func NewLocked(gen *PCG32) (l *Locked) {
	return &Locked{
		mu:  &sync.Mutex{},
		gen: gen,
	}
}

// type check
var _ rand.Source = (*Locked)(nil)

// Uint64 implements the [rand.Source] interface for *Locked.
func (l *Locked) Uint64() (r uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gen.Uint64()
}

// Uint32 returns the next 32-bit output of the wrapped generator.
func (l *Locked) Uint32() (r uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gen.Uint32()
}
