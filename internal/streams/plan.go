package streams

import (
	"math/rand/v2"
	"time"

	"pcgstreams/internal/pcg"
	"pcgstreams/internal/seed"

	"github.com/google/uuid"
)

// Layouts recorded on plans built from a master seed.
const (
	LayoutExplicit = "explicit"
	LayoutSplit    = "split"
	LayoutDerived  = "derived"
)

// Entry pairs one worker with its converted seed and stream index.
type Entry struct {
	Worker int    `json:"worker" db:"worker"`
	Seed   uint64 `json:"seed,string" db:"-"`
	Stream int    `json:"stream" db:"stream"`
}

// Plan is a validated set of generator parameters, one entry per worker.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Layout    string    `json:"layout"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGenerator converts v and returns the pcg32 generator for it on the
// given stream. Conversion errors are returned unchanged.
func CreateGenerator(conv seed.Converter, v seed.Value, stream int) (*pcg.PCG32, error) {
	if conv == nil {
		conv = seed.Default
	}

	s, err := conv.Convert(v)
	if err != nil {
		return nil, err
	}

	return pcg.New(s, streamIndex(stream)), nil
}

// NewPlan validates the seed and stream vectors against n and converts every
// seed. Nothing is returned unless all n entries are valid.
func NewPlan(label string, n int, seeds []seed.Value, streamIdx []int, conv seed.Converter) (*Plan, error) {
	if err := CheckPlanVectors(seeds, streamIdx, n, label); err != nil {
		return nil, err
	}
	if conv == nil {
		conv = seed.Default
	}

	entries := make([]Entry, n)
	for i := range entries {
		s, err := conv.Convert(seeds[i])
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Worker: i, Seed: s, Stream: streamIdx[i]}
	}

	return newPlan(label, LayoutExplicit, entries), nil
}

// SplitPlan gives every worker the master seed on its own stream 0..n-1.
func SplitPlan(label string, master uint64, n int) *Plan {
	entries := make([]Entry, max(n, 0))
	for i := range entries {
		entries[i] = Entry{Worker: i, Seed: master, Stream: i}
	}
	return newPlan(label, LayoutSplit, entries)
}

// DerivedPlan gives every worker a seed derived from master on stream
// 0..n-1.
func DerivedPlan(label string, master uint64, n int) *Plan {
	seeds := seed.Derive(master, n)
	entries := make([]Entry, len(seeds))
	for i, s := range seeds {
		entries[i] = Entry{Worker: i, Seed: s, Stream: i}
	}
	return newPlan(label, LayoutDerived, entries)
}

func newPlan(label, layout string, entries []Entry) *Plan {
	return &Plan{
		ID:        uuid.New(),
		Label:     label,
		Layout:    layout,
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
	}
}

// Count returns the number of workers in the plan.
func (p *Plan) Count() int {
	return len(p.Entries)
}

// Generators builds one fresh generator per entry.
func (p *Plan) Generators() []*pcg.PCG32 {
	gens := make([]*pcg.PCG32, len(p.Entries))
	for i, e := range p.Entries {
		gens[i] = pcg.New(e.Seed, streamIndex(e.Stream))
	}
	return gens
}

// Sources wraps Generators in *rand.Rand.
func (p *Plan) Sources() []*rand.Rand {
	gens := p.Generators()
	out := make([]*rand.Rand, len(gens))
	for i, g := range gens {
		out[i] = rand.New(g)
	}
	return out
}

// Draws returns count Uint32 outputs per worker.
func (p *Plan) Draws(count int) [][]uint32 {
	gens := p.Generators()
	out := make([][]uint32, len(gens))
	for i, g := range gens {
		out[i] = make([]uint32, max(count, 0))
		for j := range out[i] {
			out[i][j] = g.Uint32()
		}
	}
	return out
}

// NewGenerators validates, converts and constructs in one step.
func NewGenerators(n int, seeds []seed.Value, streamIdx []int, label string, conv seed.Converter) ([]*pcg.PCG32, error) {
	p, err := NewPlan(label, n, seeds, streamIdx, conv)
	if err != nil {
		return nil, err
	}
	return p.Generators(), nil
}

// streamIndex reinterprets a host integer as an unsigned stream index.
func streamIndex(stream int) uint64 {
	return uint64(int64(stream))
}
