// Package pcg implements the pcg32 generator (PCG-XSH-RR with 64-bit state
// and 32-bit output) as defined in
//
//	PCG: A Family of Simple Fast Space-Efficient Statistically Good
//	Algorithms for Random Number Generation
//	Melissa E. O'Neill, Harvey Mudd College
//	https://www.pcg-random.org/pdf/hmc-cs-2014-0905.pdf
//
// A generator is selected by a seed and a stream index. Generators built with
// different stream indices produce independent sequences even when they
// share a seed, which is how parallel workers get their own generator.
package pcg

import (
	"math/bits"
	"math/rand/v2"
)

const (
	multiplier uint64 = 6364136223846793005

	// DefaultStream is the stream used when a caller has no stream index. It
	// yields the reference increment 1442695040888963407.
	DefaultStream uint64 = 1442695040888963407 >> 1
)

// PCG32 is a pcg32 generator. The zero value is not useful; use New.
// A PCG32 is not safe for concurrent use; see Locked.
type PCG32 struct {
	state uint64
	inc   uint64
}

// type check
var _ rand.Source = (*PCG32)(nil)

// New returns a generator seeded with seed on the given stream.
func New(seed, stream uint64) *PCG32 {
	g := &PCG32{inc: stream<<1 | 1}
	g.state = (seed+g.inc)*multiplier + g.inc
	return g
}

// Seed resets g to the state New(seed, stream) would produce.
func (g *PCG32) Seed(seed, stream uint64) {
	*g = *New(seed, stream)
}

// Stream returns the stream index g was constructed with.
func (g *PCG32) Stream() uint64 {
	return g.inc >> 1
}

// State returns the raw state and increment.
func (g *PCG32) State() (state, inc uint64) {
	return g.state, g.inc
}

// Equal reports whether g and other will produce the same sequence.
func (g *PCG32) Equal(other *PCG32) bool {
	return g.state == other.state && g.inc == other.inc
}

// Clone returns an independent copy of g.
func (g *PCG32) Clone() *PCG32 {
	c := *g
	return &c
}

// Uint32 returns the next 32-bit output. The output permutes the state from
// before the step.
func (g *PCG32) Uint32() uint32 {
	old := g.state
	g.state = old*multiplier + g.inc

	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := int(old >> 59)
	return bits.RotateLeft32(xorshifted, -rot)
}

// Uint64 joins two consecutive outputs, high word first.
func (g *PCG32) Uint64() uint64 {
	hi := uint64(g.Uint32())
	lo := uint64(g.Uint32())
	return hi<<32 | lo
}

// Uint32n returns a uniform value in [0, bound) without modulo bias.
// A zero bound returns 0 and does not advance the generator.
func (g *PCG32) Uint32n(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}

	threshold := -bound % bound
	for {
		r := g.Uint32()
		if r >= threshold {
			return r % bound
		}
	}
}

// Advance jumps the generator delta steps ahead in O(log delta) time.
// Advance(d) leaves g as d calls to Uint32 would.
func (g *PCG32) Advance(delta uint64) {
	g.state = advanceLCG(g.state, delta, multiplier, g.inc)
}

// Backstep moves the generator delta steps back.
func (g *PCG32) Backstep(delta uint64) {
	g.Advance(-delta)
}

// Distance returns how many steps g must advance to reach other. It returns
// false when the generators are on different streams.
func (g *PCG32) Distance(other *PCG32) (uint64, bool) {
	if g.inc != other.inc {
		return 0, false
	}

	cur, target := g.state, other.state
	curMult, curPlus := multiplier, g.inc
	bit := uint64(1)
	var dist uint64
	for cur != target {
		if cur&bit != target&bit {
			cur = cur*curMult + curPlus
			dist |= bit
		}
		bit <<= 1
		curPlus = (curMult + 1) * curPlus
		curMult *= curMult
	}

	return dist, true
}

// advanceLCG applies an LCG step delta times using Brown's
// "Random Number Generation with Arbitrary Stride".
func advanceLCG(state, delta, mult, plus uint64) uint64 {
	accMult, accPlus := uint64(1), uint64(0)
	for delta > 0 {
		if delta&1 != 0 {
			accMult *= mult
			accPlus = accPlus*mult + plus
		}
		plus = (mult + 1) * plus
		mult *= mult
		delta >>= 1
	}
	return accMult*state + accPlus
}
