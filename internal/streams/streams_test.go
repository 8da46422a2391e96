package streams

import (
	"strings"
	"testing"

	"pcgstreams/internal/errors"
	"pcgstreams/internal/pcg"
	"pcgstreams/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVectors(t *testing.T) {
	tests := []struct {
		name        string
		seeds       int
		streams     int
		expected    int
		label       string
		wantMessage string
	}{
		{name: "matching lengths", seeds: 4, streams: 4, expected: 4, label: "workers"},
		{name: "empty", seeds: 0, streams: 0, expected: 0, label: "workers"},
		{name: "short streams", seeds: 3, streams: 2, expected: 3, label: "workers", wantMessage: "number of workers and streams should be the same"},
		{name: "short seeds", seeds: 2, streams: 3, expected: 3, label: "chains", wantMessage: "number of chains and seeds should be the same"},
		{name: "both wrong reports seeds", seeds: 1, streams: 5, expected: 3, label: "cells", wantMessage: "number of cells and seeds should be the same"},
		{name: "long seeds", seeds: 4, streams: 3, expected: 3, label: "cores", wantMessage: "number of cores and seeds should be the same"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVectors(tt.seeds, tt.streams, tt.expected, tt.label)
			if tt.wantMessage == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMessage, err.Error())
			assert.True(t, errors.IsLengthMismatch(err))
		})
	}
}

func TestCheckVectors_Properties(t *testing.T) {
	for n := 0; n <= 8; n++ {
		assert.NoError(t, CheckVectors(n, n, n, "workers"))

		for other := 0; other <= 8; other++ {
			if other == n {
				continue
			}
			for streams := 0; streams <= 8; streams++ {
				err := CheckVectors(other, streams, n, "workers")
				require.Error(t, err)
				assert.Equal(t, "number of workers and seeds should be the same", err.Error())
			}

			err := CheckVectors(n, other, n, "workers")
			require.Error(t, err)
			assert.Equal(t, "number of workers and streams should be the same", err.Error())
		}
	}
}

func TestCheckVectors_Idempotent(t *testing.T) {
	first := CheckVectors(3, 2, 3, "workers")
	for i := 0; i < 5; i++ {
		again := CheckVectors(3, 2, 3, "workers")
		assert.Equal(t, first, again)
	}
	assert.Nil(t, CheckVectors(0, 0, 0, "workers"))
}

func TestCheckPlanVectors(t *testing.T) {
	err := CheckPlanVectors([]seed.Value{seed.Numeric{1}}, []int{0, 1}, 1, "chains")
	require.Error(t, err)
	assert.Equal(t, "number of chains and streams should be the same", err.Error())
}

func TestCheckLabel(t *testing.T) {
	assert.NoError(t, CheckLabel("chains"))
	assert.NoError(t, CheckLabel(strings.Repeat("é", MaxLabelLength)))

	for _, label := range []string{"", strings.Repeat("w", MaxLabelLength+1)} {
		err := CheckLabel(label)
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	}
}

func TestCreateGenerator(t *testing.T) {
	g, err := CreateGenerator(nil, seed.Numeric{42}, 54)
	require.NoError(t, err)
	assert.True(t, g.Equal(pcg.New(42, 54)))

	_, err = CreateGenerator(seed.Default, seed.Text("nope"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsSeedConversion(err))
}

func TestNewPlan(t *testing.T) {
	seeds := []seed.Value{seed.Numeric{1}, seed.Text("2"), seed.Integers{0, 3}}
	p, err := NewPlan("workers", 3, seeds, []int{10, 11, -1}, nil)
	require.NoError(t, err)

	assert.Equal(t, "workers", p.Label)
	assert.Equal(t, LayoutExplicit, p.Layout)
	assert.Equal(t, 3, p.Count())
	assert.Equal(t, []Entry{
		{Worker: 0, Seed: 1, Stream: 10},
		{Worker: 1, Seed: 2, Stream: 11},
		{Worker: 2, Seed: 3, Stream: -1},
	}, p.Entries)

	gens := p.Generators()
	require.Len(t, gens, 3)
	assert.True(t, gens[0].Equal(pcg.New(1, 10)))
	assert.Equal(t, ^uint64(0), gens[2].Stream())
}

func TestNewPlan_AllOrNothing(t *testing.T) {
	conv := &countingConverter{}
	seeds := []seed.Value{seed.Numeric{1}, seed.Numeric{2}}

	p, err := NewPlan("workers", 3, seeds, []int{0, 1, 2}, conv)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Zero(t, conv.calls, "no seed is converted before validation passes")

	gens, err := NewGenerators(3, []seed.Value{seed.Numeric{1}, seed.Text("bad"), seed.Numeric{3}}, []int{0, 1, 2}, "workers", nil)
	require.Error(t, err)
	assert.Nil(t, gens)
	assert.Equal(t, `invalid seed string "bad"`, err.Error())
}

func TestNewPlan_ZeroWorkers(t *testing.T) {
	p, err := NewPlan("workers", 0, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Generators())
}

func TestSplitPlan(t *testing.T) {
	p := SplitPlan("chains", 99, 4)
	require.Equal(t, 4, p.Count())
	for i, e := range p.Entries {
		assert.Equal(t, uint64(99), e.Seed)
		assert.Equal(t, i, e.Stream)
	}
	assert.Equal(t, LayoutSplit, p.Layout)
	assert.NotEqual(t, p.Draws(4)[0], p.Draws(4)[1])
	assert.Empty(t, SplitPlan("chains", 1, -2).Entries)
}

func TestDerivedPlan(t *testing.T) {
	p := DerivedPlan("workers", 5, 3)
	want := seed.Derive(5, 3)
	for i, e := range p.Entries {
		assert.Equal(t, want[i], e.Seed)
		assert.Equal(t, i, e.Stream)
	}
}

func TestPlan_DrawsAreReproducible(t *testing.T) {
	p := SplitPlan("workers", 42, 2)
	first := p.Draws(8)
	second := p.Draws(8)
	assert.Equal(t, first, second)

	srcs := p.Sources()
	require.Len(t, srcs, 2)
	ref := pcg.New(42, 1)
	assert.Equal(t, ref.Uint64(), srcs[1].Uint64())
}

type countingConverter struct {
	calls int
}

func (c *countingConverter) Convert(v seed.Value) (uint64, error) {
	c.calls++
	return seed.Default.Convert(v)
}
