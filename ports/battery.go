package ports

import (
	"context"

	"pcgstreams/internal/seed"
)

// BatteryPort runs permutation tests over parallel generator streams
type BatteryPort interface {
	Run(ctx context.Context, req PermutationRequest) (*PermutationResult, error)
}

// PermutationRequest holds paired observations and one seed/stream pair per worker
type PermutationRequest struct {
	X       []float64
	Y       []float64
	Workers int
	Seeds   []seed.Value
	Streams []int
}

// Status is the outcome of a permutation test
type Status string

const (
	StatusSignificant    Status = "significant"
	StatusNotSignificant Status = "not_significant"
)

// NullSummary describes the permutation null distribution
type NullSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile95 float64 `json:"p95"`
	Percentile99 float64 `json:"p99"`
}

// PermutationResult contains the outcome of a permutation test
type PermutationResult struct {
	Status          Status      `json:"status"`
	Observed        float64     `json:"observed"`
	PValue          float64     `json:"p_value"`
	NullPercentile  float64     `json:"null_percentile"`
	NumPermutations int         `json:"num_permutations"`
	Workers         int         `json:"workers"`
	Null            NullSummary `json:"null"`
}
