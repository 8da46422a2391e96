package battery

import (
	"context"
	"math"

	"pcgstreams/internal"
	"pcgstreams/internal/errors"
	"pcgstreams/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// WorkerLabel names the parallel entity in seed/stream length errors
const WorkerLabel = "workers"

// PermutationReferee tests a Pearson correlation by permuting x across
// parallel workers, each drawing from its own pcg32 stream
type PermutationReferee struct {
	rngPort     ports.RNGPort
	numShuffles int // Number of permutations to perform (default: 1000)
	alpha       float64
	logger      *internal.Logger
}

// NewPermutationReferee creates a new permutation referee with default settings
func NewPermutationReferee(rngPort ports.RNGPort) *PermutationReferee {
	return &PermutationReferee{
		rngPort:     rngPort,
		numShuffles: 1000,
		alpha:       0.05,
		logger:      internal.DefaultLogger,
	}
}

// type check
var _ ports.BatteryPort = (*PermutationReferee)(nil)

// SetNumShuffles configures the number of permutation shuffles, clamped to [100, 100000]
func (pr *PermutationReferee) SetNumShuffles(num int) {
	pr.numShuffles = min(max(num, 100), 100000)
	if pr.numShuffles != num {
		pr.logger.Warn("[PermutationReferee] %d shuffles clamped to %d", num, pr.numShuffles)
	}
}

// NumShuffles returns the configured number of shuffles
func (pr *PermutationReferee) NumShuffles() int {
	return pr.numShuffles
}

// Run performs the permutation test. Worker w computes shuffles w, w+W,
// w+2W and so on, so the null distribution depends only on the seeds and
// streams, not on goroutine scheduling.
func (pr *PermutationReferee) Run(ctx context.Context, req ports.PermutationRequest) (*ports.PermutationResult, error) {
	if len(req.X) != len(req.Y) {
		return nil, errors.InvalidInput("x and y must have the same length")
	}
	if len(req.X) < 3 {
		return nil, errors.InvalidInput("at least 3 observations are required")
	}
	if req.Workers < 1 {
		return nil, errors.InvalidInput("workers must be positive")
	}

	observed := stat.Correlation(req.X, req.Y, nil)
	if math.IsNaN(observed) {
		return nil, errors.InvalidInput("correlation is undefined for constant data")
	}

	sources, err := pr.rngPort.Streams(ctx, ports.StreamRequest{
		Label:   WorkerLabel,
		Count:   req.Workers,
		Seeds:   req.Seeds,
		Streams: req.Streams,
	})
	if err != nil {
		return nil, err
	}

	null := make([]float64, pr.numShuffles)
	g, gctx := errgroup.WithContext(ctx)
	for w, rng := range sources {
		g.Go(func() error {
			shuffled := make([]float64, len(req.X))
			for i := w; i < len(null); i += len(sources) {
				if err := gctx.Err(); err != nil {
					return err
				}
				copy(shuffled, req.X)
				rng.Shuffle(len(shuffled), func(a, b int) {
					shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
				})
				null[i] = stat.Correlation(shuffled, req.Y, nil)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := summarize(null)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize null distribution")
	}

	absObserved := math.Abs(observed)
	extreme, below := 0, 0
	for _, v := range null {
		if math.Abs(v) >= absObserved {
			extreme++
		}
		if math.Abs(v) <= absObserved {
			below++
		}
	}

	// The observed labelling counts as one permutation.
	pValue := float64(extreme+1) / float64(len(null)+1)

	status := ports.StatusNotSignificant
	if pValue < pr.alpha {
		status = ports.StatusSignificant
	}

	pr.logger.Debug("[PermutationReferee] r=%.4f p=%.4f over %d shuffles on %d workers", observed, pValue, len(null), len(sources))

	return &ports.PermutationResult{
		Status:          status,
		Observed:        observed,
		PValue:          pValue,
		NullPercentile:  float64(below) / float64(len(null)),
		NumPermutations: len(null),
		Workers:         len(sources),
		Null:            summary,
	}, nil
}

func summarize(null []float64) (ports.NullSummary, error) {
	var s ports.NullSummary
	var err error

	data := stats.Float64Data(null)
	if s.Mean, err = data.Mean(); err != nil {
		return s, err
	}
	if s.StdDev, err = data.StandardDeviationSample(); err != nil {
		return s, err
	}
	if s.Min, err = data.Min(); err != nil {
		return s, err
	}
	if s.Max, err = data.Max(); err != nil {
		return s, err
	}
	if s.Percentile95, err = data.Percentile(95); err != nil {
		return s, err
	}
	if s.Percentile99, err = data.Percentile(99); err != nil {
		return s, err
	}
	return s, nil
}
