// Package partition splits a cleaned training table into train and test sets.
//
// Rows are optionally truncated to the first Limit rows, permuted with a
// seeded PCG generator, and assigned by shuffled position: position i goes
// to train iff float64(i) < float64(n-1)*TrainFraction. Predictor and target
// tables of one side share row order.
package partition

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/go-gota/gota/dataframe"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/frame"
	"github.com/orihuela-iom/fare-taxi-prediction/pkg/trip"
)

// Defaults for Options.
const (
	DefaultSeed          uint64  = 2024
	DefaultTrainFraction float64 = 0.8
)

// Target is the column predicted by the downstream model.
const Target = trip.ColFareAmount

// excludedPredictors never appear in a predictor table.
var excludedPredictors = []string{trip.ColFareAmount, trip.ColFarePerDistance}

// Options configures Split.
type Options struct {
	// Limit keeps only the first Limit rows before shuffling; 0 keeps all.
	Limit int
	// TrainFraction is the share of rows sent to train, in (0,1).
	TrainFraction float64
	// Seed drives the permutation.
	Seed uint64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{TrainFraction: DefaultTrainFraction, Seed: DefaultSeed}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if !(o.TrainFraction > 0 && o.TrainFraction < 1) {
		return errhandling.NewConfigError(fmt.Sprintf("train fraction must be in (0,1), got %v", o.TrainFraction), nil)
	}
	if o.Limit < 0 {
		return errhandling.NewConfigError(fmt.Sprintf("row limit must not be negative, got %d", o.Limit), nil)
	}
	return nil
}

// Partitions holds the four tables of a split.
type Partitions struct {
	XTrain dataframe.DataFrame
	YTrain dataframe.DataFrame
	XTest  dataframe.DataFrame
	YTest  dataframe.DataFrame
}

// TrainRows returns the number of train rows.
func (p *Partitions) TrainRows() int { return p.YTrain.Nrow() }

// TestRows returns the number of test rows.
func (p *Partitions) TestRows() int { return p.YTest.Nrow() }

// Permutation returns the deterministic shuffle of 0..n-1 for seed.
func Permutation(n int, seed uint64) []int {
	r := rand.New(rand.NewPCG(seed, seed))
	return r.Perm(n)
}

// TrainCount returns how many of n shuffled positions go to train.
func TrainCount(n int, fraction float64) int {
	threshold := float64(n-1) * fraction
	count := 0
	for i := 0; i < n && float64(i) < threshold; i++ {
		count++
	}
	return count
}

// Split shuffles df and splits it into predictor and target tables.
func Split(ctx context.Context, df dataframe.DataFrame, opts Options) (*Partitions, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if df.Err != nil {
		return nil, fmt.Errorf("splitting invalid table: %w", df.Err)
	}
	if err := frame.RequireColumns(df, Target); err != nil {
		return nil, err
	}

	df, err := frame.FromDataFrame(df).Pipe(frame.Head(opts.Limit)).Collect(ctx)
	if err != nil {
		return nil, err
	}

	n := df.Nrow()
	shuffled := df.Subset(Permutation(n, opts.Seed))
	if shuffled.Err != nil {
		return nil, fmt.Errorf("shuffling rows: %w", shuffled.Err)
	}

	k := TrainCount(n, opts.TrainFraction)
	train := shuffled.Subset(span(0, k))
	test := shuffled.Subset(span(k, n))
	if train.Err != nil || test.Err != nil {
		return nil, fmt.Errorf("partitioning rows: %v %v", train.Err, test.Err)
	}

	return &Partitions{
		XTrain: frame.DropColumns(train, excludedPredictors...),
		YTrain: train.Select([]string{Target}),
		XTest:  frame.DropColumns(test, excludedPredictors...),
		YTest:  test.Select([]string{Target}),
	}, nil
}

func span(from, to int) []int {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return idx
}
