// Package frame provides a lazily evaluated table over gota dataframes.
//
// A LazyFrame is a source plus an ordered list of stages. Building a frame
// performs no I/O and no computation; work happens once, in Collect.
// Stages never mutate their input: each returns a new dataframe.
package frame

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// SourceFunc materializes the initial table of a LazyFrame.
type SourceFunc func(ctx context.Context) (dataframe.DataFrame, error)

// Stage is one pure transformation of a table.
type Stage interface {
	// Name identifies the stage in logs and execution results.
	Name() string

	// Process returns a new table derived from df. It must not modify df.
	Process(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error)
}

// StageReport describes one executed step of Collect. The source is
// reported with Index -1 and Name "scan".
type StageReport struct {
	Index    int
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	Err      error
}

// Observer receives a report after the source and after every stage.
type Observer func(StageReport)

// ScanStageName is the name reported for the source step.
const ScanStageName = "scan"

// LazyFrame is an immutable logical plan: a source and the stages applied to it.
type LazyFrame struct {
	source SourceFunc
	stages []Stage
}

// Scan creates a LazyFrame reading from src. Nothing is read until Collect.
func Scan(src SourceFunc) *LazyFrame {
	return &LazyFrame{source: src}
}

// FromDataFrame wraps an already materialized table.
func FromDataFrame(df dataframe.DataFrame) *LazyFrame {
	return Scan(func(context.Context) (dataframe.DataFrame, error) {
		return df, nil
	})
}

// Pipe returns a new LazyFrame with stages appended. The receiver is unchanged,
// so a frame can be shared as the prefix of several plans.
func (lf *LazyFrame) Pipe(stages ...Stage) *LazyFrame {
	next := make([]Stage, 0, len(lf.stages)+len(stages))
	next = append(next, lf.stages...)
	next = append(next, stages...)
	return &LazyFrame{source: lf.source, stages: next}
}

// Plan returns the stage names in execution order.
func (lf *LazyFrame) Plan() []string {
	names := make([]string, len(lf.stages))
	for i, s := range lf.stages {
		names[i] = s.Name()
	}
	return names
}

// Collect executes the plan and returns the materialized table.
func (lf *LazyFrame) Collect(ctx context.Context, observers ...Observer) (dataframe.DataFrame, error) {
	notify := func(r StageReport) {
		for _, o := range observers {
			o(r)
		}
	}

	start := time.Now()
	df, err := lf.source(ctx)
	if err == nil && df.Err != nil {
		err = df.Err
	}
	notify(StageReport{Index: -1, Name: ScanStageName, RowsOut: rowsOf(df, err), Duration: time.Since(start), Err: err})
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	for i, stage := range lf.stages {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, err
		}

		rowsIn := df.Nrow()
		start = time.Now()
		out, err := stage.Process(ctx, df)
		if err == nil && out.Err != nil {
			err = fmt.Errorf("%s: %w", stage.Name(), out.Err)
		}
		notify(StageReport{
			Index:    i,
			Name:     stage.Name(),
			RowsIn:   rowsIn,
			RowsOut:  rowsOf(out, err),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("executing stage %d (%s): %w", i, stage.Name(), err)
		}
		df = out
	}

	return df, nil
}

func rowsOf(df dataframe.DataFrame, err error) int {
	if err != nil {
		return 0
	}
	return df.Nrow()
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error)
}

// Name implements Stage.
func (s StageFunc) Name() string { return s.StageName }

// Process implements Stage.
func (s StageFunc) Process(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return s.Fn(ctx, df)
}

// Head keeps the first n rows. n <= 0 keeps everything.
func Head(n int) Stage {
	return StageFunc{
		StageName: "head",
		Fn: func(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
			if n <= 0 || df.Nrow() <= n {
				return df, nil
			}
			idx := make([]int, n)
			for i := range idx {
				idx[i] = i
			}
			return df.Subset(idx), nil
		},
	}
}
