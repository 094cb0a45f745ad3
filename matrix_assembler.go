package osm2ttm

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MatrixAssembler runs mode computers in fixed order (walk, bike, car, pt) and
// left-joins their columns into one matrix
type MatrixAssembler struct {
	computers  []ModeMatrixComputer
	concurrent bool
}

func NewMatrixAssembler(computers []ModeMatrixComputer, options ...func(*MatrixAssembler)) (*MatrixAssembler, error) {
	if len(computers) == 0 {
		return nil, newConfigurationError("no transport modes to compute")
	}
	assembler := &MatrixAssembler{
		computers: append([]ModeMatrixComputer(nil), computers...),
	}
	sort.SliceStable(assembler.computers, func(i, j int) bool {
		return assembler.computers[i].Mode() < assembler.computers[j].Mode()
	})
	for i := 1; i < len(assembler.computers); i++ {
		if assembler.computers[i].Mode() == assembler.computers[i-1].Mode() {
			return nil, newConfigurationError("mode '%s' is given twice", assembler.computers[i].Mode())
		}
	}
	for _, option := range options {
		option(assembler)
	}
	return assembler, nil
}

// WithConcurrency makes modes after the first one run in parallel
func WithConcurrency(concurrent bool) func(*MatrixAssembler) {
	return func(assembler *MatrixAssembler) {
		assembler.concurrent = concurrent
	}
}

// Columns returns names of final matrix columns in order
func (assembler *MatrixAssembler) Columns() []string {
	columns := []string{}
	for _, computer := range assembler.computers {
		columns = append(columns, computer.Columns()...)
	}
	return columns
}

// Validate checks every mode computer and column names. No routing is done.
func (assembler *MatrixAssembler) Validate() error {
	seen := make(map[string]TransportMode)
	for _, computer := range assembler.computers {
		if err := computer.Validate(); err != nil {
			return errors.Wrapf(err, "Mode '%s' is misconfigured", computer.Mode())
		}
		for _, column := range computer.Columns() {
			if mode, ok := seen[column]; ok {
				return newConfigurationError("column '%s' is produced by both '%s' and '%s'", column, mode, computer.Mode())
			}
			seen[column] = computer.Mode()
		}
	}
	return nil
}

// Assemble validates configuration, then computes every mode and joins results
func (assembler *MatrixAssembler) Assemble(ctx context.Context) (*TravelTimeMatrix, error) {
	if err := assembler.Validate(); err != nil {
		return nil, err
	}
	st := time.Now()
	partials := make([]*TravelTimeMatrix, len(assembler.computers))

	// First mode (walking when present) always runs alone
	first, err := assembler.compute(ctx, assembler.computers[0])
	if err != nil {
		return nil, err
	}
	partials[0] = first

	rest := assembler.computers[1:]
	if assembler.concurrent {
		group, groupCtx := errgroup.WithContext(ctx)
		for i, computer := range rest {
			i, computer := i, computer
			group.Go(func() error {
				partial, err := assembler.compute(groupCtx, computer)
				if err != nil {
					return err
				}
				partials[i+1] = partial
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, computer := range rest {
			partial, err := assembler.compute(ctx, computer)
			if err != nil {
				return nil, err
			}
			partials[i+1] = partial
		}
	}

	result := partials[0]
	for i := 1; i < len(partials); i++ {
		if err := result.LeftJoin(partials[i]); err != nil {
			return nil, errors.Wrapf(err, "Can't join '%s' travel times", assembler.computers[i].Mode())
		}
	}
	log.Infof("Assembled travel time matrix: %d pairs, %d columns. Done in %v", result.Len(), len(result.Columns()), time.Since(st))
	return result, nil
}

func (assembler *MatrixAssembler) compute(ctx context.Context, computer ModeMatrixComputer) (*TravelTimeMatrix, error) {
	log.WithField("mode", computer.Mode()).Info("Computing travel times")
	matrix, err := computer.Compute(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't compute '%s' travel times", computer.Mode())
	}
	return matrix, nil
}
