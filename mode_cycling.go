package osm2ttm

import (
	"context"
)

// CyclingMatrixComputer computes cycling travel times, one column per cycling speed.
// Every speed gets its own network annotated with per-way speeds scaled from it.
type CyclingMatrixComputer struct {
	modeComputer
	measured *CyclingSpeeds
}

func NewCyclingMatrixComputer(inputs ComputationInputs, settings ComputationSettings, options ...func(*CyclingMatrixComputer)) *CyclingMatrixComputer {
	computer := &CyclingMatrixComputer{
		modeComputer: newModeComputer(MODE_BICYCLE, inputs, settings),
	}
	for _, option := range options {
		option(computer)
	}
	return computer
}

// WithMeasuredCyclingSpeeds sets per-way measured speeds used to annotate network
func WithMeasuredCyclingSpeeds(speeds *CyclingSpeeds) func(*CyclingMatrixComputer) {
	return func(computer *CyclingMatrixComputer) {
		computer.measured = speeds
	}
}

func (computer *CyclingMatrixComputer) Columns() []string {
	columns := make([]string, 0, len(computer.settings.CyclingSpeeds))
	for _, speed := range computer.settings.CyclingSpeeds {
		columns = append(columns, speed.Column)
	}
	return columns
}

func (computer *CyclingMatrixComputer) Validate() error {
	if err := computer.validate(); err != nil {
		return err
	}
	if len(computer.settings.CyclingSpeeds) == 0 {
		return newConfigurationError("no cycling speeds given")
	}
	for _, speed := range computer.settings.CyclingSpeeds {
		if _, err := computer.annotator(speed.Speed); err != nil {
			return err
		}
	}
	return nil
}

func (computer *CyclingMatrixComputer) annotator(baseSpeed float64) (*CyclingSpeedAnnotator, error) {
	return NewCyclingSpeedAnnotator(WithBaseSpeed(baseSpeed), WithCyclingSpeeds(computer.measured))
}

// lockUnlockTime is the overhead of unlocking the bicycle at origin and locking it at destination
func (computer *CyclingMatrixComputer) lockUnlockTime(ODPair) (float64, bool) {
	return computer.settings.LockUnlockTime, true
}

func (computer *CyclingMatrixComputer) Compute(ctx context.Context) (*TravelTimeMatrix, error) {
	variants := make([]*variant, 0, len(computer.settings.CyclingSpeeds))
	for _, speed := range computer.settings.CyclingSpeeds {
		annotator, err := computer.annotator(speed.Speed)
		if err != nil {
			return nil, err
		}
		request := computer.request(computer.settings.DefaultDeparture)
		request.SpeedCycling = speed.Speed
		variants = append(variants, &variant{
			column:    speed.Column,
			annotator: annotator,
			request:   request,
			overhead:  computer.lockUnlockTime,
		})
	}
	return computer.compute(ctx, variants)
}
