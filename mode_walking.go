package osm2ttm

import (
	"context"
	"math"
)

const (
	// WALKING_DISTANCE_COLUMN holds walked distance (metres) estimated from WALKING_DISTANCE_SOURCE_COLUMN
	WALKING_DISTANCE_COLUMN        = "d_walk"
	WALKING_DISTANCE_SOURCE_COLUMN = "walk_avg"
)

// WalkingMatrixComputer computes walking travel times, one column per walking speed
type WalkingMatrixComputer struct {
	modeComputer
}

func NewWalkingMatrixComputer(inputs ComputationInputs, settings ComputationSettings) *WalkingMatrixComputer {
	return &WalkingMatrixComputer{
		modeComputer: newModeComputer(MODE_WALK, inputs, settings),
	}
}

func (computer *WalkingMatrixComputer) Columns() []string {
	columns := []string{}
	for _, speed := range computer.settings.WalkingSpeeds {
		columns = append(columns, speed.Column)
		if computer.settings.CalculateDistances {
			columns = append(columns, speed.Column+DISTANCE_COLUMN_SUFFIX)
		}
	}
	if _, ok := computer.settings.WalkingSpeed(WALKING_DISTANCE_SOURCE_COLUMN); ok {
		columns = append(columns, WALKING_DISTANCE_COLUMN)
	}
	return columns
}

func (computer *WalkingMatrixComputer) Validate() error {
	if err := computer.validate(); err != nil {
		return err
	}
	if len(computer.settings.WalkingSpeeds) == 0 {
		return newConfigurationError("no walking speeds given")
	}
	return nil
}

func (computer *WalkingMatrixComputer) Compute(ctx context.Context) (*TravelTimeMatrix, error) {
	variants := make([]*variant, 0, len(computer.settings.WalkingSpeeds))
	for _, speed := range computer.settings.WalkingSpeeds {
		request := computer.request(computer.settings.DefaultDeparture)
		request.SpeedWalking = speed.Speed
		variants = append(variants, &variant{
			column:        speed.Column,
			request:       request,
			withDistances: computer.settings.CalculateDistances,
		})
	}
	result, err := computer.compute(ctx, variants)
	if err != nil {
		return nil, err
	}
	if err := computer.estimateWalkingDistance(result); err != nil {
		return nil, err
	}
	return result, nil
}

// estimateWalkingDistance derives rough walked distance from average walking time
func (computer *WalkingMatrixComputer) estimateWalkingDistance(result *TravelTimeMatrix) error {
	speed, ok := computer.settings.WalkingSpeed(WALKING_DISTANCE_SOURCE_COLUMN)
	if !ok || result.HasColumn(WALKING_DISTANCE_COLUMN) {
		return nil
	}
	if err := result.AddColumn(WALKING_DISTANCE_COLUMN); err != nil {
		return err
	}
	metresPerMinute := speed * 1000.0 / 60.0
	for row := 0; row < result.Len(); row++ {
		minutes, ok := result.ValueAt(WALKING_DISTANCE_SOURCE_COLUMN, row)
		if !ok {
			continue
		}
		if err := result.Set(WALKING_DISTANCE_COLUMN, result.Pair(row), math.Round(minutes*metresPerMinute)); err != nil {
			return err
		}
	}
	return nil
}
