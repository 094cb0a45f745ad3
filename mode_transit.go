package osm2ttm

import (
	"context"
	"fmt"
)

// TransitMatrixComputer computes public transport travel times for every departure slot and walking speed
type TransitMatrixComputer struct {
	modeComputer
	checkFeeds bool
}

func NewTransitMatrixComputer(inputs ComputationInputs, settings ComputationSettings, options ...func(*TransitMatrixComputer)) *TransitMatrixComputer {
	computer := &TransitMatrixComputer{
		modeComputer: newModeComputer(MODE_TRANSIT, inputs, settings),
		checkFeeds:   true,
	}
	for _, option := range options {
		option(computer)
	}
	return computer
}

// WithTransitFeedCheck turns GTFS archive checks on or off
func WithTransitFeedCheck(check bool) func(*TransitMatrixComputer) {
	return func(computer *TransitMatrixComputer) {
		computer.checkFeeds = check
	}
}

func transitColumn(slot DepartureSlot, walking NamedSpeed) string {
	return fmt.Sprintf("pt_%s_%s", slotLetter(slot.TimeOfDay), walking.Column)
}

func (computer *TransitMatrixComputer) Columns() []string {
	columns := []string{}
	for _, slot := range computer.settings.DepartureSlots {
		for _, walking := range computer.settings.WalkingSpeeds {
			column := transitColumn(slot, walking)
			columns = append(columns, column)
			if computer.settings.CalculateDistances {
				columns = append(columns, column+DISTANCE_COLUMN_SUFFIX)
			}
		}
	}
	return columns
}

func (computer *TransitMatrixComputer) Validate() error {
	if err := computer.validate(); err != nil {
		return err
	}
	if len(computer.inputs.TransitFeeds) == 0 {
		return newConfigurationError("no GTFS data sets given")
	}
	if len(computer.settings.DepartureSlots) == 0 || len(computer.settings.WalkingSpeeds) == 0 {
		return newConfigurationError("transit needs departure slots and walking speeds")
	}
	if computer.checkFeeds {
		return ValidateTransitFeeds(computer.inputs.TransitFeeds)
	}
	return nil
}

func (computer *TransitMatrixComputer) Compute(ctx context.Context) (*TravelTimeMatrix, error) {
	variants := []*variant{}
	for _, slot := range computer.settings.DepartureSlots {
		for _, walking := range computer.settings.WalkingSpeeds {
			request := computer.request(slot.Clock)
			request.TransitFeeds = computer.inputs.TransitFeeds
			request.SpeedWalking = walking.Speed
			variants = append(variants, &variant{
				column:        transitColumn(slot, walking),
				request:       request,
				withDistances: computer.settings.CalculateDistances,
			})
		}
	}
	return computer.compute(ctx, variants)
}
