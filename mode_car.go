package osm2ttm

import (
	"context"
)

// CarMatrixComputer computes driving travel times, one column per departure slot.
// Every slot gets its own network annotated with speeds of that time of day.
// Parking time of the destination is added to every trip.
type CarMatrixComputer struct {
	modeComputer
	parkingTimes map[string]float64
	source       CoefficientSource
	table        *SpeedCoefficientTable
	zones        *ZoneLayer
}

func NewCarMatrixComputer(inputs ComputationInputs, settings ComputationSettings, parking *ParkingTimeModel, options ...func(*CarMatrixComputer)) *CarMatrixComputer {
	computer := &CarMatrixComputer{
		modeComputer: newModeComputer(MODE_CAR, inputs, settings),
		source:       COEFFICIENTS_BY_URBAN_ZONE,
	}
	if parking != nil {
		computer.parkingTimes = parking.ParkingTimes(inputs.Points)
	}
	for _, option := range options {
		option(computer)
	}
	return computer
}

func WithCarCoefficientSource(source CoefficientSource) func(*CarMatrixComputer) {
	return func(computer *CarMatrixComputer) {
		computer.source = source
	}
}

func WithCarSpeedCoefficientTable(table *SpeedCoefficientTable) func(*CarMatrixComputer) {
	return func(computer *CarMatrixComputer) {
		computer.table = table
	}
}

// WithCarUrbanZones sets zones used by COEFFICIENTS_BY_URBAN_ZONE
func WithCarUrbanZones(zones *ZoneLayer) func(*CarMatrixComputer) {
	return func(computer *CarMatrixComputer) {
		computer.zones = zones
	}
}

func carColumn(slot DepartureSlot) string {
	return "car_" + slotLetter(slot.TimeOfDay)
}

func (computer *CarMatrixComputer) Columns() []string {
	columns := make([]string, 0, len(computer.settings.DepartureSlots))
	for _, slot := range computer.settings.DepartureSlots {
		columns = append(columns, carColumn(slot))
	}
	return columns
}

func (computer *CarMatrixComputer) Validate() error {
	if err := computer.validate(); err != nil {
		return err
	}
	if computer.parkingTimes == nil {
		return newConfigurationError("parking time model is not set")
	}
	if len(computer.settings.DepartureSlots) == 0 {
		return newConfigurationError("no departure slots given")
	}
	for _, slot := range computer.settings.DepartureSlots {
		if _, err := computer.annotator(slot.TimeOfDay); err != nil {
			return err
		}
	}
	return nil
}

func (computer *CarMatrixComputer) annotator(timeOfDay TimeOfDay) (*CarSpeedAnnotator, error) {
	options := []func(*CarSpeedAnnotator){
		WithTimeOfDay(timeOfDay),
		WithCoefficientSource(computer.source),
	}
	if computer.table != nil {
		options = append(options, WithSpeedCoefficientTable(computer.table))
	}
	if computer.zones != nil {
		options = append(options, WithZoneLayer(computer.zones))
	}
	return NewCarSpeedAnnotator(options...)
}

// parkingTime is the overhead of parking at destination
func (computer *CarMatrixComputer) parkingTime(pair ODPair) (float64, bool) {
	minutes, ok := computer.parkingTimes[pair.ToID]
	return minutes, ok
}

func (computer *CarMatrixComputer) Compute(ctx context.Context) (*TravelTimeMatrix, error) {
	variants := make([]*variant, 0, len(computer.settings.DepartureSlots))
	for _, slot := range computer.settings.DepartureSlots {
		annotator, err := computer.annotator(slot.TimeOfDay)
		if err != nil {
			return nil, err
		}
		variants = append(variants, &variant{
			column:    carColumn(slot),
			annotator: annotator,
			request:   computer.request(slot.Clock),
			overhead:  computer.parkingTime,
		})
	}
	return computer.compute(ctx, variants)
}
