package osm2ttm

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Median parking times plus median walking times from the parking spot (minutes), by municipality
// and YKR urban zone, according to
// Vesanen, S. (2020) Parking private cars and spatial accessibility in Helsinki capital region -
// Parking time as a part of the total travel time. MSc thesis. University of Helsinki.
// http://urn.fi/URN:NBN:fi:hulib-202010304366
//
// URBAN_ZONE_UNDEFINED holds the value for points of the municipality outside any listed zone.
var parkingTimes = map[string]map[UrbanZone]float64{
	"Espoo": {
		URBAN_ZONE_SUBCENTRE_PEDESTRIAN: 3 + 3,
		URBAN_ZONE_INTENSIVE_TRANSIT:    2 + 3,
		URBAN_ZONE_TRANSIT:              1 + 2,
		URBAN_ZONE_CAR:                  1 + 2,
		URBAN_ZONE_UNDEFINED:            2 + 3,
	},
	"Helsinki": {
		URBAN_ZONE_CENTRE_PEDESTRIAN:    5 + 5,
		URBAN_ZONE_CENTRE_FRINGE:        4 + 4,
		URBAN_ZONE_SUBCENTRE_PEDESTRIAN: 3 + 3,
		URBAN_ZONE_INTENSIVE_TRANSIT:    2 + 2,
		URBAN_ZONE_TRANSIT:              1 + 2,
		URBAN_ZONE_CAR:                  1 + 1,
		URBAN_ZONE_UNDEFINED:            2 + 3,
	},
	"Kauniainen": {
		URBAN_ZONE_TRANSIT: 2 + 2,
	},
	"Vantaa": {
		URBAN_ZONE_SUBCENTRE_PEDESTRIAN: 3 + 3,
		URBAN_ZONE_INTENSIVE_TRANSIT:    2 + 2,
		URBAN_ZONE_TRANSIT:              2 + 2,
		URBAN_ZONE_CAR:                  1 + 2,
		URBAN_ZONE_UNDEFINED:            2 + 3,
	},
}

// ParkingTimeModel estimates time needed to park a car at a destination
type ParkingTimeModel struct {
	municipalities *ZoneLayer
	urbanZones     *ZoneLayer
	table          map[string]map[UrbanZone]float64
	mean           float64
}

// NewParkingTimeModel prepares model. Any of layers may be nil: lookups against it never match.
func NewParkingTimeModel(municipalities, urbanZones *ZoneLayer) *ParkingTimeModel {
	model := &ParkingTimeModel{
		municipalities: municipalities,
		urbanZones:     urbanZones,
		table:          make(map[string]map[UrbanZone]float64, len(parkingTimes)),
	}
	total := 0.0
	count := 0
	for municipality, byZone := range parkingTimes {
		model.table[municipality] = make(map[UrbanZone]float64, len(byZone))
		for zone, minutes := range byZone {
			model.table[municipality][zone] = minutes
			total += minutes
			count++
		}
	}
	// Whole minutes, as the table itself
	model.mean = float64(int(total / float64(count)))
	return model
}

// MeanParkingTime returns the global fallback value
func (model *ParkingTimeModel) MeanParkingTime() float64 {
	return model.mean
}

// ParkingTime returns parking time (minutes) at the WGS84 point.
// Falls back to municipality's unclassified zone entry, then to the global mean.
func (model *ParkingTimeModel) ParkingTime(pt orb.Point) float64 {
	municipality := ""
	if model.municipalities != nil {
		if zone, ok := model.municipalities.ZoneFor(pt); ok {
			municipality = zone.Name
		} else {
			reportWarning(&UnresolvedZoneWarning{Layer: model.municipalities.Name(), Subject: fmt.Sprintf("point %v", pt)})
		}
	}
	urbanZone := URBAN_ZONE_UNDEFINED
	if model.urbanZones != nil {
		if zone, ok := model.urbanZones.ZoneFor(pt); ok {
			urbanZone, _ = UrbanZoneFromCode(zone.Code)
		} else {
			reportWarning(&UnresolvedZoneWarning{Layer: model.urbanZones.Name(), Subject: fmt.Sprintf("point %v", pt)})
		}
	}
	byZone, ok := model.table[municipality]
	if !ok {
		return model.mean
	}
	if minutes, ok := byZone[urbanZone]; ok {
		return minutes
	}
	if minutes, ok := byZone[URBAN_ZONE_UNDEFINED]; ok {
		return minutes
	}
	return model.mean
}

// ParkingTimes precomputes parking time of every point by its ID
func (model *ParkingTimeModel) ParkingTimes(points []Point) map[string]float64 {
	times := make(map[string]float64, len(points))
	for _, pt := range points {
		times[pt.ID] = model.ParkingTime(pt.Geom)
	}
	return times
}
