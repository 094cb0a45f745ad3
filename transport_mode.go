package osm2ttm

import (
	"github.com/pkg/errors"
)

type TransportMode uint16

const (
	MODE_WALK = TransportMode(iota + 1)
	MODE_BICYCLE
	MODE_CAR
	MODE_TRANSIT
	MODE_UNDEFINED = TransportMode(0)
)

func (iotaIdx TransportMode) String() string {
	return [...]string{"undefined", "walk", "bike", "car", "pt"}[iotaIdx]
}

// ParseTransportMode returns mode for its short name (walk, bike, car, pt)
func ParseTransportMode(str string) (TransportMode, error) {
	if found, ok := transportModes[str]; ok {
		return found, nil
	}
	return MODE_UNDEFINED, errors.Errorf("unknown transport mode '%s'", str)
}

type AccessType uint16

const (
	ACCESS_HIGHWAY = AccessType(iota + 1)
	ACCESS_MOTOR_VEHICLE
	ACCESS_MOTORCAR
	ACCESS_OSM_ACCESS
	ACCESS_SERVICE
	ACCESS_BICYCLE
	ACCESS_FOOT
	ACCESS_UNDEFINED = AccessType(0)
)

func (iotaIdx AccessType) String() string {
	return [...]string{"undefined", "highway", "motor_vehicle", "motorcar", "access", "service", "bicycle", "foot"}[iotaIdx]
}

var (
	transportModes = map[string]TransportMode{
		"walk": MODE_WALK,
		"bike": MODE_BICYCLE,
		"car":  MODE_CAR,
		"pt":   MODE_TRANSIT,
	}

	// Values of access tags which explicitly allow the street mode
	modeAccessIncludeValues = map[TransportMode]map[AccessType]map[string]struct{}{
		MODE_CAR: {
			ACCESS_MOTOR_VEHICLE: {"yes": {}, "designated": {}},
			ACCESS_MOTORCAR:      {"yes": {}, "designated": {}},
		},
		MODE_BICYCLE: {
			ACCESS_BICYCLE: {"yes": {}, "designated": {}, "permissive": {}},
		},
		MODE_WALK: {
			ACCESS_FOOT: {"yes": {}, "designated": {}, "permissive": {}},
		},
	}

	// Values of tags which forbid the street mode (unless explicitly included)
	modeAccessExcludeValues = map[TransportMode]map[AccessType]map[string]struct{}{
		MODE_CAR: {
			ACCESS_HIGHWAY: {
				"cycleway":   {},
				"footway":    {},
				"pedestrian": {},
				"steps":      {},
				"track":      {},
				"corridor":   {},
				"elevator":   {},
				"escalator":  {},
				"path":       {},
				"bridleway":  {},
				"platform":   {},
			},
			ACCESS_MOTOR_VEHICLE: {"no": {}},
			ACCESS_MOTORCAR:      {"no": {}},
			ACCESS_OSM_ACCESS:    {"private": {}, "no": {}},
			ACCESS_SERVICE: {
				"parking_aisle":    {},
				"private":          {},
				"emergency_access": {},
			},
		},
		MODE_BICYCLE: {
			ACCESS_HIGHWAY: {
				"steps":         {},
				"corridor":      {},
				"elevator":      {},
				"escalator":     {},
				"motorway":      {},
				"motorway_link": {},
			},
			ACCESS_BICYCLE:    {"no": {}},
			ACCESS_SERVICE:    {"private": {}},
			ACCESS_OSM_ACCESS: {"private": {}, "no": {}},
		},
		MODE_WALK: {
			ACCESS_HIGHWAY: {
				"motorway":      {},
				"motorway_link": {},
				"trunk":         {},
				"trunk_link":    {},
			},
			ACCESS_FOOT:       {"no": {}},
			ACCESS_SERVICE:    {"private": {}},
			ACCESS_OSM_ACCESS: {"private": {}, "no": {}},
		},
	}
)
