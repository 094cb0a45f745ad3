package osm2ttm

import (
	"github.com/paulmach/osm"
)

var (
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}

	negligibleHighwayTags = map[string]struct{}{
		"construction": {},
		"proposed":     {},
		"raceway":      {},
		"rest_area":    {},
		"abandoned":    {},
		"planned":      {},
		"dismantled":   {},
		"disused":      {},
		"razed":        {},
		"bus_stop":     {},
	}
)

// accessTagValue returns value of the OSM tag which corresponds to given access type
func accessTagValue(tags osm.Tags, accessType AccessType) string {
	return tags.Find(accessType.String())
}

func wayIncludesMode(tags osm.Tags, mode TransportMode) bool {
	accessTypes, ok := modeAccessIncludeValues[mode]
	if !ok {
		return false
	}
	for accessType, values := range accessTypes {
		if _, ok := values[accessTagValue(tags, accessType)]; ok {
			return true
		}
	}
	return false
}

func wayExcludesMode(tags osm.Tags, mode TransportMode) bool {
	accessTypes, ok := modeAccessExcludeValues[mode]
	if !ok {
		return true
	}
	for accessType, values := range accessTypes {
		if _, ok := values[accessTagValue(tags, accessType)]; ok {
			return true
		}
	}
	return false
}

// wayAllowsMode reports whether a street mode may traverse the way
func wayAllowsMode(tags osm.Tags, mode TransportMode) bool {
	highway := tags.Find("highway")
	if highway == "" {
		return false
	}
	if _, ok := negligibleHighwayTags[highway]; ok {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	if wayIncludesMode(tags, mode) {
		return true
	}
	return !wayExcludesMode(tags, mode)
}

// wayDirection returns whether the way is one-way for vehicles and whether its nodes go against traffic
func wayDirection(wayID osm.WayID, tags osm.Tags) (oneway bool, reversed bool) {
	onewayText := tags.Find("oneway")
	switch onewayText {
	case "yes", "1", "true":
		return true, false
	case "no", "0", "false":
		return false, false
	case "-1", "reverse":
		return true, true
	case "":
		if _, ok := junctionTypes[tags.Find("junction")]; ok {
			return true, false
		}
		if tags.Find("highway") == "motorway" {
			return true, false
		}
		return false, false
	}
	// Reversible or alternating depend on time conditions
	if _, found := onewayReversible[onewayText]; !found {
		log.WithField("way_id", wayID).Debugf("Unhandled `oneway` tag value has been met: '%s'", onewayText)
	}
	return false, false
}
