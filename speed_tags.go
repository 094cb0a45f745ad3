package osm2ttm

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

const (
	// DEFAULT_NOMINAL_SPEED is used when a way carries no usable speed tag at all (km/h)
	DEFAULT_NOMINAL_SPEED = 40.0
	// NO_LIMIT_SPEED is used for `maxspeed=none` (km/h)
	NO_LIMIT_SPEED = 130.0
	// WALKING_PACE_SPEED is used for `maxspeed=walk` (km/h)
	WALKING_PACE_SPEED = 5.0

	CAR_SPEED_TAG = "maxspeed:motorcar"

	mphToKmh = 1.609344
)

type SpeedSource uint16

const (
	SPEED_SOURCE_MODE_TAG = SpeedSource(iota + 1)
	SPEED_SOURCE_DIRECTIONAL_AVERAGE
	SPEED_SOURCE_DIRECTIONAL
	SPEED_SOURCE_LANES
	SPEED_SOURCE_MAXSPEED
	SPEED_SOURCE_DEFAULT
	SPEED_SOURCE_UNDEFINED = SpeedSource(0)
)

func (iotaIdx SpeedSource) String() string {
	return [...]string{"undefined", "mode_tag", "directional_average", "directional", "lanes", "maxspeed", "default"}[iotaIdx]
}

var (
	mphRegExp = regexp.MustCompile(`^(\d+\.?\d*)\s*mph$`)
	kmhRegExp = regexp.MustCompile(`^(\d+\.?\d*)\s*(km/h|kmh|kph)?$`)
)

// parseSpeedValue parses single speed value: `50`, `50 km/h`, `30 mph`. Result is km/h.
func parseSpeedValue(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if found := kmhRegExp.FindStringSubmatch(value); found != nil {
		speed, err := strconv.ParseFloat(found[1], 64)
		if err != nil {
			return 0, false
		}
		return speed, true
	}
	if found := mphRegExp.FindStringSubmatch(value); found != nil {
		speed, err := strconv.ParseFloat(found[1], 64)
		if err != nil {
			return 0, false
		}
		return speed * mphToKmh, true
	}
	return 0, false
}

// speedTagReader reads speed tags of one way and collects malformed values
type speedTagReader struct {
	tags      osm.Tags
	malformed []MalformedTagWarning
}

// read returns parsed value of tag. Absent and malformed tags both report false.
func (reader *speedTagReader) read(key string) (float64, bool) {
	value := reader.tags.Find(key)
	if value == "" {
		return 0, false
	}
	speed, ok := parseSpeedValue(value)
	if !ok {
		reader.malformed = append(reader.malformed, MalformedTagWarning{Tag: key, Value: value})
		return 0, false
	}
	return speed, true
}

func (reader *speedTagReader) readLanes(key string) (float64, bool) {
	value := reader.tags.Find(key)
	if value == "" {
		return 0, false
	}
	lanes := strings.Split(value, "|")
	total := 0.0
	for _, lane := range lanes {
		speed, ok := parseSpeedValue(lane)
		if !ok {
			reader.malformed = append(reader.malformed, MalformedTagWarning{Tag: key, Value: value})
			return 0, false
		}
		total += math.Trunc(speed)
	}
	return total / float64(len(lanes)), true
}

// NominalSpeed derives the nominal speed (km/h) of a way from its tags. Rules are applied in order:
//  1. mode-specific tag (e.g. `maxspeed:motorcar`)
//  2. integer average of `maxspeed:forward` and `maxspeed:reverse` when both are usable
//  3. `maxspeed:forward`, else `maxspeed:reverse`
//  4. integer average over lanes of `maxspeed:lanes`
//  5. `maxspeed`, where `walk` and `none` map to WALKING_PACE_SPEED and NO_LIMIT_SPEED
//  6. DEFAULT_NOMINAL_SPEED
//
// Malformed values are treated as absent and returned so caller could report them.
func NominalSpeed(tags osm.Tags, modeTag string) (float64, SpeedSource, []MalformedTagWarning) {
	reader := speedTagReader{tags: tags}
	if modeTag != "" {
		if speed, ok := reader.read(modeTag); ok {
			return math.Trunc(speed), SPEED_SOURCE_MODE_TAG, reader.malformed
		}
	}
	forward, hasForward := reader.read("maxspeed:forward")
	reverse, hasReverse := reader.read("maxspeed:reverse")
	if hasForward && hasReverse {
		return math.Trunc((math.Trunc(forward) + math.Trunc(reverse)) / 2.0), SPEED_SOURCE_DIRECTIONAL_AVERAGE, reader.malformed
	}
	if hasForward {
		return math.Trunc(forward), SPEED_SOURCE_DIRECTIONAL, reader.malformed
	}
	if hasReverse {
		return math.Trunc(reverse), SPEED_SOURCE_DIRECTIONAL, reader.malformed
	}
	if speed, ok := reader.readLanes("maxspeed:lanes"); ok {
		return math.Trunc(speed), SPEED_SOURCE_LANES, reader.malformed
	}
	switch maxSpeed := strings.TrimSpace(tags.Find("maxspeed")); maxSpeed {
	case "walk":
		return WALKING_PACE_SPEED, SPEED_SOURCE_MAXSPEED, reader.malformed
	case "none":
		return NO_LIMIT_SPEED, SPEED_SOURCE_MAXSPEED, reader.malformed
	default:
		if speed, ok := reader.read("maxspeed"); ok {
			return math.Trunc(speed), SPEED_SOURCE_MAXSPEED, reader.malformed
		}
	}
	return DEFAULT_NOMINAL_SPEED, SPEED_SOURCE_DEFAULT, reader.malformed
}

// setTag replaces value of existing tag or appends new one. Tag order is kept.
func setTag(tags osm.Tags, key, value string) osm.Tags {
	for i := range tags {
		if tags[i].Key == key {
			tags[i].Value = value
			return tags
		}
	}
	return append(tags, osm.Tag{Key: key, Value: value})
}
