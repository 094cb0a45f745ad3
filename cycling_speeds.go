package osm2ttm

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	DEFAULT_CYCLING_SPEEDS_ID_COLUMN    = "osm_id"
	DEFAULT_CYCLING_SPEEDS_SPEED_COLUMN = "speed"

	// measured speeds are given in m/s
	metresPerSecondToKmh = 3.6
)

// CyclingSpeeds holds measured cycling speeds (km/h) per OSM way.
// Per-way and overall means are computed once on construction.
type CyclingSpeeds struct {
	perWay map[osm.WayID]float64
	mean   float64
	count  int
}

// NewCyclingSpeeds builds table from measurements in km/h
func NewCyclingSpeeds(measurements map[osm.WayID][]float64) *CyclingSpeeds {
	speeds := &CyclingSpeeds{
		perWay: make(map[osm.WayID]float64, len(measurements)),
	}
	all := make([]float64, 0, len(measurements))
	for wayID, values := range measurements {
		if len(values) == 0 {
			continue
		}
		speeds.perWay[wayID] = stat.Mean(values, nil)
		all = append(all, values...)
	}
	speeds.count = len(all)
	if len(all) > 0 {
		speeds.mean = stat.Mean(all, nil)
	}
	return speeds
}

// Mean returns mean of all measurements
func (speeds *CyclingSpeeds) Mean() float64 {
	return speeds.mean
}

// Len returns number of measurements
func (speeds *CyclingSpeeds) Len() int {
	return speeds.count
}

// SpeedFor returns mean measured speed of the way
func (speeds *CyclingSpeeds) SpeedFor(wayID osm.WayID) (float64, bool) {
	speed, ok := speeds.perWay[wayID]
	return speed, ok
}

// LoadCyclingSpeeds reads CSV file with OSM way identifiers and measured speeds in m/s
func LoadCyclingSpeeds(filename, idColumn, speedColumn string) (*CyclingSpeeds, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open cycling speeds '%s'", filename)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read header of cycling speeds '%s'", filename)
	}
	idIdx, speedIdx := -1, -1
	for i, column := range header {
		switch strings.TrimSpace(column) {
		case idColumn:
			idIdx = i
		case speedColumn:
			speedIdx = i
		}
	}
	if idIdx < 0 || speedIdx < 0 {
		return nil, fmt.Errorf("Cycling speeds '%s' must have columns '%s' and '%s'", filename, idColumn, speedColumn)
	}

	measurements := make(map[osm.WayID][]float64)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read cycling speeds '%s'", filename)
		}
		wayID, err := strconv.ParseInt(strings.TrimSpace(record[idIdx]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad OSM way ID on line %d of '%s'", line, filename)
		}
		speed, err := strconv.ParseFloat(strings.TrimSpace(record[speedIdx]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad speed on line %d of '%s'", line, filename)
		}
		measurements[osm.WayID(wayID)] = append(measurements[osm.WayID(wayID)], speed*metresPerSecondToKmh)
	}
	speeds := NewCyclingSpeeds(measurements)
	log.Infof("Loaded %d cycling speed measurements for %d ways, mean speed %.2f km/h", speeds.Len(), len(speeds.perWay), speeds.Mean())
	return speeds, nil
}
