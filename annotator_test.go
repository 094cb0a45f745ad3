package osm2ttm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/paulmach/osm"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNetworkXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" lat="60.005" lon="24.001" version="1" visible="true"/>
 <node id="2" lat="60.005" lon="24.002" version="1" visible="true"/>
 <node id="3" lat="60.005" lon="24.003" version="1" visible="true"/>
 <node id="4" lat="60.005" lon="24.004" version="1" visible="true">
  <tag k="highway" v="traffic_signals"/>
 </node>
 <way id="10" version="1" visible="true">
  <nd ref="1"/>
  <nd ref="2"/>
  <tag k="highway" v="primary"/>
  <tag k="maxspeed" v="50"/>
 </way>
 <way id="11" version="1" visible="true">
  <nd ref="2"/>
  <nd ref="3"/>
  <tag k="highway" v="residential"/>
  <tag k="maxspeed:forward" v="fast"/>
 </way>
 <way id="12" version="1" visible="true">
  <nd ref="3"/>
  <nd ref="4"/>
  <tag k="building" v="yes"/>
 </way>
 <relation id="100" version="1" visible="true">
  <member type="way" ref="10" role="outer"/>
  <tag k="type" v="route"/>
 </relation>
</osm>
`

func writeTestNetwork(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "network.osm")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

type scannedNetwork struct {
	nodes     map[osm.NodeID]*osm.Node
	ways      map[osm.WayID]*osm.Way
	relations map[osm.RelationID]*osm.Relation
	total     int
}

func scanTestNetwork(t *testing.T, filename string) scannedNetwork {
	network := scannedNetwork{
		nodes:     make(map[osm.NodeID]*osm.Node),
		ways:      make(map[osm.WayID]*osm.Way),
		relations: make(map[osm.RelationID]*osm.Relation),
	}
	err := scanNetwork(context.Background(), filename, 1, func(obj osm.Object) error {
		network.total++
		switch element := obj.(type) {
		case *osm.Node:
			network.nodes[element.ID] = element
		case *osm.Way:
			network.ways[element.ID] = element
		case *osm.Relation:
			network.relations[element.ID] = element
		}
		return nil
	})
	require.NoError(t, err)
	return network
}

func TestCarSpeedAnnotatorUrbanZone(t *testing.T) {
	input := writeTestNetwork(t, testNetworkXML)
	output := filepath.Join(filepath.Dir(input), "annotated.osm")
	zones := NewZoneLayer(URBAN_ZONES_LAYER, []Zone{
		{Code: int(URBAN_ZONE_CAR), Geometry: square(24.0, 60.0, 24.0018, 60.01)},
		{Code: int(URBAN_ZONE_CENTRE_PEDESTRIAN), Geometry: square(24.0018, 60.0, 24.01, 60.01)},
	})
	annotator, err := NewCarSpeedAnnotator(
		WithTimeOfDay(TIME_OF_DAY_RUSH_HOUR),
		WithCoefficientSource(COEFFICIENTS_BY_URBAN_ZONE),
		WithZoneLayer(zones),
		WithCarScannerProcs(1),
	)
	require.NoError(t, err)
	t.Log(annotator)
	require.NoError(t, annotator.Annotate(context.Background(), input, output))

	network := scanTestNetwork(t, output)
	assert.Equal(t, 8, network.total)
	assert.Len(t, network.nodes, 4)
	assert.Len(t, network.ways, 3)
	assert.Len(t, network.relations, 1)
	assert.Equal(t, "traffic_signals", network.nodes[4].Tags.Find("highway"))

	// Most of the way 10 lies in the car zone
	speed, err := strconv.ParseFloat(network.ways[10].Tags.Find(CAR_SPEED_TAG), 64)
	require.NoError(t, err)
	assert.InDelta(t, 48.1, speed, 0.01)

	// Malformed directional tag falls through to the default nominal speed
	table, err := HelsinkiUrbanZoneCoefficients()
	require.NoError(t, err)
	coefficient, err := table.Coefficient(URBAN_ZONE_CENTRE_PEDESTRIAN.String(), TIME_OF_DAY_RUSH_HOUR, DEFAULT_NOMINAL_SPEED)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%.2f", DEFAULT_NOMINAL_SPEED*coefficient), network.ways[11].Tags.Find(CAR_SPEED_TAG))

	// Not a street
	assert.Equal(t, "", network.ways[12].Tags.Find(CAR_SPEED_TAG))
	assert.Equal(t, "yes", network.ways[12].Tags.Find("building"))
}

func TestCarSpeedAnnotatorDefaultSpeed(t *testing.T) {
	input := writeTestNetwork(t, `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
 <node id="1" lat="60.005" lon="24.001" version="1"/>
 <node id="2" lat="60.005" lon="24.002" version="1"/>
 <way id="10" version="1"><nd ref="1"/><nd ref="2"/><tag k="highway" v="service"/></way>
</osm>
`)
	output := filepath.Join(filepath.Dir(input), "annotated.osm")
	annotator, err := NewCarSpeedAnnotator(
		WithTimeOfDay(TIME_OF_DAY_MIDDAY),
		WithCoefficientSource(COEFFICIENTS_BY_SPEED_LIMIT),
		WithTagName("DGL:carspeed"),
	)
	require.NoError(t, err)
	require.NoError(t, annotator.Annotate(context.Background(), input, output))

	table, err := SpeedLimitCoefficients()
	require.NoError(t, err)
	coefficient, err := table.Coefficient(table.DefaultCategory(), TIME_OF_DAY_MIDDAY, DEFAULT_NOMINAL_SPEED)
	require.NoError(t, err)
	network := scanTestNetwork(t, output)
	assert.Equal(t, fmt.Sprintf("%.2f", DEFAULT_NOMINAL_SPEED*coefficient), network.ways[10].Tags.Find("DGL:carspeed"))
}

func TestCarSpeedAnnotatorCountsSpeedSources(t *testing.T) {
	input := writeTestNetwork(t, testNetworkXML)
	output := filepath.Join(filepath.Dir(input), "annotated.osm")
	annotator, err := NewCarSpeedAnnotator(
		WithTimeOfDay(TIME_OF_DAY_NIGHTTIME),
		WithCoefficientSource(COEFFICIENTS_BY_ROAD_CLASS),
	)
	require.NoError(t, err)

	maxspeed := testutil.ToFloat64(nominalSpeedSources.WithLabelValues(SPEED_SOURCE_MAXSPEED.String()))
	fallback := testutil.ToFloat64(nominalSpeedSources.WithLabelValues(SPEED_SOURCE_DEFAULT.String()))
	require.NoError(t, annotator.Annotate(context.Background(), input, output))

	// Way 10 has `maxspeed`, way 11 only a malformed directional tag, way 12 is no highway
	assert.Equal(t, maxspeed+1, testutil.ToFloat64(nominalSpeedSources.WithLabelValues(SPEED_SOURCE_MAXSPEED.String())))
	assert.Equal(t, fallback+1, testutil.ToFloat64(nominalSpeedSources.WithLabelValues(SPEED_SOURCE_DEFAULT.String())))
}

func TestCarSpeedAnnotatorIdempotent(t *testing.T) {
	input := writeTestNetwork(t, testNetworkXML)
	dir := filepath.Dir(input)
	annotator, err := NewCarSpeedAnnotator(
		WithTimeOfDay(TIME_OF_DAY_NIGHTTIME),
		WithCoefficientSource(COEFFICIENTS_BY_ROAD_CLASS),
		WithTagName("DGL:carspeed"),
	)
	require.NoError(t, err)
	first := filepath.Join(dir, "first.osm")
	second := filepath.Join(dir, "second.osm")
	require.NoError(t, annotator.Annotate(context.Background(), input, first))
	require.NoError(t, annotator.Annotate(context.Background(), first, second))

	firstContent, err := os.ReadFile(first)
	require.NoError(t, err)
	secondContent, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstContent), string(secondContent))
}

func TestCarSpeedAnnotatorValidate(t *testing.T) {
	_, err := NewCarSpeedAnnotator(WithCoefficientSource(COEFFICIENTS_BY_URBAN_ZONE))
	assert.True(t, IsConfigurationError(err))

	broken, err := NewSpeedCoefficientTable("A", SpeedCategoryCoefficients{
		Category: "A",
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_MIDDAY: {{50, 1.0}},
		},
	})
	require.NoError(t, err)
	_, err = NewCarSpeedAnnotator(
		WithCoefficientSource(COEFFICIENTS_BY_SPEED_LIMIT),
		WithSpeedCoefficientTable(broken),
		WithTimeOfDay(TIME_OF_DAY_RUSH_HOUR),
	)
	assert.True(t, IsConfigurationError(err))

	// Urban zone coefficients must be keyed by zone
	foreign, err := NewSpeedCoefficientTable("B", SpeedCategoryCoefficients{
		Category: "B",
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{50, 1.0}},
			TIME_OF_DAY_MIDDAY:    {{50, 1.0}},
			TIME_OF_DAY_NIGHTTIME: {{50, 1.0}},
			TIME_OF_DAY_RUSH_HOUR: {{50, 1.0}},
		},
	})
	require.NoError(t, err)
	_, err = NewCarSpeedAnnotator(
		WithCoefficientSource(COEFFICIENTS_BY_URBAN_ZONE),
		WithZoneLayer(NewZoneLayer(URBAN_ZONES_LAYER, nil)),
		WithSpeedCoefficientTable(foreign),
	)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "'B'")

	_, err = ParseCoefficientSource("zones")
	assert.True(t, IsConfigurationError(err))
}

func TestCyclingSpeedAnnotator(t *testing.T) {
	input := writeTestNetwork(t, testNetworkXML)
	output := filepath.Join(filepath.Dir(input), "annotated.osm")
	speeds := NewCyclingSpeeds(map[osm.WayID][]float64{
		10: {20},
		99: {10},
	})
	annotator, err := NewCyclingSpeedAnnotator(
		WithBaseSpeed(14.92),
		WithCyclingSpeeds(speeds),
		WithCyclingScannerProcs(1),
	)
	require.NoError(t, err)
	require.NoError(t, annotator.Annotate(context.Background(), input, output))

	network := scanTestNetwork(t, output)
	assert.Equal(t, 8, network.total)
	// 20 / 15 * 14.92
	assert.Equal(t, "19.89", network.ways[10].Tags.Find(DEFAULT_CYCLING_SPEED_TAG))
	assert.Equal(t, "14.92", network.ways[11].Tags.Find(DEFAULT_CYCLING_SPEED_TAG))
	assert.Equal(t, "", network.ways[12].Tags.Find(DEFAULT_CYCLING_SPEED_TAG))
}

func TestCyclingSpeedAnnotatorBaseSpeed(t *testing.T) {
	annotator, err := NewCyclingSpeedAnnotator(WithCyclingSpeeds(NewCyclingSpeeds(map[osm.WayID][]float64{1: {12, 18}})))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, annotator.SpeedFor(2), 1e-9)

	_, err = NewCyclingSpeedAnnotator()
	assert.True(t, IsConfigurationError(err))
}
