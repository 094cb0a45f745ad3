package osm2ttm

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine returns fixed base travel times scaled by walking speed
type fakeEngine struct {
	mu       sync.Mutex
	modes    map[TransportMode]bool
	times    map[ODPair]float64
	requests []RoutingRequest
	// Whether network of every request existed while routing
	networkExisted []bool
	evicted        []string
	failure        error
}

func newFakeEngine(modes ...TransportMode) *fakeEngine {
	engine := &fakeEngine{
		modes: make(map[TransportMode]bool),
		times: map[ODPair]float64{
			{FromID: "a", ToID: "b"}: 10,
			{FromID: "b", ToID: "a"}: 12,
			{FromID: "a", ToID: "c"}: 20,
			{FromID: "b", ToID: "c"}: 8,
			{FromID: "c", ToID: "b"}: 9,
		},
	}
	for _, mode := range modes {
		engine.modes[mode] = true
	}
	return engine
}

func (engine *fakeEngine) Supports(mode TransportMode) bool {
	return engine.modes[mode]
}

func (engine *fakeEngine) Snap(ctx context.Context, network string, points []Point) ([]SnapResult, error) {
	results := make([]SnapResult, len(points))
	for i := range points {
		results[i] = SnapResult{Snapped: points[i].Geom, OK: true}
	}
	return results, nil
}

func (engine *fakeEngine) TravelTimes(ctx context.Context, request RoutingRequest) ([]RoutedPair, error) {
	_, statErr := os.Stat(request.Network)
	engine.mu.Lock()
	engine.requests = append(engine.requests, request)
	engine.networkExisted = append(engine.networkExisted, statErr == nil)
	engine.mu.Unlock()
	if engine.failure != nil {
		return nil, engine.failure
	}

	scale := 1.0
	if request.SpeedWalking > 0 {
		scale = 4.7 / request.SpeedWalking
	}
	routes := []RoutedPair{}
	for _, origin := range request.Origins {
		for _, destination := range request.Destinations {
			route := RoutedPair{FromID: origin.ID, ToID: destination.ID}
			if origin.ID == destination.ID {
				// Engines may report small non-zero values for self pairs
				route.TravelTime, route.Distance, route.Reachable = 0.5, 3, true
			} else if minutes, ok := engine.times[ODPair{FromID: origin.ID, ToID: destination.ID}]; ok {
				route.TravelTime, route.Distance, route.Reachable = minutes*scale, minutes*100, true
			}
			routes = append(routes, route)
		}
	}
	return routes, nil
}

func (engine *fakeEngine) Evict(network string) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.evicted = append(engine.evicted, network)
}

func testComputationInputs(t *testing.T, engine RoutingEngine) ComputationInputs {
	return ComputationInputs{
		Network: writeTestNetwork(t, testNetworkXML),
		Points: []Point{
			{ID: "a", Geom: orb.Point{24.001, 60.005}},
			{ID: "b", Geom: orb.Point{24.003, 60.005}},
			{ID: "c", Geom: orb.Point{24.004, 60.005}},
		},
		Engine:      engine,
		AccessTimes: NewAccessTimeModelFromTimes(map[string]float64{"a": 1, "b": 0.5, "c": 2}),
		WorkDir:     t.TempDir(),
	}
}

func testComputationSettings() ComputationSettings {
	return DefaultComputationSettings(time.Date(2023, 9, 12, 0, 0, 0, 0, time.UTC))
}

func cell(t *testing.T, matrix *TravelTimeMatrix, column, from, to string) float64 {
	value, ok := matrix.Value(column, ODPair{FromID: from, ToID: to})
	require.True(t, ok, "%s %s->%s is absent", column, from, to)
	return value
}

func TestWalkingMatrixComputer(t *testing.T) {
	engine := newFakeEngine(MODE_WALK)
	computer := NewWalkingMatrixComputer(testComputationInputs(t, engine), testComputationSettings())
	require.NoError(t, computer.Validate())
	assert.Equal(t, []string{"walk_avg", "walk_slo", "d_walk"}, computer.Columns())

	matrix, err := computer.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, computer.Columns(), matrix.Columns())
	assert.Equal(t, 9, matrix.Len())

	assert.InDelta(t, 11.5, cell(t, matrix, "walk_avg", "a", "b"), 1e-9)
	assert.InDelta(t, 10*4.7/3.43+1.5, cell(t, matrix, "walk_slo", "a", "b"), 1e-9)
	assert.Equal(t, 901.0, cell(t, matrix, "d_walk", "a", "b"))
	// Self pairs stay zero, no access time
	assert.Equal(t, 0.0, cell(t, matrix, "walk_avg", "b", "b"))
	assert.Equal(t, 0.0, cell(t, matrix, "d_walk", "b", "b"))
	// Gaps stay absent
	_, ok := matrix.Value("walk_avg", ODPair{FromID: "c", ToID: "a"})
	assert.False(t, ok)
	_, ok = matrix.Value("d_walk", ODPair{FromID: "c", ToID: "a"})
	assert.False(t, ok)

	require.Len(t, engine.requests, 2)
	assert.Equal(t, time.Date(2023, 9, 12, 12, 0, 0, 0, time.UTC), engine.requests[0].Departure)
	assert.Equal(t, time.Hour, engine.requests[0].DepartureWindow)
	assert.Equal(t, 2*time.Hour, engine.requests[0].MaxTime)
	assert.Equal(t, 3.43, engine.requests[1].SpeedWalking)
}

func TestWalkingMatrixComputerDistances(t *testing.T) {
	engine := newFakeEngine(MODE_WALK)
	settings := testComputationSettings()
	settings.CalculateDistances = true
	computer := NewWalkingMatrixComputer(testComputationInputs(t, engine), settings)
	assert.Equal(t, []string{"walk_avg", "walk_avg_d", "walk_slo", "walk_slo_d", "d_walk"}, computer.Columns())

	matrix, err := computer.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, computer.Columns(), matrix.Columns())
	assert.Equal(t, 1000.0, cell(t, matrix, "walk_avg_d", "a", "b"))
	assert.Equal(t, 0.0, cell(t, matrix, "walk_slo_d", "a", "a"))
	assert.True(t, engine.requests[0].WithDistances)
}

func TestCyclingMatrixComputer(t *testing.T) {
	engine := newFakeEngine(MODE_BICYCLE)
	inputs := testComputationInputs(t, engine)
	computer := NewCyclingMatrixComputer(inputs, testComputationSettings())
	require.NoError(t, computer.Validate())

	matrix, err := computer.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bike_fst", "bike_avg", "bike_slo"}, matrix.Columns())
	// Routed time, access at both ends, lock/unlock
	assert.InDelta(t, 12.5, cell(t, matrix, "bike_avg", "a", "b"), 1e-9)
	assert.Equal(t, 0.0, cell(t, matrix, "bike_fst", "c", "c"))

	require.Len(t, engine.requests, 3)
	assert.Equal(t, 18.09, engine.requests[0].SpeedCycling)
	for i, request := range engine.requests {
		assert.NotEqual(t, inputs.Network, request.Network)
		assert.True(t, engine.networkExisted[i], "annotated network must exist while routing")
		_, err := os.Stat(request.Network)
		assert.True(t, os.IsNotExist(err), "annotated network must be removed")
	}
	assert.Len(t, engine.evicted, 3)
	entries, err := os.ReadDir(inputs.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCyclingMatrixComputerCleansUpOnFailure(t *testing.T) {
	t.Run("routing fails", func(t *testing.T) {
		engine := newFakeEngine(MODE_BICYCLE)
		engine.failure = errors.New("engine down")
		inputs := testComputationInputs(t, engine)
		_, err := NewCyclingMatrixComputer(inputs, testComputationSettings()).Compute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine down")

		require.Len(t, engine.requests, 1)
		assert.True(t, engine.networkExisted[0])
		assert.Equal(t, []string{engine.requests[0].Network}, engine.evicted)
		entries, err := os.ReadDir(inputs.WorkDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
	t.Run("annotation fails", func(t *testing.T) {
		engine := newFakeEngine(MODE_BICYCLE)
		inputs := testComputationInputs(t, engine)
		inputs.Network = writeTestNetwork(t, `<osm version="0.6"><node id="1" lat="broken"`)
		_, err := NewCyclingMatrixComputer(inputs, testComputationSettings()).Compute(context.Background())
		require.Error(t, err)

		assert.Empty(t, engine.requests)
		assert.Len(t, engine.evicted, 1)
		entries, err := os.ReadDir(inputs.WorkDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestCarMatrixComputer(t *testing.T) {
	engine := newFakeEngine(MODE_CAR)
	computer := NewCarMatrixComputer(
		testComputationInputs(t, engine),
		testComputationSettings(),
		NewParkingTimeModel(nil, nil),
		WithCarCoefficientSource(COEFFICIENTS_BY_ROAD_CLASS),
	)
	require.NoError(t, computer.Validate())
	assert.Equal(t, []string{"car_r", "car_m", "car_n"}, computer.Columns())

	matrix, err := computer.Compute(context.Background())
	require.NoError(t, err)
	// Routed time, access at both ends, parking at destination (global mean)
	assert.InDelta(t, 15.5, cell(t, matrix, "car_r", "a", "b"), 1e-9)
	assert.Equal(t, 0.0, cell(t, matrix, "car_n", "a", "a"))

	require.Len(t, engine.requests, 3)
	assert.Equal(t, time.Date(2023, 9, 12, 8, 0, 0, 0, time.UTC), engine.requests[0].Departure)
	assert.Equal(t, time.Date(2023, 9, 12, 2, 0, 0, 0, time.UTC), engine.requests[2].Departure)
}

func TestCarMatrixComputerValidate(t *testing.T) {
	engine := newFakeEngine(MODE_CAR)
	// Urban zone coefficients without zones
	computer := NewCarMatrixComputer(testComputationInputs(t, engine), testComputationSettings(), NewParkingTimeModel(nil, nil))
	assert.True(t, IsConfigurationError(computer.Validate()))

	computer = NewCarMatrixComputer(testComputationInputs(t, engine), testComputationSettings(), nil,
		WithCarCoefficientSource(COEFFICIENTS_BY_ROAD_CLASS))
	assert.True(t, IsConfigurationError(computer.Validate()))

	computer = NewCarMatrixComputer(testComputationInputs(t, newFakeEngine(MODE_WALK)), testComputationSettings(), NewParkingTimeModel(nil, nil),
		WithCarCoefficientSource(COEFFICIENTS_BY_ROAD_CLASS))
	assert.True(t, IsConfigurationError(computer.Validate()))
	assert.Empty(t, engine.requests)
}

func TestTransitMatrixComputer(t *testing.T) {
	engine := newFakeEngine(MODE_TRANSIT)
	inputs := testComputationInputs(t, engine)
	inputs.TransitFeeds = []string{"feed.zip"}
	computer := NewTransitMatrixComputer(inputs, testComputationSettings(), WithTransitFeedCheck(false))
	require.NoError(t, computer.Validate())
	assert.Equal(t, []string{
		"pt_r_walk_avg", "pt_r_walk_slo",
		"pt_m_walk_avg", "pt_m_walk_slo",
		"pt_n_walk_avg", "pt_n_walk_slo",
	}, computer.Columns())

	matrix, err := computer.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, computer.Columns(), matrix.Columns())
	assert.InDelta(t, 11.5, cell(t, matrix, "pt_m_walk_avg", "a", "b"), 1e-9)
	require.Len(t, engine.requests, 6)
	assert.Equal(t, []string{"feed.zip"}, engine.requests[0].TransitFeeds)
	assert.Equal(t, inputs.Network, engine.requests[0].Network)

	computer = NewTransitMatrixComputer(testComputationInputs(t, engine), testComputationSettings())
	assert.True(t, IsConfigurationError(computer.Validate()))
}

func TestCorrectionsSkipSelfPairs(t *testing.T) {
	pairs := []ODPair{{FromID: "a", ToID: "a"}, {FromID: "a", ToID: "b"}, {FromID: "b", ToID: "x"}}
	matrix := NewTravelTimeMatrix(pairs)
	require.NoError(t, matrix.AddColumn(TRAVEL_TIME_COLUMN))
	require.NoError(t, matrix.Set(TRAVEL_TIME_COLUMN, pairs[0], 0.7))
	require.NoError(t, matrix.Set(TRAVEL_TIME_COLUMN, pairs[1], 5))
	require.NoError(t, matrix.Set(TRAVEL_TIME_COLUMN, pairs[2], 5))

	require.NoError(t, cleanSelfPairs(matrix, pairs))
	require.NoError(t, addAccessTimes(matrix, NewAccessTimeModelFromTimes(map[string]float64{"a": 1, "b": 2})))
	require.NoError(t, addOverhead(matrix, func(ODPair) (float64, bool) { return 3, true }))

	values, ok := matrix.Column(TRAVEL_TIME_COLUMN)
	require.True(t, ok)
	assert.Equal(t, 0.0, values[0])
	assert.Equal(t, 11.0, values[1])
	// Unsnapped destination
	assert.True(t, math.IsNaN(values[2]))
}

func TestVariantStateString(t *testing.T) {
	assert.Equal(t, "network_prepared", VARIANT_NETWORK_PREPARED.String())
	assert.Equal(t, "merged", VARIANT_MERGED.String())
}
