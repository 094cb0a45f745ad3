package osm2ttm

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoutingNetworkXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" lat="60.0" lon="24.000" version="1"/>
 <node id="2" lat="60.0" lon="24.001" version="1"/>
 <node id="3" lat="60.0" lon="24.002" version="1"/>
 <node id="5" lat="60.01" lon="24.000" version="1"/>
 <node id="6" lat="60.01" lon="24.001" version="1"/>
 <way id="20" version="1">
  <nd ref="1"/>
  <nd ref="2"/>
  <nd ref="3"/>
  <tag k="highway" v="residential"/>
  <tag k="oneway" v="yes"/>
  <tag k="maxspeed" v="30"/>
 </way>
 <way id="21" version="1">
  <nd ref="5"/>
  <nd ref="6"/>
  <tag k="highway" v="footway"/>
 </way>
</osm>
`

func testRoutingPoints() []Point {
	return []Point{
		{ID: "a", Geom: orb.Point{24.000, 60.0}},
		{ID: "b", Geom: orb.Point{24.002, 60.0}},
		{ID: "c", Geom: orb.Point{24.000, 60.01}},
	}
}

func routeOf(t *testing.T, routes []RoutedPair, from, to string) RoutedPair {
	for _, route := range routes {
		if route.FromID == from && route.ToID == to {
			return route
		}
	}
	t.Fatalf("No route %s -> %s", from, to)
	return RoutedPair{}
}

func TestCHRoutingEngineWalk(t *testing.T) {
	network := writeTestNetwork(t, testRoutingNetworkXML)
	engine := NewCHRoutingEngine()
	points := testRoutingPoints()
	routes, err := engine.TravelTimes(context.Background(), RoutingRequest{
		Network:       network,
		Origins:       points,
		Destinations:  points,
		Mode:          MODE_WALK,
		SpeedWalking:  4.7,
		WithDistances: true,
	})
	require.NoError(t, err)
	assert.Len(t, routes, 9)

	metres := greatCircleDistance(orb.Point{24.000, 60.0}, orb.Point{24.001, 60.0})*1000.0 +
		greatCircleDistance(orb.Point{24.001, 60.0}, orb.Point{24.002, 60.0})*1000.0
	forward := routeOf(t, routes, "a", "b")
	assert.True(t, forward.Reachable)
	assert.InDelta(t, metres, forward.Distance, 1e-6)
	assert.InDelta(t, metres/(4.7*1000.0/60.0), forward.TravelTime, 1e-6)

	// Walking ignores oneway
	backward := routeOf(t, routes, "b", "a")
	assert.True(t, backward.Reachable)
	assert.InDelta(t, forward.TravelTime, backward.TravelTime, 1e-6)

	self := routeOf(t, routes, "c", "c")
	assert.True(t, self.Reachable)
	assert.Equal(t, 0.0, self.TravelTime)

	assert.False(t, routeOf(t, routes, "a", "c").Reachable)
	assert.False(t, routeOf(t, routes, "c", "b").Reachable)
}

func TestCHRoutingEngineCarOneway(t *testing.T) {
	network := writeTestNetwork(t, testRoutingNetworkXML)
	engine := NewCHRoutingEngine()
	points := testRoutingPoints()[:2]
	routes, err := engine.TravelTimes(context.Background(), RoutingRequest{
		Network:      network,
		Origins:      points,
		Destinations: points,
		Mode:         MODE_CAR,
	})
	require.NoError(t, err)

	metres := greatCircleDistance(orb.Point{24.000, 60.0}, orb.Point{24.002, 60.0}) * 1000.0
	forward := routeOf(t, routes, "a", "b")
	assert.True(t, forward.Reachable)
	assert.InDelta(t, metres/(30*1000.0/60.0), forward.TravelTime, 1e-3)
	assert.False(t, routeOf(t, routes, "b", "a").Reachable)
}

func TestCHRoutingEngineMaxTime(t *testing.T) {
	network := writeTestNetwork(t, testRoutingNetworkXML)
	engine := NewCHRoutingEngine()
	points := testRoutingPoints()[:2]
	routes, err := engine.TravelTimes(context.Background(), RoutingRequest{
		Network:      network,
		Origins:      points,
		Destinations: points,
		Mode:         MODE_WALK,
		SpeedWalking: 4.7,
		MaxTime:      30 * time.Second,
	})
	require.NoError(t, err)
	assert.False(t, routeOf(t, routes, "a", "b").Reachable)
	assert.True(t, routeOf(t, routes, "a", "a").Reachable)
}

func TestCHRoutingEngineSnap(t *testing.T) {
	network := writeTestNetwork(t, testRoutingNetworkXML)
	engine := NewCHRoutingEngine(WithMaxSnapDistance(500))
	snapped, err := engine.Snap(context.Background(), network, []Point{
		{ID: "near", Geom: orb.Point{24.0011, 60.0001}},
		{ID: "far", Geom: orb.Point{25.0, 61.0}},
	})
	require.NoError(t, err)
	require.Len(t, snapped, 2)
	assert.True(t, snapped[0].OK)
	assert.Equal(t, orb.Point{24.001, 60.0}, snapped[0].Snapped)
	assert.False(t, snapped[1].OK)
}

func TestCHRoutingEngineUnsupported(t *testing.T) {
	engine := NewCHRoutingEngine()
	assert.False(t, engine.Supports(MODE_TRANSIT))
	_, err := engine.TravelTimes(context.Background(), RoutingRequest{Mode: MODE_TRANSIT})
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	_, err = engine.TravelTimes(context.Background(), RoutingRequest{Mode: MODE_BICYCLE})
	assert.True(t, IsConfigurationError(err))
}

func TestCHRoutingEngineEvict(t *testing.T) {
	network := writeTestNetwork(t, testRoutingNetworkXML)
	engine := NewCHRoutingEngine()
	points := testRoutingPoints()
	_, err := engine.TravelTimes(context.Background(), RoutingRequest{
		Network: network, Origins: points, Destinations: points, Mode: MODE_BICYCLE, SpeedCycling: 14.92,
	})
	require.NoError(t, err)
	_, err = engine.Snap(context.Background(), network, points)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.graphs.Size())

	engine.Evict(network)
	assert.Equal(t, 0, engine.graphs.Size())
}
