package osm2ttm

import (
	"context"
	"time"

	"github.com/paulmach/orb"
)

// RoutingRequest describes one travel time matrix computation between every origin and destination
type RoutingRequest struct {
	Network         string
	TransitFeeds    []string
	Origins         []Point
	Destinations    []Point
	Departure       time.Time
	DepartureWindow time.Duration
	Mode            TransportMode
	// km/h
	SpeedWalking float64
	SpeedCycling float64
	// Pairs slower than MaxTime are unreachable. Zero means no limit.
	MaxTime       time.Duration
	WithDistances bool
}

// RoutedPair is a single result of routing. Travel time is in minutes, distance in metres.
type RoutedPair struct {
	FromID     string
	ToID       string
	TravelTime float64
	Distance   float64
	Reachable  bool
}

// RoutingEngine computes travel times on a prepared network
type RoutingEngine interface {
	// Supports reports whether engine can route the mode
	Supports(mode TransportMode) bool
	// Snap finds nearest usable network location of every point. Result order follows points.
	Snap(ctx context.Context, network string, points []Point) ([]SnapResult, error)
	// TravelTimes returns one entry per (origin, destination) pair
	TravelTimes(ctx context.Context, request RoutingRequest) ([]RoutedPair, error)
}

// SnapResult is a point moved onto the network. OK is false when no network location is near enough.
type SnapResult struct {
	Snapped orb.Point
	OK      bool
}

// Snapper moves points onto a network
type Snapper interface {
	Snap(ctx context.Context, points []Point) ([]SnapResult, error)
}

type networkSnapper struct {
	engine  RoutingEngine
	network string
}

// NewNetworkSnapper binds engine snapping to a network file
func NewNetworkSnapper(engine RoutingEngine, network string) Snapper {
	return &networkSnapper{engine: engine, network: network}
}

func (snapper *networkSnapper) Snap(ctx context.Context, points []Point) ([]SnapResult, error) {
	return snapper.engine.Snap(ctx, snapper.network, points)
}
