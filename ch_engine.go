package osm2ttm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LdDl/ch"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// DEFAULT_MAX_SNAP_DISTANCE limits distance between a point and its snapped vertex (metres)
	DEFAULT_MAX_SNAP_DISTANCE = 1000.0
)

// CHRoutingEngine routes street modes (walk, bike, car) over contraction hierarchies built from
// an OSM network file. Transit is not supported.
//
// Walking graphs are weighted by length, so one graph serves every walking speed.
// Cycling and driving graphs are weighted by minutes, speeds are read from the annotated tags.
// Graphs are cached per network file until evicted.
type CHRoutingEngine struct {
	graphs          *xsync.MapOf[graphKey, *streetGraph]
	carSpeedTag     string
	bicycleSpeedTag string
	scannerProcs    int
	maxSnapDistance float64
}

type graphKey struct {
	network string
	mode    TransportMode
	speed   float64
}

func NewCHRoutingEngine(options ...func(*CHRoutingEngine)) *CHRoutingEngine {
	engine := &CHRoutingEngine{
		graphs:          xsync.NewMapOf[graphKey, *streetGraph](),
		carSpeedTag:     CAR_SPEED_TAG,
		bicycleSpeedTag: DEFAULT_CYCLING_SPEED_TAG,
		scannerProcs:    DEFAULT_SCANNER_PROCS,
		maxSnapDistance: DEFAULT_MAX_SNAP_DISTANCE,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

func WithCarSpeedTag(tag string) func(*CHRoutingEngine) {
	return func(engine *CHRoutingEngine) {
		engine.carSpeedTag = tag
	}
}

func WithBicycleSpeedTag(tag string) func(*CHRoutingEngine) {
	return func(engine *CHRoutingEngine) {
		engine.bicycleSpeedTag = tag
	}
}

func WithScannerProcs(procs int) func(*CHRoutingEngine) {
	return func(engine *CHRoutingEngine) {
		engine.scannerProcs = procs
	}
}

func WithMaxSnapDistance(metres float64) func(*CHRoutingEngine) {
	return func(engine *CHRoutingEngine) {
		engine.maxSnapDistance = metres
	}
}

func (engine *CHRoutingEngine) Supports(mode TransportMode) bool {
	switch mode {
	case MODE_WALK, MODE_BICYCLE, MODE_CAR:
		return true
	default:
		return false
	}
}

// Evict drops cached graphs built from the network file
func (engine *CHRoutingEngine) Evict(network string) {
	engine.graphs.Range(func(key graphKey, _ *streetGraph) bool {
		if key.network == network {
			engine.graphs.Delete(key)
		}
		return true
	})
}

// Snap moves points to nearest vertices of the walking graph
func (engine *CHRoutingEngine) Snap(ctx context.Context, network string, points []Point) ([]SnapResult, error) {
	graph, err := engine.graph(ctx, network, MODE_WALK, 0)
	if err != nil {
		return nil, err
	}
	results := make([]SnapResult, len(points))
	for i, pt := range points {
		if vertex, ok := graph.nearest(pt.Geom, engine.maxSnapDistance); ok {
			results[i] = SnapResult{Snapped: vertex.geom, OK: true}
		}
	}
	return results, nil
}

func (engine *CHRoutingEngine) TravelTimes(ctx context.Context, request RoutingRequest) ([]RoutedPair, error) {
	if !engine.Supports(request.Mode) {
		return nil, errors.Wrapf(ErrUnsupportedMode, "mode '%s'", request.Mode)
	}
	speed := 0.0
	switch request.Mode {
	case MODE_WALK:
		if request.SpeedWalking <= 0 {
			return nil, newConfigurationError("walking speed must be positive, got %f", request.SpeedWalking)
		}
	case MODE_BICYCLE:
		if request.SpeedCycling <= 0 {
			return nil, newConfigurationError("cycling speed must be positive, got %f", request.SpeedCycling)
		}
		speed = request.SpeedCycling
	}
	graph, err := engine.graph(ctx, request.Network, request.Mode, speed)
	if err != nil {
		return nil, err
	}

	origins := graph.snapAll(request.Origins, engine.maxSnapDistance)
	destinations := graph.snapAll(request.Destinations, engine.maxSnapDistance)
	maxMinutes := request.MaxTime.Minutes()

	st := time.Now()
	routes := make([]RoutedPair, 0, len(request.Origins)*len(request.Destinations))
	for i, origin := range request.Origins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, destination := range request.Destinations {
			route := RoutedPair{FromID: origin.ID, ToID: destination.ID}
			switch {
			case origin.ID == destination.ID:
				route.Reachable = true
			case origins[i] == nil || destinations[j] == nil:
			default:
				minutes, distance, ok := graph.route(origins[i].id, destinations[j].id, request.WithDistances)
				if !ok {
					break
				}
				if request.Mode == MODE_WALK {
					// Walking graph is weighted by metres
					minutes = minutes / (request.SpeedWalking * 1000.0 / 60.0)
				}
				if maxMinutes > 0 && minutes > maxMinutes {
					break
				}
				route.TravelTime = minutes
				route.Distance = distance
				route.Reachable = true
			}
			routes = append(routes, route)
		}
	}
	log.WithField("mode", request.Mode).Debugf("Routed %d pairs in %v", len(routes), time.Since(st))
	return routes, nil
}

func (engine *CHRoutingEngine) graph(ctx context.Context, network string, mode TransportMode, speed float64) (*streetGraph, error) {
	key := graphKey{network: network, mode: mode, speed: speed}
	if graph, ok := engine.graphs.Load(key); ok {
		return graph, nil
	}
	graph, err := engine.buildGraph(ctx, network, mode, speed)
	if err != nil {
		return nil, err
	}
	actual, _ := engine.graphs.LoadOrStore(key, graph)
	return actual, nil
}

// edgeWeight returns weight of a way segment: metres for walking, minutes otherwise
func (engine *CHRoutingEngine) edgeWeight(mode TransportMode, tags osm.Tags, metres, defaultSpeed float64) float64 {
	kmh := 0.0
	switch mode {
	case MODE_WALK:
		return metres
	case MODE_BICYCLE:
		if value, ok := parseSpeedValue(tags.Find(engine.bicycleSpeedTag)); ok && value > 0 {
			kmh = value
		} else {
			kmh = defaultSpeed
		}
	case MODE_CAR:
		if value, ok := parseSpeedValue(tags.Find(engine.carSpeedTag)); ok && value > 0 {
			kmh = value
		} else {
			kmh, _, _ = NominalSpeed(tags, engine.carSpeedTag)
		}
	}
	return metres / (kmh * 1000.0 / 60.0)
}

func modeOneway(wayID osm.WayID, tags osm.Tags, mode TransportMode) (oneway bool, reversed bool) {
	if mode == MODE_WALK {
		return false, false
	}
	if mode == MODE_BICYCLE && tags.Find("oneway:bicycle") == "no" {
		return false, false
	}
	return wayDirection(wayID, tags)
}

type edgeInfo struct {
	weight float64
	length float64
}

func (engine *CHRoutingEngine) buildGraph(ctx context.Context, network string, mode TransportMode, speed float64) (*streetGraph, error) {
	st := time.Now()
	ways := []*osm.Way{}
	nodesSeen := make(map[osm.NodeID]struct{})
	err := scanNetwork(ctx, network, engine.scannerProcs, func(obj osm.Object) error {
		way, ok := obj.(*osm.Way)
		if !ok || !wayAllowsMode(way.Tags, mode) {
			return nil
		}
		ways = append(ways, way)
		for _, wayNode := range way.Nodes {
			nodesSeen[wayNode.ID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Can't scan ways for %s graph", mode)
	}

	nodes := make(map[osm.NodeID]orb.Point, len(nodesSeen))
	err = scanNetwork(ctx, network, engine.scannerProcs, func(obj osm.Object) error {
		node, ok := obj.(*osm.Node)
		if !ok {
			return nil
		}
		if _, ok := nodesSeen[node.ID]; ok {
			nodes[node.ID] = node.Point()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Can't scan nodes for %s graph", mode)
	}

	edges := make(map[[2]int64]edgeInfo)
	addEdge := func(from, to osm.NodeID, info edgeInfo) {
		key := [2]int64{int64(from), int64(to)}
		if prev, ok := edges[key]; !ok || info.weight < prev.weight {
			edges[key] = info
		}
	}
	for _, way := range ways {
		oneway, reversed := modeOneway(way.ID, way.Tags, mode)
		for i := 1; i < len(way.Nodes); i++ {
			source, target := way.Nodes[i-1].ID, way.Nodes[i].ID
			sourceGeom, okSource := nodes[source]
			targetGeom, okTarget := nodes[target]
			if !okSource || !okTarget || source == target {
				continue
			}
			metres := greatCircleDistance(sourceGeom, targetGeom) * 1000.0
			info := edgeInfo{weight: engine.edgeWeight(mode, way.Tags, metres, speed), length: metres}
			if !oneway || !reversed {
				addEdge(source, target, info)
			}
			if !oneway || reversed {
				addEdge(target, source, info)
			}
		}
	}

	graph, err := newStreetGraph(nodes, edges)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't prepare %s graph of '%s'", mode, network)
	}
	log.WithField("mode", mode).Infof("Prepared graph of '%s': %d vertices, %d edges. Done in %v", network, len(graph.vertices), len(edges), time.Since(st))
	return graph, nil
}

type graphVertex struct {
	id        int64
	geom      orb.Point
	projected orb.Point
}

func (vertex *graphVertex) Point() orb.Point {
	return vertex.projected
}

// streetGraph is a contracted graph with vertex index for snapping
type streetGraph struct {
	mu       sync.Mutex
	graph    ch.Graph
	vertices map[int64]*graphVertex
	lengths  map[[2]int64]float64
	index    *quadtree.Quadtree
}

func newStreetGraph(nodes map[osm.NodeID]orb.Point, edges map[[2]int64]edgeInfo) (*streetGraph, error) {
	graph := &streetGraph{
		vertices: make(map[int64]*graphVertex),
		lengths:  make(map[[2]int64]float64, len(edges)),
	}
	bound := orb.Bound{}
	for _, id := range sortedKeys(edges2vertices(edges)) {
		if err := graph.graph.CreateVertex(id); err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex %d", id)
		}
		geom := nodes[osm.NodeID(id)]
		vertex := &graphVertex{id: id, geom: geom, projected: pointToMercator(geom)}
		if len(graph.vertices) == 0 {
			bound = vertex.projected.Bound()
		} else {
			bound = bound.Extend(vertex.projected)
		}
		graph.vertices[id] = vertex
	}
	for key, info := range edges {
		if err := graph.graph.AddEdge(key[0], key[1], info.weight); err != nil {
			return nil, errors.Wrapf(err, "Can't add edge %d->%d", key[0], key[1])
		}
		graph.lengths[key] = info.length
	}
	graph.index = quadtree.New(bound)
	for _, vertex := range graph.vertices {
		if err := graph.index.Add(vertex); err != nil {
			return nil, errors.Wrapf(err, "Can't index vertex %d", vertex.id)
		}
	}
	if len(graph.vertices) > 0 {
		graph.graph.PrepareContractionHierarchies()
	}
	return graph, nil
}

func edges2vertices(edges map[[2]int64]edgeInfo) map[int64]struct{} {
	vertices := make(map[int64]struct{}, len(edges))
	for key := range edges {
		vertices[key[0]] = struct{}{}
		vertices[key[1]] = struct{}{}
	}
	return vertices
}

// nearest returns vertex closest to the WGS84 point within maxDistance metres
func (graph *streetGraph) nearest(pt orb.Point, maxDistance float64) (*graphVertex, bool) {
	if len(graph.vertices) == 0 {
		return nil, false
	}
	found := graph.index.Find(pointToMercator(pt))
	if found == nil {
		return nil, false
	}
	vertex := found.(*graphVertex)
	if maxDistance > 0 && greatCircleDistance(pt, vertex.geom)*1000.0 > maxDistance {
		return nil, false
	}
	return vertex, true
}

func (graph *streetGraph) snapAll(points []Point, maxDistance float64) []*graphVertex {
	snapped := make([]*graphVertex, len(points))
	for i := range points {
		if vertex, ok := graph.nearest(points[i].Geom, maxDistance); ok {
			snapped[i] = vertex
		}
	}
	return snapped
}

// route returns cost and (optionally) length in metres of the shortest path
func (graph *streetGraph) route(source, target int64, withDistance bool) (float64, float64, bool) {
	if source == target {
		return 0, 0, true
	}
	graph.mu.Lock()
	cost, path := graph.graph.ShortestPath(source, target)
	graph.mu.Unlock()
	if cost < 0 {
		return 0, 0, false
	}
	distance := 0.0
	if withDistance {
		for i := 1; i < len(path); i++ {
			distance += graph.lengths[[2]int64{path[i-1], path[i]}]
		}
	}
	return cost, distance, true
}

func (graph *streetGraph) String() string {
	return fmt.Sprintf("street graph: %d vertices, %d edges", len(graph.vertices), len(graph.lengths))
}
