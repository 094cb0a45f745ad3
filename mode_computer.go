package osm2ttm

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DISTANCE_COLUMN_SUFFIX is appended to a variant column to name its distance column
	DISTANCE_COLUMN_SUFFIX = "_d"
	annotatedNetworkName   = "network.osm"
)

// ModeMatrixComputer produces travel time columns of one transport mode
type ModeMatrixComputer interface {
	Mode() TransportMode
	// Columns lists names of produced columns in order
	Columns() []string
	// Validate checks static configuration. It must not do any routing.
	Validate() error
	Compute(ctx context.Context) (*TravelTimeMatrix, error)
}

// VariantState is a step of single variant computation
type VariantState uint16

const (
	VARIANT_PENDING = VariantState(iota)
	VARIANT_NETWORK_PREPARED
	VARIANT_ROUTED
	VARIANT_CORRECTED
	VARIANT_MERGED
)

func (iotaIdx VariantState) String() string {
	return [...]string{"pending", "network_prepared", "routed", "corrected", "merged"}[iotaIdx]
}

// ComputationInputs are shared read-only by every mode computer
type ComputationInputs struct {
	Network      string
	TransitFeeds []string
	Points       []Point
	Engine       RoutingEngine
	AccessTimes  *AccessTimeModel
	// Temporary annotated networks are created here. Empty means system temporary directory.
	WorkDir string
}

func (inputs ComputationInputs) Validate() error {
	if inputs.Network == "" {
		return newConfigurationError("network file is not set")
	}
	if len(inputs.Points) == 0 {
		return newConfigurationError("no origins/destinations given")
	}
	if inputs.Engine == nil {
		return newConfigurationError("routing engine is not set")
	}
	if inputs.AccessTimes == nil {
		return newConfigurationError("access times are not computed")
	}
	return nil
}

// allPairs returns every (origin, destination) pair of points, origins outer
func allPairs(points []Point) []ODPair {
	pairs := make([]ODPair, 0, len(points)*len(points))
	for _, origin := range points {
		for _, destination := range points {
			pairs = append(pairs, ODPair{FromID: origin.ID, ToID: destination.ID})
		}
	}
	return pairs
}

// networkEvicter is implemented by engines caching prepared networks
type networkEvicter interface {
	Evict(network string)
}

// variant is one sub-computation of a mode: routing request plus corrections
type variant struct {
	column string
	// Nil annotator means network is used as is
	annotator     NetworkAnnotator
	request       RoutingRequest
	overhead      func(pair ODPair) (float64, bool)
	withDistances bool
	state         VariantState
}

func (v *variant) advance(mode TransportMode, state VariantState) {
	v.state = state
	log.WithFields(logrus.Fields{"mode": mode, "column": v.column}).Debugf("Variant is %s", state)
}

// modeComputer holds what every mode computer shares
type modeComputer struct {
	mode     TransportMode
	inputs   ComputationInputs
	settings ComputationSettings
	pairs    []ODPair
}

func newModeComputer(mode TransportMode, inputs ComputationInputs, settings ComputationSettings) modeComputer {
	settings.DepartureSlots = append([]DepartureSlot(nil), settings.DepartureSlots...)
	settings.WalkingSpeeds = append([]NamedSpeed(nil), settings.WalkingSpeeds...)
	settings.CyclingSpeeds = append([]NamedSpeed(nil), settings.CyclingSpeeds...)
	inputs.TransitFeeds = append([]string(nil), inputs.TransitFeeds...)
	return modeComputer{
		mode:     mode,
		inputs:   inputs,
		settings: settings,
		pairs:    allPairs(inputs.Points),
	}
}

func (computer *modeComputer) Mode() TransportMode {
	return computer.mode
}

func (computer *modeComputer) validate() error {
	if err := computer.inputs.Validate(); err != nil {
		return err
	}
	if err := computer.settings.Validate(); err != nil {
		return err
	}
	if !computer.inputs.Engine.Supports(computer.mode) {
		return newConfigurationError("routing engine does not support mode '%s'", computer.mode)
	}
	return nil
}

// request returns routing request with fields shared by every variant
func (computer *modeComputer) request(departure time.Duration) RoutingRequest {
	return RoutingRequest{
		Network:         computer.inputs.Network,
		Origins:         computer.inputs.Points,
		Destinations:    computer.inputs.Points,
		Departure:       computer.settings.Departure(departure),
		DepartureWindow: computer.settings.DepartureWindow,
		Mode:            computer.mode,
		MaxTime:         computer.settings.MaxTime,
	}
}

// compute runs variants in order and merges them into a single matrix
func (computer *modeComputer) compute(ctx context.Context, variants []*variant) (*TravelTimeMatrix, error) {
	st := time.Now()
	result := NewTravelTimeMatrix(computer.pairs)
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := computer.runVariant(ctx, result, v); err != nil {
			return nil, errors.Wrapf(err, "Can't compute '%s'", v.column)
		}
	}
	log.WithField("mode", computer.mode).Infof("Computed %d columns for %d pairs. Done in %v", len(result.Columns()), result.Len(), time.Since(st))
	return result, nil
}

func (computer *modeComputer) runVariant(ctx context.Context, result *TravelTimeMatrix, v *variant) error {
	st := time.Now()
	defer func() {
		variantDuration.WithLabelValues(computer.mode.String()).Observe(time.Since(st).Seconds())
	}()

	routes, err := computer.routeVariant(ctx, v)
	if err != nil {
		return err
	}
	// Engine may leave pairs out, rows follow requested pairs
	matrix := NewTravelTimeMatrix(computer.pairs)
	if err := matrix.LeftJoin(matrixFromRoutes(routes, v.withDistances)); err != nil {
		return err
	}
	v.advance(computer.mode, VARIANT_ROUTED)

	if err := cleanSelfPairs(matrix, computer.pairs); err != nil {
		return err
	}
	if err := addAccessTimes(matrix, computer.inputs.AccessTimes); err != nil {
		return err
	}
	if v.overhead != nil {
		if err := addOverhead(matrix, v.overhead); err != nil {
			return err
		}
	}
	v.advance(computer.mode, VARIANT_CORRECTED)

	if err := mergeVariant(result, matrix, v.column, v.withDistances); err != nil {
		return err
	}
	v.advance(computer.mode, VARIANT_MERGED)
	return nil
}

// routeVariant prepares network of the variant and routes on it.
// Annotated network is removed once routing is over, whatever the outcome.
func (computer *modeComputer) routeVariant(ctx context.Context, v *variant) ([]RoutedPair, error) {
	request := v.request
	request.WithDistances = v.withDistances
	if v.annotator != nil {
		dir, err := os.MkdirTemp(computer.inputs.WorkDir, "osm2ttm-"+v.column+"-")
		if err != nil {
			return nil, errors.Wrap(err, "Can't create temporary directory for annotated network")
		}
		network := filepath.Join(dir, annotatedNetworkName)
		defer computer.releaseNetwork(dir, network)
		if err := v.annotator.Annotate(ctx, computer.inputs.Network, network); err != nil {
			return nil, errors.Wrap(err, "Can't annotate network")
		}
		request.Network = network
	}
	v.advance(computer.mode, VARIANT_NETWORK_PREPARED)

	routes, err := computer.inputs.Engine.TravelTimes(ctx, request)
	if err != nil {
		return nil, errors.Wrap(err, "Can't route")
	}
	return routes, nil
}

func (computer *modeComputer) releaseNetwork(dir, network string) {
	if evicter, ok := computer.inputs.Engine.(networkEvicter); ok {
		evicter.Evict(network)
	}
	if err := os.RemoveAll(dir); err != nil {
		reportWarning(&ResourceCleanupError{Path: dir, Err: err})
	}
}

// cleanSelfPairs sets zero travel time (and distance) for pairs with origin equal to destination
func cleanSelfPairs(matrix *TravelTimeMatrix, pairs []ODPair) error {
	for _, pair := range pairs {
		if !pair.IsSelf() {
			continue
		}
		for _, column := range matrix.Columns() {
			if err := matrix.Set(column, pair, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// addAccessTimes adds walking time to the snapped location at both ends.
// Pairs with an unsnapped end become absent. Self pairs are left as is.
func addAccessTimes(matrix *TravelTimeMatrix, accessTimes *AccessTimeModel) error {
	return matrix.Apply(TRAVEL_TIME_COLUMN, func(pair ODPair, value float64) float64 {
		if pair.IsSelf() {
			return value
		}
		fromTime, okFrom := accessTimes.WalkingTime(pair.FromID)
		toTime, okTo := accessTimes.WalkingTime(pair.ToID)
		if !okFrom || !okTo {
			return math.NaN()
		}
		return value + fromTime + toTime
	})
}

// addOverhead adds mode specific fixed time (parking, bicycle locking). Self pairs never get it.
func addOverhead(matrix *TravelTimeMatrix, overhead func(pair ODPair) (float64, bool)) error {
	return matrix.Apply(TRAVEL_TIME_COLUMN, func(pair ODPair, value float64) float64 {
		if pair.IsSelf() {
			return value
		}
		minutes, ok := overhead(pair)
		if !ok {
			return math.NaN()
		}
		return value + minutes
	})
}

// mergeVariant renames generic columns of variant matrix and joins them into result.
// Pairs left without travel time are reported as routing gaps.
func mergeVariant(result, matrix *TravelTimeMatrix, column string, withDistances bool) error {
	if err := matrix.RenameColumn(TRAVEL_TIME_COLUMN, column); err != nil {
		return err
	}
	if withDistances {
		if err := matrix.RenameColumn(DISTANCE_COLUMN, column+DISTANCE_COLUMN_SUFFIX); err != nil {
			return err
		}
	}
	if err := result.LeftJoin(matrix); err != nil {
		return err
	}
	gaps := 0
	for row := 0; row < result.Len(); row++ {
		if _, ok := result.ValueAt(column, row); !ok {
			gaps++
			reportWarning(&RoutingGapError{Column: column, Pair: result.Pair(row)})
		}
	}
	if gaps > 0 {
		log.WithField("column", column).Infof("%d of %d pairs have no travel time", gaps, result.Len())
	}
	return nil
}
