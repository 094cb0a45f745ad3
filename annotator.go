package osm2ttm

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_CYCLING_SPEED_TAG = "DGL:bicyclespeed"
)

// NetworkAnnotator writes a copy of input network with one speed tag attached to every street way.
// Nodes and relations are copied verbatim, output is replaced completely.
type NetworkAnnotator interface {
	Annotate(ctx context.Context, input, output string) error
}

type CoefficientSource uint16

const (
	COEFFICIENTS_BY_URBAN_ZONE = CoefficientSource(iota + 1)
	COEFFICIENTS_BY_ROAD_CLASS
	COEFFICIENTS_BY_SPEED_LIMIT
	COEFFICIENTS_BY_UNDEFINED = CoefficientSource(0)
)

func (iotaIdx CoefficientSource) String() string {
	return [...]string{"undefined", "urban_zone", "road_class", "speed_limit"}[iotaIdx]
}

var coefficientSources = map[string]CoefficientSource{
	"urban_zone":  COEFFICIENTS_BY_URBAN_ZONE,
	"road_class":  COEFFICIENTS_BY_ROAD_CLASS,
	"speed_limit": COEFFICIENTS_BY_SPEED_LIMIT,
}

// ParseCoefficientSource returns source for its name (urban_zone, road_class, speed_limit)
func ParseCoefficientSource(str string) (CoefficientSource, error) {
	if found, ok := coefficientSources[str]; ok {
		return found, nil
	}
	return COEFFICIENTS_BY_UNDEFINED, newConfigurationError("unknown speed coefficient source '%s'", str)
}

// DefaultSpeedCoefficientTable returns built-in table for the source
func DefaultSpeedCoefficientTable(source CoefficientSource) (*SpeedCoefficientTable, error) {
	switch source {
	case COEFFICIENTS_BY_URBAN_ZONE:
		return HelsinkiUrbanZoneCoefficients()
	case COEFFICIENTS_BY_ROAD_CLASS:
		return RoadClassCoefficients()
	case COEFFICIENTS_BY_SPEED_LIMIT:
		return SpeedLimitCoefficients()
	default:
		return nil, newConfigurationError("no speed coefficients for source '%s'", source)
	}
}

// CarSpeedAnnotator sets corrected driving speed: nominal speed × coefficient(category, time of day, nominal speed)
type CarSpeedAnnotator struct {
	timeOfDay    TimeOfDay
	source       CoefficientSource
	table        *SpeedCoefficientTable
	zones        *ZoneLayer
	tagName      string
	scannerProcs int
}

func (annotator *CarSpeedAnnotator) String() string {
	zones := "none"
	if annotator.zones != nil {
		zones = fmt.Sprintf("'%s' (%d zones)", annotator.zones.Name(), annotator.zones.Len())
	}
	return fmt.Sprintf(`
Car speed annotator parameters:
	time_of_day: '%s'
	coefficients_by: '%s'
	zone_layer: %s
	tag_name: '%s'
	`,
		annotator.timeOfDay,
		annotator.source,
		zones,
		annotator.tagName,
	)
}

// NewCarSpeedAnnotator prepares annotator. Defaults: average time of day, urban zone coefficients
// (built-in Helsinki table), tag `maxspeed:motorcar`.
func NewCarSpeedAnnotator(options ...func(*CarSpeedAnnotator)) (*CarSpeedAnnotator, error) {
	annotator := &CarSpeedAnnotator{
		timeOfDay:    TIME_OF_DAY_AVERAGE,
		source:       COEFFICIENTS_BY_URBAN_ZONE,
		tagName:      CAR_SPEED_TAG,
		scannerProcs: DEFAULT_SCANNER_PROCS,
	}
	for _, option := range options {
		option(annotator)
	}
	if annotator.table == nil {
		table, err := DefaultSpeedCoefficientTable(annotator.source)
		if err != nil {
			return nil, err
		}
		annotator.table = table
	}
	if err := annotator.Validate(); err != nil {
		return nil, err
	}
	return annotator, nil
}

func WithTimeOfDay(timeOfDay TimeOfDay) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.timeOfDay = timeOfDay
	}
}

func WithCoefficientSource(source CoefficientSource) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.source = source
	}
}

func WithSpeedCoefficientTable(table *SpeedCoefficientTable) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.table = table
	}
}

func WithZoneLayer(zones *ZoneLayer) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.zones = zones
	}
}

func WithTagName(tagName string) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.tagName = tagName
	}
}

func WithCarScannerProcs(procs int) func(*CarSpeedAnnotator) {
	return func(annotator *CarSpeedAnnotator) {
		annotator.scannerProcs = procs
	}
}

// Validate checks static configuration. It must pass before any network is touched.
func (annotator *CarSpeedAnnotator) Validate() error {
	if annotator.tagName == "" {
		return newConfigurationError("car speed tag name is empty")
	}
	if annotator.source == COEFFICIENTS_BY_UNDEFINED {
		return newConfigurationError("car speed coefficient source is not set")
	}
	if annotator.source == COEFFICIENTS_BY_URBAN_ZONE && annotator.zones == nil {
		return newConfigurationError("urban zone coefficients need an urban zone layer")
	}
	if annotator.table == nil {
		return newConfigurationError("car speed coefficient table is not set")
	}
	if err := annotator.table.Validate(); err != nil {
		return err
	}
	if annotator.source == COEFFICIENTS_BY_URBAN_ZONE {
		for _, category := range annotator.table.Categories() {
			if _, ok := urbanZoneByKey(category); !ok {
				return newConfigurationError("speed coefficient category '%s' is not an urban zone", category)
			}
		}
	}
	_, err := annotator.table.Coefficient(annotator.table.DefaultCategory(), annotator.timeOfDay, DEFAULT_NOMINAL_SPEED)
	return err
}

// category returns coefficient category of the way
func (annotator *CarSpeedAnnotator) category(way *osm.Way, geometry orb.LineString) string {
	switch annotator.source {
	case COEFFICIENTS_BY_ROAD_CLASS:
		return roadClassCategory(roadClass(way.Tags.Find("highway")))
	case COEFFICIENTS_BY_SPEED_LIMIT:
		return SPEED_LIMIT_CATEGORY
	}
	zone, ok := annotator.zones.ZoneForWay(way.ID, geometry)
	if !ok {
		reportWarning(&UnresolvedZoneWarning{Layer: annotator.zones.Name(), Subject: fmt.Sprintf("way %d", way.ID)})
		return annotator.table.DefaultCategory()
	}
	urbanZone, ok := UrbanZoneFromCode(zone.Code)
	if !ok {
		reportWarning(&UnresolvedZoneWarning{Layer: annotator.zones.Name(), Subject: fmt.Sprintf("way %d (unknown zone code %d)", way.ID, zone.Code)})
		return annotator.table.DefaultCategory()
	}
	return urbanZone.String()
}

// CorrectedSpeed returns corrected speed (km/h) of the way
func (annotator *CarSpeedAnnotator) CorrectedSpeed(way *osm.Way, geometry orb.LineString) (float64, error) {
	speed, _, err := annotator.correctedSpeed(way, geometry)
	return speed, err
}

func (annotator *CarSpeedAnnotator) correctedSpeed(way *osm.Way, geometry orb.LineString) (float64, SpeedSource, error) {
	nominal, source, malformed := NominalSpeed(way.Tags, CAR_SPEED_TAG)
	for i := range malformed {
		malformed[i].WayID = way.ID
		reportWarning(&malformed[i])
	}
	coefficient, err := annotator.table.Coefficient(annotator.category(way, geometry), annotator.timeOfDay, nominal)
	if err != nil {
		return 0, source, err
	}
	log.WithFields(logrus.Fields{"way_id": way.ID, "speed_source": source}).Debugf("Nominal speed %.0f km/h, coefficient %.4f", nominal, coefficient)
	return nominal * coefficient, source, nil
}

func (annotator *CarSpeedAnnotator) Annotate(ctx context.Context, input, output string) error {
	st := time.Now()
	needGeometry := annotator.source == COEFFICIENTS_BY_URBAN_ZONE
	nodes := make(map[osm.NodeID]orb.Point)
	annotated := 0
	sources := make(map[SpeedSource]int)
	err := rewriteNetwork(ctx, input, output, annotator.scannerProcs, func(obj osm.Object) error {
		switch element := obj.(type) {
		case *osm.Node:
			if needGeometry {
				nodes[element.ID] = element.Point()
			}
		case *osm.Way:
			if element.Tags.Find("highway") == "" {
				return nil
			}
			var geometry orb.LineString
			if needGeometry {
				geometry = wayGeometry(element, nodes)
			}
			speed, source, err := annotator.correctedSpeed(element, geometry)
			if err != nil {
				return err
			}
			element.Tags = setTag(element.Tags, annotator.tagName, fmt.Sprintf("%.2f", speed))
			sources[source]++
			annotated++
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "Can't annotate car speeds of '%s'", input)
	}
	annotatedWays.WithLabelValues("car").Add(float64(annotated))
	fields := logrus.Fields{"time_of_day": annotator.timeOfDay}
	for source, count := range sources {
		nominalSpeedSources.WithLabelValues(source.String()).Add(float64(count))
		fields["speed_source_"+source.String()] = count
	}
	log.WithFields(fields).Infof("Annotated %d ways with '%s' in %v", annotated, annotator.tagName, time.Since(st))
	return nil
}

// wayGeometry returns line of way built from already seen nodes. Unknown nodes are skipped.
func wayGeometry(way *osm.Way, nodes map[osm.NodeID]orb.Point) orb.LineString {
	line := make(orb.LineString, 0, len(way.Nodes))
	for _, wayNode := range way.Nodes {
		if pt, ok := nodes[wayNode.ID]; ok {
			line = append(line, pt)
		}
	}
	return line
}

// CyclingSpeedAnnotator sets cycling speed: base speed scaled by measured speed of the way relative
// to the mean of all measurements. Ways without measurements get the base speed.
type CyclingSpeedAnnotator struct {
	baseSpeed    float64
	speeds       *CyclingSpeeds
	tagName      string
	scannerProcs int
}

// NewCyclingSpeedAnnotator prepares annotator. Base speed defaults to mean of measured speeds.
func NewCyclingSpeedAnnotator(options ...func(*CyclingSpeedAnnotator)) (*CyclingSpeedAnnotator, error) {
	annotator := &CyclingSpeedAnnotator{
		baseSpeed:    -1,
		tagName:      DEFAULT_CYCLING_SPEED_TAG,
		scannerProcs: DEFAULT_SCANNER_PROCS,
	}
	for _, option := range options {
		option(annotator)
	}
	if annotator.speeds != nil && annotator.speeds.Len() == 0 {
		annotator.speeds = nil
	}
	if annotator.baseSpeed < 0 {
		if annotator.speeds == nil {
			return nil, newConfigurationError("cycling base speed is not set and there are no measured speeds")
		}
		annotator.baseSpeed = annotator.speeds.Mean()
	}
	if annotator.baseSpeed <= 0 {
		return nil, newConfigurationError("cycling base speed must be positive, got %f", annotator.baseSpeed)
	}
	if annotator.tagName == "" {
		return nil, newConfigurationError("cycling speed tag name is empty")
	}
	return annotator, nil
}

func WithBaseSpeed(speed float64) func(*CyclingSpeedAnnotator) {
	return func(annotator *CyclingSpeedAnnotator) {
		annotator.baseSpeed = speed
	}
}

func WithCyclingSpeeds(speeds *CyclingSpeeds) func(*CyclingSpeedAnnotator) {
	return func(annotator *CyclingSpeedAnnotator) {
		annotator.speeds = speeds
	}
}

func WithCyclingTagName(tagName string) func(*CyclingSpeedAnnotator) {
	return func(annotator *CyclingSpeedAnnotator) {
		annotator.tagName = tagName
	}
}

func WithCyclingScannerProcs(procs int) func(*CyclingSpeedAnnotator) {
	return func(annotator *CyclingSpeedAnnotator) {
		annotator.scannerProcs = procs
	}
}

// SpeedFor returns cycling speed (km/h) of the way
func (annotator *CyclingSpeedAnnotator) SpeedFor(wayID osm.WayID) float64 {
	if annotator.speeds == nil {
		return annotator.baseSpeed
	}
	measured, ok := annotator.speeds.SpeedFor(wayID)
	if !ok {
		return annotator.baseSpeed
	}
	return measured / annotator.speeds.Mean() * annotator.baseSpeed
}

func (annotator *CyclingSpeedAnnotator) Annotate(ctx context.Context, input, output string) error {
	st := time.Now()
	annotated := 0
	err := rewriteNetwork(ctx, input, output, annotator.scannerProcs, func(obj osm.Object) error {
		way, ok := obj.(*osm.Way)
		if !ok || way.Tags.Find("highway") == "" {
			return nil
		}
		way.Tags = setTag(way.Tags, annotator.tagName, fmt.Sprintf("%.2f", annotator.SpeedFor(way.ID)))
		annotated++
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "Can't annotate cycling speeds of '%s'", input)
	}
	annotatedWays.WithLabelValues("bicycle").Add(float64(annotated))
	log.WithField("base_speed", annotator.baseSpeed).Infof("Annotated %d ways with '%s' in %v", annotated, annotator.tagName, time.Since(st))
	return nil
}
