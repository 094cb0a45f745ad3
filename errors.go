package osm2ttm

import (
	"fmt"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedMode = errors.New("transport mode is not supported by the routing engine")
	ErrColumnCollision = errors.New("column already exists in travel time matrix")
)

// ConfigurationError signals malformed or incomplete static tables or settings.
// It is fatal and is raised before any routing starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func newConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err (or any error it wraps) is a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// UnresolvedZoneWarning is reported when a geometry matches no zone of a layer
type UnresolvedZoneWarning struct {
	Layer   string
	Subject string
}

func (w *UnresolvedZoneWarning) Error() string {
	return fmt.Sprintf("%s is not covered by any zone of layer '%s'", w.Subject, w.Layer)
}

// MalformedTagWarning is reported when a speed tag is present but can't be parsed
type MalformedTagWarning struct {
	WayID osm.WayID
	Tag   string
	Value string
}

func (w *MalformedTagWarning) Error() string {
	return fmt.Sprintf("way %d: can't parse tag '%s' with value '%s'", w.WayID, w.Tag, w.Value)
}

// RoutingGapError marks an origin-destination pair the routing engine could not connect
type RoutingGapError struct {
	Column string
	Pair   ODPair
}

func (e *RoutingGapError) Error() string {
	return fmt.Sprintf("no route from '%s' to '%s' for column '%s'", e.Pair.FromID, e.Pair.ToID, e.Column)
}

// ResourceCleanupError is reported when a temporary artifact can't be removed
type ResourceCleanupError struct {
	Path string
	Err  error
}

func (e *ResourceCleanupError) Error() string {
	return fmt.Sprintf("can't remove temporary resource '%s': %v", e.Path, e.Err)
}

func (e *ResourceCleanupError) Unwrap() error {
	return e.Err
}

// reportWarning logs a locally recovered failure and counts it
func reportWarning(err error) {
	switch w := err.(type) {
	case *UnresolvedZoneWarning:
		zoneFallbacks.WithLabelValues(w.Layer).Inc()
		log.WithFields(logrus.Fields{"layer": w.Layer, "subject": w.Subject}).Debug(w.Error())
	case *MalformedTagWarning:
		malformedTags.WithLabelValues(w.Tag).Inc()
		log.WithFields(logrus.Fields{"way_id": w.WayID, "tag": w.Tag}).Warn(w.Error())
	case *RoutingGapError:
		routingGaps.WithLabelValues(w.Column).Inc()
		log.WithFields(logrus.Fields{"from_id": w.Pair.FromID, "to_id": w.Pair.ToID}).Debug(w.Error())
	case *ResourceCleanupError:
		cleanupFailures.Inc()
		log.WithField("path", w.Path).Warn(w.Error())
	default:
		log.Warn(err.Error())
	}
}
