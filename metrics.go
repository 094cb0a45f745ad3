package osm2ttm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsRegistry = prometheus.NewRegistry()
	metricsFactory  = promauto.With(metricsRegistry)

	zoneFallbacks = metricsFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "osm2ttm_zone_fallbacks_total",
		Help: "Total number of geometries not covered by any zone of a layer.",
	}, []string{"layer"})
	malformedTags = metricsFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "osm2ttm_malformed_speed_tags_total",
		Help: "Total number of speed tags that could not be parsed.",
	}, []string{"tag"})
	annotatedWays = metricsFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "osm2ttm_annotated_ways_total",
		Help: "Total number of ways that received a speed tag.",
	}, []string{"annotator"})
	nominalSpeedSources = metricsFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "osm2ttm_nominal_speed_sources_total",
		Help: "Total number of car ways by the tag their nominal speed was taken from.",
	}, []string{"source"})
	routingGaps = metricsFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "osm2ttm_routing_gaps_total",
		Help: "Total number of origin-destination pairs left without a travel time.",
	}, []string{"column"})
	cleanupFailures = metricsFactory.NewCounter(prometheus.CounterOpts{
		Name: "osm2ttm_cleanup_failures_total",
		Help: "Total number of temporary resources that could not be removed.",
	})
	variantDuration = metricsFactory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osm2ttm_variant_duration_seconds",
		Help:    "Duration of a single mode variant computation.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"mode"})
	outputDuration = metricsFactory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osm2ttm_output_duration_seconds",
		Help:    "Duration of writing a single output format.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"writer"})
)

// WriteMetrics dumps collected run metrics in text exposition format
func WriteMetrics(filename string) error {
	return prometheus.WriteToTextfile(filename, metricsRegistry)
}
