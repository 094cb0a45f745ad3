package osm2ttm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_CONFIG_FILE = "/data/ttm.yml"
	dateLayout          = "2006-01-02"
)

// PostgresConfig enables PostgreSQL output when DSN is set
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table" validate:"omitempty,max=63"`
}

// AppConfig is the whole run configuration
type AppConfig struct {
	OSMHistoryFile        string         `yaml:"osm_history_file" validate:"required"`
	OriginsDestinations   string         `yaml:"origins_destinations" validate:"required"`
	OriginsDestinationsID string         `yaml:"origins_destinations_id" validate:"required"`
	GTFSDataSets          []string       `yaml:"gtfs_data_sets"`
	Date                  string         `yaml:"date" validate:"required,datetime=2006-01-02"`
	CyclingSpeeds         string         `yaml:"cycling_speeds"`
	Extent                string         `yaml:"extent"`
	UrbanZones            string         `yaml:"urban_zones"`
	Municipalities        string         `yaml:"municipalities"`
	OutputDirectory       string         `yaml:"output_directory" validate:"required"`
	OutputNamePrefix      string         `yaml:"output_name_prefix" validate:"required"`
	WorkDirectory         string         `yaml:"work_directory"`
	Modes                 []string       `yaml:"modes" validate:"required,min=1,unique,dive,oneof=walk bike car pt"`
	CarCoefficientsBy     string         `yaml:"car_coefficients_by" validate:"oneof=urban_zone road_class speed_limit"`
	CalculateDistances    bool           `yaml:"calculate_distances"`
	Concurrent            bool           `yaml:"concurrent"`
	ScannerProcs          int            `yaml:"scanner_procs" validate:"gte=1"`
	LogLevel              string         `yaml:"log_level" validate:"oneof=debug info warn error fatal panic"`
	MetricsFile           string         `yaml:"metrics_file"`
	Postgres              PostgresConfig `yaml:"postgres"`
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		OriginsDestinationsID: DEFAULT_POINT_ID_PROPERTY,
		OutputDirectory:       "/data/output",
		OutputNamePrefix:      "Helsinki_TravelTimeMatrix",
		Modes:                 []string{MODE_WALK.String(), MODE_BICYCLE.String(), MODE_CAR.String()},
		CarCoefficientsBy:     COEFFICIENTS_BY_URBAN_ZONE.String(),
		ScannerProcs:          DEFAULT_SCANNER_PROCS,
		LogLevel:              "info",
		Postgres: PostgresConfig{
			Table: DEFAULT_POSTGRES_TABLE,
		},
	}
}

// LoadAppConfig reads YAML file over defaults. Validation is left to the caller,
// since flags may still override values.
func LoadAppConfig(filename string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read config '%s'", filename)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Can't parse config '%s'", filename)
	}
	return cfg, nil
}

func (cfg *AppConfig) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return newConfigurationError("invalid config: %v", err)
	}
	if extent := strings.TrimSpace(cfg.Extent); extent != "" {
		if _, err := ParseExtent(extent); err != nil {
			return err
		}
	}
	if cfg.CarCoefficientsBy == COEFFICIENTS_BY_URBAN_ZONE.String() && cfg.HasMode(MODE_CAR) && cfg.UrbanZones == "" {
		return newConfigurationError("car coefficients by urban zone need 'urban_zones'")
	}
	if cfg.HasMode(MODE_TRANSIT) && len(cfg.GTFSDataSets) == 0 {
		return newConfigurationError("public transport needs 'gtfs_data_sets'")
	}
	return nil
}

// ParsedDate returns date of the run (UTC midnight)
func (cfg *AppConfig) ParsedDate() (time.Time, error) {
	date, err := time.Parse(dateLayout, cfg.Date)
	if err != nil {
		return time.Time{}, newConfigurationError("date must be YYYY-MM-DD, got '%s'", cfg.Date)
	}
	return date, nil
}

// ParsedExtent returns nil when extent is not configured
func (cfg *AppConfig) ParsedExtent() (*orb.Bound, error) {
	if strings.TrimSpace(cfg.Extent) == "" {
		return nil, nil
	}
	bound, err := ParseExtent(cfg.Extent)
	if err != nil {
		return nil, err
	}
	return &bound, nil
}

// ParsedModes returns configured transport modes
func (cfg *AppConfig) ParsedModes() ([]TransportMode, error) {
	modes := make([]TransportMode, 0, len(cfg.Modes))
	for _, name := range cfg.Modes {
		mode, err := ParseTransportMode(name)
		if err != nil {
			return nil, newConfigurationError("unknown mode '%s'", name)
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func (cfg *AppConfig) HasMode(mode TransportMode) bool {
	for _, name := range cfg.Modes {
		if name == mode.String() {
			return true
		}
	}
	return false
}

// RegisterFlags defines a flag for every config key. Flag defaults are not applied over the file.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := DefaultAppConfig()
	flags.String("osm-history-file", "", "OpenStreetMap history dump (planet or extract), .osm.pbf or .osm")
	flags.String("origins-destinations", "", "GeoJSON of origins==destinations (points or grid cells)")
	flags.String("origins-destinations-id", defaults.OriginsDestinationsID, "Property holding origin/destination ID")
	flags.StringSlice("gtfs-data-sets", nil, "Zipped GTFS data set(s)")
	flags.String("date", "", "For which date should travel times be computed (YYYY-MM-DD)")
	flags.String("cycling-speeds", "", "CSV of measured cycling speeds (m/s) per OSM way")
	flags.String("extent", "", "Spatial extent 'xmin ymin xmax ymax'. Default: extent of origins/destinations")
	flags.String("urban-zones", "", "GeoJSON of YKR urban zones")
	flags.String("municipalities", "", "GeoJSON of municipalities")
	flags.String("output-directory", defaults.OutputDirectory, "Directory for output files")
	flags.String("output-name-prefix", defaults.OutputNamePrefix, "Prefix of output file names")
	flags.String("work-directory", "", "Directory for temporary networks. Default: system temporary directory")
	flags.StringSlice("modes", defaults.Modes, "Transport modes to compute: walk, bike, car, pt")
	flags.String("car-coefficients-by", defaults.CarCoefficientsBy, "Car speed coefficients by: urban_zone, road_class, speed_limit")
	flags.Bool("calculate-distances", false, "Add distance columns for walking and public transport")
	flags.Bool("concurrent", false, "Compute modes after walking in parallel")
	flags.Int("scanner-procs", defaults.ScannerProcs, "Number of goroutines decoding OSM PBF")
	flags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error, fatal, panic")
	flags.String("metrics-file", "", "Write run metrics (Prometheus text format) into this file")
	flags.String("postgres-dsn", "", "PostgreSQL connection string, enables PostgreSQL output")
	flags.String("postgres-table", defaults.Postgres.Table, "PostgreSQL table for travel times")
}

// ApplyFlags overrides config values by flags set on command line
func (cfg *AppConfig) ApplyFlags(flags *pflag.FlagSet) error {
	strs := map[string]*string{
		"osm-history-file":        &cfg.OSMHistoryFile,
		"origins-destinations":    &cfg.OriginsDestinations,
		"origins-destinations-id": &cfg.OriginsDestinationsID,
		"date":                    &cfg.Date,
		"cycling-speeds":          &cfg.CyclingSpeeds,
		"extent":                  &cfg.Extent,
		"urban-zones":             &cfg.UrbanZones,
		"municipalities":          &cfg.Municipalities,
		"output-directory":        &cfg.OutputDirectory,
		"output-name-prefix":      &cfg.OutputNamePrefix,
		"work-directory":          &cfg.WorkDirectory,
		"car-coefficients-by":     &cfg.CarCoefficientsBy,
		"log-level":               &cfg.LogLevel,
		"metrics-file":            &cfg.MetricsFile,
		"postgres-dsn":            &cfg.Postgres.DSN,
		"postgres-table":          &cfg.Postgres.Table,
	}
	for name, target := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return errors.Wrapf(err, "Can't read flag '%s'", name)
		}
		*target = value
	}
	slices := map[string]*[]string{
		"gtfs-data-sets": &cfg.GTFSDataSets,
		"modes":          &cfg.Modes,
	}
	for name, target := range slices {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return errors.Wrapf(err, "Can't read flag '%s'", name)
		}
		*target = value
	}
	bools := map[string]*bool{
		"calculate-distances": &cfg.CalculateDistances,
		"concurrent":          &cfg.Concurrent,
	}
	for name, target := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return errors.Wrapf(err, "Can't read flag '%s'", name)
		}
		*target = value
	}
	if flags.Changed("scanner-procs") {
		value, err := flags.GetInt("scanner-procs")
		if err != nil {
			return errors.Wrap(err, "Can't read flag 'scanner-procs'")
		}
		cfg.ScannerProcs = value
	}
	return nil
}

func (cfg *AppConfig) String() string {
	return fmt.Sprintf(`
Run parameters:
	osm_history_file: '%s'
	origins_destinations: '%s' (id: '%s')
	gtfs_data_sets: %v
	date: %s
	extent: '%s'
	modes: %v
	car_coefficients_by: '%s'
	calculate_distances: %t
	concurrent: %t
	output: '%s' (prefix '%s')
	postgres: %t
	`,
		cfg.OSMHistoryFile,
		cfg.OriginsDestinations, cfg.OriginsDestinationsID,
		cfg.GTFSDataSets,
		cfg.Date,
		cfg.Extent,
		cfg.Modes,
		cfg.CarCoefficientsBy,
		cfg.CalculateDistances,
		cfg.Concurrent,
		cfg.OutputDirectory, cfg.OutputNamePrefix,
		cfg.Postgres.DSN != "",
	)
}
