package osm2ttm

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	snapshotNetworkName = "snapshot.osm"
)

// Run computes travel time matrix described by config and saves every output
func Run(ctx context.Context, cfg *AppConfig) error {
	st := time.Now()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info(cfg.String())
	date, err := cfg.ParsedDate()
	if err != nil {
		return err
	}
	extent, err := cfg.ParsedExtent()
	if err != nil {
		return err
	}
	modes, err := cfg.ParsedModes()
	if err != nil {
		return err
	}
	source, err := ParseCoefficientSource(cfg.CarCoefficientsBy)
	if err != nil {
		return err
	}
	engine := NewCHRoutingEngine(WithScannerProcs(cfg.ScannerProcs))

	// Static checks before snapshotting
	for _, mode := range modes {
		if !engine.Supports(mode) {
			return newConfigurationError("mode '%s' is not supported by the built-in routing engine", mode)
		}
	}
	if cfg.HasMode(MODE_TRANSIT) {
		if err := ValidateTransitFeeds(cfg.GTFSDataSets); err != nil {
			return err
		}
	}
	if cfg.HasMode(MODE_CAR) {
		table, err := DefaultSpeedCoefficientTable(source)
		if err != nil {
			return err
		}
		if err := table.Validate(); err != nil {
			return err
		}
	}

	optional, err := loadOptionalInputs(cfg)
	if err != nil {
		return err
	}

	points, bound, err := LoadPoints(cfg.OriginsDestinations, cfg.OriginsDestinationsID, extent)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp(cfg.WorkDirectory, "osm2ttm-")
	if err != nil {
		return errors.Wrap(err, "Can't create work directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			reportWarning(&ResourceCleanupError{Path: workDir, Err: rmErr})
		}
	}()

	network := filepath.Join(workDir, snapshotNetworkName)
	snapshot := NewNetworkSnapshot(
		WithSnapshotTime(date),
		WithSnapshotExtent(bound),
		WithSnapshotScannerProcs(cfg.ScannerProcs),
	)
	if err := snapshot.Extract(ctx, cfg.OSMHistoryFile, network); err != nil {
		return err
	}

	accessTimes, err := NewAccessTimeModel(ctx, points, NewNetworkSnapper(engine, network))
	if err != nil {
		return err
	}

	computers, err := modeComputers(cfg, modes, source, optional, ComputationInputs{
		Network:      network,
		TransitFeeds: cfg.GTFSDataSets,
		Points:       points,
		Engine:       engine,
		AccessTimes:  accessTimes,
		WorkDir:      workDir,
	}, date)
	if err != nil {
		return err
	}
	assembler, err := NewMatrixAssembler(computers, WithConcurrency(cfg.Concurrent))
	if err != nil {
		return err
	}
	matrix, err := assembler.Assemble(ctx)
	if err != nil {
		return err
	}

	writers := DefaultOutputWriters()
	if cfg.Postgres.DSN != "" {
		writers = append(writers, NewPostgresWriter(cfg.Postgres.DSN, cfg.Postgres.Table))
	}
	if err := NewOutputSaver(cfg.OutputDirectory, cfg.OutputNamePrefix, writers...).Save(ctx, matrix, points); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := WriteMetrics(cfg.MetricsFile); err != nil {
			return errors.Wrapf(err, "Can't write metrics into '%s'", cfg.MetricsFile)
		}
	}
	log.Infof("Travel time matrix is ready. Done in %v", time.Since(st))
	return nil
}

// optionalInputs are data sets needed by some modes only
type optionalInputs struct {
	urbanZones     *ZoneLayer
	municipalities *ZoneLayer
	cyclingSpeeds  *CyclingSpeeds
}

// loadOptionalInputs reads data sets of the configured modes
func loadOptionalInputs(cfg *AppConfig) (optionalInputs, error) {
	optional := optionalInputs{}
	var err error
	if cfg.HasMode(MODE_CAR) {
		if cfg.UrbanZones != "" {
			if optional.urbanZones, err = LoadUrbanZones(cfg.UrbanZones); err != nil {
				return optional, err
			}
		}
		if cfg.Municipalities != "" {
			if optional.municipalities, err = LoadMunicipalities(cfg.Municipalities); err != nil {
				return optional, err
			}
		}
	}
	if cfg.HasMode(MODE_BICYCLE) && cfg.CyclingSpeeds != "" {
		optional.cyclingSpeeds, err = LoadCyclingSpeeds(cfg.CyclingSpeeds, DEFAULT_CYCLING_SPEEDS_ID_COLUMN, DEFAULT_CYCLING_SPEEDS_SPEED_COLUMN)
		if err != nil {
			return optional, err
		}
	}
	return optional, nil
}

// modeComputers prepares mode computers
func modeComputers(cfg *AppConfig, modes []TransportMode, source CoefficientSource, optional optionalInputs, inputs ComputationInputs, date time.Time) ([]ModeMatrixComputer, error) {
	settings := DefaultComputationSettings(date)
	settings.CalculateDistances = cfg.CalculateDistances

	computers := make([]ModeMatrixComputer, 0, len(modes))
	for _, mode := range modes {
		switch mode {
		case MODE_WALK:
			computers = append(computers, NewWalkingMatrixComputer(inputs, settings))
		case MODE_BICYCLE:
			options := []func(*CyclingMatrixComputer){}
			if optional.cyclingSpeeds != nil {
				options = append(options, WithMeasuredCyclingSpeeds(optional.cyclingSpeeds))
			}
			computers = append(computers, NewCyclingMatrixComputer(inputs, settings, options...))
		case MODE_CAR:
			computers = append(computers, NewCarMatrixComputer(
				inputs,
				settings,
				NewParkingTimeModel(optional.municipalities, optional.urbanZones),
				WithCarCoefficientSource(source),
				WithCarUrbanZones(optional.urbanZones),
			))
		case MODE_TRANSIT:
			computers = append(computers, NewTransitMatrixComputer(inputs, settings))
		default:
			return nil, errors.Wrapf(ErrUnsupportedMode, "mode '%s'", mode)
		}
	}
	return computers, nil
}
