package osm2ttm

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	FROM_ID_COLUMN = "from_id"
	TO_ID_COLUMN   = "to_id"
)

// OutputData is what every output writer serializes
type OutputData struct {
	Matrix *TravelTimeMatrix
	Points []Point
	// Output file names start with it
	Prefix string
}

// OutputWriter serializes travel time matrix into one output format
type OutputWriter interface {
	Name() string
	Write(ctx context.Context, directory string, data OutputData) error
}

// OutputSaver runs output writers in parallel. Every writer finalizes its own file, so
// a failing writer leaves outputs of others intact.
type OutputSaver struct {
	directory string
	prefix    string
	writers   []OutputWriter
}

func NewOutputSaver(directory, prefix string, writers ...OutputWriter) *OutputSaver {
	return &OutputSaver{
		directory: directory,
		prefix:    prefix,
		writers:   writers,
	}
}

// DefaultOutputWriters returns every file based writer
func DefaultOutputWriters() []OutputWriter {
	return []OutputWriter{
		&GiantCSVWriter{},
		&CSVSplitByToIDWriter{},
		&GeoJSONJoinedByToIDWriter{},
		&GridGeoJSONWriter{},
	}
}

func (saver *OutputSaver) Save(ctx context.Context, matrix *TravelTimeMatrix, points []Point) error {
	if err := os.MkdirAll(saver.directory, 0755); err != nil {
		return errors.Wrapf(err, "Can't create output directory '%s'", saver.directory)
	}
	data := OutputData{
		Matrix: matrix,
		Points: points,
		Prefix: saver.prefix,
	}
	// Plain group: one failing writer must not cancel the others
	var group errgroup.Group
	for _, writer := range saver.writers {
		writer := writer
		group.Go(func() error {
			st := time.Now()
			if err := writer.Write(ctx, saver.directory, data); err != nil {
				return errors.Wrapf(err, "Output '%s' failed", writer.Name())
			}
			outputDuration.WithLabelValues(writer.Name()).Observe(time.Since(st).Seconds())
			log.WithField("writer", writer.Name()).Infof("Saved output in %v", time.Since(st))
			return nil
		})
	}
	return group.Wait()
}

// writeFileAtomically writes file in a private temporary directory next to target and renames it into place
func writeFileAtomically(directory, name string, write func(w io.Writer) error) (err error) {
	tmpDir, err := os.MkdirTemp(directory, "."+name+"-")
	if err != nil {
		return errors.Wrapf(err, "Can't create temporary directory for '%s'", name)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			reportWarning(&ResourceCleanupError{Path: tmpDir, Err: rmErr})
		}
	}()
	tmpName := filepath.Join(tmpDir, name)
	file, err := os.Create(tmpName)
	if err != nil {
		return errors.Wrapf(err, "Can't create '%s'", tmpName)
	}
	if err = write(file); err != nil {
		file.Close()
		return err
	}
	if err = file.Close(); err != nil {
		return errors.Wrapf(err, "Can't close '%s'", tmpName)
	}
	target := filepath.Join(directory, name)
	if err = os.Rename(tmpName, target); err != nil {
		return errors.Wrapf(err, "Can't move output into '%s'", target)
	}
	return nil
}

// newZipWriter returns archive writer deflating at best compression
func newZipWriter(w io.Writer) *zip.Writer {
	archive := zip.NewWriter(w)
	archive.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return archive
}

// csvHeader returns header row of matrix
func csvHeader(matrix *TravelTimeMatrix) []string {
	return append([]string{FROM_ID_COLUMN, TO_ID_COLUMN}, matrix.Columns()...)
}

// csvRow formats matrix row. Absent cells are empty.
func csvRow(matrix *TravelTimeMatrix, columns []string, row int) []string {
	pair := matrix.Pair(row)
	record := make([]string, 0, len(columns)+2)
	record = append(record, pair.FromID, pair.ToID)
	for _, column := range columns {
		value, ok := matrix.ValueAt(column, row)
		if !ok {
			record = append(record, "")
			continue
		}
		record = append(record, formatCell(value))
	}
	return record
}

func formatCell(value float64) string {
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// cellValue returns cell as nullable value for JSON and SQL outputs
func cellValue(matrix *TravelTimeMatrix, column string, row int) interface{} {
	value, ok := matrix.ValueAt(column, row)
	if !ok {
		return nil
	}
	return value
}
