package osm2ttm

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// GiantCSVWriter writes the whole matrix into a single zstd compressed CSV file
type GiantCSVWriter struct{}

func (writer *GiantCSVWriter) Name() string {
	return "giant_csv"
}

func (writer *GiantCSVWriter) FileName(prefix string) string {
	return prefix + "_travel_times.csv.zst"
}

func (writer *GiantCSVWriter) Write(ctx context.Context, directory string, data OutputData) error {
	return writeFileAtomically(directory, writer.FileName(data.Prefix), func(w io.Writer) error {
		encoder, err := zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderCRC(true),
		)
		if err != nil {
			return errors.Wrap(err, "Can't start zstd stream")
		}
		if err := writeMatrixCSV(ctx, encoder, data.Matrix, nil); err != nil {
			encoder.Close()
			return err
		}
		return encoder.Close()
	})
}

// writeMatrixCSV writes header and given rows (every row when rows is nil)
func writeMatrixCSV(ctx context.Context, w io.Writer, matrix *TravelTimeMatrix, rows []int) error {
	columns := matrix.Columns()
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeader(matrix)); err != nil {
		return errors.Wrap(err, "Can't write CSV header")
	}
	write := func(row int) error {
		if err := csvWriter.Write(csvRow(matrix, columns, row)); err != nil {
			return errors.Wrapf(err, "Can't write CSV row %d", row)
		}
		return nil
	}
	if rows == nil {
		for row := 0; row < matrix.Len(); row++ {
			if row%100000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := write(row); err != nil {
				return err
			}
		}
	} else {
		for _, row := range rows {
			if err := write(row); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// rowsByToID groups row numbers by destination, destinations sorted
func rowsByToID(matrix *TravelTimeMatrix) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for row := 0; row < matrix.Len(); row++ {
		toID := matrix.Pair(row).ToID
		groups[toID] = append(groups[toID], row)
	}
	toIDs := make([]string, 0, len(groups))
	for toID := range groups {
		toIDs = append(toIDs, toID)
	}
	sort.Strings(toIDs)
	return toIDs, groups
}

// CSVSplitByToIDWriter writes one CSV file per destination into a zip archive
type CSVSplitByToIDWriter struct{}

func (writer *CSVSplitByToIDWriter) Name() string {
	return "csv_split_by_to_id"
}

func (writer *CSVSplitByToIDWriter) FileName(prefix string) string {
	return prefix + "_travel_times.csv.zip"
}

// EntryName returns archive entry holding travel times to the destination
func (writer *CSVSplitByToIDWriter) EntryName(prefix, toID string) string {
	return fmt.Sprintf("%s/%s_travel_times_to_%s.csv", prefix, prefix, toID)
}

func (writer *CSVSplitByToIDWriter) Write(ctx context.Context, directory string, data OutputData) error {
	return writeFileAtomically(directory, writer.FileName(data.Prefix), func(w io.Writer) error {
		archive := newZipWriter(w)
		toIDs, groups := rowsByToID(data.Matrix)
		for _, toID := range toIDs {
			if err := ctx.Err(); err != nil {
				archive.Close()
				return err
			}
			entry, err := archive.Create(writer.EntryName(data.Prefix, toID))
			if err != nil {
				archive.Close()
				return errors.Wrapf(err, "Can't add travel times to '%s'", toID)
			}
			if err := writeMatrixCSV(ctx, entry, data.Matrix, groups[toID]); err != nil {
				archive.Close()
				return err
			}
		}
		return archive.Close()
	})
}
