package osm2ttm

import (
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

var (
	gtfsRequiredFiles = []string{"agency.txt", "stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}
	// At least one of them
	gtfsCalendarFiles = []string{"calendar.txt", "calendar_dates.txt"}

	gtfsRequiredColumns = map[string][]string{
		"stops.txt":      {"stop_id"},
		"routes.txt":     {"route_id"},
		"trips.txt":      {"route_id", "service_id", "trip_id"},
		"stop_times.txt": {"trip_id", "stop_id", "stop_sequence"},
	}
)

// ValidateTransitFeeds checks that every GTFS archive holds the files and columns routing needs
func ValidateTransitFeeds(filenames []string) error {
	for _, filename := range filenames {
		if err := validateTransitFeed(filename); err != nil {
			return err
		}
	}
	return nil
}

func validateTransitFeed(filename string) error {
	archive, err := zip.OpenReader(filename)
	if err != nil {
		return newConfigurationError("can't open GTFS data set '%s': %v", filename, err)
	}
	defer archive.Close()

	files := make(map[string]*zip.File, len(archive.File))
	for _, file := range archive.File {
		files[strings.ToLower(path.Base(file.Name))] = file
	}
	for _, name := range gtfsRequiredFiles {
		if _, ok := files[name]; !ok {
			return newConfigurationError("GTFS data set '%s' has no '%s'", filename, name)
		}
	}
	hasCalendar := false
	for _, name := range gtfsCalendarFiles {
		if _, ok := files[name]; ok {
			hasCalendar = true
		}
	}
	if !hasCalendar {
		return newConfigurationError("GTFS data set '%s' has neither '%s' nor '%s'", filename, gtfsCalendarFiles[0], gtfsCalendarFiles[1])
	}
	for name, columns := range gtfsRequiredColumns {
		header, err := readGTFSHeader(files[name])
		if err != nil {
			return errors.Wrapf(err, "Can't read '%s' of '%s'", name, filename)
		}
		for _, column := range columns {
			if _, ok := header[column]; !ok {
				return newConfigurationError("'%s' of GTFS data set '%s' has no column '%s'", name, filename, column)
			}
		}
	}
	log.Infof("GTFS data set '%s' looks fine", filename)
	return nil
}

func readGTFSHeader(file *zip.File) (map[string]struct{}, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	header, err := csvReader.Read()
	if err == io.EOF {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	columns := make(map[string]struct{}, len(header))
	for i, column := range header {
		column = strings.TrimSpace(column)
		if i == 0 {
			column = strings.TrimPrefix(column, "\ufeff")
		}
		columns[column] = struct{}{}
	}
	return columns, nil
}
