package osm2ttm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFeed(t *testing.T, files map[string]string) string {
	filename := filepath.Join(t.TempDir(), "gtfs.zip")
	file, err := os.Create(filename)
	require.NoError(t, err)
	archive := zip.NewWriter(file)
	for name, content := range files {
		entry, err := archive.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, archive.Close())
	require.NoError(t, file.Close())
	return filename
}

func validFeedFiles() map[string]string {
	return map[string]string{
		"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone\nHSL,HSL,https://hsl.fi,Europe/Helsinki\n",
		"stops.txt":      "\ufeffstop_id,stop_name,stop_lat,stop_lon\n1,Rautatientori,60.17,24.94\n",
		"routes.txt":     "route_id,route_short_name,route_type\n1001,1,0\n",
		"trips.txt":      "route_id,service_id,trip_id\n1001,weekday,t1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\nt1,08:00:00,08:00:00,1,1\n",
		"calendar.txt":   "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\nweekday,1,1,1,1,1,0,0,20230101,20231231\n",
	}
}

func TestValidateTransitFeeds(t *testing.T) {
	assert.NoError(t, ValidateTransitFeeds([]string{writeTestFeed(t, validFeedFiles())}))

	noCalendar := validFeedFiles()
	delete(noCalendar, "calendar.txt")
	err := ValidateTransitFeeds([]string{writeTestFeed(t, noCalendar)})
	assert.True(t, IsConfigurationError(err))

	onlyDates := validFeedFiles()
	delete(onlyDates, "calendar.txt")
	onlyDates["calendar_dates.txt"] = "service_id,date,exception_type\nweekday,20230912,1\n"
	assert.NoError(t, ValidateTransitFeeds([]string{writeTestFeed(t, onlyDates)}))

	noStops := validFeedFiles()
	delete(noStops, "stops.txt")
	assert.True(t, IsConfigurationError(ValidateTransitFeeds([]string{writeTestFeed(t, noStops)})))

	badTrips := validFeedFiles()
	badTrips["trips.txt"] = "route_id,trip_id\n1001,t1\n"
	assert.True(t, IsConfigurationError(ValidateTransitFeeds([]string{writeTestFeed(t, badTrips)})))

	assert.True(t, IsConfigurationError(ValidateTransitFeeds([]string{filepath.Join(t.TempDir(), "missing.zip")})))
}
