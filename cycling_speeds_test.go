package osm2ttm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCyclingSpeeds(t *testing.T) {
	speeds := NewCyclingSpeeds(map[osm.WayID][]float64{
		1: {10, 20},
		2: {30},
		3: {},
	})
	assert.Equal(t, 3, speeds.Len())
	assert.InDelta(t, 20.0, speeds.Mean(), 1e-9)
	speed, ok := speeds.SpeedFor(1)
	require.True(t, ok)
	assert.InDelta(t, 15.0, speed, 1e-9)
	_, ok = speeds.SpeedFor(3)
	assert.False(t, ok)
}

func TestLoadCyclingSpeeds(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "speeds.csv")
	content := "osm_id,speed,other\n100,5,x\n100,3,y\n200,4,z\n"
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))

	speeds, err := LoadCyclingSpeeds(filename, DEFAULT_CYCLING_SPEEDS_ID_COLUMN, DEFAULT_CYCLING_SPEEDS_SPEED_COLUMN)
	require.NoError(t, err)
	// m/s converted to km/h
	speed, ok := speeds.SpeedFor(100)
	require.True(t, ok)
	assert.InDelta(t, 14.4, speed, 1e-9)
	assert.InDelta(t, 14.4, speeds.Mean(), 1e-9)

	_, err = LoadCyclingSpeeds(filename, "way", "speed")
	assert.Error(t, err)
}
