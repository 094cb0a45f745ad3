package osm2ttm

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapper struct {
	results []SnapResult
	err     error
}

func (snapper *fakeSnapper) Snap(ctx context.Context, points []Point) ([]SnapResult, error) {
	return snapper.results, snapper.err
}

func TestAccessTimeModel(t *testing.T) {
	points := []Point{
		{ID: "on", Geom: orb.Point{24.9384, 60.1699}},
		{ID: "near", Geom: orb.Point{24.9384, 60.1699}},
		{ID: "far", Geom: orb.Point{24.9384, 60.1699}},
	}
	snapper := &fakeSnapper{results: []SnapResult{
		{Snapped: orb.Point{24.9384, 60.1699}, OK: true},
		// ~111 metres north
		{Snapped: orb.Point{24.9384, 60.1709}, OK: true},
		{OK: false},
	}}
	model, err := NewAccessTimeModel(context.Background(), points, snapper)
	require.NoError(t, err)
	assert.Equal(t, 2, model.Len())

	minutes, ok := model.WalkingTime("on")
	require.True(t, ok)
	assert.InDelta(t, 0.0, minutes, 1e-9)

	minutes, ok = model.WalkingTime("near")
	require.True(t, ok)
	// 111.19 m at 60 m/min
	assert.Equal(t, 1.85, minutes)

	_, ok = model.WalkingTime("far")
	assert.False(t, ok)
}

func TestAccessTimeModelErrors(t *testing.T) {
	points := []Point{{ID: "a"}}
	_, err := NewAccessTimeModel(context.Background(), points, &fakeSnapper{err: errors.New("engine is down")})
	assert.Error(t, err)
	_, err = NewAccessTimeModel(context.Background(), points, &fakeSnapper{})
	assert.Error(t, err)
}

func TestAccessWalkingTime(t *testing.T) {
	assert.Equal(t, 1.0, accessWalkingTime(60))
	assert.Equal(t, 0.01, accessWalkingTime(0.6))
	assert.Equal(t, 2.51, accessWalkingTime(150.4))
}
