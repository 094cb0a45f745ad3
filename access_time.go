package osm2ttm

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

const (
	// ACCESS_WALKING_SPEED is walking speed between a point and its snapped location (km/h)
	ACCESS_WALKING_SPEED = 3.6
)

// AccessTimeModel holds walking time (minutes) between every point and its snapped network location
type AccessTimeModel struct {
	times map[string]float64
}

// NewAccessTimeModel snaps every point and converts snapping distance into walking time.
// Points that can't be snapped get no entry.
func NewAccessTimeModel(ctx context.Context, points []Point, snapper Snapper) (*AccessTimeModel, error) {
	snapped, err := snapper.Snap(ctx, points)
	if err != nil {
		return nil, errors.Wrap(err, "Can't snap origins/destinations to network")
	}
	if len(snapped) != len(points) {
		return nil, errors.Errorf("Snapping returned %d results for %d points", len(snapped), len(points))
	}
	model := &AccessTimeModel{
		times: make(map[string]float64, len(points)),
	}
	unsnapped := 0
	for i, pt := range points {
		if !snapped[i].OK {
			unsnapped++
			log.WithField("point_id", pt.ID).Debug("Point can't be snapped to network")
			continue
		}
		distance := greatCircleDistance(pt.Geom, snapped[i].Snapped) * 1000.0
		model.times[pt.ID] = accessWalkingTime(distance)
	}
	if unsnapped > 0 {
		log.Warnf("%d of %d origins/destinations can't be snapped to network, their travel times stay empty", unsnapped, len(points))
	}
	return model, nil
}

// NewAccessTimeModelFromTimes wraps precomputed walking times (minutes)
func NewAccessTimeModelFromTimes(times map[string]float64) *AccessTimeModel {
	model := &AccessTimeModel{
		times: make(map[string]float64, len(times)),
	}
	for id, minutes := range times {
		model.times[id] = minutes
	}
	return model
}

// accessWalkingTime converts distance (metres) into minutes rounded to 2 decimals
func accessWalkingTime(distance float64) float64 {
	minutes := distance / (ACCESS_WALKING_SPEED * 1000.0 / 60.0)
	return math.Round(minutes*100) / 100
}

// WalkingTime returns access walking time of the point
func (model *AccessTimeModel) WalkingTime(pointID string) (float64, bool) {
	minutes, ok := model.times[pointID]
	return minutes, ok
}

// Len returns number of points with access time
func (model *AccessTimeModel) Len() int {
	return len(model.times)
}
