package osm2ttm

import (
	"context"
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// GeoJSONJoinedByToIDWriter writes every matrix row as a feature carrying geometry of its destination
type GeoJSONJoinedByToIDWriter struct{}

func (writer *GeoJSONJoinedByToIDWriter) Name() string {
	return "geojson_joined_by_to_id"
}

func (writer *GeoJSONJoinedByToIDWriter) FileName(prefix string) string {
	return prefix + "_travel_times.geojson.zip"
}

func (writer *GeoJSONJoinedByToIDWriter) Write(ctx context.Context, directory string, data OutputData) error {
	geometries, err := pointGeometries(data.Points)
	if err != nil {
		return err
	}
	columns := data.Matrix.Columns()
	collection := geojson.NewFeatureCollection()
	for row := 0; row < data.Matrix.Len(); row++ {
		if row%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pair := data.Matrix.Pair(row)
		// Rows without known destination keep no geometry
		feature := geojson.NewFeature(geometries[pair.ToID])
		feature.SetProperty(FROM_ID_COLUMN, pair.FromID)
		feature.SetProperty(TO_ID_COLUMN, pair.ToID)
		for _, column := range columns {
			feature.SetProperty(column, cellValue(data.Matrix, column, row))
		}
		collection.AddFeature(feature)
	}
	return writeZippedGeoJSON(directory, writer.FileName(data.Prefix), data.Prefix+"_travel_times.geojson", collection)
}

// GridGeoJSONWriter writes origins/destinations (grid cells) only
type GridGeoJSONWriter struct{}

func (writer *GridGeoJSONWriter) Name() string {
	return "grid_geojson"
}

func (writer *GridGeoJSONWriter) FileName(prefix string) string {
	return prefix + "_grid.geojson.zip"
}

func (writer *GridGeoJSONWriter) Write(ctx context.Context, directory string, data OutputData) error {
	geometries, err := pointGeometries(data.Points)
	if err != nil {
		return err
	}
	collection := geojson.NewFeatureCollection()
	for _, pt := range data.Points {
		feature := geojson.NewFeature(geometries[pt.ID])
		feature.SetProperty(DEFAULT_POINT_ID_PROPERTY, pt.ID)
		collection.AddFeature(feature)
	}
	return writeZippedGeoJSON(directory, writer.FileName(data.Prefix), data.Prefix+"_grid.geojson", collection)
}

// pointGeometries converts loaded geometry of every point once
func pointGeometries(points []Point) (map[string]*geojson.Geometry, error) {
	geometries := make(map[string]*geojson.Geometry, len(points))
	for _, pt := range points {
		geom, err := PrepareGeoJSONGeometry(pt.Geometry())
		if err != nil {
			return nil, errors.Wrapf(err, "Can't convert geometry of '%s'", pt.ID)
		}
		geometries[pt.ID] = geom
	}
	return geometries, nil
}

func writeZippedGeoJSON(directory, fileName, entryName string, collection *geojson.FeatureCollection) error {
	content, err := collection.MarshalJSON()
	if err != nil {
		return errors.Wrapf(err, "Can't encode '%s'", entryName)
	}
	return writeFileAtomically(directory, fileName, func(w io.Writer) error {
		archive := newZipWriter(w)
		entry, err := archive.Create(entryName)
		if err != nil {
			archive.Close()
			return errors.Wrapf(err, "Can't add '%s'", entryName)
		}
		if _, err := entry.Write(content); err != nil {
			archive.Close()
			return errors.Wrapf(err, "Can't write '%s'", entryName)
		}
		return archive.Close()
	})
}
