package osm2ttm

import (
	"math"

	"github.com/pkg/errors"
)

const (
	TRAVEL_TIME_COLUMN = "travel_time"
	DISTANCE_COLUMN    = "distance"
)

// ODPair is the key of travel time matrix row
type ODPair struct {
	FromID string
	ToID   string
}

// IsSelf reports whether origin and destination are the same point
func (pair ODPair) IsSelf() bool {
	return pair.FromID == pair.ToID
}

// TravelTimeMatrix is a table keyed by (origin id, destination id) with named float columns.
// Absent (null) cells are stored as NaN. Rows keep insertion order, columns keep creation order.
type TravelTimeMatrix struct {
	pairs   []ODPair
	index   map[ODPair]int
	columns []string
	values  map[string][]float64
}

// NewTravelTimeMatrix creates matrix with given rows and no columns. Repeated pairs are dropped.
func NewTravelTimeMatrix(pairs []ODPair) *TravelTimeMatrix {
	matrix := &TravelTimeMatrix{
		pairs:  make([]ODPair, 0, len(pairs)),
		index:  make(map[ODPair]int, len(pairs)),
		values: make(map[string][]float64),
	}
	for _, pair := range pairs {
		if _, ok := matrix.index[pair]; ok {
			continue
		}
		matrix.index[pair] = len(matrix.pairs)
		matrix.pairs = append(matrix.pairs, pair)
	}
	return matrix
}

// Len returns number of rows
func (matrix *TravelTimeMatrix) Len() int {
	return len(matrix.pairs)
}

// Pairs returns row keys in order
func (matrix *TravelTimeMatrix) Pairs() []ODPair {
	return append([]ODPair(nil), matrix.pairs...)
}

// Pair returns key of the row
func (matrix *TravelTimeMatrix) Pair(row int) ODPair {
	return matrix.pairs[row]
}

// Columns returns column names in order
func (matrix *TravelTimeMatrix) Columns() []string {
	return append([]string(nil), matrix.columns...)
}

// HasColumn reports whether column exists
func (matrix *TravelTimeMatrix) HasColumn(name string) bool {
	_, ok := matrix.values[name]
	return ok
}

// AddColumn appends column with every cell absent
func (matrix *TravelTimeMatrix) AddColumn(name string) error {
	if matrix.HasColumn(name) {
		return errors.Wrapf(ErrColumnCollision, "column '%s'", name)
	}
	values := make([]float64, len(matrix.pairs))
	for i := range values {
		values[i] = math.NaN()
	}
	matrix.columns = append(matrix.columns, name)
	matrix.values[name] = values
	return nil
}

// Set stores value of a cell. Unknown rows are ignored, unknown column is an error.
func (matrix *TravelTimeMatrix) Set(column string, pair ODPair, value float64) error {
	values, ok := matrix.values[column]
	if !ok {
		return errors.Errorf("Column '%s' does not exist", column)
	}
	row, ok := matrix.index[pair]
	if !ok {
		return nil
	}
	values[row] = value
	return nil
}

// Value returns value of a cell. Absent cells report false.
func (matrix *TravelTimeMatrix) Value(column string, pair ODPair) (float64, bool) {
	row, ok := matrix.index[pair]
	if !ok {
		return 0, false
	}
	return matrix.ValueAt(column, row)
}

// ValueAt returns value of a cell by row number. Absent cells report false.
func (matrix *TravelTimeMatrix) ValueAt(column string, row int) (float64, bool) {
	values, ok := matrix.values[column]
	if !ok || row < 0 || row >= len(values) || math.IsNaN(values[row]) {
		return 0, false
	}
	return values[row], true
}

// Column returns copy of column values (NaN for absent cells)
func (matrix *TravelTimeMatrix) Column(name string) ([]float64, bool) {
	values, ok := matrix.values[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

// RenameColumn renames column keeping its position
func (matrix *TravelTimeMatrix) RenameColumn(from, to string) error {
	values, ok := matrix.values[from]
	if !ok {
		return errors.Errorf("Column '%s' does not exist", from)
	}
	if from == to {
		return nil
	}
	if matrix.HasColumn(to) {
		return errors.Wrapf(ErrColumnCollision, "column '%s'", to)
	}
	for i := range matrix.columns {
		if matrix.columns[i] == from {
			matrix.columns[i] = to
		}
	}
	delete(matrix.values, from)
	matrix.values[to] = values
	return nil
}

// Apply replaces every present cell of column with fn result. Absent cells stay absent.
func (matrix *TravelTimeMatrix) Apply(column string, fn func(pair ODPair, value float64) float64) error {
	values, ok := matrix.values[column]
	if !ok {
		return errors.Errorf("Column '%s' does not exist", column)
	}
	for row, value := range values {
		if math.IsNaN(value) {
			continue
		}
		values[row] = fn(matrix.pairs[row], value)
	}
	return nil
}

// LeftJoin copies columns of other matrix aligned by (origin id, destination id).
// Rows missing in other get absent cells, rows missing in matrix are dropped.
// Column name collisions are rejected before anything is copied.
func (matrix *TravelTimeMatrix) LeftJoin(other *TravelTimeMatrix) error {
	for _, name := range other.columns {
		if matrix.HasColumn(name) {
			return errors.Wrapf(ErrColumnCollision, "column '%s'", name)
		}
	}
	for _, name := range other.columns {
		if err := matrix.AddColumn(name); err != nil {
			return err
		}
		target := matrix.values[name]
		source := other.values[name]
		for row, pair := range matrix.pairs {
			if otherRow, ok := other.index[pair]; ok {
				target[row] = source[otherRow]
			}
		}
	}
	return nil
}

// matrixFromRoutes builds matrix with travel time (and optionally distance) columns.
// Unreachable pairs are absent.
func matrixFromRoutes(routes []RoutedPair, withDistances bool) *TravelTimeMatrix {
	pairs := make([]ODPair, len(routes))
	for i := range routes {
		pairs[i] = ODPair{FromID: routes[i].FromID, ToID: routes[i].ToID}
	}
	matrix := NewTravelTimeMatrix(pairs)
	// Column names are fresh, so no collisions here
	_ = matrix.AddColumn(TRAVEL_TIME_COLUMN)
	if withDistances {
		_ = matrix.AddColumn(DISTANCE_COLUMN)
	}
	for i := range routes {
		if !routes[i].Reachable {
			continue
		}
		_ = matrix.Set(TRAVEL_TIME_COLUMN, pairs[i], routes[i].TravelTime)
		if withDistances {
			_ = matrix.Set(DISTANCE_COLUMN, pairs[i], routes[i].Distance)
		}
	}
	return matrix
}
