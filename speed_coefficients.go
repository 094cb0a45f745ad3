package osm2ttm

import (
	"math"

	"github.com/samber/lo"
)

type TimeOfDay string

const (
	TIME_OF_DAY_AVERAGE   = TimeOfDay("average")
	TIME_OF_DAY_MIDDAY    = TimeOfDay("midday")
	TIME_OF_DAY_NIGHTTIME = TimeOfDay("nighttime")
	TIME_OF_DAY_RUSH_HOUR = TimeOfDay("rush-hour")
)

var timesOfDay = []TimeOfDay{
	TIME_OF_DAY_AVERAGE,
	TIME_OF_DAY_MIDDAY,
	TIME_OF_DAY_NIGHTTIME,
	TIME_OF_DAY_RUSH_HOUR,
}

// ParseTimeOfDay checks that str names one of the known times of day
func ParseTimeOfDay(str string) (TimeOfDay, error) {
	if !lo.Contains(timesOfDay, TimeOfDay(str)) {
		return "", newConfigurationError("time of day must be one of %v, got '%s'", timesOfDay, str)
	}
	return TimeOfDay(str), nil
}

// SpeedBucket is a nominal speed (km/h) with its empirical coefficient
type SpeedBucket struct {
	Speed       float64
	Coefficient float64
}

// SpeedCategoryCoefficients holds buckets of one category (zone, road class...) per time of day.
// Buckets are kept in declaration order: equally distant buckets resolve to the first one.
type SpeedCategoryCoefficients struct {
	Category string
	Buckets  map[TimeOfDay][]SpeedBucket
}

// SpeedCoefficientTable maps (category, time of day, nominal speed) to the ratio
// between actually driven speed and nominal speed
type SpeedCoefficientTable struct {
	defaultCategory string
	categories      map[string]map[TimeOfDay][]SpeedBucket
	order           []string
}

// NewSpeedCoefficientTable builds table. Default category is used for any category
// missing from the table and must be present itself.
func NewSpeedCoefficientTable(defaultCategory string, rows ...SpeedCategoryCoefficients) (*SpeedCoefficientTable, error) {
	table := &SpeedCoefficientTable{
		defaultCategory: defaultCategory,
		categories:      make(map[string]map[TimeOfDay][]SpeedBucket, len(rows)),
		order:           make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		if _, ok := table.categories[row.Category]; ok {
			return nil, newConfigurationError("duplicate speed coefficient category '%s'", row.Category)
		}
		buckets := make(map[TimeOfDay][]SpeedBucket, len(row.Buckets))
		for timeOfDay, values := range row.Buckets {
			if len(values) == 0 {
				return nil, newConfigurationError("no speed buckets for category '%s' at '%s'", row.Category, timeOfDay)
			}
			buckets[timeOfDay] = append([]SpeedBucket(nil), values...)
		}
		table.categories[row.Category] = buckets
		table.order = append(table.order, row.Category)
	}
	if _, ok := table.categories[defaultCategory]; !ok {
		return nil, newConfigurationError("default speed coefficient category '%s' is missing", defaultCategory)
	}
	return table, nil
}

// DefaultCategory returns category used when requested one is missing
func (table *SpeedCoefficientTable) DefaultCategory() string {
	return table.defaultCategory
}

// Categories returns categories in declaration order
func (table *SpeedCoefficientTable) Categories() []string {
	return append([]string(nil), table.order...)
}

// Validate checks that every time of day can be resolved through the default category
func (table *SpeedCoefficientTable) Validate() error {
	for _, timeOfDay := range timesOfDay {
		if _, ok := table.buckets(table.defaultCategory, timeOfDay); !ok {
			return newConfigurationError("default speed coefficient category '%s' has no buckets for '%s'", table.defaultCategory, timeOfDay)
		}
	}
	return nil
}

func (table *SpeedCoefficientTable) buckets(category string, timeOfDay TimeOfDay) ([]SpeedBucket, bool) {
	byTime, ok := table.categories[category]
	if !ok {
		return nil, false
	}
	buckets, ok := byTime[timeOfDay]
	return buckets, ok
}

// Coefficient returns coefficient of the bucket nearest to nominal speed
func (table *SpeedCoefficientTable) Coefficient(category string, timeOfDay TimeOfDay, nominalSpeed float64) (float64, error) {
	buckets, ok := table.buckets(category, timeOfDay)
	if !ok {
		buckets, ok = table.buckets(table.defaultCategory, timeOfDay)
		if !ok {
			return 0, newConfigurationError("no speed coefficients for category '%s' (nor default '%s') at '%s'", category, table.defaultCategory, timeOfDay)
		}
	}
	nearest := lo.MinBy(buckets, func(a SpeedBucket, b SpeedBucket) bool {
		return math.Abs(a.Speed-nominalSpeed) < math.Abs(b.Speed-nominalSpeed)
	})
	return nearest.Coefficient, nil
}
