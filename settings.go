package osm2ttm

import (
	"fmt"
	"strings"
	"time"
)

// DepartureSlot is a named departure time of the day
type DepartureSlot struct {
	TimeOfDay TimeOfDay
	// Offset from midnight
	Clock time.Duration
}

// NamedSpeed binds a speed (km/h) to the output column it produces
type NamedSpeed struct {
	Column string
	Speed  float64
}

// ComputationSettings is shared by every mode computer. Computers copy what they need.
type ComputationSettings struct {
	Date               time.Time
	DefaultDeparture   time.Duration
	DepartureWindow    time.Duration
	DepartureSlots     []DepartureSlot
	MaxTime            time.Duration
	WalkingSpeeds      []NamedSpeed
	CyclingSpeeds      []NamedSpeed
	LockUnlockTime     float64
	CalculateDistances bool
}

// DefaultComputationSettings returns settings used for the Helsinki region matrices
func DefaultComputationSettings(date time.Time) ComputationSettings {
	return ComputationSettings{
		Date:             date,
		DefaultDeparture: 12 * time.Hour,
		DepartureWindow:  time.Hour,
		DepartureSlots: []DepartureSlot{
			{TimeOfDay: TIME_OF_DAY_RUSH_HOUR, Clock: 8 * time.Hour},
			{TimeOfDay: TIME_OF_DAY_MIDDAY, Clock: 12 * time.Hour},
			{TimeOfDay: TIME_OF_DAY_NIGHTTIME, Clock: 2 * time.Hour},
		},
		MaxTime: 2 * time.Hour,
		WalkingSpeeds: []NamedSpeed{
			{Column: "walk_avg", Speed: 4.7},
			{Column: "walk_slo", Speed: 3.43},
		},
		CyclingSpeeds: []NamedSpeed{
			{Column: "bike_fst", Speed: 18.09},
			{Column: "bike_avg", Speed: 14.92},
			{Column: "bike_slo", Speed: 11.75},
		},
		LockUnlockTime: 1,
	}
}

// Departure returns departure moment at the given offset from midnight of the run date
func (settings ComputationSettings) Departure(clock time.Duration) time.Time {
	year, month, day := settings.Date.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, settings.Date.Location()).Add(clock)
}

// WalkingSpeed returns speed bound to the column
func (settings ComputationSettings) WalkingSpeed(column string) (float64, bool) {
	for _, speed := range settings.WalkingSpeeds {
		if speed.Column == column {
			return speed.Speed, true
		}
	}
	return 0, false
}

func (settings ComputationSettings) Validate() error {
	if settings.Date.IsZero() {
		return newConfigurationError("computation date is not set")
	}
	if settings.DepartureWindow < 0 || settings.MaxTime < 0 {
		return newConfigurationError("departure window and max time can't be negative")
	}
	if settings.LockUnlockTime < 0 {
		return newConfigurationError("lock/unlock time can't be negative, got %f", settings.LockUnlockTime)
	}
	seen := make(map[string]struct{})
	for _, slot := range settings.DepartureSlots {
		if _, err := ParseTimeOfDay(string(slot.TimeOfDay)); err != nil {
			return err
		}
		if slot.Clock < 0 || slot.Clock >= 24*time.Hour {
			return newConfigurationError("departure of '%s' must be within a day, got %v", slot.TimeOfDay, slot.Clock)
		}
		// Car and transit columns carry the first letter of the slot
		letter := slotLetter(slot.TimeOfDay)
		if _, ok := seen[letter]; ok {
			return newConfigurationError("departure slots share column letter '%s'", letter)
		}
		seen[letter] = struct{}{}
	}
	for _, speeds := range [][]NamedSpeed{settings.WalkingSpeeds, settings.CyclingSpeeds} {
		columns := make(map[string]struct{}, len(speeds))
		for _, speed := range speeds {
			if speed.Column == "" {
				return newConfigurationError("speed %f has no column name", speed.Speed)
			}
			if speed.Speed <= 0 {
				return newConfigurationError("speed of '%s' must be positive, got %f", speed.Column, speed.Speed)
			}
			if _, ok := columns[speed.Column]; ok {
				return newConfigurationError("duplicate speed column '%s'", speed.Column)
			}
			columns[speed.Column] = struct{}{}
		}
	}
	return nil
}

func (settings ComputationSettings) String() string {
	slots := make([]string, len(settings.DepartureSlots))
	for i, slot := range settings.DepartureSlots {
		slots[i] = fmt.Sprintf("%s@%v", slot.TimeOfDay, slot.Clock)
	}
	return fmt.Sprintf(`Computation settings:
	Date: %s
	Default departure: %v
	Departure window: %v
	Departure slots: %s
	Max time: %v
	Walking speeds: %v
	Cycling speeds: %v
	Lock/unlock time: %.2f min
	Distances: %t`,
		settings.Date.Format("2006-01-02"),
		settings.DefaultDeparture,
		settings.DepartureWindow,
		strings.Join(slots, ", "),
		settings.MaxTime,
		settings.WalkingSpeeds,
		settings.CyclingSpeeds,
		settings.LockUnlockTime,
		settings.CalculateDistances,
	)
}

func slotLetter(timeOfDay TimeOfDay) string {
	if timeOfDay == "" {
		return ""
	}
	return string(timeOfDay)[:1]
}
