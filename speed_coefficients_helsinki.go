package osm2ttm

// Actually driven speeds as a fraction of the speed limit, recreated with the methods of
// Perola, E. (2023) Driving speed deviation from the speed limits - an analysis using
// floating car data in the Helsinki Metropolitan Area. MSc thesis, University of Helsinki.
// http://hdl.handle.net/10138/358181
//
// Times of day refer to floating car data averaged over the following windows:
//   - average:   5:00-6:00, 9:00-10:00, 15:00-16:00, 17:00-18:00, 21:00-22:00
//   - midday:    10:00-15:00
//   - nighttime: 0:00-5:00
//   - rush-hour: 7:00-9:00
//
// Speed limits are in km/h.

const (
	SPEED_LIMIT_CATEGORY = "SPEED_LIMIT"
)

// roadClassCategory returns coefficient category of a functional road class
func roadClassCategory(class int) string {
	return [...]string{"ROAD_CLASS_1", "ROAD_CLASS_2", "ROAD_CLASS_3", "ROAD_CLASS_4", "ROAD_CLASS_5"}[class-1]
}

// HelsinkiUrbanZoneCoefficients returns coefficients by YKR urban zone, speed limit and time of day.
// Ways outside of every zone are treated as car zone (AUTOVYÖHYKE).
func HelsinkiUrbanZoneCoefficients() (*SpeedCoefficientTable, error) {
	return NewSpeedCoefficientTable(URBAN_ZONE_CAR.String(), helsinkiUrbanZoneCoefficients...)
}

// SpeedLimitCoefficients returns region-wide coefficients by speed limit and time of day
func SpeedLimitCoefficients() (*SpeedCoefficientTable, error) {
	return NewSpeedCoefficientTable(SPEED_LIMIT_CATEGORY, speedLimitCoefficients)
}

// RoadClassCoefficients returns region-wide coefficients by Digiroad road class and time of day.
// Every class has a single bucket, so nominal speed does not affect the coefficient.
func RoadClassCoefficients() (*SpeedCoefficientTable, error) {
	return NewSpeedCoefficientTable(roadClassCategory(ROAD_CLASS_LOWEST), roadClassCoefficients...)
}

var helsinkiUrbanZoneCoefficients = []SpeedCategoryCoefficients{
	{
		Category: URBAN_ZONE_SUBCENTRE_PEDESTRIAN.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{50, 0.8605}, {60, 1.1025}, {80, 1.0136}, {100, 0.9352}},
			TIME_OF_DAY_MIDDAY:    {{50, 0.8699}, {60, 1.1127}, {80, 1.0322}, {100, 0.9443}},
			TIME_OF_DAY_NIGHTTIME: {{50, 0.9712}, {60, 1.1524}, {80, 0.9911}, {100, 0.9316}},
			TIME_OF_DAY_RUSH_HOUR: {{50, 0.8937}, {60, 1.0944}, {80, 1.0027}, {100, 0.9275}},
		},
	},
	{
		Category: URBAN_ZONE_SUBCENTRE_PEDESTRIAN_INTENSIVE_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.9568}, {40, 0.9002}, {50, 0.7616}, {60, 0.8688}, {70, 0.898}, {80, 0.9908}, {100, 0.9591}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.9548}, {40, 0.9047}, {50, 0.765}, {60, 0.8857}, {70, 0.9076}, {80, 1.0007}, {100, 0.9648}},
			TIME_OF_DAY_NIGHTTIME: {{30, 1.1111}, {40, 1.0161}, {50, 0.8906}, {60, 0.9296}, {70, 0.9426}, {80, 1.0026}, {100, 0.948}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.9356}, {40, 0.8898}, {50, 0.7647}, {60, 0.8769}, {70, 0.888}, {80, 0.9915}, {100, 0.9494}},
		},
	},
	{
		Category: URBAN_ZONE_SUBCENTRE_PEDESTRIAN_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 1.0471}, {40, 0.9316}, {50, 0.752}, {60, 0.8283}, {70, 0.8994}, {80, 0.9326}},
			TIME_OF_DAY_MIDDAY:    {{30, 1.0553}, {40, 0.9327}, {50, 0.7587}, {60, 0.828}, {70, 0.9088}, {80, 0.9349}},
			TIME_OF_DAY_NIGHTTIME: {{30, 1.1481}, {40, 0.9797}, {50, 0.856}, {60, 0.9101}, {70, 0.9369}, {80, 0.9427}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.9922}, {40, 0.9178}, {50, 0.7474}, {60, 0.8193}, {70, 0.9149}, {80, 0.9347}},
		},
	},
	{
		Category: URBAN_ZONE_CAR.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.8967}, {40, 1.0111}, {50, 0.9779}, {60, 0.966}, {70, 1.0203}, {80, 0.9827}, {100, 0.9663}, {120, 0.8482}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.9149}, {40, 1.022}, {50, 0.9903}, {60, 0.9743}, {70, 1.024}, {80, 0.9889}, {100, 0.9697}, {120, 0.8541}},
			TIME_OF_DAY_NIGHTTIME: {{30, 0.9228}, {40, 1.0651}, {50, 1.0324}, {60, 1.0019}, {70, 1.0324}, {80, 0.997}, {100, 0.9452}, {120, 0.8254}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.8836}, {40, 0.992}, {50, 0.9621}, {60, 0.9596}, {70, 1.0159}, {80, 0.9814}, {100, 0.9669}, {120, 0.8421}},
		},
	},
	{
		Category: URBAN_ZONE_INTENSIVE_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.8087}, {40, 0.8277}, {50, 0.8357}, {60, 0.8359}, {70, 0.9587}, {80, 0.9568}, {100, 0.9647}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.8235}, {40, 0.8336}, {50, 0.8413}, {60, 0.8413}, {70, 0.9642}, {80, 0.9652}, {100, 0.9681}},
			TIME_OF_DAY_NIGHTTIME: {{30, 0.9029}, {40, 0.9415}, {50, 0.932}, {60, 0.9317}, {70, 0.9666}, {80, 0.9697}, {100, 0.9518}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.7767}, {40, 0.8129}, {50, 0.8236}, {60, 0.8382}, {70, 0.961}, {80, 0.9559}, {100, 0.9656}},
		},
	},
	{
		Category: URBAN_ZONE_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.9688}, {40, 0.9789}, {50, 0.8899}, {60, 0.9272}, {70, 0.9766}, {80, 0.9861}, {100, 0.9572}, {120, 0.8556}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.9797}, {40, 0.9865}, {50, 0.8928}, {60, 0.9326}, {70, 0.9808}, {80, 0.9915}, {100, 0.9602}, {120, 0.8617}},
			TIME_OF_DAY_NIGHTTIME: {{30, 1.0472}, {40, 1.0496}, {50, 0.93}, {60, 0.9868}, {70, 0.9906}, {80, 0.9993}, {100, 0.9383}, {120, 0.8342}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.9334}, {40, 0.9681}, {50, 0.8815}, {60, 0.9189}, {70, 0.9765}, {80, 0.9876}, {100, 0.9565}, {120, 0.8455}},
		},
	},
	{
		Category: URBAN_ZONE_CENTRE_PEDESTRIAN.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.6751}, {40, 0.7391}, {50, 0.7155}, {60, 0.6688}, {80, 0.8364}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.6626}, {40, 0.7435}, {50, 0.7228}, {60, 0.675}, {80, 0.8501}},
			TIME_OF_DAY_NIGHTTIME: {{30, 0.8564}, {40, 0.937}, {50, 0.8465}, {60, 0.8212}, {80, 0.854}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.6974}, {40, 0.7562}, {50, 0.7107}, {60, 0.5854}, {80, 0.8252}},
		},
	},
	{
		Category: URBAN_ZONE_CENTRE_FRINGE.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.679}, {40, 0.9703}, {50, 0.8179}, {70, 0.985}, {80, 1.0146}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.649}, {40, 0.9735}, {50, 0.8226}, {70, 0.99}, {80, 1.0233}},
			TIME_OF_DAY_NIGHTTIME: {{30, 0.6777}, {40, 1.1342}, {50, 0.9278}, {70, 1.0007}, {80, 1.0233}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.7165}, {40, 0.9735}, {50, 0.8066}, {70, 0.985}, {80, 1.0271}},
		},
	},
	{
		Category: URBAN_ZONE_CENTRE_FRINGE_INTENSIVE_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{20, 2.44}, {30, 0.8425}, {40, 0.7764}, {50, 0.7798}, {60, 0.9738}, {70, 1.0182}, {80, 0.9608}},
			TIME_OF_DAY_MIDDAY:    {{20, 2.415}, {30, 0.8264}, {40, 0.7826}, {50, 0.7819}, {60, 0.9827}, {70, 1.0204}, {80, 0.9667}},
			TIME_OF_DAY_NIGHTTIME: {{20, 2.595}, {30, 1.0402}, {40, 0.953}, {50, 0.9166}, {60, 1.0112}, {70, 1.0224}, {80, 0.9686}},
			TIME_OF_DAY_RUSH_HOUR: {{20, 2.365}, {30, 0.8265}, {40, 0.7704}, {50, 0.7753}, {60, 0.9707}, {70, 1.0242}, {80, 0.9627}},
		},
	},
	{
		Category: URBAN_ZONE_CENTRE_FRINGE_TRANSIT.String(),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{30, 0.8396}, {40, 0.7696}, {50, 0.765}, {60, 0.5526}},
			TIME_OF_DAY_MIDDAY:    {{30, 0.7979}, {40, 0.741}, {50, 0.7704}, {60, 0.5614}},
			TIME_OF_DAY_NIGHTTIME: {{30, 0.9412}, {40, 1.0294}, {50, 0.8928}, {60, 0.5912}},
			TIME_OF_DAY_RUSH_HOUR: {{30, 0.8392}, {40, 0.7185}, {50, 0.7276}, {60, 0.5507}},
		},
	},
}

var speedLimitCoefficients = SpeedCategoryCoefficients{
	Category: SPEED_LIMIT_CATEGORY,
	Buckets: map[TimeOfDay][]SpeedBucket{
		TIME_OF_DAY_AVERAGE:   {{20, 0.7125}, {30, 0.82}, {40, 0.85}, {50, 0.831}, {60, 0.94}, {70, 0.97}, {80, 0.98625}, {100, 0.967}, {120, 0.856666667}},
		TIME_OF_DAY_MIDDAY:    {{20, 0.665}, {30, 0.813333333}, {40, 0.8575}, {50, 0.836}, {60, 0.948333333}, {70, 0.978571429}, {80, 0.993125}, {100, 0.971}, {120, 0.865833333}},
		TIME_OF_DAY_NIGHTTIME: {{20, 0.885}, {30, 0.893333333}, {40, 0.93}, {50, 0.894}, {60, 0.963333333}, {70, 0.985714286}, {80, 0.99875}, {100, 0.969}, {120, 0.856666667}},
		TIME_OF_DAY_RUSH_HOUR: {{20, 0.835}, {30, 0.81}, {40, 0.845}, {50, 0.822}, {60, 0.938333333}, {70, 0.974285714}, {80, 0.9875}, {100, 0.965}, {120, 0.850416667}},
	},
}

var roadClassCoefficients = []SpeedCategoryCoefficients{
	{
		Category: roadClassCategory(1),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{0, 0.927}},
			TIME_OF_DAY_MIDDAY:    {{0, 0.937}},
			TIME_OF_DAY_NIGHTTIME: {{0, 0.97}},
			TIME_OF_DAY_RUSH_HOUR: {{0, 0.93}},
		},
	},
	{
		Category: roadClassCategory(2),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{0, 0.965714286}},
			TIME_OF_DAY_MIDDAY:    {{0, 0.975}},
			TIME_OF_DAY_NIGHTTIME: {{0, 0.985}},
			TIME_OF_DAY_RUSH_HOUR: {{0, 0.97}},
		},
	},
	{
		Category: roadClassCategory(3),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{0, 0.878}},
			TIME_OF_DAY_MIDDAY:    {{0, 0.886}},
			TIME_OF_DAY_NIGHTTIME: {{0, 0.93375}},
			TIME_OF_DAY_RUSH_HOUR: {{0, 0.873}},
		},
	},
	{
		Category: roadClassCategory(4),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{0, 0.853}},
			TIME_OF_DAY_MIDDAY:    {{0, 0.857}},
			TIME_OF_DAY_NIGHTTIME: {{0, 0.913}},
			TIME_OF_DAY_RUSH_HOUR: {{0, 0.845}},
		},
	},
	{
		Category: roadClassCategory(5),
		Buckets: map[TimeOfDay][]SpeedBucket{
			TIME_OF_DAY_AVERAGE:   {{0, 0.7}},
			TIME_OF_DAY_MIDDAY:    {{0, 0.692}},
			TIME_OF_DAY_NIGHTTIME: {{0, 0.753}},
			TIME_OF_DAY_RUSH_HOUR: {{0, 0.712}},
		},
	},
}
