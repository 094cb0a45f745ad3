package osm2ttm

// UrbanZone is a category of the Finnish YKR urban zone classification
// (yhdyskuntarakenteen vyöhykkeet). Values are the official zone codes.
type UrbanZone uint16

const (
	URBAN_ZONE_CENTRE_PEDESTRIAN                      = UrbanZone(1)
	URBAN_ZONE_CENTRE_FRINGE                          = UrbanZone(2)
	URBAN_ZONE_INTENSIVE_TRANSIT                      = UrbanZone(3)
	URBAN_ZONE_TRANSIT                                = UrbanZone(4)
	URBAN_ZONE_CAR                                    = UrbanZone(5)
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN                   = UrbanZone(10)
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN_TRANSIT           = UrbanZone(11)
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN_INTENSIVE_TRANSIT = UrbanZone(12)
	URBAN_ZONE_CENTRE_FRINGE_TRANSIT                  = UrbanZone(40)
	URBAN_ZONE_CENTRE_FRINGE_INTENSIVE_TRANSIT        = UrbanZone(41)
	URBAN_ZONE_UNDEFINED                              = UrbanZone(0)
)

type urbanZoneNames struct {
	key         string
	description string
}

var urbanZones = map[UrbanZone]urbanZoneNames{
	URBAN_ZONE_CENTRE_PEDESTRIAN:                      {"KESKUSTAN_JALANKULKUVYÖHYKE", "Keskustan jalankulkuvyöhyke"},
	URBAN_ZONE_CENTRE_FRINGE:                          {"KESKUSTAN_REUNAVYÖHYKE", "Keskustan reunavyöhyke"},
	URBAN_ZONE_INTENSIVE_TRANSIT:                      {"INTENSIIVINEN_JOUKKOLIIKENNEVYÖHYKE", "Intensiivinen joukkoliikennevyöhyke"},
	URBAN_ZONE_TRANSIT:                                {"JOUKKOLIIKENNEVYÖHYKE", "Joukkoliikennevyöhyke"},
	URBAN_ZONE_CAR:                                    {"AUTOVYÖHYKE", "Autovyöhyke"},
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN:                   {"ALAKESKUKSEN_JALANKULKUVYÖHYKE", "Alakeskuksen jalankulkuvyöhyke"},
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN_TRANSIT:           {"ALAKESKUKSEN_JALANKULKUVYÖHYKE_JOUKKOLIIKENNE", "Alakeskuksen jalankulkuvyöhyke/ joukkoliikenne"},
	URBAN_ZONE_SUBCENTRE_PEDESTRIAN_INTENSIVE_TRANSIT: {"ALAKESKUKSEN_JALANKULKUVYÖHYKE_INTENSIIVINEN_JOUKKOLIIKENNE", "Alakeskuksen jalankulkuvyöhyke/ intensiivinen joukkoliikenne"},
	URBAN_ZONE_CENTRE_FRINGE_TRANSIT:                  {"KESKUSTAN_REUNAVYÖHYKE_JOUKKOLIIKENNE", "Keskustan reunavyöhyke/ joukkoliikenne"},
	URBAN_ZONE_CENTRE_FRINGE_INTENSIVE_TRANSIT:        {"KESKUSTAN_REUNAVYÖHYKE_INTENSIIVINEN_JOUKKOLIIKENNE", "Keskustan reunavyöhyke/ intensiivinen joukkoliikenne"},
}

// String returns the zone key used as speed coefficient category
func (zone UrbanZone) String() string {
	if names, ok := urbanZones[zone]; ok {
		return names.key
	}
	return "UNDEFINED"
}

// Description returns the official Finnish name of the zone
func (zone UrbanZone) Description() string {
	if names, ok := urbanZones[zone]; ok {
		return names.description
	}
	return ""
}

// UrbanZoneFromCode returns zone for the numeric YKR code
func UrbanZoneFromCode(code int) (UrbanZone, bool) {
	zone := UrbanZone(code)
	_, ok := urbanZones[zone]
	if !ok {
		return URBAN_ZONE_UNDEFINED, false
	}
	return zone, true
}

// urbanZoneByKey returns zone for its coefficient category key
func urbanZoneByKey(key string) (UrbanZone, bool) {
	for zone, names := range urbanZones {
		if names.key == key {
			return zone, true
		}
	}
	return URBAN_ZONE_UNDEFINED, false
}
