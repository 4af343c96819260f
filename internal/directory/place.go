package directory

import "strings"

// Defaults the search endpoint requires when place autocomplete does not
// supply real geometry. Coordinates are Berlin center, matching the
// directory's own fallback behavior.
var (
	defaultViewport = Viewport{
		Northeast: LatLng{Lat: 52.5660121802915, Lng: 13.3949812802915},
		Southwest: LatLng{Lat: 52.5633142197085, Lng: 13.3922833197085},
	}
	defaultGpsPoint = LatLng{Lat: 52.5646632, Lng: 13.3936323}
)

// defaultPlaceRecordID is the numeric record ID the search endpoint
// accepts when none is known for the place.
const defaultPlaceRecordID = 1419927

// Place is the location document the directory search endpoint expects.
type Place struct {
	ID              int      `json:"id"`
	PlaceID         string   `json:"placeId"`
	Name            string   `json:"name"`
	NameWithPronoun string   `json:"nameWithPronoun"`
	Slug            string   `json:"slug"`
	Country         string   `json:"country"`
	Viewport        Viewport `json:"viewport"`
	Type            string   `json:"type"`
	Zipcodes        []string `json:"zipcodes"`
	GpsPoint        LatLng   `json:"gpsPoint"`
	Locality        string   `json:"locality,omitempty"`
	StreetName      *string  `json:"streetName"`
	StreetNumber    *string  `json:"streetNumber"`
}

// NewPlace builds a search-ready place document from an autocomplete
// suggestion. The locality is the first comma-separated segment of the
// description; slug is the lowercased, hyphenated name.
func NewPlace(s PlaceSuggestion) Place {
	name := strings.TrimSpace(s.Description)
	locality := name
	if i := strings.Index(name, ","); i >= 0 {
		locality = strings.TrimSpace(name[:i])
	}
	return Place{
		ID:              defaultPlaceRecordID,
		PlaceID:         s.PlaceID,
		Name:            name,
		NameWithPronoun: "in " + name,
		Slug:            strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		Country:         "de",
		Viewport:        defaultViewport,
		Type:            "route",
		Zipcodes:        []string{},
		GpsPoint:        defaultGpsPoint,
		Locality:        locality,
	}
}
