package directory

import "strings"

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is a bounding box around a location.
type Viewport struct {
	Northeast LatLng `json:"northeast"`
	Southwest LatLng `json:"southwest"`
}

// Centroid returns the center point of the bounding box.
func (v Viewport) Centroid() LatLng {
	return LatLng{
		Lat: (v.Northeast.Lat + v.Southwest.Lat) / 2,
		Lng: (v.Northeast.Lng + v.Southwest.Lng) / 2,
	}
}

// Location is a provider's address plus whatever coordinate shape the
// directory happened to return for it.
type Location struct {
	Address  string    `json:"address,omitempty"`
	Lat      *float64  `json:"lat,omitempty"`
	Lng      *float64  `json:"lng,omitempty"`
	GpsPoint *LatLng   `json:"gpsPoint,omitempty"`
	Viewport *Viewport `json:"viewport,omitempty"`
}

// Position resolves the location to a single coordinate. Precedence:
// flat lat/lng, then gpsPoint, then the viewport centroid. The second
// return value is false when no coordinate shape is present.
func (l Location) Position() (LatLng, bool) {
	if l.Lat != nil && l.Lng != nil {
		return LatLng{Lat: *l.Lat, Lng: *l.Lng}, true
	}
	if l.GpsPoint != nil {
		return *l.GpsPoint, true
	}
	if l.Viewport != nil {
		return l.Viewport.Centroid(), true
	}
	return LatLng{}, false
}

// Provider is one healthcare provider search result.
type Provider struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty,omitempty"`
	Link            string   `json:"link"`
	ProfileImageURL string   `json:"profile_image_url,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Telehealth      bool     `json:"telehealth,omitempty"`
	Location        Location `json:"location"`
}

// BookingURL combines the directory base URL with the provider's booking
// reference. It is a plain link for the user, not an API endpoint.
func (p Provider) BookingURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + p.Link
}

// Specialty is a resolved medical specialty from the directory's
// autocomplete endpoint.
type Specialty struct {
	ID   int    `json:"value"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PlaceSuggestion is a resolved location from place autocomplete.
type PlaceSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}
