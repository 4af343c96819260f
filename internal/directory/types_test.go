package directory

import (
	"encoding/json"
	"reflect"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestLocation_Position_Precedence(t *testing.T) {
	point := &LatLng{Lat: 52.51, Lng: 13.40}
	box := &Viewport{
		Northeast: LatLng{Lat: 52.60, Lng: 13.50},
		Southwest: LatLng{Lat: 52.40, Lng: 13.30},
	}

	tests := []struct {
		name string
		loc  Location
		want LatLng
		ok   bool
	}{
		{
			name: "flat wins over point and box",
			loc:  Location{Lat: f64(52.52), Lng: f64(13.41), GpsPoint: point, Viewport: box},
			want: LatLng{Lat: 52.52, Lng: 13.41},
			ok:   true,
		},
		{
			name: "point wins over box",
			loc:  Location{GpsPoint: point, Viewport: box},
			want: *point,
			ok:   true,
		},
		{
			name: "box centroid as fallback",
			loc:  Location{Viewport: box},
			want: LatLng{Lat: 52.50, Lng: 13.40},
			ok:   true,
		},
		{
			name: "lat without lng falls through to point",
			loc:  Location{Lat: f64(52.52), GpsPoint: point},
			want: *point,
			ok:   true,
		},
		{
			name: "no coordinates",
			loc:  Location{Address: "somewhere"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loc.Position()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("position = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProvider_BookingURL(t *testing.T) {
	p := Provider{Link: "/dentist/berlin/anna-schmidt"}

	if got := p.BookingURL("https://www.doctolib.de"); got != "https://www.doctolib.de/dentist/berlin/anna-schmidt" {
		t.Errorf("BookingURL = %q", got)
	}
	// Trailing slash on the base must not double up
	if got := p.BookingURL("https://www.doctolib.de/"); got != "https://www.doctolib.de/dentist/berlin/anna-schmidt" {
		t.Errorf("BookingURL = %q", got)
	}
}

func TestProvider_JSONRoundTrip(t *testing.T) {
	orig := Provider{
		ID:        "12345",
		Name:      "Dr. Anna Schmidt",
		Specialty: "dentist",
		Link:      "/dentist/berlin/anna-schmidt",
		Languages: []string{"de", "gb"},
		Location: Location{
			Address:  "Haupt Str. 1, 10115 Berlin",
			GpsPoint: &LatLng{Lat: 52.52, Lng: 13.40},
		},
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Provider
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(orig, got) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
	if got.BookingURL("https://www.doctolib.de") != orig.BookingURL("https://www.doctolib.de") {
		t.Error("booking link changed across round-trip")
	}
}

func TestNewPlace(t *testing.T) {
	p := NewPlace(PlaceSuggestion{
		PlaceID:     "ChIJAVkDPzdOqEcRcDteW0YgIQQ",
		Description: "Berlin, Germany",
	})

	if p.PlaceID != "ChIJAVkDPzdOqEcRcDteW0YgIQQ" {
		t.Errorf("PlaceID = %q", p.PlaceID)
	}
	if p.Name != "Berlin, Germany" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Locality != "Berlin" {
		t.Errorf("Locality = %q, want first description segment", p.Locality)
	}
	if p.NameWithPronoun != "in Berlin, Germany" {
		t.Errorf("NameWithPronoun = %q", p.NameWithPronoun)
	}
	if p.Slug != "berlin,-germany" {
		t.Errorf("Slug = %q", p.Slug)
	}
	if p.Country != "de" || p.Type != "route" {
		t.Errorf("Country/Type = %q/%q", p.Country, p.Type)
	}
	if p.GpsPoint == (LatLng{}) {
		t.Error("GpsPoint fallback missing")
	}
}
