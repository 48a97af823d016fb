package parcel

import (
	"fmt"
	"regexp"
	"strings"
)

// Coords is a latitude/longitude pair.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a best-effort postal location. Every field is optional since
// carrier pages rarely expose more than a city and country.
type Location struct {
	AddressLine string  `json:"addressLine,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
	Country     string  `json:"country,omitempty"`
	Coords      *Coords `json:"coords,omitempty"`
}

var repeatedSpace = regexp.MustCompile(`\s+`)

// SearchQuery derives a geocoder-friendly query string. Coordinates win over
// address fields when present. An empty return value means no usable query
// could be built (a single stray character does not count as usable).
func (l *Location) SearchQuery() string {
	if l == nil {
		return ""
	}
	if l.Coords != nil {
		return fmt.Sprintf("%v, %v", l.Coords.Lat, l.Coords.Lng)
	}

	parts := []string{l.AddressLine, l.City, l.State, l.PostalCode, l.Country}
	var fields []string
	for _, part := range parts {
		if part != "" {
			fields = append(fields, part)
		}
	}
	query := strings.TrimSpace(repeatedSpace.ReplaceAllString(strings.Join(fields, " "), " "))
	if len(query) <= 1 {
		return ""
	}
	return query
}

// Empty reports whether no field of the location is populated.
func (l *Location) Empty() bool {
	return l == nil || (l.AddressLine == "" && l.City == "" && l.State == "" &&
		l.PostalCode == "" && l.Country == "" && l.Coords == nil)
}
