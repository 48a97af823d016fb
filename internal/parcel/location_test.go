package parcel

import "testing"

func TestLocation_SearchQuery(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{
			name: "all fields empty",
			loc:  &Location{},
			want: "",
		},
		{
			name: "nil location",
			loc:  nil,
			want: "",
		},
		{
			name: "coordinates win over address fields",
			loc: &Location{
				City:    "Lisboa",
				Country: "Portugal",
				Coords:  &Coords{Lat: 38.7223, Lng: -9.1393},
			},
			want: "38.7223, -9.1393",
		},
		{
			name: "address fields joined by single spaces",
			loc: &Location{
				AddressLine: "Praça do Comércio 1",
				City:        "Lisboa",
				PostalCode:  "1100-148",
				Country:     "Portugal",
			},
			want: "Praça do Comércio 1 Lisboa 1100-148 Portugal",
		},
		{
			name: "repeated whitespace collapsed",
			loc: &Location{
				City:    "New  York",
				Country: " USA",
			},
			want: "New York USA",
		},
		{
			name: "single character result is absent",
			loc:  &Location{City: "X"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.SearchQuery(); got != tt.want {
				t.Errorf("SearchQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocation_Empty(t *testing.T) {
	if !(&Location{}).Empty() {
		t.Error("empty location reported as populated")
	}
	if (&Location{Country: "Portugal"}).Empty() {
		t.Error("populated location reported as empty")
	}
	if (&Location{Coords: &Coords{Lat: 1, Lng: 2}}).Empty() {
		t.Error("location with coordinates reported as empty")
	}
}
