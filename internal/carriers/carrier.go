// Package carriers defines the contract every site-specific extractor
// satisfies and the registry the controller dispatches through, plus the
// shared parsing policies that keep variants consistent with one another.
package carriers

import (
	"fmt"
	"sort"
	"strings"

	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

// Carrier is one site-specific extractor. Implementations are stateless with
// respect to scrape invocations: every call receives the page context and
// returns fresh entities.
type Carrier interface {
	// ID is the registry key, lowercase.
	ID() string

	// Name is the carrier's display name.
	Name() string

	// TrackingURL builds the tracking page URL for a tracking code.
	TrackingURL(trackingCode string) string

	// TargetSelectors lists the "data is present" selectors for the
	// readiness detector, in priority order.
	TargetSelectors() []string

	// ErrorSelectors lists the "page is in a failure state" selectors for
	// the readiness detector.
	ErrorSelectors() []string

	// ErrorCheck inspects the page for carrier-specific error markers and
	// maps them to scrape error codes. Nil means no marker is present.
	// Side-effect-free and callable before any extraction.
	ErrorCheck(doc page.Accessor) *parcel.Error

	// Scrape extracts the normalized parcel. It re-runs ErrorCheck first
	// and short-circuits on its result; any structural mismatch surfaces
	// as an Unknown error, never as a partial parcel.
	Scrape(doc page.Accessor, trackingCode string) (*parcel.Parcel, *parcel.Error)
}

var registry = make(map[string]func() Carrier)

// Register adds a carrier factory under its id. Called from variant init
// functions; duplicate ids are a programming error.
func Register(id string, factory func() Carrier) {
	id = strings.ToLower(id)
	if _, exists := registry[id]; exists {
		panic(fmt.Sprintf("carrier %q registered twice", id))
	}
	registry[id] = factory
}

// Get builds a fresh carrier variant for the id.
func Get(id string) (Carrier, bool) {
	factory, ok := registry[strings.ToLower(id)]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// IDs lists the registered carrier ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ErrorMarker binds a page selector to the scrape error it indicates.
// Refine optionally maps the matched element's text to a more specific code.
type ErrorMarker struct {
	Selector string
	Code     parcel.ErrorCode
	Refine   func(text string) parcel.ErrorCode
}

// CheckErrorMarkers evaluates markers in order and returns the first match,
// carrying the banner text as error data. Nil when nothing matches.
func CheckErrorMarkers(doc page.Accessor, markers []ErrorMarker) *parcel.Error {
	for _, marker := range markers {
		el, ok := doc.First(marker.Selector)
		if !ok {
			continue
		}
		code := marker.Code
		text := el.Text()
		if marker.Refine != nil {
			code = marker.Refine(strings.ToLower(text))
		}
		return parcel.NewError(code, map[string]any{"message": text})
	}
	return nil
}
