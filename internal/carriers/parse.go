package carriers

import (
	"strings"
	"time"

	"parcel-scraper/internal/parcel"
)

// Policies are the per-carrier knobs for the shared parsing rules. Carrier
// feeds disagree on details like whether a year-less date that regresses in
// month belongs to the previous calendar year, so each variant declares its
// own defaults and configuration may override them.
type Policies struct {
	// RollYearOnRegression advances a history item's year by one when its
	// month index is earlier than the reference date's month index. Meant
	// for feeds that omit the year entirely.
	RollYearOnRegression bool
}

// CleanTitle strips trailing full stops from an update title and splits an
// embedded "Note:" suffix off into the description.
func CleanTitle(title string) (cleaned, note string) {
	cleaned = strings.TrimSpace(title)
	if idx := strings.Index(cleaned, "Note:"); idx >= 0 {
		note = strings.TrimSpace(cleaned[idx+len("Note:"):])
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	cleaned = strings.TrimRight(cleaned, ".")
	cleaned = strings.TrimSpace(cleaned)
	return cleaned, note
}

// ParseAddress tokenizes a delimited location string. Trailing tokens map to
// country, then state, then (when a third token exists) city; a recognized
// service-area prefix is discarded from the city token. Returns nil when the
// string yields nothing usable.
func ParseAddress(raw, sep string, serviceAreaPrefixes ...string) *parcel.Location {
	raw = strings.TrimSpace(raw)
	for _, prefix := range serviceAreaPrefixes {
		if strings.HasPrefix(strings.ToLower(raw), strings.ToLower(prefix)) {
			raw = strings.TrimSpace(raw[len(prefix):])
			break
		}
	}
	if raw == "" {
		return nil
	}

	var tokens []string
	for _, token := range strings.Split(raw, sep) {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	loc := &parcel.Location{}
	loc.Country = tokens[len(tokens)-1]
	if len(tokens) >= 2 {
		loc.State = tokens[len(tokens)-2]
	}
	if len(tokens) >= 3 {
		city := tokens[len(tokens)-3]
		for _, prefix := range serviceAreaPrefixes {
			if strings.HasPrefix(strings.ToLower(city), strings.ToLower(prefix)) {
				city = strings.TrimSpace(city[len(prefix):])
				break
			}
		}
		loc.City = city
	}
	return loc
}

// ReconcileYear fixes year-boundary rollovers in feeds that omit the year:
// when the item's month index is earlier than the reference's, the item
// belongs to the year after the reference year. In-place, no-op when the
// carrier's policy keeps rollover off.
func ReconcileYear(ts, reference *parcel.Timestamp, p Policies) {
	if !p.RollYearOnRegression || ts == nil || reference == nil {
		return
	}
	if int(ts.Time().Month()) < int(reference.Time().Month()) {
		t := ts.Time()
		ts.SetTime(time.Date(reference.Time().Year()+1, t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, t.Location()))
	} else {
		t := ts.Time()
		ts.SetTime(time.Date(reference.Time().Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, t.Location()))
	}
}

// StatusRule matches update titles against carrier wording to assign a
// status type. Rules are evaluated in declaration order and the first match
// wins; Data builds the type's required data mapping from the update being
// classified.
type StatusRule struct {
	Phrases []string
	Type    parcel.StatusType
	Data    func(u *parcel.Update) map[string]any
}

// InferStatus classifies an update against an ordered rule list. The update
// keeps a nil status when no rule matches. A rule producing data that fails
// taxonomy validation is reported as an error so the variant can abort the
// extraction rather than emit a corrupt status.
func InferStatus(rules []StatusRule, u *parcel.Update) (*parcel.Status, error) {
	title := strings.ToLower(u.Title)
	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			if !strings.Contains(title, phrase) {
				continue
			}
			var data map[string]any
			if rule.Data != nil {
				data = rule.Data(u)
			}
			return parcel.NewStatus(rule.Type, u.Title, data)
		}
	}
	return nil, nil
}

// locationData is a shared Data builder for the single-key location statuses.
func locationData(u *parcel.Update) map[string]any {
	return map[string]any{"location": u.Location.SearchQuery()}
}
