package parcel

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp wraps a single point in time and serializes as an ISO-8601 UTC
// string. The zero value is not useful; build instances with NewTimestamp.
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps the given instant.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{t: t}
}

// Time returns the wrapped instant.
func (ts *Timestamp) Time() time.Time {
	return ts.t
}

// SetTime replaces the wrapped instant in place.
func (ts *Timestamp) SetTime(t time.Time) {
	ts.t = t
}

// SetClock mutates the hour, minute and second in place, keeping the date
// and time zone.
func (ts *Timestamp) SetClock(hour, minute, second int) {
	ts.t = time.Date(ts.t.Year(), ts.t.Month(), ts.t.Day(),
		hour, minute, second, 0, ts.t.Location())
}

// Clone returns a deep copy.
func (ts *Timestamp) Clone() *Timestamp {
	if ts == nil {
		return nil
	}
	c := *ts
	return &c
}

// ISO8601 renders the instant as an ISO-8601 UTC string.
func (ts *Timestamp) ISO8601() string {
	return ts.t.UTC().Format("2006-01-02T15:04:05Z")
}

func (ts *Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.ISO8601() + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	ts.t = t
	return nil
}

func (ts *Timestamp) String() string {
	return ts.ISO8601()
}

// monthNames holds full names followed by their 3-letter abbreviations,
// index order matching time.Month - 1.
var monthNames = map[string][]string{
	"en": {
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
		"jan", "feb", "mar", "apr", "may", "jun",
		"jul", "aug", "sep", "oct", "nov", "dec",
	},
	"pt": {
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
		"jan", "fev", "mar", "abr", "mai", "jun",
		"jul", "ago", "set", "out", "nov", "dez",
	},
}

// MonthIndex resolves an English ("en") or Portuguese ("pt") month name or
// 3-letter abbreviation to its zero-based month index.
func MonthIndex(name, lang string) (int, error) {
	names, ok := monthNames[lang]
	if !ok {
		return 0, fmt.Errorf("unsupported month-name language %q", lang)
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range names {
		if needle == candidate {
			return i % 12, nil
		}
	}
	return 0, fmt.Errorf("invalid month name %q", name)
}
