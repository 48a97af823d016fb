// Package parcel holds the normalized tracking data model shared by every
// carrier variant: parcels, history updates, the closed status taxonomy and
// the scrape error codes. All entities are created fresh per scrape
// invocation and handed to the caller exactly once; nothing here persists
// state.
package parcel

import (
	"encoding/json"
	"sort"
)

// Update is one entry in a parcel's tracking history.
type Update struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	Timestamp   *Timestamp `json:"timestamp,omitempty"`
	Status      *Status    `json:"status,omitempty"`
}

// ETA is the carrier's delivery estimate: a parsed date when one could be
// extracted, plus the page's verbatim phrase.
type ETA struct {
	Date     *Timestamp `json:"date,omitempty"`
	Verbatim string     `json:"verbatim,omitempty"`
}

// Parcel is the normalized result of one scrape. History is ordered
// newest-first; AppendUpdate followed by NormalizeHistory is the only
// construction path, and the parcel is treated as immutable once returned
// to the caller.
type Parcel struct {
	TrackingCode string
	TrackingURL  string
	CreationDate *Timestamp
	Origin       *Location
	Destination  *Location
	ETA          *ETA
	History      []*Update
}

// AppendUpdate adds an update in discovery order.
func (p *Parcel) AppendUpdate(u *Update) {
	p.History = append(p.History, u)
}

// Status derives the parcel's overall status from the newest history entry.
// Nil when the history is empty or the newest entry carries no status.
func (p *Parcel) Status() *Status {
	if len(p.History) == 0 {
		return nil
	}
	return p.History[0].Status
}

// NormalizeHistory guarantees the newest-first invariant: a stable sort by
// timestamp, descending. Ties and entries without timestamps keep their
// discovery order.
func NormalizeHistory(history []*Update) {
	sort.SliceStable(history, func(i, j int) bool {
		ti, tj := history[i].Timestamp, history[j].Timestamp
		if ti == nil || tj == nil {
			return false
		}
		return ti.Time().After(tj.Time())
	})
}

// Normalize applies NormalizeHistory to the parcel's own history.
func (p *Parcel) Normalize() {
	NormalizeHistory(p.History)
}

func (p *Parcel) MarshalJSON() ([]byte, error) {
	history := p.History
	if history == nil {
		history = []*Update{}
	}
	type payload struct {
		TrackingCode string     `json:"trackingCode"`
		TrackingURL  string     `json:"trackingUrl"`
		CreationDate *Timestamp `json:"creationDate"`
		Status       *Status    `json:"status"`
		Origin       *Location  `json:"origin"`
		Destination  *Location  `json:"destination"`
		ETA          *ETA       `json:"eta"`
		History      []*Update  `json:"history"`
	}
	return json.Marshal(payload{
		TrackingCode: p.TrackingCode,
		TrackingURL:  p.TrackingURL,
		CreationDate: p.CreationDate,
		Status:       p.Status(),
		Origin:       p.Origin,
		Destination:  p.Destination,
		ETA:          p.ETA,
		History:      history,
	})
}
