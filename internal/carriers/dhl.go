package carriers

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

func init() {
	Register("dhl", func() Carrier { return NewDHL() })
}

// DHL extracts tracking data from the dhl.com unified tracking page. The
// feed is English and carries full dates, so year rollover stays off.
type DHL struct {
	policies Policies
}

// NewDHL builds the DHL variant with its default policies.
func NewDHL() *DHL {
	return &DHL{}
}

// SetPolicies overrides the carrier's parsing policies.
func (d *DHL) SetPolicies(p Policies) {
	d.policies = p
}

// Policies returns the carrier's current parsing policies.
func (d *DHL) Policies() Policies {
	return d.policies
}

func (d *DHL) ID() string   { return "dhl" }
func (d *DHL) Name() string { return "DHL" }

func (d *DHL) TrackingURL(trackingCode string) string {
	return fmt.Sprintf(
		"https://www.dhl.com/us-en/home/tracking.html?tracking-id=%s&submit=1",
		url.QueryEscape(trackingCode))
}

func (d *DHL) TargetSelectors() []string {
	return []string{".c-tracking-result--checkpoint"}
}

func (d *DHL) ErrorSelectors() []string {
	return []string{".c-tracking-result--error", ".js--tracking--error-message"}
}

var dhlErrorMarkers = []ErrorMarker{
	{
		Selector: ".c-tracking-result--error",
		Code:     parcel.ErrUnknown,
		Refine: func(text string) parcel.ErrorCode {
			switch {
			case strings.Contains(text, "no results found"),
				strings.Contains(text, "cannot be found"):
				return parcel.ErrParcelNotFound
			case strings.Contains(text, "not valid"),
				strings.Contains(text, "check your entry"):
				return parcel.ErrInvalidTrackingCode
			case strings.Contains(text, "unusual activity"),
				strings.Contains(text, "too many requests"):
				return parcel.ErrRateLimiting
			case strings.Contains(text, "access denied"):
				return parcel.ErrBlocked
			}
			return parcel.ErrUnknown
		},
	},
	{Selector: ".js--tracking--error-message", Code: parcel.ErrUnknown},
}

func (d *DHL) ErrorCheck(doc page.Accessor) *parcel.Error {
	return CheckErrorMarkers(doc, dhlErrorMarkers)
}

// dhlStatusRules is ordered: the first matching rule wins. Specific wording
// sits above the catch-all transit phrases.
var dhlStatusRules = []StatusRule{
	{Phrases: []string{"delivered"}, Type: parcel.TypeDelivered, Data: dhlDeliveredData},
	{Phrases: []string{"out for delivery", "with delivery courier"}, Type: parcel.TypeDelivering},
	{Phrases: []string{"delivery attempt", "attempted delivery"}, Type: parcel.TypeDeliveryAttempt},
	{Phrases: []string{"available for pickup", "ready for collection"}, Type: parcel.TypePickup, Data: dhlPickupData},
	{Phrases: []string{"released by customs", "customs cleared"}, Type: parcel.TypeCustomsCleared},
	{Phrases: []string{"departed from origin", "shipment has left the origin"}, Type: parcel.TypeDepartedOrigin, Data: locationData},
	{Phrases: []string{"arrived in the destination", "arrived at destination"}, Type: parcel.TypeArrivedDestination, Data: locationData},
	{Phrases: []string{"shipment picked up", "posted"}, Type: parcel.TypePosted},
	{Phrases: []string{"shipment information received", "electronic notification"}, Type: parcel.TypeCreated, Data: createdData},
	{Phrases: []string{"on hold", "exception", "clearance event"}, Type: parcel.TypeIssue},
	{Phrases: []string{"processed", "departed facility", "arrived at", "in transit", "forwarded"}, Type: parcel.TypeInTransit},
}

func dhlDeliveredData(u *parcel.Update) map[string]any {
	to := ""
	if idx := strings.Index(strings.ToLower(u.Description), "signed for by"); idx >= 0 {
		to = strings.TrimSpace(strings.TrimLeft(u.Description[idx+len("signed for by"):], ": "))
	}
	return map[string]any{"to": to}
}

func dhlPickupData(u *parcel.Update) map[string]any {
	return map[string]any{"location": u.Location.SearchQuery(), "until": ""}
}

func createdData(u *parcel.Update) map[string]any {
	var ts any
	if u.Timestamp != nil {
		ts = u.Timestamp.ISO8601()
	}
	return map[string]any{"timestamp": ts}
}

var (
	dhlDateRe = regexp.MustCompile(`(?i)([a-z]+) (\d{1,2}), (\d{4})`)
	dhlTimeRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

func (d *DHL) Scrape(doc page.Accessor, trackingCode string) (*parcel.Parcel, *parcel.Error) {
	if perr := d.ErrorCheck(doc); perr != nil {
		return nil, perr
	}

	checkpoints := doc.All(".c-tracking-result--checkpoint")
	if len(checkpoints) == 0 {
		return nil, parcel.NewError(parcel.ErrUnknown,
			map[string]any{"message": "no tracking checkpoints in page"})
	}

	p := &parcel.Parcel{
		TrackingCode: trackingCode,
		TrackingURL:  d.TrackingURL(trackingCode),
	}

	for _, checkpoint := range checkpoints {
		titleEl, ok := checkpoint.First(".c-tracking-result--checkpoint--status")
		if !ok {
			return nil, parcel.NewError(parcel.ErrUnknown,
				map[string]any{"message": "checkpoint without a status label"})
		}

		update := &parcel.Update{}
		update.Title, update.Description = CleanTitle(titleEl.Text())

		if loc, ok := checkpoint.First(".c-tracking-result--checkpoint--location"); ok {
			update.Location = ParseAddress(loc.Text(), "-", "Service Area:")
		}
		update.Timestamp = d.parseCheckpointTime(checkpoint)

		status, err := InferStatus(dhlStatusRules, update)
		if err != nil {
			return nil, parcel.NewError(parcel.ErrUnknown,
				map[string]any{"message": err.Error()})
		}
		update.Status = status
		p.AppendUpdate(update)
	}

	if eta, ok := doc.First(".c-tracking-result--estimated-delivery"); ok {
		p.ETA = &parcel.ETA{Verbatim: eta.Text(), Date: d.parseDate(eta.Text())}
	}
	if origin, ok := doc.First(".c-tracking-result--origin"); ok {
		p.Origin = ParseAddress(origin.Text(), "-", "Origin Service Area:")
	}
	if destination, ok := doc.First(".c-tracking-result--destination"); ok {
		p.Destination = ParseAddress(destination.Text(), "-", "Destination Service Area:")
	}

	p.Normalize()
	if oldest := p.History[len(p.History)-1]; oldest.Timestamp != nil {
		p.CreationDate = oldest.Timestamp.Clone()
	}
	return p, nil
}

// parseCheckpointTime reads the "Monday, June 02, 2025" date plus the
// "14:02" clock of one checkpoint. Nil when the page carries no parsable
// date; normalization keeps such updates in discovery order.
func (d *DHL) parseCheckpointTime(checkpoint page.Element) *parcel.Timestamp {
	dateEl, ok := checkpoint.First(".c-tracking-result--checkpoint-date")
	if !ok {
		return nil
	}
	ts := d.parseDate(dateEl.Text())
	if ts == nil {
		return nil
	}
	if timeEl, ok := checkpoint.First(".c-tracking-result--checkpoint-time"); ok {
		if m := dhlTimeRe.FindStringSubmatch(timeEl.Text()); m != nil {
			hour, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			ts.SetClock(hour, minute, 0)
		}
	}
	return ts
}

func (d *DHL) parseDate(text string) *parcel.Timestamp {
	m := dhlDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	month, err := parcel.MonthIndex(m[1], "en")
	if err != nil {
		return nil
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return parcel.NewTimestamp(time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC))
}
