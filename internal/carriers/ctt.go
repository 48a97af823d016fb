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
	Register("ctt", func() Carrier { return NewCTT() })
}

// CTT extracts tracking data from the CTT (Portuguese postal service)
// customer-area page. The timeline is Portuguese and omits the year from
// item dates, so the year-rollover policy is on and items are reconciled
// against the parcel's registration date.
type CTT struct {
	policies Policies
}

// NewCTT builds the CTT variant with its default policies.
func NewCTT() *CTT {
	return &CTT{policies: Policies{RollYearOnRegression: true}}
}

// SetPolicies overrides the carrier's parsing policies.
func (c *CTT) SetPolicies(p Policies) {
	c.policies = p
}

// Policies returns the carrier's current parsing policies.
func (c *CTT) Policies() Policies {
	return c.policies
}

func (c *CTT) ID() string   { return "ctt" }
func (c *CTT) Name() string { return "CTT" }

func (c *CTT) TrackingURL(trackingCode string) string {
	escaped := url.QueryEscape(trackingCode)
	return fmt.Sprintf(
		"https://appserver.ctt.pt/CustomerArea/PublicArea_Detail?ObjectCodeInput=%s&SearchInput=%s",
		escaped, escaped)
}

func (c *CTT) TargetSelectors() []string {
	return []string{
		`[data-block="TrackTrace.TT_Timeline_New"] [data-block="CustomerArea.AC_TimelineItemCustom"]`,
	}
}

func (c *CTT) ErrorSelectors() []string {
	return []string{`[data-block="CustomerArea.AC_EmptyState"]`, ".feedback-message-error"}
}

var cttErrorMarkers = []ErrorMarker{
	{
		Selector: `[data-block="CustomerArea.AC_EmptyState"]`,
		Code:     parcel.ErrParcelNotFound,
		Refine: func(text string) parcel.ErrorCode {
			if strings.Contains(text, "inválido") || strings.Contains(text, "formato") {
				return parcel.ErrInvalidTrackingCode
			}
			return parcel.ErrParcelNotFound
		},
	},
	{
		Selector: ".feedback-message-error",
		Code:     parcel.ErrUnknown,
		Refine: func(text string) parcel.ErrorCode {
			if strings.Contains(text, "demasiados pedidos") ||
				strings.Contains(text, "tente novamente mais tarde") {
				return parcel.ErrRateLimiting
			}
			return parcel.ErrUnknown
		},
	},
}

func (c *CTT) ErrorCheck(doc page.Accessor) *parcel.Error {
	return CheckErrorMarkers(doc, cttErrorMarkers)
}

var cttStatusRules = []StatusRule{
	{Phrases: []string{"entregue"}, Type: parcel.TypeDelivered, Data: cttDeliveredData},
	{Phrases: []string{"em distribuição"}, Type: parcel.TypeDelivering},
	{Phrases: []string{"tentativa de entrega"}, Type: parcel.TypeDeliveryAttempt},
	{Phrases: []string{"disponível para levantamento", "aguarda levantamento"}, Type: parcel.TypePickup, Data: cttPickupData},
	{Phrases: []string{"desalfandegado", "libertado pela alfândega"}, Type: parcel.TypeCustomsCleared},
	{Phrases: []string{"expedido internacionalmente", "saiu do país de origem"}, Type: parcel.TypeDepartedOrigin, Data: locationData},
	{Phrases: []string{"chegada ao país de destino", "chegou ao país de destino"}, Type: parcel.TypeArrivedDestination, Data: locationData},
	{Phrases: []string{"aceite"}, Type: parcel.TypePosted},
	{Phrases: []string{"aguarda entrada nos ctt", "registado"}, Type: parcel.TypeCreated, Data: createdData},
	{Phrases: []string{"retido", "incidência", "extraviado"}, Type: parcel.TypeIssue},
	{Phrases: []string{"em trânsito", "em tratamento", "encaminhado"}, Type: parcel.TypeInTransit},
}

func cttDeliveredData(u *parcel.Update) map[string]any {
	to := ""
	if idx := strings.Index(strings.ToLower(u.Description), "entregue a"); idx >= 0 {
		to = strings.TrimSpace(u.Description[idx+len("entregue a"):])
	}
	return map[string]any{"to": to}
}

func cttPickupData(u *parcel.Update) map[string]any {
	until := ""
	if m := cttDateRe.FindStringSubmatch(u.Description); m != nil {
		until = strings.TrimSpace(m[0])
	}
	return map[string]any{"location": u.Location.SearchQuery(), "until": until}
}

var (
	// "15 dezembro" or "15 de dezembro", optionally followed by a year.
	cttDateRe = regexp.MustCompile(`(?i)(\d{1,2})(?: de)? ([a-zà-ú]+)(?:(?: de)? (\d{4}))?`)
	cttTimeRe = regexp.MustCompile(`(\d{1,2})[:h](\d{2})`)
)

func (c *CTT) Scrape(doc page.Accessor, trackingCode string) (*parcel.Parcel, *parcel.Error) {
	if perr := c.ErrorCheck(doc); perr != nil {
		return nil, perr
	}

	items := doc.All(`[data-block="CustomerArea.AC_TimelineItemCustom"]`)
	if len(items) == 0 {
		return nil, parcel.NewError(parcel.ErrUnknown,
			map[string]any{"message": "no timeline items in page"})
	}

	p := &parcel.Parcel{
		TrackingCode: trackingCode,
		TrackingURL:  c.TrackingURL(trackingCode),
	}

	// The registration date carries the year the timeline items omit.
	reference := c.parseDate(page.Text(doc, ".object-creation-date"), 0)
	if reference != nil {
		p.CreationDate = reference.Clone()
	}

	for _, item := range items {
		titleEl, ok := item.First(".timeline-title")
		if !ok {
			return nil, parcel.NewError(parcel.ErrUnknown,
				map[string]any{"message": "timeline item without a title"})
		}

		update := &parcel.Update{}
		update.Title, update.Description = CleanTitle(titleEl.Text())
		if desc, ok := item.First(".timeline-description"); ok && update.Description == "" {
			update.Description = desc.Text()
		}
		if loc, ok := item.First(".timeline-location"); ok {
			update.Location = ParseAddress(loc.Text(), ",")
		}

		fallbackYear := time.Now().Year()
		if reference != nil {
			fallbackYear = reference.Time().Year()
		}
		update.Timestamp = c.parseDate(page.Text(item, ".timeline-date"), fallbackYear)
		if update.Timestamp != nil {
			if timeEl, ok := item.First(".timeline-time"); ok {
				if m := cttTimeRe.FindStringSubmatch(timeEl.Text()); m != nil {
					hour, _ := strconv.Atoi(m[1])
					minute, _ := strconv.Atoi(m[2])
					update.Timestamp.SetClock(hour, minute, 0)
				}
			}
			ReconcileYear(update.Timestamp, reference, c.policies)
		}

		status, err := InferStatus(cttStatusRules, update)
		if err != nil {
			return nil, parcel.NewError(parcel.ErrUnknown,
				map[string]any{"message": err.Error()})
		}
		update.Status = status
		p.AppendUpdate(update)
	}

	// The CTT timeline renders oldest-first; normalization flips it to the
	// newest-first contract.
	p.Normalize()
	if p.CreationDate == nil {
		if oldest := p.History[len(p.History)-1]; oldest.Timestamp != nil {
			p.CreationDate = oldest.Timestamp.Clone()
		}
	}
	return p, nil
}

// parseDate reads a Portuguese "15 de dezembro" date. When the text carries
// no year the fallback year is used (later reconciled against the reference
// date); fallback 0 means a year is required.
func (c *CTT) parseDate(text string, fallbackYear int) *parcel.Timestamp {
	m := cttDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	month, err := parcel.MonthIndex(m[2], "pt")
	if err != nil {
		return nil
	}
	day, _ := strconv.Atoi(m[1])
	year := fallbackYear
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	if year == 0 {
		return nil
	}
	return parcel.NewTimestamp(time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC))
}
