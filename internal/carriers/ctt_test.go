package carriers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

// Timeline rendered oldest-first, item dates without a year; the parcel was
// registered in late December so the January items belong to the next year.
const cttResultPage = `
<html><body>
<div class="object-creation-date">Registado em 20 de dezembro de 2023</div>
<div data-block="TrackTrace.TT_Timeline_New">
  <div data-block="CustomerArea.AC_TimelineItemCustom">
    <div class="timeline-date">20 dezembro</div>
    <div class="timeline-time">09h15</div>
    <div class="timeline-title">Aceite.</div>
    <div class="timeline-location">Lisboa, PORTUGAL</div>
  </div>
  <div data-block="CustomerArea.AC_TimelineItemCustom">
    <div class="timeline-date">28 dezembro</div>
    <div class="timeline-time">17h02</div>
    <div class="timeline-title">Em trânsito.</div>
    <div class="timeline-location">Perafita, PORTUGAL</div>
  </div>
  <div data-block="CustomerArea.AC_TimelineItemCustom">
    <div class="timeline-date">3 janeiro</div>
    <div class="timeline-time">08h44</div>
    <div class="timeline-title">Em distribuição.</div>
    <div class="timeline-location">Porto, PORTUGAL</div>
  </div>
  <div data-block="CustomerArea.AC_TimelineItemCustom">
    <div class="timeline-date">3 janeiro</div>
    <div class="timeline-time">15h31</div>
    <div class="timeline-title">Entregue. Note: Entregue a M. COSTA</div>
    <div class="timeline-location">Porto, PORTUGAL</div>
  </div>
</div>
</body></html>`

const cttNotFoundPage = `
<html><body>
<div data-block="CustomerArea.AC_EmptyState">
  O objeto não foi encontrado. Verifique o código introduzido.
</div>
</body></html>`

func TestCTT_Identity(t *testing.T) {
	c := NewCTT()
	assert.Equal(t, "ctt", c.ID())
	assert.Equal(t, "CTT", c.Name())
	url := c.TrackingURL("RR123456789PT")
	assert.Contains(t, url, "ObjectCodeInput=RR123456789PT")
	assert.Contains(t, url, "SearchInput=RR123456789PT")
	assert.True(t, c.policies.RollYearOnRegression, "CTT's year-less feed needs rollover on")
}

func TestCTT_ErrorCheck(t *testing.T) {
	tests := []struct {
		name string
		html string
		want parcel.ErrorCode
		ok   bool
	}{
		{name: "clean result page", html: cttResultPage, ok: true},
		{name: "object not found", html: cttNotFoundPage, want: parcel.ErrParcelNotFound},
		{
			name: "invalid format",
			html: `<html><body><div data-block="CustomerArea.AC_EmptyState">O código introduzido tem um formato inválido.</div></body></html>`,
			want: parcel.ErrInvalidTrackingCode,
		},
		{
			name: "throttling feedback",
			html: `<html><body><div class="feedback-message-error">Demasiados pedidos. Tente novamente mais tarde.</div></body></html>`,
			want: parcel.ErrRateLimiting,
		},
		{
			name: "unrecognized feedback maps to unknown",
			html: `<html><body><div class="feedback-message-error">Ocorreu um erro.</div></body></html>`,
			want: parcel.ErrUnknown,
		},
	}

	c := NewCTT()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := c.ErrorCheck(page.MustParse(tt.html))
			if tt.ok {
				assert.Nil(t, perr)
				return
			}
			require.NotNil(t, perr)
			assert.Equal(t, tt.want, perr.Code)
		})
	}
}

func TestCTT_Scrape(t *testing.T) {
	c := NewCTT()
	p, perr := c.Scrape(page.MustParse(cttResultPage), "RR123456789PT")
	require.Nil(t, perr)
	require.NotNil(t, p)
	require.Len(t, p.History, 4)

	// Registration date read from the page, with its explicit year.
	require.NotNil(t, p.CreationDate)
	assert.Equal(t, time.Date(2023, time.December, 20, 0, 0, 0, 0, time.UTC), p.CreationDate.Time())

	// Oldest-first page flipped to newest-first.
	newest := p.History[0]
	assert.Equal(t, "Entregue", newest.Title)
	require.NotNil(t, newest.Status)
	assert.Equal(t, parcel.TypeDelivered, newest.Status.Type)
	assert.Equal(t, "M. COSTA", newest.Status.Data["to"])

	// January items rolled into the year after the reference.
	require.NotNil(t, newest.Timestamp)
	assert.Equal(t, time.Date(2024, time.January, 3, 15, 31, 0, 0, time.UTC), newest.Timestamp.Time())

	delivering := p.History[1]
	assert.Equal(t, parcel.TypeDelivering, delivering.Status.Type)
	assert.Equal(t, 2024, delivering.Timestamp.Time().Year())

	// December items stay in the reference year.
	transit := p.History[2]
	assert.Equal(t, parcel.TypeInTransit, transit.Status.Type)
	assert.Equal(t, 2023, transit.Timestamp.Time().Year())

	accepted := p.History[3]
	assert.Equal(t, parcel.TypePosted, accepted.Status.Type)
	require.NotNil(t, accepted.Location)
	assert.Equal(t, "PORTUGAL", accepted.Location.Country)
	assert.Equal(t, "Lisboa", accepted.Location.State)

	// The whole history is newest-first.
	for i := 0; i < len(p.History)-1; i++ {
		assert.False(t, p.History[i].Timestamp.Time().Before(p.History[i+1].Timestamp.Time()),
			"history out of order at %d", i)
	}
}

func TestCTT_ScrapeShortCircuitsOnError(t *testing.T) {
	c := NewCTT()
	p, perr := c.Scrape(page.MustParse(cttNotFoundPage), "RR000000000PT")
	assert.Nil(t, p)
	require.NotNil(t, perr)
	assert.Equal(t, parcel.ErrParcelNotFound, perr.Code)
}

func TestCTT_ScrapeStructuralMismatch(t *testing.T) {
	c := NewCTT()
	p, perr := c.Scrape(page.MustParse(`<html><body><div data-block="TrackTrace.TT_Timeline_New"></div></body></html>`), "RR123456789PT")
	assert.Nil(t, p)
	require.NotNil(t, perr)
	assert.Equal(t, parcel.ErrUnknown, perr.Code)
}

func TestCTT_PickupUntil(t *testing.T) {
	const pickupPage = `
<html><body>
<div class="object-creation-date">Registado em 2 de janeiro de 2024</div>
<div data-block="TrackTrace.TT_Timeline_New">
  <div data-block="CustomerArea.AC_TimelineItemCustom">
    <div class="timeline-date">10 janeiro</div>
    <div class="timeline-title">Disponível para levantamento.</div>
    <div class="timeline-description">Pode levantar o objeto até 20 de janeiro</div>
    <div class="timeline-location">Loja CTT Faro, PORTUGAL</div>
  </div>
</div>
</body></html>`

	c := NewCTT()
	p, perr := c.Scrape(page.MustParse(pickupPage), "RR123456789PT")
	require.Nil(t, perr)
	require.Len(t, p.History, 1)

	status := p.History[0].Status
	require.NotNil(t, status)
	assert.Equal(t, parcel.TypePickup, status.Type)
	assert.Equal(t, "Loja CTT Faro PORTUGAL", status.Data["location"])
	assert.Equal(t, "20 de janeiro", status.Data["until"])
}
