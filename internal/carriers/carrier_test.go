package carriers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

func TestRegistry(t *testing.T) {
	ids := IDs()
	assert.Contains(t, ids, "ctt")
	assert.Contains(t, ids, "dhl")
	assert.IsIncreasing(t, ids)

	c, ok := Get("DHL")
	require.True(t, ok, "lookup is case insensitive")
	assert.Equal(t, "dhl", c.ID())

	_, ok = Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistryReturnsFreshVariants(t *testing.T) {
	a, ok := Get("ctt")
	require.True(t, ok)
	b, ok := Get("ctt")
	require.True(t, ok)
	require.NotSame(t, a, b)

	// Policy overrides on one variant must not leak into the next.
	a.(*CTT).SetPolicies(Policies{RollYearOnRegression: false})
	assert.True(t, b.(*CTT).policies.RollYearOnRegression)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("dhl", func() Carrier { return NewDHL() })
	})
}

func TestCheckErrorMarkers(t *testing.T) {
	markers := []ErrorMarker{
		{Selector: ".not-found", Code: parcel.ErrParcelNotFound},
		{
			Selector: ".banner",
			Code:     parcel.ErrUnknown,
			Refine: func(text string) parcel.ErrorCode {
				if text == "slow down" {
					return parcel.ErrRateLimiting
				}
				return parcel.ErrUnknown
			},
		},
	}

	tests := []struct {
		name    string
		html    string
		want    parcel.ErrorCode
		message string
		ok      bool
	}{
		{name: "no marker present", html: `<div class="content">fine</div>`, ok: true},
		{
			name:    "plain marker",
			html:    `<div class="not-found">Nothing here</div>`,
			want:    parcel.ErrParcelNotFound,
			message: "Nothing here",
		},
		{
			name:    "refined marker lowercases its input",
			html:    `<div class="banner">Slow Down</div>`,
			want:    parcel.ErrRateLimiting,
			message: "Slow Down",
		},
		{
			name:    "first matching marker wins",
			html:    `<div class="banner">Slow Down</div><div class="not-found">gone</div>`,
			want:    parcel.ErrParcelNotFound,
			message: "gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := CheckErrorMarkers(page.MustParse(tt.html), markers)
			if tt.ok {
				assert.Nil(t, perr)
				return
			}
			require.NotNil(t, perr)
			assert.Equal(t, tt.want, perr.Code)
			data, ok := perr.Data.(map[string]any)
			require.True(t, ok, "marker errors carry a data map")
			assert.Equal(t, tt.message, data["message"])
		})
	}
}
