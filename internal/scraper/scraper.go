// Package scraper orchestrates single tracking lookups: it owns the
// per-lookup state machine, the headless browser pool and the chromedp
// runner that ties page readiness to carrier extraction.
package scraper

import (
	"log/slog"

	"parcel-scraper/internal/carriers"
	"parcel-scraper/internal/detector"
	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

// State of a single scrape invocation. Transitions are one-way; a finished
// invocation is terminal and a fresh one is needed to retry.
type State int

const (
	StateStart State = iota
	StateErrorChecked
	StateExtracting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateErrorChecked:
		return "error-checked"
	case StateExtracting:
		return "extracting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Invocation drives one carrier lookup over a page snapshot. The carrier's
// error check always runs before extraction so that a recognizable failure
// page never reaches the extraction code.
type Invocation struct {
	carrier carriers.Carrier
	code    string
	logger  *slog.Logger

	state  State
	parcel *parcel.Parcel
	err    *parcel.Error
}

func NewInvocation(c carriers.Carrier, trackingCode string, logger *slog.Logger) *Invocation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invocation{
		carrier: c,
		code:    trackingCode,
		logger:  logger,
		state:   StateStart,
	}
}

func (inv *Invocation) State() State           { return inv.state }
func (inv *Invocation) Parcel() *parcel.Parcel { return inv.parcel }
func (inv *Invocation) Err() *parcel.Error     { return inv.err }

// Run checks the snapshot for carrier error markers and, when clean,
// extracts the parcel. Calling Run on a finished invocation fails.
func (inv *Invocation) Run(doc page.Accessor) (*parcel.Parcel, *parcel.Error) {
	if inv.state != StateStart {
		return nil, parcel.NewError(parcel.ErrUnknown,
			map[string]any{"message": "invocation already finished", "state": inv.state.String()})
	}

	if perr := inv.carrier.ErrorCheck(doc); perr != nil {
		return nil, inv.fail(perr)
	}
	inv.state = StateErrorChecked

	inv.state = StateExtracting
	p, perr := inv.carrier.Scrape(doc, inv.code)
	if perr != nil {
		return nil, inv.fail(perr)
	}

	inv.state = StateCompleted
	inv.parcel = p
	inv.logger.Debug("scrape completed",
		"carrier", inv.carrier.ID(),
		"tracking_code", inv.code,
		"updates", len(p.History))
	return p, nil
}

// Classify resolves an error readiness outcome against the snapshot. The
// carrier's markers take precedence; when none match the outcome came from
// the built-in browser error page and is reported as such.
func (inv *Invocation) Classify(doc page.Accessor, o detector.Outcome) *parcel.Error {
	if inv.state != StateStart {
		return parcel.NewError(parcel.ErrUnknown,
			map[string]any{"message": "invocation already finished", "state": inv.state.String()})
	}
	inv.state = StateErrorChecked

	if perr := inv.carrier.ErrorCheck(doc); perr != nil {
		return inv.fail(perr)
	}
	return inv.fail(parcel.NewError(parcel.ErrBrowserError,
		map[string]any{"errorIndex": o.ErrorIndex()}))
}

func (inv *Invocation) fail(perr *parcel.Error) *parcel.Error {
	inv.state = StateFailed
	inv.err = perr
	inv.logger.Warn("scrape failed",
		"carrier", inv.carrier.ID(),
		"tracking_code", inv.code,
		"error", perr.Error())
	return perr
}
