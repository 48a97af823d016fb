// Package detector decides when a carrier tracking page has finished loading
// the data of interest, or has instead produced an error state, and reports
// that decision exactly once. The engine here is host-agnostic so it can run
// against test fixtures; Script generates the equivalent in-browser routine
// for live chromedp sessions.
package detector

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// BrowserErrorSelector matches the Chromium network-error page. It is always
// appended to the caller's error selectors so host-level failures surface
// through the same signed-outcome path.
const BrowserErrorSelector = "#main-frame-error"

// Outcome is the detector's terminal signal. Non-negative values are the
// index of the matched target selector; negative values encode the matched
// error selector as -(index+1).
type Outcome int

// IsError reports whether the outcome came from an error selector.
func (o Outcome) IsError() bool {
	return o < 0
}

// TargetIndex returns the matched target selector index. Only meaningful
// when IsError is false.
func (o Outcome) TargetIndex() int {
	return int(o)
}

// ErrorIndex decodes the matched error selector index from a negative
// outcome.
func (o Outcome) ErrorIndex() int {
	return -int(o) - 1
}

func errorOutcome(index int) Outcome {
	return Outcome(-(index + 1))
}

// Subtree is one observable document subtree: the main document or the
// content document of a frame.
type Subtree interface {
	// Key identifies the subtree across re-enumerations.
	Key() string

	// IsMain reports whether this is the top document.
	IsMain() bool

	// RootIsBody reports whether the subtree's root equals its document
	// body. Error selectors are only evaluated for the main document and
	// for such frames.
	RootIsBody() bool

	// Matches reports whether any element in the subtree matches the
	// selector.
	Matches(selector string) bool
}

// Host is the page environment a detector run observes. Implementations
// deliver mutation notifications synchronously on the hosting event loop;
// the detector never spawns its own goroutines.
type Host interface {
	// Subtrees enumerates the currently reachable subtrees, main document
	// first. Cross-origin frames that do not expose a document are omitted.
	Subtrees() []Subtree

	// Observe registers a mutation callback for one subtree and returns a
	// disconnect function. An error means the subtree cannot be observed
	// (cross-origin); the detector skips it silently.
	Observe(sub Subtree, fn func()) (func(), error)

	// PlantMarker inserts a uniquely identifiable, invisible element into
	// the main document.
	PlantMarker(id string) error

	// HasMarker reports whether the planted marker is still present.
	// Its disappearance is a proxy for a whole-subtree replacement.
	HasMarker(id string) bool

	// OnUnload registers a page-unload callback and returns a disconnect
	// function.
	OnUnload(fn func()) func()
}

// Detector watches one page for a set of target conditions or error
// conditions. Single-owner, single-run: no two detector runs may share a
// page, and a run reports exactly one outcome.
type Detector struct {
	host    Host
	targets []string
	errors  []string
	logger  *slog.Logger

	report     func(Outcome)
	observers  map[string]func()
	unloadOff  func()
	markerID   string
	markerLost bool
	done       bool
}

// New prepares a detector run. The target list's index order encodes
// priority; the built-in browser error marker is appended to the error list.
func New(host Host, targets, errorSelectors []string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	errs := make([]string, 0, len(errorSelectors)+1)
	errs = append(errs, errorSelectors...)
	errs = append(errs, BrowserErrorSelector)

	return &Detector{
		host:      host,
		targets:   append([]string(nil), targets...),
		errors:    errs,
		logger:    logger,
		observers: make(map[string]func()),
		markerID:  "readiness-marker-" + randomSuffix(),
	}
}

// Start plants the marker, attaches observers to every reachable subtree and
// runs one eager evaluation, so conditions satisfied before any mutation are
// still detected. The report callback fires exactly once, after every
// listener has been disconnected.
func (d *Detector) Start(report func(Outcome)) error {
	if d.report != nil {
		return fmt.Errorf("detector already started")
	}
	d.report = report

	if err := d.host.PlantMarker(d.markerID); err != nil {
		return fmt.Errorf("failed to plant marker element: %w", err)
	}
	d.unloadOff = d.host.OnUnload(func() {
		// An unload attempt usually means a defensive framework is
		// redirecting us. Logged, not terminal: the controller decides.
		d.logger.Warn("page attempted to unload during readiness wait")
	})

	d.attachAll()
	d.evaluate()
	return nil
}

// MarkerID exposes the id of the planted marker element.
func (d *Detector) MarkerID() string {
	return d.markerID
}

// onMutation is the shared re-evaluation routine, invoked synchronously for
// every mutation in any observed subtree.
func (d *Detector) onMutation() {
	if d.done {
		return
	}
	if !d.markerLost && !d.host.HasMarker(d.markerID) {
		d.markerLost = true
		d.logger.Warn("readiness marker disappeared, page subtree was replaced")
	}
	d.attachAll()
	d.evaluate()
}

// attachAll re-enumerates subtrees and observes any not yet covered. Attach
// is idempotent per subtree key; unobservable subtrees are skipped.
func (d *Detector) attachAll() {
	for _, sub := range d.host.Subtrees() {
		key := sub.Key()
		if _, ok := d.observers[key]; ok {
			continue
		}
		off, err := d.host.Observe(sub, d.onMutation)
		if err != nil {
			continue
		}
		d.observers[key] = off
	}
}

func (d *Detector) evaluate() {
	for _, sub := range d.host.Subtrees() {
		for i, sel := range d.targets {
			if sub.Matches(sel) {
				d.finish(Outcome(i))
				return
			}
		}
		if !sub.IsMain() && !sub.RootIsBody() {
			continue
		}
		for i, sel := range d.errors {
			if sub.Matches(sel) {
				d.finish(errorOutcome(i))
				return
			}
		}
	}
}

// finish disconnects every listener before reporting, so no callback can
// fire after the terminal outcome and no second outcome can be produced.
func (d *Detector) finish(o Outcome) {
	if d.done {
		return
	}
	d.done = true

	for key, off := range d.observers {
		off()
		delete(d.observers, key)
	}
	if d.unloadOff != nil {
		d.unloadOff()
		d.unloadOff = nil
	}

	if d.report != nil {
		d.report(o)
	}
}

func randomSuffix() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf[:])
}
