package scraper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"parcel-scraper/internal/carriers"
	"parcel-scraper/internal/detector"
	"parcel-scraper/internal/page"
	"parcel-scraper/internal/parcel"
)

// Runner performs live tracking lookups. It loads the carrier page in a
// pooled headless browser, waits for the readiness script to settle, then
// snapshots the DOM and hands it to the carrier for extraction.
type Runner struct {
	pool   *Pool
	logger *slog.Logger
}

func NewRunner(pool *Pool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pool: pool, logger: logger}
}

// Track looks up a tracking code with the given carrier.
func (r *Runner) Track(ctx context.Context, carrier carriers.Carrier, trackingCode string) (*parcel.Parcel, *parcel.Error) {
	script, err := detector.Script(carrier.TargetSelectors(), carrier.ErrorSelectors())
	if err != nil {
		return nil, parcel.NewError(parcel.ErrUnknown, map[string]any{"message": err.Error()})
	}

	trackingURL := carrier.TrackingURL(trackingCode)
	r.logger.Info("loading tracking page",
		"carrier", carrier.ID(),
		"tracking_code", trackingCode,
		"url", trackingURL)

	var outcome int
	var html string
	runErr := r.pool.ExecuteWithBrowser(ctx, func(browserCtx context.Context) error {
		return chromedp.Run(browserCtx,
			chromedp.Navigate(trackingURL),
			chromedp.Evaluate(script, &outcome, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) {
			return nil, parcel.NewError(parcel.ErrProxyTimeout,
				map[string]any{"message": runErr.Error()})
		}
		return nil, parcel.NewError(parcel.ErrBrowserError,
			map[string]any{"message": runErr.Error()})
	}

	doc, err := page.Parse(html)
	if err != nil {
		return nil, parcel.NewError(parcel.ErrBrowserError,
			map[string]any{"message": err.Error()})
	}

	inv := NewInvocation(carrier, trackingCode, r.logger)
	if o := detector.Outcome(outcome); o.IsError() {
		r.logger.Debug("page settled on an error marker",
			"carrier", carrier.ID(), "error_index", o.ErrorIndex())
		return nil, inv.Classify(doc, o)
	}
	return inv.Run(doc)
}
