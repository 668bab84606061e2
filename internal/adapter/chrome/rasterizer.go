// Package chrome captures dashboard views as PNG images with headless Chrome.
package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/couchcryptid/traffic-report-service/internal/report"
)

const (
	// RenderCompleteSelector is set by the dashboard once every chart on a view has drawn.
	RenderCompleteSelector = `[data-render-complete="true"]`
	// ViewSelector wraps the region of a view that goes into the report.
	ViewSelector = `[data-report-view]`

	viewportWidth  = 1280
	viewportHeight = 900
)

// Rasterizer screenshots dashboard views served under baseURL.
// It implements report.Rasterizer.
type Rasterizer struct {
	baseURL  string
	timeout  time.Duration
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
}

// NewRasterizer creates a Rasterizer backed by a headless Chrome allocator.
// The browser process starts on the first capture.
func NewRasterizer(baseURL string, timeout time.Duration, logger *slog.Logger) *Rasterizer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Rasterizer{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		timeout:  timeout,
		allocCtx: allocCtx,
		cancel:   cancel,
		logger:   logger.With("component", "chrome_rasterizer"),
	}
}

// Rasterize loads one view, waits for its render-complete marker and returns
// a PNG of the view region. It gives up after the configured timeout.
func (r *Rasterizer) Rasterize(ctx context.Context, view string, sel report.ViewSelector) ([]byte, error) {
	target := ViewURL(r.baseURL, view, sel)

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	start := time.Now()
	var png []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.Navigate(target),
		chromedp.WaitVisible(RenderCompleteSelector, chromedp.ByQuery),
		chromedp.Screenshot(ViewSelector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("capture %s: %w", target, err)
	}
	r.logger.Debug("view captured", "view", view, "bytes", len(png), "duration", time.Since(start))
	return png, nil
}

// Close shuts down the browser.
func (r *Rasterizer) Close() {
	r.cancel()
}

// ViewURL builds the print URL of one dashboard view.
func ViewURL(baseURL, view string, sel report.ViewSelector) string {
	q := url.Values{}
	q.Set("print", "1")
	if sel.Range != "" {
		q.Set("range", sel.Range)
	}
	if sel.Date != "" {
		q.Set("date", sel.Date)
	}
	if sel.Intersection != "" {
		q.Set("intersection", sel.Intersection)
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(view) + "?" + q.Encode()
}
