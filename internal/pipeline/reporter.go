package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
	"github.com/couchcryptid/traffic-report-service/internal/report"
)

// ReportRequest describes one downloadable report.
type ReportRequest struct {
	Selector     domain.Selector
	ReportType   string // daily, weekly or monthly
	Intersection string
	Format       string // report.FormatPDF or report.FormatXLSX
	Charts       bool   // capture chart pages; ignored without a rasterizer
}

// Reporter generates reports from the session's dataset, one at a time.
type Reporter struct {
	session    *Session
	gate       *ReportGate
	rasterizer report.Rasterizer
	views      []string
	product    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewReporter creates a Reporter. rasterizer may be nil, in which case reports
// never contain chart pages.
func NewReporter(session *Session, gate *ReportGate, rasterizer report.Rasterizer, product string, logger *slog.Logger, metrics *observability.Metrics) *Reporter {
	return &Reporter{
		session:    session,
		gate:       gate,
		rasterizer: rasterizer,
		views:      report.DefaultViews,
		product:    product,
		logger:     logger.With("component", "reporter"),
		metrics:    metrics,
	}
}

// Generate renders the report for req into w and returns its filename.
// It fails with ErrNotReady while another report is being generated. Nothing
// is written to w unless the whole report rendered successfully.
func (r *Reporter) Generate(ctx context.Context, req ReportRequest, w io.Writer) (string, error) {
	release, err := r.gate.TryAcquire()
	if err != nil {
		return "", err
	}
	defer release()
	start := time.Now()

	loaded, err := r.dataset(ctx, req.Selector)
	if err != nil {
		return "", err
	}
	ds := loaded.Dataset
	reportType := report.NormalizeType(req.ReportType)

	var buf bytes.Buffer
	var filename string
	switch req.Format {
	case report.FormatXLSX:
		if err := report.WriteWorkbook(ds, &buf); err != nil {
			return "", err
		}
		filename = strings.TrimSuffix(report.Filename(reportType, ds.DateRangeLabel), ".pdf") + ".xlsx"
	case report.FormatPDF, "":
		var rasters []report.Raster
		if req.Charts && r.rasterizer != nil {
			rasters = report.Capture(ctx, r.rasterizer, r.views, report.ViewSelector{
				Range:        req.Selector.Name(),
				Date:         req.Selector.Date,
				Intersection: req.Intersection,
			}, r.logger)
			r.metrics.ChartCaptures.WithLabelValues("captured").Add(float64(len(rasters)))
			r.metrics.ChartCaptures.WithLabelValues("omitted").Add(float64(len(r.views) - len(rasters)))
		}
		doc, err := report.Assemble(ds, rasters, report.Options{
			ReportType:   reportType,
			SelectedDate: req.Selector.Date,
			Intersection: req.Intersection,
			ProductName:  r.product,
		})
		if err != nil {
			return "", err
		}
		if err := report.RenderPDF(doc, &buf); err != nil {
			return "", err
		}
		filename = doc.Filename
	default:
		return "", fmt.Errorf("unsupported report format %q", req.Format)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	format := req.Format
	if format == "" {
		format = report.FormatPDF
	}
	r.metrics.ReportsGenerated.WithLabelValues(format).Inc()
	r.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("report generated",
		"request_id", loaded.RequestID,
		"file", filename,
		"format", format,
		"duration", time.Since(start),
	)
	return filename, nil
}

// dataset reuses the current dataset when it was loaded for sel and loads
// sel otherwise.
func (r *Reporter) dataset(ctx context.Context, sel domain.Selector) (*Loaded, error) {
	if cur := r.session.Current(); cur != nil && cur.Selector == sel {
		return cur, nil
	}
	return r.session.Load(ctx, sel)
}
