package main

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/traffic-report-service/internal/adapter/chrome"
	"github.com/couchcryptid/traffic-report-service/internal/adapter/csvsource"
	kafkaadapter "github.com/couchcryptid/traffic-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/traffic-report-service/internal/config"
	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
	"github.com/couchcryptid/traffic-report-service/internal/report"
)

// app holds the wired service components shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	catalog  *domain.Catalog
	source   domain.Source
	session  *pipeline.Session
	reporter *pipeline.Reporter

	writer     *kafkaadapter.Writer
	rasterizer *chrome.Rasterizer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		catalog: domain.NewCatalog(cfg.CatalogStart, cfg.CatalogEnd),
	}

	var src domain.Source
	if cfg.DataBaseURL != "" {
		src = csvsource.NewClient(cfg.DataBaseURL, cfg.SourceTimeout, metrics, logger)
		logger.Info("reading day files over http", "base_url", cfg.DataBaseURL)
	} else {
		src = csvsource.NewDir(cfg.DataDir, metrics)
		logger.Info("reading day files from disk", "dir", cfg.DataDir)
	}
	a.source = csvsource.NewCachedSource(src, cfg.SourceCacheSize, metrics)

	// Dataset summaries are published only when KAFKA_ENABLED is set.
	var publisher pipeline.DatasetPublisher
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = a.writer
		logger.Info("dataset summary publishing enabled", "topic", cfg.KafkaTopic)
	}

	var rasterizer report.Rasterizer
	if cfg.ChartBaseURL != "" {
		a.rasterizer = chrome.NewRasterizer(cfg.ChartBaseURL, cfg.ChartTimeout, logger)
		rasterizer = a.rasterizer
		logger.Info("chart capture enabled", "base_url", cfg.ChartBaseURL, "timeout", cfg.ChartTimeout)
	}

	loader := pipeline.NewLoader(a.source, cfg.FetchConcurrency, logger, metrics)
	a.session = pipeline.NewSession(a.catalog, loader, publisher, clockwork.NewRealClock(), cfg.SpeedLimitKmh, logger, metrics)
	a.reporter = pipeline.NewReporter(a.session, pipeline.NewReportGate(metrics), rasterizer, cfg.ProductName, logger, metrics)
	return a, nil
}

func (a *app) close() {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if a.rasterizer != nil {
		a.rasterizer.Close()
	}
}
