package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
)

// DatasetPublisher announces a newly loaded dataset to downstream consumers.
type DatasetPublisher interface {
	PublishSummary(ctx context.Context, loaded *Loaded) error
}

// Loaded is a dataset together with the request that produced it.
type Loaded struct {
	RequestID string
	Selector  domain.Selector
	Dataset   *domain.AggregatedDataset
	LoadedAt  time.Time
}

// Session holds the current dataset. Each Load supersedes the one in flight:
// the older load's context is cancelled and its result is discarded, so a
// stale completion never replaces a newer request's dataset.
type Session struct {
	catalog       *domain.Catalog
	loader        *Loader
	publisher     DatasetPublisher
	clock         clockwork.Clock
	speedLimitKmh float64
	logger        *slog.Logger
	metrics       *observability.Metrics

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *Loaded
	ready   atomic.Bool
}

// NewSession creates a Session. publisher may be nil.
func NewSession(catalog *domain.Catalog, loader *Loader, publisher DatasetPublisher, clock clockwork.Clock, speedLimitKmh float64, logger *slog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		catalog:       catalog,
		loader:        loader,
		publisher:     publisher,
		clock:         clock,
		speedLimitKmh: speedLimitKmh,
		logger:        logger,
		metrics:       metrics,
	}
}

// Catalog returns the session's day catalog.
func (s *Session) Catalog() *domain.Catalog {
	return s.catalog
}

// CheckReadiness returns nil once a dataset has been loaded.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no dataset has been loaded yet")
	}
	return nil
}

// Current returns the most recently loaded dataset, or nil before the first load.
func (s *Session) Current() *Loaded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load resolves sel, aggregates its files and makes the result current. A
// selector that does not resolve fails without disturbing the load in flight.
// If a newer Load starts before this one finishes, this one returns
// ErrSuperseded.
func (s *Session) Load(ctx context.Context, sel domain.Selector) (*Loaded, error) {
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID, "range", sel.Name(), "date", sel.Date)

	days, err := s.catalog.Resolve(sel)
	if err != nil {
		s.metrics.LoadErrors.WithLabelValues("range").Inc()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	logger.Info("loading range", "days", len(days))
	ds, err := s.loader.LoadAndAggregate(ctx, days, s.speedLimitKmh, sel.Name())

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.metrics.LoadErrors.WithLabelValues("superseded").Inc()
		logger.Info("load superseded by a newer request")
		return nil, domain.ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		reason := "source"
		switch {
		case errors.Is(err, domain.ErrEmptyRange):
			reason = "empty_range"
		case ctx.Err() != nil:
			reason = "cancelled"
		}
		s.metrics.LoadErrors.WithLabelValues(reason).Inc()
		logger.Warn("load failed", "error", err)
		return nil, err
	}
	loaded := &Loaded{
		RequestID: requestID,
		Selector:  sel,
		Dataset:   ds,
		LoadedAt:  s.clock.Now(),
	}
	s.current = loaded
	s.mu.Unlock()

	s.ready.Store(true)
	s.metrics.SessionReady.Set(1)
	s.metrics.DatasetsLoaded.Inc()
	logger.Info("dataset loaded",
		"vehicles", ds.TotalVehicles,
		"over_limit", ds.OverLimitCount,
		"period", ds.DateRangeLabel,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishSummary(ctx, loaded); err != nil {
			s.metrics.SummaryPublished.WithLabelValues("error").Inc()
			logger.Warn("publish dataset summary failed", "error", err)
		} else {
			s.metrics.SummaryPublished.WithLabelValues("success").Inc()
		}
	}
	return loaded, nil
}

// ReportGate admits one report generation at a time.
type ReportGate struct {
	busy    atomic.Bool
	metrics *observability.Metrics
}

// NewReportGate creates an open gate.
func NewReportGate(metrics *observability.Metrics) *ReportGate {
	return &ReportGate{metrics: metrics}
}

// TryAcquire claims the gate. It returns ErrNotReady while another report is
// being generated. The returned release func is safe to call more than once.
func (g *ReportGate) TryAcquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		g.metrics.ReportsRejected.Inc()
		return nil, domain.ErrNotReady
	}
	var once sync.Once
	return func() { once.Do(func() { g.busy.Store(false) }) }, nil
}
