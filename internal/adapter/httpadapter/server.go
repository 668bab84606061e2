// Package httpadapter serves the dataset and report API alongside health,
// readiness and metrics endpoints.
package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
	"github.com/couchcryptid/traffic-report-service/internal/report"
)

// Server exposes the API plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	session    *pipeline.Session
	reporter   *pipeline.Reporter
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server routing to session and reporter.
func NewServer(addr string, session *pipeline.Session, reporter *pipeline.Reporter, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     r,
			ReadTimeout: 10 * time.Second,
			// Reports with chart pages wait on the rasterizer.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		session:  session,
		reporter: reporter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "http"),
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(session))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/catalog", s.handleCatalog)
		r.Get("/dataset", s.handleLoadDataset)
		r.Get("/dataset/current", s.handleCurrentDataset)
		r.Get("/report", s.handleReport)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type selectorQuery struct {
	Range string `validate:"omitempty,alpha,max=16"`
	Date  string `validate:"omitempty,datetime=2006-01-02"`
}

func (q selectorQuery) selector() domain.Selector {
	return domain.Selector{Range: q.Range, Date: q.Date}
}

type reportQuery struct {
	selectorQuery
	Type         string `validate:"omitempty,oneof=daily weekly monthly"`
	Intersection string `validate:"max=128"`
	Format       string `validate:"omitempty,oneof=pdf xlsx"`
	Charts       string `validate:"omitempty,boolean"`
}

type datasetResponse struct {
	RequestID string                    `json:"request_id"`
	LoadedAt  time.Time                 `json:"loaded_at"`
	Dataset   *domain.AggregatedDataset `json:"dataset"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"days": s.session.Catalog().Days()})
}

func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	q := selectorQuery{
		Range: r.URL.Query().Get("range"),
		Date:  r.URL.Query().Get("date"),
	}
	if err := s.validate.Struct(q); err != nil {
		s.writeError(w, r, err)
		return
	}

	loaded, err := s.session.Load(r.Context(), q.selector())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toResponse(loaded))
}

func (s *Server) handleCurrentDataset(w http.ResponseWriter, r *http.Request) {
	loaded := s.session.Current()
	if loaded == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "no dataset has been loaded yet"})
		return
	}
	render.JSON(w, r, toResponse(loaded))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := reportQuery{
		selectorQuery: selectorQuery{Range: v.Get("range"), Date: v.Get("date")},
		Type:          v.Get("type"),
		Intersection:  v.Get("intersection"),
		Format:        v.Get("format"),
		Charts:        v.Get("charts"),
	}
	if err := s.validate.Struct(q); err != nil {
		s.writeError(w, r, err)
		return
	}
	charts, _ := strconv.ParseBool(q.Charts)

	var buf bytes.Buffer
	filename, err := s.reporter.Generate(r.Context(), pipeline.ReportRequest{
		Selector:     q.selector(),
		ReportType:   q.Type,
		Intersection: q.Intersection,
		Format:       q.Format,
		Charts:       charts,
	}, &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/pdf"
	if q.Format == report.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write report response failed", "file", filename, "error", err)
	}
}

func toResponse(loaded *pipeline.Loaded) datasetResponse {
	return datasetResponse{
		RequestID: loaded.RequestID,
		LoadedAt:  loaded.LoadedAt,
		Dataset:   loaded.Dataset,
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

func errorStatus(err error) (int, errorResponse) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body := errorResponse{Error: "invalid query parameters"}
		for _, fe := range verrs {
			body.Fields = append(body.Fields, fe.Field())
		}
		return http.StatusBadRequest, body
	}

	body := errorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, domain.ErrRangeNotFound), errors.Is(err, domain.ErrEmptyRange):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrInvalidDataset):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway, body
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}
