package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
	"github.com/couchcryptid/disaster-funding-service/internal/observability"
	"github.com/couchcryptid/disaster-funding-service/internal/pipeline"
)

// QueryService answers dashboard queries against the loaded dataset.
type QueryService interface {
	Meta() (pipeline.Meta, error)
	Records(c domain.FilterCriteria) ([]domain.DisasterRecord, error)
	Aggregates(c domain.FilterCriteria, strategy domain.ThresholdStrategy) (pipeline.AggregateResult, error)
	Map(c domain.FilterCriteria, strategy domain.ThresholdStrategy) (dataset.FeatureCollection, pipeline.AggregateResult, error)
	Event(id string) (domain.EventDetail, error)
	RegionSummary(region string) (domain.RegionSummary, error)
	FactSheet(ids []string, opts domain.FactSheetOptions) (domain.FactSheet, error)
}

// PDFRenderer prints a fact sheet.
type PDFRenderer interface {
	Render(ctx context.Context, fs domain.FactSheet) ([]byte, error)
}

// Options configures the HTTP server. A nil PDF disables the PDF endpoint.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	PDF                PDFRenderer
}

// Server exposes the dashboard API plus health, readiness and metrics.
type Server struct {
	httpServer *http.Server
	svc        QueryService
	pdf        PDFRenderer
	validator  *criteriaValidator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer wires the router.
func NewServer(opts Options, ready sharedobs.ReadinessChecker, svc QueryService, metrics *observability.Metrics, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:       svc,
		pdf:       opts.PDF,
		validator: newCriteriaValidator(),
		metrics:   metrics,
		logger:    logger,
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/meta", s.handleMeta)
		r.Get("/records", s.handleRecords)
		r.Get("/aggregates", s.handleAggregates)
		r.Get("/map", s.handleMap)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
		r.Get("/events/{id}", s.handleEvent)
		r.Get("/regions/{region}/summary", s.handleRegionSummary)
		r.Get("/factsheet", s.handleFactSheet)
		r.Get("/factsheet.pdf", s.handleFactSheetPDF)
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

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
