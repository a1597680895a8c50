package sandbox

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/headline-goat/oconv/internal/adwords"
)

// clickMaxAge is how old a click may be when its conversion is imported.
const clickMaxAge = 30 * 24 * time.Hour

// Server serves ConversionTrackerService and OfflineConversionFeedService
// from memory.
type Server struct {
	port      int
	log       *slog.Logger
	router    *chi.Mux
	startTime time.Time
	now       func() time.Time

	mu       sync.Mutex
	nextID   int64
	trackers map[string]adwords.UploadConversion // by name
	feeds    []adwords.OfflineConversionFeed
	clicks   map[string]time.Time // gclid -> click time

	registry *prometheus.Registry
	mutates  *prometheus.CounterVec
}

type Option func(*Server)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func New(port int, opts ...Option) *Server {
	srv := &Server{
		port:      port,
		log:       slog.Default(),
		router:    chi.NewRouter(),
		startTime: time.Now(),
		now:       time.Now,
		nextID:    1,
		trackers:  make(map[string]adwords.UploadConversion),
		clicks:    make(map[string]time.Time),
		registry:  prometheus.NewRegistry(),
		mutates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oconv_sandbox_mutate_total",
			Help: "Mutate calls handled by the sandbox, by service and result.",
		}, []string{"service", "result"}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.registry.MustRegister(srv.mutates)

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID)
	s.router.Use(accessLog(s.log))

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/adwords/cm/{version}", func(r chi.Router) {
		r.Post("/"+adwords.ConversionTrackerServiceName, s.handleConversionTracker)
		r.Post("/"+adwords.OfflineConversionFeedServiceName, s.handleOfflineConversionFeed)
	})
}

// RegisterClick makes the sandbox enforce click ordering and age rules for gclid.
// Unregistered click ids are accepted as-is.
func (s *Server) RegisterClick(gclid string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks[gclid] = at
}

// Trackers returns the conversion trackers created so far.
func (s *Server) Trackers() []adwords.UploadConversion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]adwords.UploadConversion, 0, len(s.trackers))
	for _, t := range s.trackers {
		out = append(out, t)
	}
	return out
}

// Feeds returns the offline conversions accepted so far, in arrival order.
func (s *Server) Feeds() []adwords.OfflineConversionFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]adwords.OfflineConversionFeed(nil), s.feeds...)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("sandbox listening", slog.String("addr", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) Handler() http.Handler {
	return s.router
}
