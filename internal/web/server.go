// Package web is the companion HTTP server. It exposes the lecturer's state
// containers as JSON and hosts the import confirmation pause between
// upload and submit.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/unitrack/internal/config"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/kv"
	"github.com/JonMunkholm/unitrack/internal/logging"
	"github.com/JonMunkholm/unitrack/internal/store"
	"github.com/JonMunkholm/unitrack/internal/web/middleware"
)

// Backend is every backend call the containers make. *api.Client
// satisfies it.
type Backend interface {
	store.CourseAPI
	store.RosterAPI
	store.SessionAPI
	store.SupportAPI
}

// Deps are the collaborators built by main.
type Deps struct {
	Config   *config.Config
	Backend  Backend
	KV       kv.Store
	Auth     *store.AuthSession
	Courses  *store.CourseStore
	Support  *store.SupportStore
	Importer *core.Importer
	Options  store.Options
	Logger   *slog.Logger
}

// Server is the companion HTTP server.
type Server struct {
	cfg      *config.Config
	backend  Backend
	auth     *store.AuthSession
	courses  *store.CourseStore
	support  *store.SupportStore
	rosters  *scoped[*store.RosterStore]
	sessions *scoped[*store.SessionStore]
	pending  *pendingImports
	limiter  *ImportLimiter
	metrics  *Metrics
	logger   *slog.Logger

	router *chi.Mux
	server *http.Server
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer wires routes and middleware. Start is separate so tests can
// drive Router directly.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := d.Options
	opts.Logger = logger

	s := &Server{
		cfg:     d.Config,
		backend: d.Backend,
		auth:    d.Auth,
		courses: d.Courses,
		support: d.Support,
		rosters: newScoped(func(courseID string) *store.RosterStore {
			return store.NewRosterStore(courseID, d.Backend, d.KV, d.Importer, opts)
		}),
		sessions: newScoped(func(courseID string) *store.SessionStore {
			return store.NewSessionStore(courseID, d.Backend, d.KV, opts)
		}),
		pending: newPendingImports(d.Config.Import.PendingTTL),
		limiter: NewImportLimiter(d.Config.Import.MaxConcurrent, d.Config.Import.MaxWaitTime),
		metrics: NewMetrics(),
		logger:  logger,
		router:  chi.NewRouter(),
	}
	if s.courses == nil {
		s.courses = store.NewCourseStore(d.Backend, d.KV, opts)
	}
	if s.support == nil {
		s.support = store.NewSupportStore(d.Backend, d.KV, opts)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger(s.metrics.ObserveRequest))
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Get("/courses", s.handleListCourses)
		r.Post("/courses/refresh", s.handleRefreshCourses)
		r.Route("/courses/{courseID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteCourse)

			r.Get("/students", s.handleListStudents)
			r.Delete("/students", s.handleRemoveAllStudents)
			r.Post("/students/copy", s.handleCopyStudents)
			r.Post("/students/bulk-remove", s.handleBulkRemoveStudents)
			r.Delete("/students/{studentID}", s.handleRemoveStudent)
			r.Post("/imports", s.handleUploadImport)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleStartSession)
		})

		r.Get("/imports/{importID}", s.handleGetImport)
		r.Post("/imports/{importID}/confirm", s.handleConfirmImport)
		r.Delete("/imports/{importID}", s.handleDiscardImport)

		r.Post("/sessions/{sessionID}/end", s.handleEndSession)

		r.Get("/faqs", s.handleFAQs)
		r.Post("/support/contact", s.handleContact)
	})
}

// Start listens on the configured address and runs the pending import
// sweeper until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.wg.Add(1)
	go s.sweepPending(ctx)

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for running imports, then stops
// the sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
		s.logger.Warn("imports still running at shutdown", "active", s.limiter.ActiveCount())
	}
	if s.stop != nil {
		s.stop()
		s.wg.Wait()
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) sweepPending(ctx context.Context) {
	defer s.wg.Done()

	interval := s.cfg.Import.PendingTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.pending.sweep(); n > 0 {
				s.metrics.imports.WithLabelValues(importExpired).Add(float64(n))
				s.logger.Debug("expired pending imports", "count", n)
			}
		}
	}
}

// securityHeaders adds headers every JSON response should carry.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with status. Encoding errors are logged since headers
// are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// scoped lazily builds one container per course.
type scoped[T any] struct {
	mu    sync.Mutex
	items map[string]T
	build func(courseID string) T
}

func newScoped[T any](build func(string) T) *scoped[T] {
	return &scoped[T]{items: make(map[string]T), build: build}
}

func (s *scoped[T]) get(courseID string) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[courseID]
	if !ok {
		v = s.build(courseID)
		s.items[courseID] = v
	}
	return v
}

func (s *scoped[T]) each(fn func(T)) {
	s.mu.Lock()
	items := make([]T, 0, len(s.items))
	for _, v := range s.items {
		items = append(items, v)
	}
	s.mu.Unlock()
	for _, v := range items {
		fn(v)
	}
}

// clear drops every container and returns the course ids they belonged to.
func (s *scoped[T]) clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.items = make(map[string]T)
	return ids
}
