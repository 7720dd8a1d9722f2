package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/feed"
	"fintrack/internal/identity"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/services"
)

// Deps are the services the handlers call.
type Deps struct {
	Identity     *identity.Provider
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Profiles     *services.ProfileService
	Reports      *services.ReportService
	Feed         *feed.Hub
	Logger       *applog.Logger
}

// Options tune the server.
type Options struct {
	MetricsEnabled bool
	// LoginRequestsPerMinute bounds login attempts per client IP.
	LoginRequestsPerMinute int
	// StreamHeartbeat is the interval of keep-alive comments on report streams.
	StreamHeartbeat time.Duration
}

// Server is the JSON API server.
type Server struct {
	http.Server
	deps         Deps
	opts         Options
	ips          *security.ProxyResolver
	loginLimiter *ratelimit.Limiter
	shutdownOnce sync.Once

	// streams is canceled when shutdown begins so open report streams end.
	streams      context.Context
	closeStreams context.CancelFunc
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.LoginRequestsPerMinute <= 0 {
		opts.LoginRequestsPerMinute = 10
	}
	if opts.StreamHeartbeat <= 0 {
		opts.StreamHeartbeat = 30 * time.Second
	}

	s := &Server{
		deps: deps,
		opts: opts,
		ips:  security.NewProxyResolver(),
		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.LoginRequestsPerMinute,
			Window:   time.Minute,
		}),
	}
	s.streams, s.closeStreams = context.WithCancel(context.Background())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.Server.RegisterOnShutdown(s.closeStreams)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(applog.Middleware(s.deps.Logger.WithComponent(applog.ComponentHTTP)))
	r.Use(middleware.Recoverer)
	r.Use(countRequests)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/health", handleHealth)
	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.With(s.loginLimiter.Middleware(s.ips.ClientIP, s.rateLimited)).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireOwner)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/budgets", s.handleListBudgets)
			r.Post("/budgets", s.handleCreateBudget)
			r.Put("/budgets/{id}/spent", s.handleUpdateBudgetSpent)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleSaveProfile)

			r.Get("/reports/summary", s.handleReportSummary)
			r.Get("/reports/stream", s.handleReportStream)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// countRequests feeds the request counter, labelled by route pattern so ids
// in paths do not explode the series.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimited.Inc()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.ips.ClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		s.closeStreams()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
