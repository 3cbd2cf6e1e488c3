// Package web provides the HTTP surface for the fulfillment desk: order
// lookup, grouped fulfillment creation and CSV bulk sync, all as JSON
// endpoints.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/merchops/shipdesk/internal/config"
	"github.com/merchops/shipdesk/internal/fulfill"
	"github.com/merchops/shipdesk/internal/shopify"
	csvsync "github.com/merchops/shipdesk/internal/sync"
	webmw "github.com/merchops/shipdesk/internal/web/middleware"
)

// FulfillmentEngine is the manual-mode engine the server drives.
type FulfillmentEngine interface {
	OrderDetails(ctx context.Context, orderID string) (*shopify.Order, []shopify.FulfillmentOrder, []fulfill.MergedLineItem, error)
	CreateGrouped(ctx context.Context, orderID string, picks []fulfill.PickedItem, notify bool) (*fulfill.GroupedResult, error)
}

// SyncRunner runs CSV bulk sync batches.
type SyncRunner interface {
	Run(ctx context.Context, filename, raw string) (*csvsync.Result, error)
}

// OrderFinder searches orders by query string.
type OrderFinder interface {
	FindOrders(ctx context.Context, query string, first int) ([]shopify.Order, error)
}

// Server is the HTTP server for the fulfillment desk.
type Server struct {
	engine   FulfillmentEngine
	pipeline SyncRunner
	finder   OrderFinder
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires the handlers to the engine, pipeline and order finder.
func NewServer(engine FulfillmentEngine, pipeline SyncRunner, finder OrderFinder, cfg *config.Config) *Server {
	s := &Server{
		engine:   engine,
		pipeline: pipeline,
		finder:   finder,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/orders", s.handleSearchOrders)
		r.Get("/orders/{orderID}", s.handleOrderDetails)
		r.Post("/orders/{orderID}/fulfillments", s.handleCreateFulfillments)
		r.Post("/sync", s.handleSync)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, errorEnvelope{
				OK:    false,
				Error: "rate limit exceeded",
				Code:  "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
