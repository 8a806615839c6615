package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	RequestTimeout time.Duration // 0 means 15s
	RateLimitRPS   float64       // 0 disables the per-client limiter
	RateLimitBurst int
	// TrustProxy lets X-Forwarded-For / X-Real-IP replace the peer address.
	// Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type Server struct {
	mux     *chi.Mux
	timeout time.Duration
	limiter *clientLimiter
}

func New(opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// Timeout is applied per route group in MountHandlers; the stream route
	// needs an unwrapped, hijackable writer.
	if opts.TrustProxy {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	s := &Server{mux: m, timeout: opts.RequestTimeout}
	if opts.RateLimitRPS > 0 {
		s.limiter = newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
