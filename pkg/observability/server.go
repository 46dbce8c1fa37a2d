package observability

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aixgo-dev/agentrt/pkg/security"
)

// Server exposes health and Prometheus metrics endpoints for a running
// set of agentrunner.Runner/agentinvoker.Invoker instances, rate
// limited per client IP so a misbehaving scraper or prober cannot
// starve the process driving the agents themselves.
type Server struct {
	httpServer *http.Server
	addr       string
	limiter    *security.RateLimiter
}

// NewServer builds a Server listening on addr. requestsPerSecond and
// burst configure the per-client-IP rate limit applied to every
// endpoint.
func NewServer(addr string, health *HealthChecker, reg *prometheus.Registry, requestsPerSecond float64, burst int) *Server {
	s := &Server{
		addr:    addr,
		limiter: security.NewRateLimiter(requestsPerSecond, burst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.rateLimited(HealthHandler(health)))
	mux.HandleFunc("/health/live", s.rateLimited(LivenessHandler()))
	mux.HandleFunc("/health/ready", s.rateLimited(ReadinessHandler(health)))
	mux.Handle("/metrics", s.rateLimitedHandler(Handler(reg)))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return s.rateLimitedHandler(h).ServeHTTP
}

func (s *Server) rateLimitedHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// clientIP keys the rate limiter on the TCP peer address only. This
// server has no trusted-proxy configuration, so honoring a client-
// supplied X-Forwarded-For header would let any caller pick its own
// rate-limit bucket by sending a different value on every request.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Start runs the HTTP server; it blocks until the server stops, exactly
// like http.Server.ListenAndServe.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// to complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
