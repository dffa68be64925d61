// Package http serves the Telegram webhook and the health endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"hisob/internal/log"
	"hisob/internal/middleware/ratelimit"
	"hisob/internal/middleware/security"
	"hisob/internal/middleware/trace"
)

type Options struct {
	Addr string

	// WebhookPath and Webhook are empty in polling mode.
	WebhookPath string
	Webhook     http.Handler

	// Ready reports whether the ledger can serve; nil means always ready.
	Ready func(ctx context.Context) error

	// StrictWebhookSource refuses webhook calls from outside Telegram's
	// address ranges. Leave off when a proxy hides the peer address.
	StrictWebhookSource bool

	RequestsPerMinute int
	Logger            *log.Logger
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	ready        func(ctx context.Context) error
	strict       bool
	logger       *log.Logger
	shutdownOnce sync.Once
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		ready:    opts.Ready,
		strict:   opts.StrictWebhookSource,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if opts.Webhook != nil && opts.WebhookPath != "" {
		limited := s.limiter.Middleware(detector.ExtractClientIP, nil)
		mux.Handle(opts.WebhookPath, limited(s.webhookGuard(opts.Webhook)))
	}

	var h http.Handler = mux
	h = s.rejectSuspicious(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger, log.ComponentHTTP)(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request blocked",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldPath, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) webhookGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := s.detector.ExtractClientIP(r)
		if !s.detector.FromTelegram(ip) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Webhook call from outside Telegram ranges",
				log.FieldClientIP, ip)
			if s.strict {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Not ready", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
