package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spacetraveling/app/internal/domain/blog"
	"spacetraveling/app/internal/domain/prerender"
	"spacetraveling/app/internal/domain/preview"
)

// Options configures the HTTP server wiring.
type Options struct {
	BlogService     blog.Service
	Generator       *prerender.Generator
	Gate            *preview.Gate
	Codec           *preview.Codec
	Database        *gorm.DB
	Logger          *logrus.Logger
	SentryHub       *sentry.Hub
	RateLimiter     RateLimiterSettings
	SecureCookies   bool
	RevalidateAfter time.Duration
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api             huma.API
	mux             *stdhttp.ServeMux
	blog            blog.Service
	generator       *prerender.Generator
	gate            *preview.Gate
	codec           *preview.Codec
	db              *gorm.DB
	logger          *logrus.Logger
	sentry          *sentry.Hub
	rateLimiter     *RateLimiter
	secureCookies   bool
	revalidateAfter time.Duration
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.BlogService == nil {
		return nil, eris.New("blog service is required")
	}
	if opts.Gate == nil || opts.Codec == nil {
		return nil, eris.New("preview gate and codec are required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	mux := stdhttp.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("spacetraveling", "1.0.0"))

	srv := &Server{
		api:             api,
		mux:             mux,
		blog:            opts.BlogService,
		generator:       opts.Generator,
		gate:            opts.Gate,
		codec:           opts.Codec,
		db:              opts.Database,
		logger:          opts.Logger,
		sentry:          opts.SentryHub,
		rateLimiter:     NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),
		secureCookies:   opts.SecureCookies,
		revalidateAfter: opts.RevalidateAfter,
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
		s.unknownPathMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerStaticRoute()

	s.registerHomeRoute()
	s.registerPostRoute()
	s.registerPostsAPIRoute()
	s.registerPreviewRoutes()
	s.registerHealthRoute()
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
