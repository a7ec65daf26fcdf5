package bootstrap

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spacetraveling/app/internal/data/database"
	"spacetraveling/app/internal/data/migrations"
	"spacetraveling/app/internal/data/pages"
	"spacetraveling/app/internal/domain/blog"
	"spacetraveling/app/internal/domain/prerender"
	"spacetraveling/app/internal/domain/preview"
	"spacetraveling/app/internal/infrastructure/prismic"
	"spacetraveling/app/internal/platform/config"
	presentationhttp "spacetraveling/app/internal/presentation/http"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	BlogService blog.Service
	HTTPServer  *presentationhttp.Server
	Database    *gorm.DB
	Cleanup     func() error
}

// Build composes the spacetraveling application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	db, err := database.Open(database.Options{Path: cfg.DBPath})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := database.Close(db); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := migrations.MigratePages(ctx, db, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running page migrations"))
	}

	store, err := pages.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating page repository"))
	}

	client, err := prismic.NewClient(prismic.ClientOptions{
		Endpoint:    cfg.PrismicEndpoint,
		AccessToken: cfg.PrismicAccessToken,
		Logger:      deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating content client"))
	}

	blogService, err := blog.NewService(blog.ServiceOptions{
		Client:        client,
		HomePageSize:  cfg.HomePageSize,
		PathsPageSize: cfg.PathsPageSize,
		Logger:        deps.Logger,
		SentryHub:     deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating blog service"))
	}

	generator, err := prerender.NewGenerator(prerender.Options{
		Store:           store,
		RevalidateAfter: cfg.RevalidateAfter,
		Logger:          deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating page generator"))
	}

	gate, err := preview.NewGate(client, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating preview gate"))
	}

	codec, err := preview.NewCodec(previewSecret(cfg, deps.Logger), 0)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating preview codec"))
	}

	httpServer, err := presentationhttp.NewServer(presentationhttp.Options{
		BlogService:     blogService,
		Generator:       generator,
		Gate:            gate,
		Codec:           codec,
		Database:        db,
		Logger:          deps.Logger,
		SentryHub:       deps.SentryHub,
		SecureCookies:   cfg.Environment == "production",
		RevalidateAfter: cfg.RevalidateAfter,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return database.Close(db)
	}

	return Result{
		BlogService: blogService,
		HTTPServer:  httpServer,
		Database:    db,
		Cleanup:     cleanup,
	}, nil
}

// previewSecret falls back to a per-process secret, so preview sessions end
// when the process restarts.
func previewSecret(cfg config.Config, logger *logrus.Logger) string {
	if secret := strings.TrimSpace(cfg.PreviewSecret); secret != "" {
		return secret
	}

	if logger != nil {
		logger.Warn("PREVIEW_SECRET is not set; preview sessions will not survive a restart")
	}
	return uuid.NewString()
}
