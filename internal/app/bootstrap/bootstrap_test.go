package bootstrap

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"spacetraveling/app/internal/platform/config"
)

func TestBuildWiresApplication(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	result, err := Build(context.Background(), Dependencies{
		Config: config.Config{
			PrismicEndpoint: "https://spacetraveling.cdn.prismic.io/api/v2",
			DBPath:          filepath.Join(t.TempDir(), "spacetraveling.db"),
			RevalidateAfter: time.Hour,
			HomePageSize:    2,
			PathsPageSize:   20,
			RateLimit: config.RateLimitConfig{
				Burst:             5,
				RequestsPerSecond: 5,
				ClientTTL:         time.Minute,
			},
		},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() {
		if cleanupErr := result.Cleanup(); cleanupErr != nil {
			t.Errorf("cleanup failed: %v", cleanupErr)
		}
	})

	if result.BlogService == nil || result.HTTPServer == nil || result.Database == nil {
		t.Fatalf("expected every component to be built: %+v", result)
	}
}

func TestBuildRejectsInvalidEndpoint(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), Dependencies{
		Config: config.Config{
			PrismicEndpoint: "not a url",
			DBPath:          filepath.Join(t.TempDir(), "spacetraveling.db"),
		},
	})
	if err == nil {
		t.Fatalf("expected error for an invalid endpoint")
	}
}

func TestPreviewSecretFallsBackToRandomValue(t *testing.T) {
	t.Parallel()

	if got := previewSecret(config.Config{PreviewSecret: " configured "}, nil); got != "configured" {
		t.Fatalf("expected configured secret, got %q", got)
	}

	first := previewSecret(config.Config{}, nil)
	second := previewSecret(config.Config{}, nil)
	if first == "" || first == second {
		t.Fatalf("expected distinct generated secrets, got %q and %q", first, second)
	}
}
