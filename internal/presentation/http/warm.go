package http

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"spacetraveling/app/internal/domain/prerender"
)

const warmConcurrency = 4

// WarmResult summarises a pre-render run.
type WarmResult struct {
	Rendered int
	Failed   int
}

// Warm renders the home page and every post page into the page store.
func (s *Server) Warm(ctx context.Context) (WarmResult, error) {
	if s.generator == nil {
		return WarmResult{}, eris.New("page generator is not configured")
	}

	paths, err := s.blog.PostPaths(ctx)
	if err != nil {
		return WarmResult{}, eris.Wrap(err, "listing post paths")
	}

	var rendered, failed int32
	group := errgroup.Group{}
	group.SetLimit(warmConcurrency)

	warm := func(path string, render prerender.RenderFunc) {
		group.Go(func() error {
			if _, err := s.generator.Regenerate(ctx, path, render); err != nil {
				atomic.AddInt32(&failed, 1)
				s.recordError(ctx, err, "pre-rendering page", logrus.Fields{"path": path})
				return nil
			}
			atomic.AddInt32(&rendered, 1)
			return nil
		})
	}

	warm("/", s.homeRenderer(""))
	for _, path := range paths {
		slug, ok := strings.CutPrefix(path, "/post/")
		if !ok || slug == "" {
			continue
		}
		warm(path, s.postRenderer(slug, ""))
	}

	_ = group.Wait()

	result := WarmResult{Rendered: int(rendered), Failed: int(failed)}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"rendered": result.Rendered,
			"failed":   result.Failed,
		}).Info("pre-render complete")
	}

	if result.Failed > 0 {
		return result, eris.Errorf("%d of %d pages failed to pre-render", result.Failed, result.Failed+result.Rendered)
	}
	return result, nil
}
