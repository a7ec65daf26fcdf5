package prerender

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRevalidateAfter = 24 * time.Hour
	backgroundRenderLimit  = 30 * time.Second
)

// Snapshot is a rendered page stored for a path.
type Snapshot struct {
	Path       string
	Status     int
	Body       []byte
	RenderedAt time.Time
}

// Store persists rendered snapshots.
type Store interface {
	Get(ctx context.Context, path string) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// RenderFunc renders the current content of a path.
type RenderFunc func(ctx context.Context) (status int, body []byte, err error)

// Options configures a Generator.
type Options struct {
	Store           Store
	RevalidateAfter time.Duration
	Logger          *logrus.Logger
}

// Generator serves pre-rendered pages and regenerates them once they age past
// the revalidation window. Renders of one path never overlap.
type Generator struct {
	store           Store
	revalidateAfter time.Duration
	logger          *logrus.Logger
	group           singleflight.Group
	now             func() time.Time
}

// NewGenerator constructs a generator backed by the store.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Store == nil {
		return nil, eris.New("snapshot store is required")
	}

	revalidateAfter := opts.RevalidateAfter
	if revalidateAfter <= 0 {
		revalidateAfter = defaultRevalidateAfter
	}

	return &Generator{
		store:           opts.Store,
		revalidateAfter: revalidateAfter,
		logger:          opts.Logger,
		now:             time.Now,
	}, nil
}

// Serve returns the snapshot for the path. Fresh snapshots are returned as
// stored, stale ones are returned while a background refresh runs, and missing
// ones are rendered before returning.
func (g *Generator) Serve(ctx context.Context, path string, render RenderFunc) (*Snapshot, error) {
	key := normalizePath(path)

	stored, err := g.store.Get(ctx, key)
	if err != nil {
		g.logError(logrus.Fields{"path": key}, err, "loading stored snapshot")
		stored = nil
	}

	if stored != nil {
		if g.isFresh(stored) {
			return stored, nil
		}

		g.refreshInBackground(ctx, key, render)
		return stored, nil
	}

	if render == nil {
		return nil, eris.New("render function is required")
	}

	value, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.renderUnlessFresh(ctx, key, render)
	})
	if err != nil {
		return nil, err
	}

	return asSnapshot(key, value)
}

// Regenerate renders the path and stores the result when it succeeded.
// Concurrent calls for one path share a single render.
func (g *Generator) Regenerate(ctx context.Context, path string, render RenderFunc) (*Snapshot, error) {
	if render == nil {
		return nil, eris.New("render function is required")
	}

	key := normalizePath(path)
	value, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.render(ctx, key, render)
	})
	if err != nil {
		return nil, err
	}

	return asSnapshot(key, value)
}

func asSnapshot(key string, value interface{}) (*Snapshot, error) {
	snapshot, ok := value.(*Snapshot)
	if !ok {
		return nil, eris.Errorf("unexpected render result for %s", key)
	}
	return snapshot, nil
}

func (g *Generator) refreshInBackground(ctx context.Context, key string, render RenderFunc) {
	if render == nil {
		return
	}

	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundRenderLimit)

	ch := g.group.DoChan(key, func() (interface{}, error) {
		return g.renderUnlessFresh(bgCtx, key, render)
	})

	go func() {
		defer cancel()
		result := <-ch
		if result.Err != nil {
			g.logError(logrus.Fields{"path": key}, result.Err, "background regeneration failed")
		}
	}()
}

// renderUnlessFresh re-checks the store so callers that queued behind a
// finished render reuse its result.
func (g *Generator) renderUnlessFresh(ctx context.Context, key string, render RenderFunc) (*Snapshot, error) {
	if latest, err := g.store.Get(ctx, key); err == nil && latest != nil && g.isFresh(latest) {
		return latest, nil
	}
	return g.render(ctx, key, render)
}

func (g *Generator) render(ctx context.Context, key string, render RenderFunc) (*Snapshot, error) {
	status, body, err := render(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "rendering %s", key)
	}
	if status == 0 {
		status = http.StatusOK
	}

	snapshot := &Snapshot{
		Path:       key,
		Status:     status,
		Body:       body,
		RenderedAt: g.now(),
	}

	if status != http.StatusOK {
		return snapshot, nil
	}

	if err := g.store.Save(ctx, snapshot); err != nil {
		g.logError(logrus.Fields{"path": key}, err, "storing rendered snapshot")
		return snapshot, nil
	}

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{"path": key, "bytes": len(body)}).Info("page regenerated")
	}

	return snapshot, nil
}

func (g *Generator) isFresh(snapshot *Snapshot) bool {
	return g.now().Sub(snapshot.RenderedAt) < g.revalidateAfter
}

func (g *Generator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func normalizePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "/" {
		return "/"
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimSuffix(trimmed, "/")
}
