package blog

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	defaultHomePageSize  = 2
	defaultPathsPageSize = 20
)

// Service defines the blog operations the presentation layer renders.
type Service interface {
	HomePage(ctx context.Context, ref Ref) (*HomePage, error)
	Post(ctx context.Context, uid string, ref Ref) (*PostPage, error)
	LoadMore(ctx context.Context, cursor string, ref Ref) (*ListingPage, error)
	PostPaths(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// HomePage is the first page of the post feed.
type HomePage struct {
	Posts    []ListingView
	NextPage string
}

// ListingPage is a page of listing views loaded through a cursor.
type ListingPage struct {
	Results  []ListingView
	NextPage string
}

// PostPage bundles everything the post template renders.
type PostPage struct {
	Post        DetailView
	ReadingTime int
	Adjacency   Adjacency
}

// ServiceOptions configures the blog service.
type ServiceOptions struct {
	Client        ContentClient
	HomePageSize  int
	PathsPageSize int
	Logger        *logrus.Logger
	SentryHub     *sentry.Hub
}

type service struct {
	client        ContentClient
	adjacent      *AdjacentResolver
	homePageSize  int
	pathsPageSize int
	logger        *logrus.Logger
	sentryHub     *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the blog service with its dependencies.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Client == nil {
		return nil, eris.New("content client is required")
	}

	adjacent, err := NewAdjacentResolver(opts.Client)
	if err != nil {
		return nil, eris.Wrap(err, "creating adjacent post resolver")
	}

	homePageSize := opts.HomePageSize
	if homePageSize <= 0 {
		homePageSize = defaultHomePageSize
	}

	pathsPageSize := opts.PathsPageSize
	if pathsPageSize <= 0 {
		pathsPageSize = defaultPathsPageSize
	}

	return &service{
		client:        opts.Client,
		adjacent:      adjacent,
		homePageSize:  homePageSize,
		pathsPageSize: pathsPageSize,
		logger:        opts.Logger,
		sentryHub:     opts.SentryHub,
	}, nil
}

func (s *service) HomePage(ctx context.Context, ref Ref) (*HomePage, error) {
	first, err := s.client.Query(ctx, Query{
		Type:     PostType,
		Fetch:    ListingFields,
		PageSize: s.homePageSize,
		Ref:      ref,
	})
	if err != nil {
		s.recordError(logrus.Fields{"preview": ref.IsPreview()}, err, "querying home page posts")
		return nil, eris.Wrap(err, "querying home page posts")
	}
	if first == nil {
		first = &ResultPage{}
	}

	feed := NewFeed(*first, s.loader(ref))

	return &HomePage{
		Posts:    feed.Listings(),
		NextPage: feed.NextPage(),
	}, nil
}

func (s *service) Post(ctx context.Context, uid string, ref Ref) (*PostPage, error) {
	trimmed := strings.TrimSpace(uid)
	if trimmed == "" {
		return nil, eris.New("post slug is required")
	}

	doc, err := s.client.GetByUID(ctx, PostType, trimmed, ref)
	if err != nil {
		if !eris.Is(err, ErrPostNotFound) {
			s.recordError(logrus.Fields{"slug": trimmed}, err, "fetching post by slug")
		}
		return nil, eris.Wrapf(err, "fetching post: %s", trimmed)
	}
	if doc == nil {
		return nil, eris.Wrapf(ErrPostNotFound, "fetching post: %s", trimmed)
	}

	detail := ProjectDetail(*doc)
	page := &PostPage{
		Post:        detail,
		ReadingTime: ReadingTime(detail.Data.Content),
	}

	adjacency, err := s.adjacent.Resolve(ctx, *doc, ref)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed}, err, "resolving adjacent posts")
	} else {
		page.Adjacency = adjacency
	}

	return page, nil
}

func (s *service) LoadMore(ctx context.Context, cursor string, ref Ref) (*ListingPage, error) {
	trimmed := strings.TrimSpace(cursor)
	if trimmed == "" {
		return nil, eris.New("cursor is required")
	}

	feed := NewFeed(ResultPage{NextPage: trimmed}, s.loader(ref))
	if _, err := feed.LoadMore(ctx); err != nil {
		s.recordError(nil, err, "loading more posts")
		return nil, err
	}

	return &ListingPage{
		Results:  feed.Listings(),
		NextPage: feed.NextPage(),
	}, nil
}

func (s *service) PostPaths(ctx context.Context) ([]string, error) {
	first, err := s.client.Query(ctx, Query{
		Type:     PostType,
		Fetch:    ListingFields,
		PageSize: s.pathsPageSize,
	})
	if err != nil {
		s.recordError(nil, err, "querying post paths")
		return nil, eris.Wrap(err, "querying post paths")
	}
	if first == nil {
		first = &ResultPage{}
	}

	feed := NewFeed(*first, s.loader(""))
	for feed.HasMore() {
		if _, err := feed.LoadMore(ctx); err != nil {
			s.recordError(nil, err, "walking post paths")
			return nil, eris.Wrap(err, "walking post paths")
		}
	}

	docs := feed.Documents()
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, ResolveLink(doc.Link()))
	}

	return paths, nil
}

func (s *service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *service) loader(ref Ref) PageLoader {
	return func(ctx context.Context, cursor string) (*ResultPage, error) {
		return s.client.FetchPage(ctx, cursor, ref)
	}
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
