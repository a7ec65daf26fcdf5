package blog

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// NavLink points at a neighbouring post.
type NavLink struct {
	Path  string
	Title *string
}

// Adjacency holds the chronological neighbours of a post. A nil side means the
// post is the first or last one.
type Adjacency struct {
	Previous *NavLink
	Next     *NavLink
}

// AdjacentResolver finds the previous and next published posts of a document.
type AdjacentResolver struct {
	client ContentClient
}

// NewAdjacentResolver constructs a resolver backed by the content client.
func NewAdjacentResolver(client ContentClient) (*AdjacentResolver, error) {
	if client == nil {
		return nil, eris.New("content client is required")
	}
	return &AdjacentResolver{client: client}, nil
}

// Resolve issues the previous and next queries concurrently.
func (r *AdjacentResolver) Resolve(ctx context.Context, current Document, ref Ref) (Adjacency, error) {
	if current.ID == "" {
		return Adjacency{}, eris.New("document id is required")
	}

	docType := current.Type
	if docType == "" {
		docType = PostType
	}

	var adjacency Adjacency
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		link, err := r.neighbour(groupCtx, docType, current.ID, OrderFirstPublicationDesc, ref)
		if err != nil {
			return eris.Wrap(err, "querying previous post")
		}
		adjacency.Previous = link
		return nil
	})

	group.Go(func() error {
		link, err := r.neighbour(groupCtx, docType, current.ID, OrderFirstPublicationAsc, ref)
		if err != nil {
			return eris.Wrap(err, "querying next post")
		}
		adjacency.Next = link
		return nil
	})

	if err := group.Wait(); err != nil {
		return Adjacency{}, err
	}

	return adjacency, nil
}

func (r *AdjacentResolver) neighbour(ctx context.Context, docType, after string, ordering Ordering, ref Ref) (*NavLink, error) {
	page, err := r.client.Query(ctx, Query{
		Type:     docType,
		Fetch:    []string{docType + ".title"},
		PageSize: 1,
		After:    after,
		Ordering: ordering,
		Ref:      ref,
	})
	if err != nil {
		return nil, err
	}
	if page == nil || len(page.Results) == 0 {
		return nil, nil
	}

	doc := page.Results[0]
	view := ProjectListing(doc)
	return &NavLink{
		Path:  ResolveLink(doc.Link()),
		Title: view.Data.Title,
	}, nil
}
