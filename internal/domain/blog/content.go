package blog

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	// ErrPostNotFound indicates the requested post does not exist in the selected snapshot.
	ErrPostNotFound = eris.New("post not found")
	// ErrFeedExhausted indicates the feed has no cursor left to load.
	ErrFeedExhausted = eris.New("feed has no further pages")
	// ErrLoadInFlight indicates a load is already outstanding for the feed.
	ErrLoadInFlight = eris.New("feed load already in flight")
	// ErrInvalidCursor indicates a pagination cursor the content client refuses to follow.
	ErrInvalidCursor = eris.New("invalid pagination cursor")
)

// ContentClient queries the remote content repository.
type ContentClient interface {
	Query(ctx context.Context, query Query) (*ResultPage, error)
	GetByUID(ctx context.Context, docType, uid string, ref Ref) (*Document, error)
	FetchPage(ctx context.Context, cursor string, ref Ref) (*ResultPage, error)
	PreviewDocument(ctx context.Context, token, documentID string) (*Document, error)
	Ping(ctx context.Context) error
}
