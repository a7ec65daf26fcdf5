package blog

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// FeedState is the state of a feed's load machine.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedFetching
)

func (s FeedState) String() string {
	if s == FeedFetching {
		return "fetching"
	}
	return "idle"
}

// PageLoader fetches the page a cursor points at.
type PageLoader func(ctx context.Context, cursor string) (*ResultPage, error)

// Feed aggregates pages of documents in fetch order. At most one load is
// outstanding at any time.
type Feed struct {
	mu       sync.Mutex
	load     PageLoader
	docs     []Document
	cursor   string
	fetching bool
}

// NewFeed seeds a feed with its first page.
func NewFeed(first ResultPage, load PageLoader) *Feed {
	docs := make([]Document, len(first.Results))
	copy(docs, first.Results)

	return &Feed{
		load:   load,
		docs:   docs,
		cursor: first.NextPage,
	}
}

// LoadMore fetches the page at the current cursor and appends its results. It
// returns the number of appended documents. The aggregate and cursor are left
// untouched when the load fails or is rejected.
func (f *Feed) LoadMore(ctx context.Context) (int, error) {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		return 0, ErrLoadInFlight
	}
	if f.cursor == "" {
		f.mu.Unlock()
		return 0, ErrFeedExhausted
	}
	if f.load == nil {
		f.mu.Unlock()
		return 0, eris.New("feed page loader is not configured")
	}
	cursor := f.cursor
	f.fetching = true
	f.mu.Unlock()

	page, err := f.load(ctx, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetching = false

	if err != nil {
		return 0, eris.Wrap(err, "loading next feed page")
	}
	if page == nil {
		return 0, eris.New("feed page loader returned no page")
	}

	f.docs = append(f.docs, page.Results...)
	f.cursor = page.NextPage

	return len(page.Results), nil
}

// Documents returns a copy of the aggregate in fetch order.
func (f *Feed) Documents() []Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs := make([]Document, len(f.docs))
	copy(docs, f.docs)
	return docs
}

// Listings returns the listing projection of the aggregate.
func (f *Feed) Listings() []ListingView {
	return ProjectListings(f.Documents())
}

// NextPage returns the current cursor, empty when the feed is exhausted.
func (f *Feed) NextPage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// HasMore reports whether a further page can be loaded.
func (f *Feed) HasMore() bool {
	return f.NextPage() != ""
}

// State reports whether a load is outstanding.
func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetching {
		return FeedFetching
	}
	return FeedIdle
}
