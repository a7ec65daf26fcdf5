package blog

import (
	"context"
	"io"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

func TestServiceHomePageReturnsFirstPage(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "a", 1), post("2", "b", 2), post("3", "c", 3))
	svc := newTestService(t, client)

	home, err := svc.HomePage(context.Background(), "")
	if err != nil {
		t.Fatalf("HomePage returned error: %v", err)
	}

	if len(home.Posts) != 2 {
		t.Fatalf("expected 2 posts on the home page, got %d", len(home.Posts))
	}
	if home.NextPage == "" {
		t.Fatalf("expected a cursor for the remaining posts")
	}

	query := client.queries[0]
	if query.Type != PostType || query.PageSize != 2 {
		t.Fatalf("unexpected home query %+v", query)
	}
	if len(query.Fetch) != len(ListingFields) {
		t.Fatalf("expected listing fields to be fetched, got %v", query.Fetch)
	}
}

func TestServiceHomePageThreadsPreviewRef(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "a", 1))
	svc := newTestService(t, client)

	if _, err := svc.HomePage(context.Background(), "preview-ref"); err != nil {
		t.Fatalf("HomePage returned error: %v", err)
	}

	if client.queries[0].Ref != "preview-ref" {
		t.Fatalf("expected preview ref on the query, got %q", client.queries[0].Ref)
	}
}

func TestServiceLoadMoreFollowsCursor(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "a", 1), post("2", "b", 2), post("3", "c", 3))
	svc := newTestService(t, client)

	home, err := svc.HomePage(context.Background(), "")
	if err != nil {
		t.Fatalf("HomePage returned error: %v", err)
	}

	more, err := svc.LoadMore(context.Background(), home.NextPage, "")
	if err != nil {
		t.Fatalf("LoadMore returned error: %v", err)
	}

	if len(more.Results) != 1 || more.Results[0].UID != "c" {
		t.Fatalf("expected the third post, got %+v", more.Results)
	}
	if more.NextPage != "" {
		t.Fatalf("expected no further cursor, got %q", more.NextPage)
	}
}

func TestServiceLoadMoreSurfacesFailure(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "a", 1))
	client.fetchErr = eris.New("network down")
	svc := newTestService(t, client)

	if _, err := svc.LoadMore(context.Background(), "offset=1", ""); err == nil {
		t.Fatalf("expected load failure to be surfaced")
	}

	if _, err := svc.LoadMore(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty cursor")
	}
}

func TestServicePostPathsWalksEveryPage(t *testing.T) {
	t.Parallel()

	docs := make([]Document, 0, 45)
	for i := 0; i < 45; i++ {
		id := string(rune('A' + i%26))
		docs = append(docs, post(id+id, "post-"+id+string(rune('a'+i/26)), i%28+1))
	}
	client := newMemoryClient(docs...)
	svc := newTestService(t, client)

	paths, err := svc.PostPaths(context.Background())
	if err != nil {
		t.Fatalf("PostPaths returned error: %v", err)
	}

	if len(paths) != 45 {
		t.Fatalf("expected 45 paths, got %d", len(paths))
	}
	if paths[0] != "/post/"+docs[0].UID {
		t.Fatalf("expected first path for %q, got %q", docs[0].UID, paths[0])
	}
	if len(client.fetches) != 2 {
		t.Fatalf("expected 2 cursor fetches with page size 20, got %d", len(client.fetches))
	}
}

func TestServicePostReturnsDetailWithNavigation(t *testing.T) {
	t.Parallel()

	middle := post("2", "b", 2)
	middle.Data.Content = []ContentBlock{{Heading: strPtr("Intro"), Body: bodyWithWords(201)}}
	client := newMemoryClient(post("1", "a", 1), middle, post("3", "c", 3))
	svc := newTestService(t, client)

	page, err := svc.Post(context.Background(), " b ", "")
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}

	if page.Post.UID != "b" {
		t.Fatalf("expected post b, got %q", page.Post.UID)
	}
	if page.ReadingTime != 2 {
		t.Fatalf("expected reading time 2, got %d", page.ReadingTime)
	}
	if page.Adjacency.Previous == nil || page.Adjacency.Previous.Path != "/post/a" {
		t.Fatalf("expected previous link to /post/a, got %+v", page.Adjacency.Previous)
	}
	if page.Adjacency.Next == nil || page.Adjacency.Next.Path != "/post/c" {
		t.Fatalf("expected next link to /post/c, got %+v", page.Adjacency.Next)
	}
}

func TestServicePostReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemoryClient(post("1", "a", 1)))

	_, err := svc.Post(context.Background(), "missing", "")
	if !eris.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestServicePostDegradesWhenAdjacencyFails(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "a", 1), post("2", "b", 2))
	client.queryErr = eris.New("query failed")
	svc := newTestService(t, client)

	page, err := svc.Post(context.Background(), "a", "")
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if page.Adjacency.Previous != nil || page.Adjacency.Next != nil {
		t.Fatalf("expected navigation to be omitted, got %+v", page.Adjacency)
	}
}

func TestNewServiceRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewService(ServiceOptions{}); err == nil {
		t.Fatalf("expected error when client is nil")
	}
}

func newTestService(t *testing.T, client ContentClient) Service {
	t.Helper()

	svc, err := NewService(ServiceOptions{Client: client, Logger: silentLogger()})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
