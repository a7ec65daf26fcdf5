package blog

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
)

func TestAdjacentResolverFirstPostHasOnlyNext(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("2", "second", 2), post("1", "first", 1), post("3", "third", 3))
	resolver, err := NewAdjacentResolver(client)
	if err != nil {
		t.Fatalf("NewAdjacentResolver returned error: %v", err)
	}

	adjacency, err := resolver.Resolve(context.Background(), post("1", "first", 1), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if adjacency.Previous != nil {
		t.Fatalf("expected no previous post, got %+v", adjacency.Previous)
	}
	if adjacency.Next == nil {
		t.Fatalf("expected a next post")
	}
	if adjacency.Next.Path != "/post/second" {
		t.Fatalf("expected next path /post/second, got %q", adjacency.Next.Path)
	}
	if adjacency.Next.Title == nil || *adjacency.Next.Title != "Title second" {
		t.Fatalf("expected next title from listing projection, got %v", adjacency.Next.Title)
	}
}

func TestAdjacentResolverLatestPostHasOnlyPrevious(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "first", 1), post("2", "second", 2), post("3", "third", 3))
	resolver, err := NewAdjacentResolver(client)
	if err != nil {
		t.Fatalf("NewAdjacentResolver returned error: %v", err)
	}

	adjacency, err := resolver.Resolve(context.Background(), post("3", "third", 3), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if adjacency.Next != nil {
		t.Fatalf("expected no next post, got %+v", adjacency.Next)
	}
	if adjacency.Previous == nil || adjacency.Previous.Path != "/post/second" {
		t.Fatalf("expected previous path /post/second, got %+v", adjacency.Previous)
	}
}

func TestAdjacentResolverMiddlePostHasBoth(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "first", 1), post("2", "second", 2), post("3", "third", 3))
	resolver, err := NewAdjacentResolver(client)
	if err != nil {
		t.Fatalf("NewAdjacentResolver returned error: %v", err)
	}

	adjacency, err := resolver.Resolve(context.Background(), post("2", "second", 2), "preview-ref")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if adjacency.Previous == nil || adjacency.Previous.Path != "/post/first" {
		t.Fatalf("expected previous path /post/first, got %+v", adjacency.Previous)
	}
	if adjacency.Next == nil || adjacency.Next.Path != "/post/third" {
		t.Fatalf("expected next path /post/third, got %+v", adjacency.Next)
	}

	if len(client.queries) != 2 {
		t.Fatalf("expected two queries, got %d", len(client.queries))
	}
	for _, query := range client.queries {
		if query.PageSize != 1 {
			t.Fatalf("expected page size 1, got %d", query.PageSize)
		}
		if query.After != "2" {
			t.Fatalf("expected queries after the current document, got %q", query.After)
		}
		if query.Ref != "preview-ref" {
			t.Fatalf("expected preview ref to be threaded through, got %q", query.Ref)
		}
	}
}

func TestAdjacentResolverSinglePostHasNoNeighbours(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "only", 1))
	resolver, err := NewAdjacentResolver(client)
	if err != nil {
		t.Fatalf("NewAdjacentResolver returned error: %v", err)
	}

	adjacency, err := resolver.Resolve(context.Background(), post("1", "only", 1), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if adjacency.Previous != nil || adjacency.Next != nil {
		t.Fatalf("expected no neighbours, got %+v", adjacency)
	}
}

func TestAdjacentResolverPropagatesQueryError(t *testing.T) {
	t.Parallel()

	client := newMemoryClient(post("1", "first", 1))
	client.queryErr = eris.New("upstream unavailable")

	resolver, err := NewAdjacentResolver(client)
	if err != nil {
		t.Fatalf("NewAdjacentResolver returned error: %v", err)
	}

	if _, err := resolver.Resolve(context.Background(), post("1", "first", 1), ""); err == nil {
		t.Fatalf("expected query error to be propagated")
	}
}

func TestNewAdjacentResolverRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewAdjacentResolver(nil); err == nil {
		t.Fatalf("expected error when client is nil")
	}
}
