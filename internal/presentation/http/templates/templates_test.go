package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	t.Parallel()

	value := time.Date(2021, time.March, 5, 19, 25, 28, 0, time.UTC)
	if got := FormatDate(&value); got != "05 mar 2021" {
		t.Fatalf("expected 05 mar 2021, got %q", got)
	}
	if got := FormatDate(nil); got != "" {
		t.Fatalf("expected empty string for nil date, got %q", got)
	}
}

func TestHomePageEscapesContentAndShowsLoadMore(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := HomePage(HomePageData{
		Posts:    []PostSummary{{Path: "/post/hooks", Title: "<b>Hooks</b>", Subtitle: "sub", Author: "Joseph", Date: "15 mar 2021"}},
		NextPage: "/api/posts?cursor=abc&x=1",
		Preview:  true,
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		"<title>Home | spacetraveling</title>",
		`href="/post/hooks"`,
		"&lt;b&gt;Hooks&lt;/b&gt;",
		"Carregar mais posts",
		`data-next="/api/posts?cursor=abc&amp;x=1"`,
		"Sair do modo Preview",
		"/static/feed.js",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got %q", want, body)
		}
	}
}

func TestHomePageWithoutNextPageHidesButton(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := HomePage(HomePageData{}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	if strings.Contains(body, "Carregar mais posts") {
		t.Fatalf("expected no load more button on the last page")
	}
	if strings.Contains(body, "Sair do modo Preview") {
		t.Fatalf("expected no exit preview link outside preview")
	}
}

func TestPostPageRendersSectionsAndNavigation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := PostPage(PostPageData{
		Title:       "Como utilizar Hooks",
		BannerURL:   "https://images.prismic.io/banner.png",
		Author:      "Joseph Oliveira",
		Date:        "15 mar 2021",
		ReadingTime: 4,
		Sections: []SectionView{{
			Heading: "Proin et varius",
			Blocks: []BlockView{
				{Tag: "p", Text: "Nullam dolor"},
				{Tag: "ul", Items: []string{"one", "two"}},
			},
		}},
		Next: &NavView{Path: "/post/next", Title: "Criando um app"},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		"<title>Como utilizar Hooks | spacetraveling</title>",
		"4 min",
		"<h2>Proin et varius</h2>",
		"<p>Nullam dolor</p>",
		"<ul><li>one</li><li>two</li></ul>",
		`<div class="next"><p>Criando um app</p><a href="/post/next">Próximo post</a></div>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got %q", want, body)
		}
	}
	if strings.Contains(body, `class="previous"`) || strings.Contains(body, "Post anterior") {
		t.Fatalf("expected missing previous post to be omitted, got %q", body)
	}
}

func TestPostPageOmitsMissingNextPost(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := PostPage(PostPageData{
		Title:    "Criando um app",
		Previous: &NavView{Path: "/post/hooks", Title: "Como utilizar Hooks"},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := buf.String()
	if !strings.Contains(body, `<div class="previous"><p>Como utilizar Hooks</p><a href="/post/hooks">Post anterior</a></div>`) {
		t.Fatalf("expected previous post link, got %q", body)
	}
	if strings.Contains(body, `class="next"`) || strings.Contains(body, "Próximo post") {
		t.Fatalf("expected missing next post to be omitted, got %q", body)
	}
}

func TestPostPageWithoutNeighboursHasNoNavigation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := PostPage(PostPageData{Title: "Único"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if body := buf.String(); strings.Contains(body, `class="navigation"`) {
		t.Fatalf("expected no navigation without neighbours, got %q", body)
	}
}
