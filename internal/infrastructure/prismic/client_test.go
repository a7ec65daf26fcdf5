package prismic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"spacetraveling/app/internal/domain/blog"
)

type fakeRepository struct {
	server    *httptest.Server
	refHits   int32
	lastQuery atomic.Value
	pages     map[string]string
}

func newFakeRepository(t *testing.T) *fakeRepository {
	t.Helper()

	repo := &fakeRepository{pages: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&repo.refHits, 1)
		if r.URL.Query().Get("access_token") != "secret-token" {
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{
			"refs": []map[string]interface{}{
				{"id": "preview", "ref": "release-ref", "isMasterRef": false},
				{"id": "master", "ref": "master-ref", "isMasterRef": true},
			},
		})
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		repo.lastQuery.Store(query)

		switch query.Get("ref") {
		case "master-ref", "preview-ref":
		default:
			http.Error(w, `{"message":"ref not found"}`, http.StatusNotFound)
			return
		}

		if query.Get("page") == "2" {
			writeRaw(w, repo.pages["2"])
			return
		}

		if strings.Contains(query.Get("q"), "my.posts.uid") && !strings.Contains(query.Get("q"), `"hello-world"`) {
			writeRaw(w, `{"page":1,"results_per_page":1,"total_pages":0,"next_page":null,"results":[]}`)
			return
		}

		writeRaw(w, repo.pages["1"])
	})

	repo.server = httptest.NewServer(mux)
	t.Cleanup(repo.server.Close)

	nextParams := url.Values{}
	nextParams.Set("ref", "master-ref")
	nextParams.Set("q", `[[at(document.type,"posts")]]`)
	nextParams.Set("page", "2")
	nextParams.Set("pageSize", "1")
	nextParams.Set("access_token", "secret-token")
	next := repo.server.URL + "/api/v2/documents/search?" + nextParams.Encode()
	repo.pages["1"] = fmt.Sprintf(`{
		"page": 1,
		"results_per_page": 1,
		"total_pages": 2,
		"next_page": %q,
		"results": [{
			"id": "YFq1",
			"uid": "hello-world",
			"type": "posts",
			"first_publication_date": "2021-03-15T19:25:28+0000",
			"last_publication_date": "2021-03-25T19:27:35+0000",
			"data": {
				"title": "Como utilizar Hooks",
				"subtitle": [{"type": "paragraph", "text": "Pensando em sincronização", "spans": []}],
				"author": null,
				"banner": {"url": "https://images.prismic.io/banner.png", "alt": null},
				"content": [{
					"heading": "Proin et varius",
					"body": [{"type": "paragraph", "text": "<strong>Nullam</strong> dolor", "spans": []}]
				}]
			}
		}]
	}`, next)
	repo.pages["2"] = `{
		"page": 2,
		"results_per_page": 1,
		"total_pages": 2,
		"next_page": null,
		"results": [{"id": "YFq2", "uid": "second", "type": "posts", "first_publication_date": "2021-03-16T19:25:28+0000", "data": {}}]
	}`

	return repo
}

func (f *fakeRepository) query() url.Values {
	value, _ := f.lastQuery.Load().(url.Values)
	return value
}

func (f *fakeRepository) client(t *testing.T) *Client {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(ClientOptions{
		Endpoint:    f.server.URL + "/api/v2/",
		AccessToken: "secret-token",
		HTTPClient:  f.server.Client(),
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, payload string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func TestQueryBuildsSearchRequestAndDecodesDocuments(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	page, err := client.Query(context.Background(), blog.Query{
		Type:     blog.PostType,
		Fetch:    []string{"posts.title", "posts.subtitle"},
		PageSize: 2,
		Ordering: blog.OrderFirstPublicationDesc,
		After:    "YFq0",
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	query := repo.query()
	expected := map[string]string{
		"q":            `[[at(document.type,"posts")]]`,
		"ref":          "master-ref",
		"fetch":        "posts.title,posts.subtitle",
		"pageSize":     "2",
		"after":        "YFq0",
		"orderings":    "[document.first_publication_date desc]",
		"access_token": "secret-token",
	}
	for key, want := range expected {
		if got := query.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}

	if len(page.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(page.Results))
	}
	doc := page.Results[0]
	if doc.UID != "hello-world" || doc.Type != blog.PostType {
		t.Fatalf("unexpected document identity: %#v", doc)
	}
	if doc.FirstPublicationDate == nil || doc.FirstPublicationDate.Day() != 15 {
		t.Fatalf("expected first publication date on the 15th, got %v", doc.FirstPublicationDate)
	}
	if doc.Data.Title == nil || *doc.Data.Title != "Como utilizar Hooks" {
		t.Fatalf("expected key text title, got %v", doc.Data.Title)
	}
	if doc.Data.Subtitle == nil || *doc.Data.Subtitle != "Pensando em sincronização" {
		t.Fatalf("expected rich text subtitle to be flattened, got %v", doc.Data.Subtitle)
	}
	if doc.Data.Author != nil {
		t.Fatalf("expected null author to stay nil, got %q", *doc.Data.Author)
	}
	if doc.Data.Banner == nil || doc.Data.Banner.URL != "https://images.prismic.io/banner.png" {
		t.Fatalf("expected banner url, got %#v", doc.Data.Banner)
	}
	if len(doc.Data.Content) != 1 || doc.Data.Content[0].Heading == nil || len(doc.Data.Content[0].Body) != 1 {
		t.Fatalf("expected one content block with one body element, got %#v", doc.Data.Content)
	}
}

func TestCursorHidesCredentialsAndFetchPageRestoresThem(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	first, err := client.Query(context.Background(), blog.Query{Type: blog.PostType, PageSize: 1})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if first.NextPage == "" {
		t.Fatalf("expected a next page cursor")
	}
	if strings.Contains(first.NextPage, "secret-token") || strings.Contains(first.NextPage, "master-ref") {
		t.Fatalf("expected cursor without token or ref, got %q", first.NextPage)
	}

	second, err := client.FetchPage(context.Background(), first.NextPage, "")
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if second.NextPage != "" {
		t.Fatalf("expected last page to have no cursor, got %q", second.NextPage)
	}
	if len(second.Results) != 1 || second.Results[0].UID != "second" {
		t.Fatalf("unexpected second page: %#v", second.Results)
	}
	if second.Results[0].Data.Title != nil {
		t.Fatalf("expected absent title to stay nil")
	}

	query := repo.query()
	if query.Get("access_token") != "secret-token" || query.Get("ref") != "master-ref" {
		t.Fatalf("expected credentials restored, got %v", query)
	}
}

func TestFetchPageRejectsForeignCursor(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	search := repo.server.URL + "/api/v2/documents/search?page=2&q="
	for _, cursor := range []string{
		"https://attacker.example/api/v2/documents/search?page=2",
		repo.server.URL + "/admin?page=2",
		"::not a url",
		repo.server.URL + "/api/v2/documents/search?page=2",
		search + url.QueryEscape(`[[at(document.type,"drafts")]]`),
		search + url.QueryEscape(`[[at(document.type,"posts")][at(my.posts.secret,"x")]]`),
	} {
		if _, err := client.FetchPage(context.Background(), cursor, ""); !eris.Is(err, blog.ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for %q, got %v", cursor, err)
		}
	}
}

func TestFetchPageDropsUnknownCursorParameters(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	params := url.Values{}
	params.Set("q", `[[at(document.type,"posts")]]`)
	params.Set("page", "2")
	params.Set("pageSize", "1")
	params.Set("integrationFieldsRef", "private")
	params.Set("lang", "*")
	params.Set("ref", "some-other-release")
	cursor := repo.server.URL + "/api/v2/documents/search?" + params.Encode()

	if _, err := client.FetchPage(context.Background(), cursor, ""); err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}

	query := repo.query()
	for _, dropped := range []string{"integrationFieldsRef", "lang"} {
		if query.Has(dropped) {
			t.Fatalf("expected %s to be dropped, got %v", dropped, query)
		}
	}
	if query.Get("ref") != "master-ref" || query.Get("page") != "2" || query.Get("pageSize") != "1" {
		t.Fatalf("expected allowed parameters and the master ref, got %v", query)
	}
}

func TestGetByUID(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	doc, err := client.GetByUID(context.Background(), blog.PostType, "hello-world", "")
	if err != nil {
		t.Fatalf("GetByUID returned error: %v", err)
	}
	if doc.ID != "YFq1" {
		t.Fatalf("expected document YFq1, got %q", doc.ID)
	}
	if got := repo.query().Get("q"); got != `[[at(my.posts.uid,"hello-world")]]` {
		t.Fatalf("unexpected uid predicate %q", got)
	}

	if _, err := client.GetByUID(context.Background(), blog.PostType, "missing", ""); !eris.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPreviewDocument(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	doc, err := client.PreviewDocument(context.Background(), "preview-ref", "YFq1")
	if err != nil {
		t.Fatalf("PreviewDocument returned error: %v", err)
	}
	if doc == nil || doc.UID != "hello-world" {
		t.Fatalf("expected previewed document, got %#v", doc)
	}
	if got := repo.query().Get("ref"); got != "preview-ref" {
		t.Fatalf("expected preview ref in request, got %q", got)
	}

	doc, err = client.PreviewDocument(context.Background(), "preview-ref", "")
	if err != nil {
		t.Fatalf("PreviewDocument without document returned error: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document when no id is given, got %#v", doc)
	}

	if _, err := client.PreviewDocument(context.Background(), "expired-ref", "YFq1"); err == nil {
		t.Fatalf("expected error for unknown preview ref")
	}
}

func TestMasterRefIsCached(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository(t)
	client := repo.client(t)

	for i := 0; i < 3; i++ {
		if _, err := client.Query(context.Background(), blog.Query{Type: blog.PostType}); err != nil {
			t.Fatalf("Query returned error: %v", err)
		}
	}

	if hits := atomic.LoadInt32(&repo.refHits); hits != 1 {
		t.Fatalf("expected master ref to be fetched once, got %d", hits)
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "   ", "repo.prismic.io/api/v2"} {
		if _, err := NewClient(ClientOptions{Endpoint: endpoint}); err == nil {
			t.Fatalf("expected error for endpoint %q", endpoint)
		}
	}
}
