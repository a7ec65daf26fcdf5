package blog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// memoryClient is an in-memory ContentClient honouring type, ordering, after
// and page size semantics of the remote query interface.
type memoryClient struct {
	mu          sync.Mutex
	docs        []Document
	queries     []Query
	fetches     []string
	queryErr    error
	fetchErr    error
	previewDocs map[string]map[string]Document
}

var _ ContentClient = (*memoryClient)(nil)

func newMemoryClient(docs ...Document) *memoryClient {
	return &memoryClient{docs: docs}
}

func (m *memoryClient) Query(_ context.Context, query Query) (*ResultPage, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	err := m.queryErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.page(query, 0), nil
}

func (m *memoryClient) GetByUID(_ context.Context, docType, uid string, _ Ref) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.docs {
		if doc.Type == docType && doc.UID == uid {
			found := doc
			return &found, nil
		}
	}
	return nil, ErrPostNotFound
}

func (m *memoryClient) FetchPage(_ context.Context, cursor string, ref Ref) (*ResultPage, error) {
	m.mu.Lock()
	m.fetches = append(m.fetches, cursor)
	err := m.fetchErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	values, parseErr := url.ParseQuery(cursor)
	if parseErr != nil {
		return nil, eris.Wrap(parseErr, "parsing cursor")
	}

	offset, _ := strconv.Atoi(values.Get("offset"))
	size, _ := strconv.Atoi(values.Get("size"))
	ordering, _ := strconv.Atoi(values.Get("ordering"))

	return m.page(Query{
		Type:     values.Get("type"),
		PageSize: size,
		After:    values.Get("after"),
		Ordering: Ordering(ordering),
		Ref:      ref,
	}, offset), nil
}

func (m *memoryClient) PreviewDocument(_ context.Context, token, documentID string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.previewDocs[token]
	if !ok {
		return nil, eris.New("invalid preview ref")
	}
	if doc, ok := docs[documentID]; ok {
		return &doc, nil
	}
	return nil, nil
}

func (m *memoryClient) Ping(_ context.Context) error {
	return nil
}

func (m *memoryClient) page(query Query, offset int) *ResultPage {
	m.mu.Lock()
	defer m.mu.Unlock()

	matching := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if doc.Type == query.Type {
			matching = append(matching, doc)
		}
	}

	switch query.Ordering {
	case OrderFirstPublicationAsc:
		sort.SliceStable(matching, func(i, j int) bool {
			return publishedAt(matching[i]).Before(publishedAt(matching[j]))
		})
	case OrderFirstPublicationDesc:
		sort.SliceStable(matching, func(i, j int) bool {
			return publishedAt(matching[i]).After(publishedAt(matching[j]))
		})
	}

	if query.After != "" {
		for idx, doc := range matching {
			if doc.ID == query.After {
				matching = matching[idx+1:]
				break
			}
		}
	}

	size := query.PageSize
	if size <= 0 {
		size = 20
	}

	if offset > len(matching) {
		offset = len(matching)
	}
	end := offset + size
	if end > len(matching) {
		end = len(matching)
	}

	page := &ResultPage{Results: append([]Document(nil), matching[offset:end]...)}
	if end < len(matching) {
		values := url.Values{}
		values.Set("type", query.Type)
		values.Set("offset", strconv.Itoa(end))
		values.Set("size", strconv.Itoa(size))
		values.Set("ordering", strconv.Itoa(int(query.Ordering)))
		values.Set("after", query.After)
		page.NextPage = values.Encode()
	}

	return page
}

func publishedAt(doc Document) time.Time {
	if doc.FirstPublicationDate == nil {
		return time.Time{}
	}
	return *doc.FirstPublicationDate
}

func strPtr(value string) *string {
	return &value
}

func post(id, uid string, day int) Document {
	published := time.Date(2021, time.March, day, 12, 0, 0, 0, time.UTC)
	return Document{
		ID:                   id,
		UID:                  uid,
		Type:                 PostType,
		FirstPublicationDate: &published,
		Data: PostData{
			Title:    strPtr(fmt.Sprintf("Title %s", uid)),
			Subtitle: strPtr(fmt.Sprintf("Subtitle %s", uid)),
			Author:   strPtr("Joseph Oliveira"),
		},
	}
}
