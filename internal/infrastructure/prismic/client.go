package prismic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"spacetraveling/app/internal/domain/blog"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRefTTL         = 30 * time.Second
	searchPath            = "/documents/search"
	maxErrorBody          = 512
)

// cursorParams are the search parameters a followed cursor may carry. Every
// other parameter is dropped before the request is made.
var cursorParams = map[string]struct{}{
	"q":         {},
	"fetch":     {},
	"pageSize":  {},
	"page":      {},
	"orderings": {},
}

// cursorPredicate is the only query a cursor may run.
var cursorPredicate = predicates(at("document.type", blog.PostType))

// ClientOptions controls how the content repository client is initialised.
type ClientOptions struct {
	Endpoint    string
	AccessToken string
	HTTPClient  *http.Client
	Logger      *logrus.Logger
	RefTTL      time.Duration
}

// Client queries a Prismic repository over its REST API.
type Client struct {
	endpoint    *url.URL
	accessToken string
	http        *http.Client
	logger      *logrus.Logger
	refTTL      time.Duration
	now         func() time.Time

	refGroup  singleflight.Group
	refMu     sync.RWMutex
	masterRef string
	refLoaded time.Time
}

var _ blog.ContentClient = (*Client)(nil)

// NewClient constructs a client for the repository API endpoint, for example
// https://my-repo.cdn.prismic.io/api/v2.
func NewClient(opts ClientOptions) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if trimmed == "" {
		return nil, eris.New("content api endpoint is required")
	}

	endpoint, err := url.Parse(trimmed)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing content api endpoint: %s", trimmed)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, eris.Errorf("content api endpoint must be absolute: %s", trimmed)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	refTTL := opts.RefTTL
	if refTTL <= 0 {
		refTTL = defaultRefTTL
	}

	return &Client{
		endpoint:    endpoint,
		accessToken: strings.TrimSpace(opts.AccessToken),
		http:        httpClient,
		logger:      opts.Logger,
		refTTL:      refTTL,
		now:         time.Now,
	}, nil
}

// Query runs a paged query over documents of a single type.
func (c *Client) Query(ctx context.Context, query blog.Query) (*blog.ResultPage, error) {
	docType := strings.TrimSpace(query.Type)
	if docType == "" {
		return nil, eris.New("document type is required")
	}

	params := url.Values{}
	params.Set("q", predicates(at("document.type", docType)))
	if len(query.Fetch) > 0 {
		params.Set("fetch", strings.Join(query.Fetch, ","))
	}
	if query.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(query.PageSize))
	}
	if after := strings.TrimSpace(query.After); after != "" {
		params.Set("after", after)
	}
	if ordering := orderingParam(query.Ordering); ordering != "" {
		params.Set("orderings", ordering)
	}

	return c.search(ctx, params, query.Ref)
}

// GetByUID returns the document of the type with the uid. It returns
// blog.ErrPostNotFound when the snapshot has no such document.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, ref blog.Ref) (*blog.Document, error) {
	trimmedType := strings.TrimSpace(docType)
	trimmedUID := strings.TrimSpace(uid)
	if trimmedType == "" || trimmedUID == "" {
		return nil, eris.New("document type and uid are required")
	}

	params := url.Values{}
	params.Set("q", predicates(at("my."+trimmedType+".uid", trimmedUID)))
	params.Set("pageSize", "1")

	page, err := c.search(ctx, params, ref)
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, eris.Wrapf(blog.ErrPostNotFound, "no %s with uid %s", trimmedType, trimmedUID)
	}

	return &page.Results[0], nil
}

// FetchPage follows a cursor previously returned in a ResultPage.
func (c *Client) FetchPage(ctx context.Context, cursor string, ref blog.Ref) (*blog.ResultPage, error) {
	target, err := c.cursorURL(cursor)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	params := target.Query()
	params.Set("ref", resolved)
	c.authorise(params)
	target.RawQuery = params.Encode()

	var response searchResponse
	if err := c.getJSON(ctx, target, &response); err != nil {
		return nil, eris.Wrap(err, "fetching next page")
	}

	return response.toResultPage(), nil
}

// PreviewDocument validates the preview token against the repository and
// returns the previewed document. A nil document means the token is valid but
// names no document.
func (c *Client) PreviewDocument(ctx context.Context, token, documentID string) (*blog.Document, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, eris.New("preview token is required")
	}

	params := url.Values{}
	if id := strings.TrimSpace(documentID); id != "" {
		params.Set("q", predicates(at("document.id", id)))
	}
	params.Set("pageSize", "1")

	page, err := c.search(ctx, params, blog.Ref(trimmedToken))
	if err != nil {
		return nil, eris.Wrap(err, "resolving preview token")
	}
	if params.Get("q") == "" || len(page.Results) == 0 {
		return nil, nil
	}

	return &page.Results[0], nil
}

// Ping checks that the repository API answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchMasterRef(ctx)
	return err
}

func (c *Client) search(ctx context.Context, params url.Values, ref blog.Ref) (*blog.ResultPage, error) {
	resolved, err := c.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	params.Set("ref", resolved)
	c.authorise(params)

	target := c.endpoint.JoinPath(searchPath)
	target.RawQuery = params.Encode()

	var response searchResponse
	if err := c.getJSON(ctx, target, &response); err != nil {
		return nil, eris.Wrap(err, "searching documents")
	}

	return response.toResultPage(), nil
}

func (c *Client) resolveRef(ctx context.Context, ref blog.Ref) (string, error) {
	if ref.IsPreview() {
		return string(ref), nil
	}

	c.refMu.RLock()
	cached, loaded := c.masterRef, c.refLoaded
	c.refMu.RUnlock()
	if cached != "" && c.now().Sub(loaded) < c.refTTL {
		return cached, nil
	}

	value, err, _ := c.refGroup.Do("master", func() (interface{}, error) {
		return c.fetchMasterRef(ctx)
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}

func (c *Client) fetchMasterRef(ctx context.Context) (string, error) {
	target := *c.endpoint
	params := url.Values{}
	c.authorise(params)
	target.RawQuery = params.Encode()

	var response apiResponse
	if err := c.getJSON(ctx, &target, &response); err != nil {
		return "", eris.Wrap(err, "fetching repository refs")
	}

	for _, ref := range response.Refs {
		if ref.IsMasterRef && ref.Ref != "" {
			c.refMu.Lock()
			c.masterRef = ref.Ref
			c.refLoaded = c.now()
			c.refMu.Unlock()
			return ref.Ref, nil
		}
	}

	return "", eris.New("repository did not report a master ref")
}

func (c *Client) cursorURL(cursor string) (*url.URL, error) {
	trimmed := strings.TrimSpace(cursor)
	if trimmed == "" {
		return nil, eris.Wrap(blog.ErrInvalidCursor, "cursor is empty")
	}

	target, err := url.Parse(trimmed)
	if err != nil {
		return nil, eris.Wrap(blog.ErrInvalidCursor, err.Error())
	}

	expectedPath := strings.TrimRight(c.endpoint.Path, "/") + searchPath
	if !strings.EqualFold(target.Host, c.endpoint.Host) || target.Path != expectedPath {
		return nil, eris.Wrapf(blog.ErrInvalidCursor, "cursor points at %s%s", target.Host, target.Path)
	}
	target.Scheme = c.endpoint.Scheme

	params := url.Values{}
	for key, values := range target.Query() {
		if _, ok := cursorParams[key]; ok && len(values) > 0 {
			params.Set(key, values[0])
		}
	}
	if params.Get("q") != cursorPredicate {
		return nil, eris.Wrapf(blog.ErrInvalidCursor, "cursor queries %q", params.Get("q"))
	}
	target.RawQuery = params.Encode()

	return target, nil
}

func (c *Client) authorise(params url.Values) {
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}
}

func (c *Client) getJSON(ctx context.Context, target *url.URL, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return eris.Wrap(err, "building content api request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "calling content api")
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"component":   "prismic",
			"path":        target.Path,
			"status":      resp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("content api request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return eris.Errorf("content api responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return eris.Wrap(err, "decoding content api response")
	}

	return nil
}

// publicCursor removes credentials and the snapshot ref from a cursor before
// it is handed to browsers. FetchPage restores both.
func publicCursor(next string) string {
	trimmed := strings.TrimSpace(next)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	params := parsed.Query()
	params.Del("access_token")
	params.Del("ref")
	parsed.RawQuery = params.Encode()

	return parsed.String()
}

func at(path, value string) string {
	return "[at(" + path + "," + strconv.Quote(value) + ")]"
}

func predicates(parts ...string) string {
	return "[" + strings.Join(parts, "") + "]"
}

func orderingParam(ordering blog.Ordering) string {
	switch ordering {
	case blog.OrderFirstPublicationAsc:
		return "[document.first_publication_date]"
	case blog.OrderFirstPublicationDesc:
		return "[document.first_publication_date desc]"
	default:
		return ""
	}
}
