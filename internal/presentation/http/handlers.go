package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"spacetraveling/app/internal/data/database"
	"spacetraveling/app/internal/domain/blog"
	"spacetraveling/app/internal/domain/prerender"
	"spacetraveling/app/internal/presentation/http/templates"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	errorFallbackMessage = "Não foi possível carregar esta página agora."
	postNotFoundMessage  = "Não encontramos esse post."
	notFoundMessage      = "Esta página não existe."
	previewCacheControl  = "private, no-store"
)

type htmlResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	Location     string `header:"Location"`
	SetCookie    string `header:"Set-Cookie"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

type pageInput struct {
	PreviewCookie string `cookie:"spacetraveling_preview"`
}

type postInput struct {
	Slug          string `path:"slug"`
	PreviewCookie string `cookie:"spacetraveling_preview"`
}

type postsInput struct {
	Cursor        string `query:"cursor"`
	PreviewCookie string `cookie:"spacetraveling_preview"`
}

type postsBody struct {
	NextPage *string            `json:"next_page"`
	Results  []blog.ListingView `json:"results"`
}

type postsResponse struct {
	Body postsBody
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Content  string `json:"content"`
	}
}

func (s *Server) registerHomeRoute() {
	huma.Get(s.api, "/", s.homeHandler, htmlOperation("Post listing", stdhttp.StatusInternalServerError))
}

func (s *Server) registerPostRoute() {
	huma.Get(s.api, "/post/{slug}", s.postHandler, htmlOperation(
		"Post detail",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerPostsAPIRoute() {
	huma.Get(s.api, "/api/posts", s.postsHandler, func(op *huma.Operation) {
		op.Summary = "Load the next page of posts"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, input *pageInput) (*htmlResponse, error) {
	ref := s.previewRef(ctx, input.PreviewCookie)
	return s.servePage(ctx, "/", ref, s.homeRenderer(ref))
}

func (s *Server) postHandler(ctx context.Context, input *postInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, postNotFoundMessage), nil
	}

	ref := s.previewRef(ctx, input.PreviewCookie)
	return s.servePage(ctx, blog.ResolveLink(blog.DocumentLink{UID: slug, Type: blog.PostType}), ref, s.postRenderer(slug, ref))
}

func (s *Server) postsHandler(ctx context.Context, input *postsInput) (*postsResponse, error) {
	cursor := strings.TrimSpace(input.Cursor)
	if cursor == "" {
		return nil, huma.Error400BadRequest("cursor is required")
	}

	ref := s.previewRef(ctx, input.PreviewCookie)
	page, err := s.blog.LoadMore(ctx, cursor, ref)
	if err != nil {
		if eris.Is(err, blog.ErrInvalidCursor) {
			return nil, huma.Error400BadRequest("cursor is not valid")
		}
		return nil, huma.Error502BadGateway("could not load more posts")
	}

	resp := &postsResponse{}
	resp.Body.Results = page.Results
	if resp.Body.Results == nil {
		resp.Body.Results = []blog.ListingView{}
	}
	if page.NextPage != "" {
		next := postsCursorPath(page.NextPage)
		resp.Body.NextPage = &next
	}

	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Content = "ok"

	if s.db == nil {
		resp.Body.Database = "unconfigured"
	} else if err := database.Ping(ctx, s.db); err != nil {
		s.recordError(ctx, err, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if err := s.blog.Ping(ctx); err != nil {
		s.recordError(ctx, err, "pinging content api", nil)
		resp.Body.Status = "degraded"
		resp.Body.Content = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	return resp, nil
}

// servePage serves published pages through the generator. Preview requests
// always render against their ref and are never stored.
func (s *Server) servePage(ctx context.Context, path string, ref blog.Ref, render prerender.RenderFunc) (*htmlResponse, error) {
	if ref.IsPreview() || s.generator == nil {
		status, body, err := render(ctx)
		if err != nil {
			s.recordError(ctx, err, "rendering page", logrus.Fields{"path": path, "preview": ref.IsPreview()})
			return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
		}
		resp := newHTMLResponse(status, body)
		if ref.IsPreview() {
			resp.CacheControl = previewCacheControl
		}
		return resp, nil
	}

	snapshot, err := s.generator.Serve(ctx, path, render)
	if err != nil {
		s.recordError(ctx, err, "serving generated page", logrus.Fields{"path": path})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	resp := newHTMLResponse(snapshot.Status, snapshot.Body)
	if snapshot.Status == stdhttp.StatusOK && s.revalidateAfter > 0 {
		resp.CacheControl = fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(s.revalidateAfter.Seconds()))
	}
	return resp, nil
}

func (s *Server) homeRenderer(ref blog.Ref) prerender.RenderFunc {
	return func(ctx context.Context) (int, []byte, error) {
		page, err := s.blog.HomePage(ctx, ref)
		if err != nil {
			return 0, nil, err
		}

		body, err := renderComponent(ctx, templates.HomePage(homePageData(page, ref.IsPreview())))
		if err != nil {
			return 0, nil, err
		}
		return stdhttp.StatusOK, body, nil
	}
}

func (s *Server) postRenderer(slug string, ref blog.Ref) prerender.RenderFunc {
	return func(ctx context.Context) (int, []byte, error) {
		page, err := s.blog.Post(ctx, slug, ref)
		if err != nil {
			if eris.Is(err, blog.ErrPostNotFound) {
				resp := s.renderErrorResponse(ctx, stdhttp.StatusNotFound, postNotFoundMessage)
				return resp.Status, resp.Body, nil
			}
			return 0, nil, err
		}

		body, err := renderComponent(ctx, templates.PostPage(postPageData(page, ref.IsPreview())))
		if err != nil {
			return 0, nil, err
		}
		return stdhttp.StatusOK, body, nil
	}
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			op.Responses[strconv.Itoa(status)] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) *htmlResponse {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))

	body, err := renderComponent(ctx, templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message)
		return newHTMLResponse(status, []byte(fallback))
	}

	return newHTMLResponse(status, body)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
