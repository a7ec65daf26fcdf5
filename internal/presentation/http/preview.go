package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"spacetraveling/app/internal/domain/blog"
	"spacetraveling/app/internal/domain/preview"
)

const (
	previewCookieName   = "spacetraveling_preview"
	invalidTokenPayload = `{"message":"Invalid token"}`
)

type previewInput struct {
	Token      string `query:"token"`
	DocumentID string `query:"documentId"`
}

func (s *Server) registerPreviewRoutes() {
	huma.Get(s.api, "/api/preview", s.previewHandler, htmlOperation(
		"Enter preview mode",
		stdhttp.StatusFound,
		stdhttp.StatusUnauthorized,
	))
	huma.Get(s.api, "/api/exit-preview", s.exitPreviewHandler, htmlOperation(
		"Leave preview mode",
		stdhttp.StatusFound,
	))
}

func (s *Server) previewHandler(ctx context.Context, input *previewInput) (*htmlResponse, error) {
	redirect, marker, err := s.gate.Enter(ctx, input.Token, input.DocumentID)
	if err != nil {
		if eris.Is(err, preview.ErrInvalidToken) {
			return &htmlResponse{
				Status:       stdhttp.StatusUnauthorized,
				ContentType:  "application/json",
				CacheControl: previewCacheControl,
				Body:         []byte(invalidTokenPayload),
			}, nil
		}
		s.recordError(ctx, err, "entering preview", logrus.Fields{"document_id": input.DocumentID})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	cookie, err := s.markerCookie(marker)
	if err != nil {
		s.recordError(ctx, err, "encoding preview marker", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage), nil
	}

	return s.redirect(redirect, cookie), nil
}

func (s *Server) exitPreviewHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	cookie, err := s.markerCookie(s.gate.Exit())
	if err != nil {
		s.recordError(ctx, err, "clearing preview marker", nil)
		cookie = s.previewCookie("", -1)
	}
	return s.redirect("/", cookie), nil
}

// markerCookie persists an active marker and expires the cookie for an
// inactive one.
func (s *Server) markerCookie(marker preview.Marker) (*stdhttp.Cookie, error) {
	if !marker.Active() {
		return s.previewCookie("", -1), nil
	}

	value, err := s.codec.Encode(marker)
	if err != nil {
		return nil, err
	}
	return s.previewCookie(value, int(s.codec.MaxAge().Seconds())), nil
}

// previewRef returns the ref of a verified marker cookie. Missing or invalid
// markers select published content.
func (s *Server) previewRef(ctx context.Context, cookieValue string) blog.Ref {
	if cookieValue == "" {
		return ""
	}

	marker, err := s.codec.Decode(cookieValue)
	if err != nil {
		if s.logger != nil {
			fields := logrus.Fields{"error": err.Error()}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				fields["request_id"] = requestID
			}
			s.logger.WithFields(fields).Debug("ignoring invalid preview marker")
		}
		return ""
	}

	return marker.Ref
}

func (s *Server) previewCookie(value string, maxAge int) *stdhttp.Cookie {
	return &stdhttp.Cookie{
		Name:     previewCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: stdhttp.SameSiteLaxMode,
	}
}

func (s *Server) redirect(location string, cookie *stdhttp.Cookie) *htmlResponse {
	resp := newHTMLResponse(stdhttp.StatusFound, nil)
	resp.Location = location
	resp.CacheControl = previewCacheControl
	if cookie != nil {
		resp.SetCookie = cookie.String()
	}
	return resp
}
