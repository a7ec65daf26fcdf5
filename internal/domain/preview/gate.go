package preview

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"spacetraveling/app/internal/domain/blog"
)

// ErrInvalidToken indicates the preview token could not be exchanged.
var ErrInvalidToken = eris.New("invalid preview token")

// Marker authorises preview content for the requests that carry it.
type Marker struct {
	Ref blog.Ref `json:"ref"`
}

// Active reports whether the marker selects a preview snapshot.
func (m Marker) Active() bool {
	return m.Ref.IsPreview()
}

// Resolver exchanges a preview token for the previewed document.
type Resolver interface {
	PreviewDocument(ctx context.Context, token, documentID string) (*blog.Document, error)
}

// Gate decides whether a preview session may start.
type Gate struct {
	resolver Resolver
	logger   *logrus.Logger
}

// NewGate constructs a preview gate.
func NewGate(resolver Resolver, logger *logrus.Logger) (*Gate, error) {
	if resolver == nil {
		return nil, eris.New("preview resolver is required")
	}
	return &Gate{resolver: resolver, logger: logger}, nil
}

// Enter exchanges the token and returns the redirect target along with the
// marker to persist. No marker is returned when the exchange fails.
func (g *Gate) Enter(ctx context.Context, token, documentID string) (string, Marker, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return "", Marker{}, eris.Wrap(ErrInvalidToken, "preview token is empty")
	}

	trimmedID := strings.TrimSpace(documentID)
	doc, err := g.resolver.PreviewDocument(ctx, trimmedToken, trimmedID)
	if err != nil {
		if g.logger != nil {
			g.logger.WithFields(logrus.Fields{
				"document_id": trimmedID,
				"error":       err.Error(),
			}).Warn("preview token rejected")
		}
		return "", Marker{}, eris.Wrap(ErrInvalidToken, err.Error())
	}

	redirect := "/"
	if doc != nil {
		redirect = blog.ResolveLink(doc.Link())
	}

	return redirect, Marker{Ref: blog.Ref(trimmedToken)}, nil
}

// Exit returns the cleared marker.
func (g *Gate) Exit() Marker {
	return Marker{}
}
