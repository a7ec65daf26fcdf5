package preview

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"spacetraveling/app/internal/domain/blog"
)

const defaultMaxAge = 24 * time.Hour

// ErrInvalidMarker indicates an encoded marker failed verification.
var ErrInvalidMarker = eris.New("invalid preview marker")

// Codec signs markers so they can be stored client-side.
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

type envelope struct {
	Ref       string `json:"ref"`
	ExpiresAt int64  `json:"exp"`
}

// NewCodec constructs a codec using the provided signing secret.
func NewCodec(secret string, maxAge time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, eris.New("preview secret is required")
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Codec{secret: []byte(secret), maxAge: maxAge, now: time.Now}, nil
}

// MaxAge returns how long an encoded marker stays valid.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Encode serialises and signs the marker.
func (c *Codec) Encode(marker Marker) (string, error) {
	payload, err := json.Marshal(envelope{
		Ref:       string(marker.Ref),
		ExpiresAt: c.now().Add(c.maxAge).Unix(),
	})
	if err != nil {
		return "", eris.Wrap(err, "encoding preview marker")
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies and deserialises an encoded marker.
func (c *Codec) Decode(value string) (Marker, error) {
	encoded, signature, ok := strings.Cut(strings.TrimSpace(value), ".")
	if !ok || encoded == "" || signature == "" {
		return Marker{}, ErrInvalidMarker
	}

	if !hmac.Equal([]byte(signature), []byte(c.sign(encoded))) {
		return Marker{}, eris.Wrap(ErrInvalidMarker, "signature mismatch")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Marker{}, eris.Wrap(ErrInvalidMarker, "decoding payload")
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Marker{}, eris.Wrap(ErrInvalidMarker, "unmarshalling payload")
	}

	if c.now().Unix() > env.ExpiresAt {
		return Marker{}, eris.Wrap(ErrInvalidMarker, "marker expired")
	}

	return Marker{Ref: blog.Ref(env.Ref)}, nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
