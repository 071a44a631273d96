package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/httpx"
	"go.uber.org/zap"
)

// ErrUnavailable covers transport-level failures: the backend could not be
// reached at all. Non-2xx replies surface as *Error instead.
var ErrUnavailable = errors.New("upstream unavailable")

// Error is a non-2xx reply from a backend, carrying whatever message the
// backend put in its error body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// StatusOf extracts the upstream status from err, or 0 if err is not an *Error.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// Option mutates an outbound request before it is sent.
type Option func(*http.Request)

// WithCookie forwards the raw session token as a cookie, the way the page
// handlers received it.
func WithCookie(raw string) Option {
	return func(req *http.Request) {
		if raw != "" {
			req.AddCookie(&http.Cookie{Name: guard.SessionCookie, Value: raw})
		}
	}
}

// WithBearer forwards the raw session token in the Authorization header for
// backends that expect bearer auth.
func WithBearer(raw string) Option {
	return func(req *http.Request) {
		if raw != "" {
			req.Header.Set("Authorization", "Bearer "+raw)
		}
	}
}

// WithMeta stamps the originating client's IP and user agent on the request.
func WithMeta(m httpx.ForwardMeta) Option {
	return func(req *http.Request) {
		m.Apply(req)
	}
}

type baseClient struct {
	http   *http.Client
	base   string
	logger *zap.Logger
}

func (c *baseClient) url(path string) string {
	return strings.TrimRight(c.base, "/") + path
}

// doJSON issues a request and decodes a 2xx JSON reply into out (out may be
// nil when the body is irrelevant). Transport failures map to ErrUnavailable,
// non-2xx replies to *Error.
func (c *baseClient) doJSON(ctx context.Context, method, path string, body any, out any, opts ...Option) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream call failed",
			zap.String("method", method),
			zap.String("url", c.url(path)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		c.logger.Warn("upstream returned error",
			zap.String("method", method),
			zap.String("url", c.url(path)),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return nil
}

// readErrorMessage digs a human-readable message out of an error body. The
// backends disagree on the field name, so try the usual ones.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
