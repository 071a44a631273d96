package guard

import (
	"net/http"
	"time"

	"github.com/mehmetcc/agora/internal/token"
	"go.uber.org/zap"
)

// SessionCookie is the cookie the session token travels in.
const SessionCookie = "token"

// Guard re-derives identity from the session cookie on every call. Nothing is
// cached between requests, so a role change or a cleared cookie takes effect
// on the next request.
type Guard interface {
	// Identity reads the session cookie and returns the decoded claims.
	// Returns ErrNoToken, ErrMalformed or ErrExpired otherwise.
	Identity(r *http.Request) (*token.Claims, error)
	// RequireAdmin returns ErrForbidden unless the role flag is set.
	RequireAdmin(claims *token.Claims) error
	// Authenticated reports whether the request carries a live token.
	Authenticated(r *http.Request) bool
	// RawToken returns the cookie value without decoding it, empty if absent.
	RawToken(r *http.Request) string
}

type guardService struct {
	logger *zap.Logger
	tokens token.TokenService
	now    func() time.Time
}

func NewGuard(tokens token.TokenService, logger *zap.Logger) Guard {
	return &guardService{
		logger: logger,
		tokens: tokens,
		now:    time.Now,
	}
}

func (g *guardService) Identity(r *http.Request) (*token.Claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoToken
	}

	claims, err := g.tokens.Decode(cookie.Value)
	if err != nil {
		g.logger.Debug("undecodable session token", zap.Error(err))
		return nil, ErrMalformed
	}

	if !claims.Live(g.now()) {
		return nil, ErrExpired
	}
	return claims, nil
}

func (g *guardService) RequireAdmin(claims *token.Claims) error {
	if claims == nil || !claims.Admin {
		return ErrForbidden
	}
	return nil
}

func (g *guardService) Authenticated(r *http.Request) bool {
	_, err := g.Identity(r)
	return err == nil
}

func (g *guardService) RawToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
