package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the canonical shape of the session token minted by the users
// service. The role flag lives in `admin`, the subject in `user_id`.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Live reports whether the token is still usable at the given instant.
// A token without an expiry claim is never live.
func (c *Claims) Live(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.UnixMilli() > now.UnixMilli()
}
