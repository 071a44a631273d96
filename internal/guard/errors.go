package guard

import "errors"

var (
	ErrNoToken   = errors.New("no session token")
	ErrExpired   = errors.New("session token expired")
	ErrMalformed = errors.New("session token malformed")
	ErrForbidden = errors.New("insufficient role")
)

// IsUnauthenticated folds the three token failure modes into the single
// outcome callers act on.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrExpired) || errors.Is(err, ErrMalformed)
}
