package gate

import (
	"net/http"

	"github.com/mehmetcc/agora/internal/guard"
	"go.uber.org/zap"
)

// Middleware is the edge gate: it inspects every inbound request before any
// handler and either passes it through or redirects. Rules run in a fixed
// order and the first hit wins, so an authenticated user on /login is always
// bounced away before the protection rule could ever send them back to /login.
func Middleware(g guard.Guard, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if bypassed(path) {
				next.ServeHTTP(w, r)
				return
			}

			authenticated := g.Authenticated(r)
			class := classify(path)

			// rule 1: already logged in, keep away from login/register
			if authenticated && class == classPublicAuth {
				target := r.URL.Query().Get("redirect")
				if target == "" {
					target = RouteHome
				}
				redirect(w, r, target)
				return
			}

			// rule 2: bare root always lands on home
			if path == RouteRoot {
				redirect(w, r, RouteHome)
				return
			}

			// rule 3: protected pages require a live session
			if !authenticated && (class == classProtected || class == classProtectedAdmin) {
				logger.Debug("unauthenticated request to protected route", zap.String("path", path))
				redirect(w, r, RouteLogin)
				return
			}

			// rule 4: admin pages additionally require the role flag
			if class == classProtectedAdmin {
				claims, err := g.Identity(r)
				if err != nil || g.RequireAdmin(claims) != nil {
					redirect(w, r, RouteHome)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
