package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mehmetcc/agora/internal/admin"
	"github.com/mehmetcc/agora/internal/auth"
	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/course"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/server"
	"github.com/mehmetcc/agora/internal/token"
	"github.com/mehmetcc/agora/internal/upstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, backendURL string) http.Handler {
	t.Helper()
	cfg := &config.UpstreamConfig{
		UsersURL:   backendURL,
		CoursesURL: backendURL,
		SearchURL:  backendURL,
		Timeout:    2 * time.Second,
	}
	client := &http.Client{Timeout: 2 * time.Second}
	logger := zap.NewNop()

	g := guard.NewGuard(token.NewTokenService(logger, ""), logger)
	users := upstream.NewUsersClient(cfg, client, logger)
	courses := upstream.NewCoursesClient(cfg, client, logger)
	search := upstream.NewSearchClient(cfg, client, logger)

	return server.NewRouter(server.Handlers{
		Auth:    auth.NewAuthenticationHandler(users, g, &config.CookieConfig{}, logger),
		Courses: course.NewCourseHandler(courses, users, search, g, logger),
		Admin:   admin.NewAdminHandler(courses, g, logger),
	}, g, logger)
}

func makeToken(t *testing.T, expiresIn time.Duration, isAdmin bool) string {
	t.Helper()
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, &token.Claims{
		UserID: 42,
		Admin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	})
	raw, err := tkn.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestRouter_GateIsWired(t *testing.T) {
	router := newRouter(t, "http://backend.invalid")

	t.Run("root redirects to home", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		require.Equal(t, "/home", rec.Header().Get("Location"))
	})

	t.Run("protected page redirects to login without a session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/myCourses", nil))
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		require.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("authenticated user is bounced off the login page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{Name: guard.SessionCookie, Value: makeToken(t, time.Hour, false)})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		require.Equal(t, "/home", rec.Header().Get("Location"))
	})
}

func TestRouter_APIThroughTheGate(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": 1}}})
		case "/course":
			json.NewEncoder(w).Encode(map[string]any{"id": 7})
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	router := newRouter(t, backend.URL)

	t.Run("catalog is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses?name=go", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Courses fetched")
	})

	t.Run("course creation still checks the role inside the handler", func(t *testing.T) {
		body := `{"courseName":"Go","courseDescription":"d","courseCategory":"tech","courseDuration":5}`

		req := httptest.NewRequest(http.MethodPost, "/api/courses", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: guard.SessionCookie, Value: makeToken(t, time.Hour, false)})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/api/courses", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: guard.SessionCookie, Value: makeToken(t, time.Hour, true)})
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_LoginRateLimit(t *testing.T) {
	router := newRouter(t, "http://backend.invalid")

	limited := false
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"x","password":"y"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	require.True(t, limited, "expected the credential endpoint to rate limit")

	// the session poll shares the client's IP but must stay unthrottled even
	// after the credential limiter has tripped
	for i := 0; i < 30; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
