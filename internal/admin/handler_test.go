package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mehmetcc/agora/internal/admin"
	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/token"
	"github.com/mehmetcc/agora/internal/upstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, backendURL string) admin.AdminHandler {
	t.Helper()
	cfg := &config.UpstreamConfig{CoursesURL: backendURL, Timeout: 2 * time.Second}
	logger := zap.NewNop()
	g := guard.NewGuard(token.NewTokenService(logger, ""), logger)
	courses := upstream.NewCoursesClient(cfg, &http.Client{Timeout: 2 * time.Second}, logger)
	return admin.NewAdminHandler(courses, g, logger)
}

func makeToken(t *testing.T, admin bool) string {
	t.Helper()
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, &token.Claims{
		UserID: 42,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := tkn.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func doRequest(h admin.AdminHandler, method, target, body, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: guard.SessionCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestContainers(t *testing.T) {
	t.Run("admin sees the listing", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/containers", r.URL.Path)

			cookie, err := r.Cookie(guard.SessionCookie)
			require.NoError(t, err)
			require.NotEmpty(t, cookie.Value)

			json.NewEncoder(w).Encode([]map[string]any{{"name": "courses-api", "state": "running"}})
		}))
		defer backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodGet, "/containers", "", makeToken(t, true))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "courses-api")
	})

	t.Run("regular user is refused before any upstream call", func(t *testing.T) {
		called := false
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodGet, "/containers", "", makeToken(t, false))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.False(t, called)
	})

	t.Run("no session is 401", func(t *testing.T) {
		h := newHandler(t, "http://courses-api.invalid")
		rec := doRequest(h, http.MethodGet, "/containers", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServices(t *testing.T) {
	t.Run("listing is forwarded for admins", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/services", r.URL.Path)
			require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
			json.NewEncoder(w).Encode([]map[string]any{{"service": "search-api"}})
		}))
		defer backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodGet, "/services", "", makeToken(t, true))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "search-api")
	})

	t.Run("instance creation passes the body through", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "courses-api", body["service"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
		}))
		defer backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodPost, "/services", `{"service":"courses-api"}`, makeToken(t, true))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid body is rejected before forwarding", func(t *testing.T) {
		called := false
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodPost, "/services", `{not json`, makeToken(t, true))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.False(t, called)
	})

	t.Run("upstream outage maps to 502", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		backend.Close()

		h := newHandler(t, backend.URL)
		rec := doRequest(h, http.MethodGet, "/services", "", makeToken(t, true))
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
