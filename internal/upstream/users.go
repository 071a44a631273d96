package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/httpx"
	"go.uber.org/zap"
)

// Users talks to the identity backend: credentials, profiles and the
// user-scoped course endpoints it hosts.
type Users interface {
	Login(ctx context.Context, email, password string, meta httpx.ForwardMeta) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
	Profile(ctx context.Context, userID int64, rawToken string) (json.RawMessage, error)
	CoursesOf(ctx context.Context, userID int64, rawToken string) (json.RawMessage, error)
	Comment(ctx context.Context, req CommentRequest, rawToken string) (json.RawMessage, error)
	Upload(ctx context.Context, courseID string, contentType string, body io.Reader, rawToken string) (json.RawMessage, error)
}

// LoginResult carries the minted session token plus the backend's full login
// payload, which is relayed to the browser untouched.
type LoginResult struct {
	Token string
	User  json.RawMessage
}

type RegisterRequest struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Username     string `json:"username"`
	FirstName    string `json:"name"`
	LastName     string `json:"last_name"`
	UserType     string `json:"usertype"`
}

type CommentRequest struct {
	CourseID int64  `json:"course_id"`
	UserID   int64  `json:"user_id"`
	Comment  string `json:"comment"`
}

type usersClient struct {
	baseClient
}

func NewUsersClient(cfg *config.UpstreamConfig, httpClient *http.Client, logger *zap.Logger) Users {
	return &usersClient{baseClient{
		http:   httpClient,
		base:   cfg.UsersURL,
		logger: logger,
	}}
}

// Login exchanges credentials for a session token. The client's IP and agent
// travel along so the identity service logs the real origin.
func (u *usersClient) Login(ctx context.Context, email, password string, meta httpx.ForwardMeta) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var raw json.RawMessage
	if err := u.doJSON(ctx, http.MethodPost, "/user/login", body, &raw, WithMeta(meta)); err != nil {
		return nil, err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Token == "" {
		u.logger.Error("login response missing token")
		return nil, fmt.Errorf("%w: login response missing token", ErrUnavailable)
	}

	return &LoginResult{Token: payload.Token, User: raw}, nil
}

func (u *usersClient) Register(ctx context.Context, req RegisterRequest) error {
	return u.doJSON(ctx, http.MethodPost, "/user/register", req, nil)
}

func (u *usersClient) Profile(ctx context.Context, userID int64, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := u.doJSON(ctx, http.MethodGet, fmt.Sprintf("/user/%d", userID), nil, &raw, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (u *usersClient) CoursesOf(ctx context.Context, userID int64, rawToken string) (json.RawMessage, error) {
	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	err := u.doJSON(ctx, http.MethodGet, fmt.Sprintf("/user/courses/%d", userID), nil, &payload, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (u *usersClient) Comment(ctx context.Context, req CommentRequest, rawToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := u.doJSON(ctx, http.MethodPost, "/comments", req, &raw, WithCookie(rawToken))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Upload streams a multipart body through to the backend's resource endpoint
// without buffering or re-encoding it.
func (u *usersClient) Upload(ctx context.Context, courseID string, contentType string, body io.Reader, rawToken string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url("/upload/"+courseID), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	WithCookie(rawToken)(req)

	resp, err := u.http.Do(req)
	if err != nil {
		u.logger.Warn("upload failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: upload response is not JSON", ErrUnavailable)
	}
	return json.RawMessage(raw), nil
}
