package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/httpx"
	"github.com/mehmetcc/agora/internal/upstream"
	"go.uber.org/zap"
)

type AuthenticationHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Routes() chi.Router
}

type authenticationHandler struct {
	logger    *zap.Logger
	users     upstream.Users
	guard     guard.Guard
	cookies   *config.CookieConfig
	validator *validator.Validate
}

func NewAuthenticationHandler(users upstream.Users, g guard.Guard, cookies *config.CookieConfig, l *zap.Logger) AuthenticationHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &authenticationHandler{
		logger:    l,
		users:     users,
		guard:     g,
		cookies:   cookies,
		validator: v,
	}
}

func (a *authenticationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		// the credential endpoints are the brute-force surface; /user is
		// polled by the UI and must never trip the limiter
		r.Use(httprate.LimitByIP(20, time.Minute))
		r.Post("/login", a.Login)
		r.Post("/register", a.Register)
	})
	r.Get("/logout", a.Logout)
	r.Get("/user", a.Me)
	return r
}

func (a *authenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	result, err := a.users.Login(r.Context(), req.Email, req.Password, httpx.MetaFromRequest(r))
	if err != nil {
		if status := upstream.StatusOf(err); status >= 400 && status < 500 {
			a.logger.Debug("login rejected upstream", zap.Int("status", status))
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
				Code:    httpx.ErrUnauthorized,
				Message: ErrInvalidCredentials.Error(),
			})
			return
		}
		a.logger.Error("login call failed", zap.Error(err))
		httpx.WriteError(w, http.StatusBadGateway, httpx.ErrorResponse[any]{
			Code:    httpx.ErrBadGateway,
			Message: "identity service unavailable",
		})
		return
	}

	setSessionCookie(w, a.cookies, result.Token)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Message: "Logged In.",
		User:    result.User,
	})
}

func (a *authenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	err := a.users.Register(r.Context(), upstream.RegisterRequest{
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		UserType:     req.UserType,
	})
	if err != nil {
		var ue *upstream.Error
		if errors.As(err, &ue) {
			a.logger.Debug("registration rejected upstream", zap.Int("status", ue.Status))
			httpx.WriteError(w, ue.Status, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: ue.Message,
			})
			return
		}
		a.logger.Error("register call failed", zap.Error(err))
		httpx.WriteError(w, http.StatusBadGateway, httpx.ErrorResponse[any]{
			Code:    httpx.ErrBadGateway,
			Message: "identity service unavailable",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Created."})
}

func (a *authenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, a.cookies)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me resolves the caller's profile from the session cookie. An absent or dead
// session is not an error here: the client polls this endpoint to decide
// whether to show the login screen.
func (a *authenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := a.guard.Identity(r)
	if err != nil {
		httpx.WriteJSON(w, http.StatusOK, meResponse{
			Message:     "Not authenticated.",
			ShouldLogin: true,
		})
		return
	}

	profile, err := a.users.Profile(r.Context(), claims.UserID, a.guard.RawToken(r))
	if err != nil {
		a.logger.Warn("profile fetch failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		httpx.WriteJSON(w, http.StatusOK, meResponse{
			Message:     "Not authenticated.",
			ShouldLogin: true,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{Message: "OK", User: profile})
}

/** common checks shared by the body-carrying endpoints **/
func (a *authenticationHandler) decodeBody(w http.ResponseWriter, r *http.Request, req any) bool {
	return httpx.DecodeBody(w, r, a.validator, a.logger, req)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email        string `json:"email"         validate:"required,email"`
	PasswordHash string `json:"password_hash" validate:"required"`
	Username     string `json:"username"      validate:"required,min=3,max=32"`
	FirstName    string `json:"first_name"    validate:"required,max=64"`
	LastName     string `json:"last_name"     validate:"required,max=64"`
	UserType     string `json:"user_type"     validate:"omitempty,oneof=student instructor"`
}

type loginResponse struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type meResponse struct {
	Message     string          `json:"message"`
	ShouldLogin bool            `json:"shouldLogin,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}
