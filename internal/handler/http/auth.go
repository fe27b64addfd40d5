package http

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/20bec4199/blissora/internal/service"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/httputil"
	"github.com/20bec4199/blissora/pkg/middleware"
	"github.com/20bec4199/blissora/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service   *service.AuthService
	cookies   CookieConfig
	clientURL string
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookies CookieConfig, clientURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, clientURL: clientURL, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user seller"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse wraps the user profile returned by auth endpoints. Tokens
// travel in cookies, and the access token is duplicated in the body for
// non-browser clients.
type AuthResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setAuthCookies(w, h.cookies, tokens)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setAuthCookies(w, h.cookies, tokens)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// GoogleRedirect handles GET /api/v1/auth/google. It parks a random state
// value in a short-lived cookie and sends the browser to Google.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state := randomState()

	authURL, err := h.service.GoogleAuthURL(state)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/v1/auth/google/callback. Success and
// failure both end in a redirect to the frontend, never a JSON page the
// user would be stranded on.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		h.redirectError(w, r, "invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "authorization was denied")
		return
	}

	_, tokens, err := h.service.GoogleLogin(r.Context(), code)
	if err != nil {
		h.logger.WarnContext(r.Context(), "google login failed",
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "google sign-in failed")
		return
	}

	setAuthCookies(w, h.cookies, tokens)
	http.Redirect(w, r, h.clientURL+"/auth/success", http.StatusTemporaryRedirect)
}

// Refresh handles POST /api/v1/auth/refresh. Every successful renewal
// rotates the whole pair; the old refresh token is dead the moment the
// response is written.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, RefreshCookieName)

	user, tokens, err := h.service.Renew(r.Context(), refreshToken)
	if err != nil {
		clearAuthCookies(w, h.cookies)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setAuthCookies(w, h.cookies, tokens)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// Me handles GET /api/v1/auth/me. The profile read doubles as a session
// renewal: a valid refresh cookie yields a fresh pair alongside the user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, RefreshCookieName)

	user, tokens, err := h.service.Renew(r.Context(), refreshToken)
	if err != nil {
		clearAuthCookies(w, h.cookies)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setAuthCookies(w, h.cookies, tokens)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{User: user, AccessToken: tokens.AccessToken},
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, RefreshCookieName)
	if refreshToken == "" {
		clearAuthCookies(w, h.cookies)
		httputil.WriteError(w, r, apperrors.Unauthorized("no active session"), h.logger)
		return
	}

	if err := h.service.Logout(r.Context(), refreshToken); err != nil {
		clearAuthCookies(w, h.cookies)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	clearAuthCookies(w, h.cookies)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "logged out"},
	})
}

// Profile handles GET /api/v1/users/me. Unlike Me it authenticates with
// the access token and does not rotate the session.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, h.clientURL+"/auth/error?message="+url.QueryEscape(message), http.StatusTemporaryRedirect)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
