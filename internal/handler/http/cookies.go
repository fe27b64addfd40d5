package http

import (
	"net/http"
	"time"

	"github.com/20bec4199/blissora/internal/domain"
)

// Cookie names for the browser token pair.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	oauthStateCookieName = "oauthState"
	oauthStateMaxAge     = 10 * time.Minute
)

// CookieConfig controls how the token cookies are written.
type CookieConfig struct {
	// Secure marks cookies Secure. Enabled in production only so local
	// development over plain HTTP keeps working.
	Secure bool

	// AccessMaxAge and RefreshMaxAge are the cookie lifetimes. The refresh
	// cookie outlives the stored session slightly so an expired session
	// still presents its token and gets a clean SESSION_EXPIRED answer
	// instead of a silent missing-cookie 401.
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// setAuthCookies writes the token pair. The two cookies always travel
// together; callers must never set one without the other.
func setAuthCookies(w http.ResponseWriter, cfg CookieConfig, tokens *domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
