package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims carried by both access and refresh
// tokens. The two tokens share one claim shape and differ only in the
// signing secret and expiry.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenMinter signs and validates the access/refresh token pair. Access
// and refresh tokens use independent HMAC secrets so a leaked access
// secret cannot forge refresh tokens.
type TokenMinter struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenMinter creates a token minter with the given secrets and expiry durations.
func NewTokenMinter(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenMinter {
	return &TokenMinter{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Mint creates a fresh access/refresh token pair for the given user.
func (m *TokenMinter) Mint(userID, name, email, role string) (access, refresh string, err error) {
	access, err = m.sign(userID, name, email, role, m.accessSecret, m.accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refresh, err = m.sign(userID, name, email, role, m.refreshSecret, m.refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	return access, refresh, nil
}

func (m *TokenMinter) sign(userID, name, email, role string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// A fresh jti makes every mint distinct even within the same
			// second, so rotation always invalidates the prior token.
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    "blissora",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccess parses and validates an access token, returning the claims.
func (m *TokenMinter) ValidateAccess(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.accessSecret, "access")
}

// ValidateRefresh parses and validates a refresh token, returning the claims.
func (m *TokenMinter) ValidateRefresh(tokenString string) (*Claims, error) {
	return m.validate(tokenString, m.refreshSecret, "refresh")
}

func (m *TokenMinter) validate(tokenString string, secret []byte, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", kind, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid %s token claims", kind)
	}

	return claims, nil
}
