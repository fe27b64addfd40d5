package domain

import (
	"time"
)

// User role constants.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Seller status constants. Only relevant for users with RoleSeller.
const (
	SellerStatusPending   = "pending"
	SellerStatusApproved  = "approved"
	SellerStatusSuspended = "suspended"
)

// User represents a registered user in the system. At most one session is
// active per user: RefreshTokenHash and RefreshTokenExpiresAt are set together
// on login/refresh and nulled together on logout or invalidation.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	GoogleID     string `json:"-"`
	SellerStatus string `json:"seller_status,omitempty"`
	IsActive     bool   `json:"is_active"`

	RefreshTokenHash      *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSession reports whether the user has a stored session.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != nil && u.RefreshTokenExpiresAt != nil
}

// ClearSession nulls the stored session fields.
func (u *User) ClearSession() {
	u.RefreshTokenHash = nil
	u.RefreshTokenExpiresAt = nil
}

// SetSession stores a new session hash and expiry, superseding any previous
// session unconditionally.
func (u *User) SetSession(hash string, expiresAt time.Time) {
	u.RefreshTokenHash = &hash
	u.RefreshTokenExpiresAt = &expiresAt
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleSeller, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
