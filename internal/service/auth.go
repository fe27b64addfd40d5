package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/20bec4199/blissora/internal/auth"
	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/event"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// GoogleProvider is the slice of the OAuth provider the auth service needs.
type GoogleProvider interface {
	Enabled() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUserInfo, error)
}

// AuthService implements registration, login, and the session lifecycle.
// A user holds at most one session: the bcrypt hash of the current refresh
// token plus a store-side expiry, overwritten on every issuance.
type AuthService struct {
	userRepo      repository.UserRepository
	minter        *auth.TokenMinter
	google        GoogleProvider
	producer      *event.Producer
	sessionExpiry time.Duration
	logger        *slog.Logger
}

// NewAuthService creates a new auth service. sessionExpiry is the store-side
// session lifetime, deliberately shorter than the signed refresh lifetime so
// the stored expiry is the binding one.
func NewAuthService(
	userRepo repository.UserRepository,
	minter *auth.TokenMinter,
	google GoogleProvider,
	producer *event.Producer,
	sessionExpiry time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		minter:        minter,
		google:        google,
		producer:      producer,
		sessionExpiry: sessionExpiry,
		logger:        logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// normalizeEmail folds an email to its canonical stored form. Every path
// that stores or looks up an email goes through this, matching the
// case-insensitive unique index on the users table.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and starts a session. Registering as a
// seller puts the account into the pending approval queue.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleSeller {
		return nil, nil, apperrors.InvalidInput("role must be user or seller")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == domain.RoleSeller {
		user.SellerStatus = domain.SellerStatusPending
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", user.Role),
	)

	return user, tokens, nil
}

// Login authenticates with email and password and starts a session,
// superseding any previous one. The error never distinguishes an unknown
// email from a wrong password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, nil, apperrors.InvalidCredentials()
	}

	if !user.IsActive {
		return nil, nil, apperrors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.InvalidCredentials()
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// GoogleAuthURL returns the Google consent screen URL.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil || !s.google.Enabled() {
		return "", apperrors.InvalidInput("google sign-in is not configured")
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleLogin completes the authorization-code flow. The account is
// resolved by Google ID first, then by email (linking the Google ID to an
// existing account), and created fresh when neither matches.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*domain.User, *domain.TokenPair, error) {
	if s.google == nil || !s.google.Enabled() {
		return nil, nil, apperrors.InvalidInput("google sign-in is not configured")
	}

	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("google code exchange: %w", err)
	}

	user, err := s.userRepo.GetByGoogleID(ctx, info.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("get user by google id: %w", err)
		}
		user, err = s.resolveOrCreateGoogleUser(ctx, info)
		if err != nil {
			return nil, nil, err
		}
	}

	if !user.IsActive {
		return nil, nil, apperrors.InvalidCredentials()
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in via google",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

func (s *AuthService) resolveOrCreateGoogleUser(ctx context.Context, info *auth.GoogleUserInfo) (*domain.User, error) {
	email := normalizeEmail(info.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		// Link the Google account to the existing profile.
		user.GoogleID = info.ID
		if user.Avatar == "" {
			user.Avatar = info.Picture
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	// A Google-only account never gets a usable password; the random
	// placeholder hash can never verify.
	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	now := time.Now().UTC()
	user = &domain.User{
		ID:           uuid.New().String(),
		Name:         info.Name,
		Email:        email,
		PasswordHash: string(placeholder),
		Role:         domain.RoleUser,
		Avatar:       info.Picture,
		GoogleID:     info.ID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// Renew validates a refresh token against the stored session and, when it
// holds, rotates the session: a fresh token pair is minted and the stored
// hash and expiry are overwritten. Every renewal rotates, including profile
// reads.
//
// Outcomes: an empty token means the session cookie is gone (SessionExpired);
// a bad signature or unknown user is InvalidToken; a stored expiry in the
// past clears the session and returns SessionExpired; a hash mismatch clears
// the session and returns InvalidToken.
func (s *AuthService) Renew(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, apperrors.SessionExpired()
	}

	claims, err := s.minter.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, nil, apperrors.InvalidToken()
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(claims.Email))
	if err != nil {
		return nil, nil, apperrors.InvalidToken()
	}

	if user.HasSession() && time.Now().UTC().After(*user.RefreshTokenExpiresAt) {
		s.clearSession(ctx, user)
		return nil, nil, apperrors.SessionExpired()
	}

	if !user.HasSession() || !auth.CompareRefreshToken(*user.RefreshTokenHash, refreshToken) {
		s.clearSession(ctx, user)
		return nil, nil, apperrors.InvalidToken()
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Logout verifies the refresh token's signature, resolves the user by the
// email claim, and nulls the stored session. It deliberately skips the hash
// comparison the renewal path performs, so a stale but well-signed token
// still logs the session out.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.minter.ValidateRefresh(refreshToken)
	if err != nil {
		return apperrors.InvalidToken()
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(claims.Email))
	if err != nil {
		return apperrors.NotFound("user", claims.Email)
	}

	if err := s.userRepo.UpdateSession(ctx, user.ID, nil, nil); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", user.ID),
	)

	return nil
}

// GetUser returns a user's profile.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// startSession mints a fresh token pair and overwrites the stored session
// unconditionally. Concurrent renewals race last-write-wins; the loser's
// pair fails its next hash comparison.
func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, refresh, err := s.minter.Mint(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("mint token pair: %w", err)
	}

	hash, err := auth.HashRefreshToken(refresh)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.sessionExpiry)
	user.SetSession(hash, expiresAt)

	if err := s.userRepo.UpdateSession(ctx, user.ID, user.RefreshTokenHash, user.RefreshTokenExpiresAt); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// clearSession nulls the stored session, logging rather than failing the
// caller when persistence hiccups.
func (s *AuthService) clearSession(ctx context.Context, user *domain.User) {
	user.ClearSession()
	if err := s.userRepo.UpdateSession(ctx, user.ID, nil, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
