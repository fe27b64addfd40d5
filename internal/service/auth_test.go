package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20bec4199/blissora/internal/auth"
	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/event"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type authFixture struct {
	svc       *AuthService
	users     *fakeUserRepo
	publisher *fakePublisher
	google    *fakeGoogle
	minter    *auth.TokenMinter
}

func newAuthFixture(t *testing.T, sessionExpiry time.Duration) *authFixture {
	t.Helper()
	users := newFakeUserRepo()
	publisher := &fakePublisher{}
	google := &fakeGoogle{enabled: true}
	minter := auth.NewTokenMinter("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 55*time.Minute)
	producer := event.NewProducer(publisher, discardLogger())
	svc := NewAuthService(users, minter, google, producer, sessionExpiry, discardLogger())
	return &authFixture{svc: svc, users: users, publisher: publisher, google: google, minter: minter}
}

func (f *authFixture) register(t *testing.T) (*domain.User, *domain.TokenPair) {
	t.Helper()
	user, tokens, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user, tokens
}

func TestRegister_StartsSessionAndPublishesEvent(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	user, tokens := f.register(t)

	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	stored := f.users.stored(user.ID)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.True(t, auth.CompareRefreshToken(*stored.RefreshTokenHash, tokens.RefreshToken),
		"stored hash matches the issued refresh token")
	assert.NotEqual(t, tokens.RefreshToken, *stored.RefreshTokenHash, "raw token is never stored")

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TopicUserRegistered, events[0].EventType)
}

func TestRegister_SellerStartsPending(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Shop Owner",
		Email:    "shop@example.com",
		Password: "correct-horse",
		Role:     domain.RoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SellerStatusPending, user.SellerStatus)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "correct-horse",
		Role:     domain.RoleAdmin,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRegister_EventFailureDoesNotFailRegistration(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.publisher.err = errors.New("broker down")

	_, tokens, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinct(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.register(t)

	_, _, errWrongPassword := f.svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	_, _, errUnknownEmail := f.svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownEmail)
	assert.True(t, errors.Is(errWrongPassword, apperrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(errUnknownEmail, apperrors.ErrInvalidCredentials))
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error(),
		"login failures never reveal whether the account exists")
}

func TestLogin_SupersedesPreviousSession(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, first := f.register(t)

	_, second, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	stored := f.users.stored(user.ID)
	assert.True(t, auth.CompareRefreshToken(*stored.RefreshTokenHash, second.RefreshToken))
	assert.False(t, auth.CompareRefreshToken(*stored.RefreshTokenHash, first.RefreshToken),
		"old session's token no longer matches")

	// The superseded token still carries a valid signature but fails renewal.
	_, _, err = f.svc.Renew(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

func TestLogin_BackToBackLoginsRotate(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.register(t)

	// Two logins land within the same wall-clock second, so iat/exp are
	// identical; the pairs must still be distinct and only the latest one
	// renewable.
	login := func() *domain.TokenPair {
		_, tokens, err := f.svc.Login(context.Background(), LoginInput{
			Email:    "jane@example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		return tokens
	}
	first := login()
	second := login()

	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, _, err := f.svc.Renew(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))

	_, renewed, err := f.svc.Renew(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.RefreshToken)
}

func TestRegisterThenLogin_SameAccount(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	registered, _ := f.register(t)

	loggedIn, tokens, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestRegister_DuplicateEmailLeavesExistingAccount(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	original, _ := f.register(t)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		Email:    "jane@example.com",
		Password: "different-password",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	// The existing account is untouched: same name, and the original
	// password still logs in.
	stored := f.users.stored(original.ID)
	assert.Equal(t, "Jane Doe", stored.Name)
	_, _, err = f.svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	assert.NoError(t, err)
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Doe",
		Email:    "Jane@Example.COM",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email, "email is stored lower-cased")

	_, _, err = f.svc.Login(context.Background(), LoginInput{
		Email:    "  JANE@example.com ",
		Password: "correct-horse",
	})
	assert.NoError(t, err, "login matches regardless of case and padding")

	_, _, err = f.svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Again",
		Email:    "jane@EXAMPLE.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists),
		"case variants of a taken email are duplicates")
}

// --- Renew state machine ---

func TestRenew_MissingToken(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	_, _, err := f.svc.Renew(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSessionExpired))
}

func TestRenew_BadSignature(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.register(t)

	other := auth.NewTokenMinter("wrong-access", "wrong-refresh", 15*time.Minute, 55*time.Minute)
	_, forged, err := other.Mint("x", "X", "jane@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, _, err = f.svc.Renew(context.Background(), forged)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

func TestRenew_UnknownUser(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	// Well-signed token for an email with no account behind it.
	_, refresh, err := f.minter.Mint("ghost", "Ghost", "ghost@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, _, err = f.svc.Renew(context.Background(), refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

func TestRenew_StoreExpiryPassedClearsSession(t *testing.T) {
	// Store expiry in the past while the signed token is still valid: the
	// stored expiry is the binding one.
	f := newAuthFixture(t, -time.Minute)
	user, tokens := f.register(t)

	_, _, err := f.svc.Renew(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSessionExpired))

	stored := f.users.stored(user.ID)
	assert.Nil(t, stored.RefreshTokenHash, "session cleared on expiry")
	assert.Nil(t, stored.RefreshTokenExpiresAt)
}

func TestRenew_HashMismatchClearsSession(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, _ := f.register(t)

	// A token signed with the right secret for the right user, but not the
	// one whose hash is stored.
	_, stray, err := f.minter.Mint(user.ID, user.Name, user.Email, user.Role)
	require.NoError(t, err)

	_, _, err = f.svc.Renew(context.Background(), stray)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))

	stored := f.users.stored(user.ID)
	assert.Nil(t, stored.RefreshTokenHash, "session cleared on mismatch")
}

func TestRenew_NoStoredSession(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, tokens := f.register(t)

	require.NoError(t, f.svc.Logout(context.Background(), tokens.RefreshToken))

	_, _, err := f.svc.Renew(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
	assert.Nil(t, f.users.stored(user.ID).RefreshTokenHash)
}

func TestRenew_RotatesOnEverySuccess(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, tokens := f.register(t)

	renewedUser, next, err := f.svc.Renew(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, renewedUser.ID)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken, "refresh token rotates")
	assert.NotEqual(t, tokens.AccessToken, next.AccessToken)

	stored := f.users.stored(user.ID)
	assert.True(t, auth.CompareRefreshToken(*stored.RefreshTokenHash, next.RefreshToken))

	// The replaced token is dead immediately.
	_, _, err = f.svc.Renew(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))

	// The new one chains onward.
	_, third, err := f.svc.Renew(context.Background(), next.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, next.RefreshToken, third.RefreshToken)
}

// --- Logout ---

func TestLogout_ClearsSession(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, tokens := f.register(t)

	require.NoError(t, f.svc.Logout(context.Background(), tokens.RefreshToken))

	stored := f.users.stored(user.ID)
	assert.Nil(t, stored.RefreshTokenHash)
	assert.Nil(t, stored.RefreshTokenExpiresAt)
}

func TestLogout_UnknownUser(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)

	_, refresh, err := f.minter.Mint("ghost", "Ghost", "ghost@example.com", domain.RoleUser)
	require.NoError(t, err)

	err = f.svc.Logout(context.Background(), refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// Logout skips the hash comparison the renewal path performs: any
// well-signed token for the account ends the session, even one that was
// already superseded. Characterizes the intentionally weaker check.
func TestLogout_AcceptsSupersededToken(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, first := f.register(t)

	// Rotate so the first token no longer matches the stored hash.
	_, _, err := f.svc.Renew(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	err = f.svc.Logout(context.Background(), first.RefreshToken)
	require.NoError(t, err, "superseded token still logs out")
	assert.Nil(t, f.users.stored(user.ID).RefreshTokenHash)
}

// --- Google ---

func TestGoogleLogin_CreatesAccount(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.google.info = &auth.GoogleUserInfo{ID: "g-1", Email: "new@example.com", Name: "New User", Picture: "p.jpg"}

	user, tokens, err := f.svc.GoogleLogin(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", user.GoogleID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, tokens.RefreshToken)

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.TopicUserRegistered, events[0].EventType)
}

func TestGoogleLogin_LinksExistingAccountByEmail(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	user, _ := f.register(t)
	f.google.info = &auth.GoogleUserInfo{ID: "g-1", Email: user.Email, Name: user.Name}

	linked, _, err := f.svc.GoogleLogin(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID, "resolved the existing account")
	assert.Equal(t, "g-1", f.users.stored(user.ID).GoogleID, "google id linked")

	// No duplicate registration event for an existing account.
	assert.Len(t, f.publisher.published(), 1)
}

func TestGoogleLogin_ResolvesByGoogleIDFirst(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.google.info = &auth.GoogleUserInfo{ID: "g-1", Email: "new@example.com", Name: "New User"}

	first, _, err := f.svc.GoogleLogin(context.Background(), "code")
	require.NoError(t, err)

	// Same Google ID, changed email: still the same account.
	f.google.info = &auth.GoogleUserInfo{ID: "g-1", Email: "renamed@example.com", Name: "New User"}
	second, _, err := f.svc.GoogleLogin(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGoogleLogin_ExchangeFailure(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.google.err = errors.New("token endpoint rejected code")

	_, _, err := f.svc.GoogleLogin(context.Background(), "bad-code")
	require.Error(t, err)
}

func TestGoogleAuthURL_Disabled(t *testing.T) {
	f := newAuthFixture(t, 30*time.Minute)
	f.google.enabled = false

	_, err := f.svc.GoogleAuthURL("state")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
