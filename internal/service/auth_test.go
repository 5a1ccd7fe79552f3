package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/FinanceGo/internal/auth"
	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/event"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
	pkgkafka "github.com/utafrali/FinanceGo/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetValidByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) ListActiveForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *mockRefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock Blacklist Repository ---

type mockBlacklistRepository struct {
	mock.Mock
}

func (m *mockBlacklistRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

func (m *mockBlacklistRepository) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlacklistRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(
		"access-secret-for-tests",
		"refresh-secret-for-tests",
		"finance-api",
		"finance-api-users",
		15*time.Minute,
		168*time.Hour,
	)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestAuthService(
	userRepo *mockUserRepository,
	refreshRepo *mockRefreshTokenRepository,
	blacklist *mockBlacklistRepository,
) *AuthService {
	return NewAuthService(userRepo, refreshRepo, blacklist, newTestTokenManager(), newTestEventProducer(), newTestLogger())
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func sampleUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "u-1234",
		Email:        "alice@example.com",
		PasswordHash: hashForTest("Sup3rSecret"),
		Name:         "Alice Smith",
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "bob@example.com" && u.Name == "Bob" && u.PasswordHash != "Sup3rSecret"
	})).Return(nil)
	refreshRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	user, pair, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "Sup3rSecret",
		Name:     "Bob",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.DefaultPreferences(), user.Preferences)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The stored record carries the SHA-256 digest, never the raw token.
	stored := refreshRepo.Calls[0].Arguments.Get(1).(*domain.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)
	assert.WithinDuration(t, pair.RefreshExpiresAt, stored.ExpiresAt, time.Second)

	userRepo.AssertExpectations(t)
	refreshRepo.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "alllowercase1",
		Name:     "Bob",
	})

	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	userRepo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "bob@example.com"))

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "Sup3rSecret",
		Name:     "Bob",
	})

	require.Error(t, err)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	refreshRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == u.ID && rt.DeviceInfo == "Mozilla/5.0" && rt.IPAddress == "203.0.113.7"
	})).Return(nil)

	user, pair, err := svc.Login(context.Background(), LoginInput{
		Email:      u.Email,
		Password:   "Sup3rSecret",
		DeviceInfo: "Mozilla/5.0",
		IPAddress:  "203.0.113.7",
	})

	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	refreshRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(sampleUser(), nil)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_UnknownEmail_SameMessage(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})

	// Unknown address and wrong password are indistinguishable.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

// loginPair runs a real login against the mocks and returns the issued pair
// plus the stored token hash, for driving rotation scenarios.
func loginPair(t *testing.T, svc *AuthService, userRepo *mockUserRepository, refreshRepo *mockRefreshTokenRepository, u *domain.User) (*domain.TokenPair, string) {
	t.Helper()
	userRepo.On("GetByEmail", mock.Anything, u.Email).Return(u, nil).Once()
	refreshRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	pair, err := func() (*domain.TokenPair, error) {
		_, p, err := svc.Login(context.Background(), LoginInput{Email: u.Email, Password: "Sup3rSecret"})
		return p, err
	}()
	require.NoError(t, err)

	stored := refreshRepo.Calls[len(refreshRepo.Calls)-1].Arguments.Get(1).(*domain.RefreshToken)
	return pair, stored.TokenHash
}

func TestRefresh_RotatesTokens(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)

	refreshRepo.On("GetValidByHash", mock.Anything, tokenHash).Return(&domain.RefreshToken{
		ID:        "rt-1",
		UserID:    u.ID,
		TokenHash: tokenHash,
		ExpiresAt: pair.RefreshExpiresAt,
	}, nil)
	refreshRepo.On("Revoke", mock.Anything, tokenHash).Return(nil)
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	refreshRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	newPair, err := svc.Refresh(context.Background(), pair.RefreshToken, "", "")

	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)
	refreshRepo.AssertCalled(t, "Revoke", mock.Anything, tokenHash)
}

func TestRefresh_ReplayedToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)

	// The row was already rotated away: the JWT still verifies but the
	// store says no.
	refreshRepo.On("GetValidByHash", mock.Anything, tokenHash).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Refresh(context.Background(), pair.RefreshToken, "", "")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "invalid or expired token")
}

func TestRefresh_ConcurrentRotationLoses(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)

	// The read raced ahead of a concurrent rotation, but the guarded
	// revoke affects no rows and settles who won.
	refreshRepo.On("GetValidByHash", mock.Anything, tokenHash).Return(&domain.RefreshToken{
		ID:        "rt-1",
		UserID:    u.ID,
		TokenHash: tokenHash,
		ExpiresAt: pair.RefreshExpiresAt,
	}, nil)
	refreshRepo.On("Revoke", mock.Anything, tokenHash).Return(apperrors.ErrNotFound)

	_, err := svc.Refresh(context.Background(), pair.RefreshToken, "", "")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, u.ID)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	_, err := svc.Refresh(context.Background(), "not-a-jwt", "", "")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	pair, _ := loginPair(t, svc, userRepo, refreshRepo, sampleUser())

	// An access token presented as a refresh token must not rotate.
	_, err := svc.Refresh(context.Background(), pair.AccessToken, "", "")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogout_RevokesAndBlacklists(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)

	refreshRepo.On("Revoke", mock.Anything, tokenHash).Return(nil)
	blacklist.On("Add", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	err := svc.Logout(context.Background(), u.ID, pair.AccessToken, pair.RefreshToken)

	require.NoError(t, err)
	refreshRepo.AssertCalled(t, "Revoke", mock.Anything, tokenHash)

	// The blacklist entry carries the access token's own expiry.
	addCall := blacklist.Calls[0]
	expiresAt := addCall.Arguments.Get(2).(time.Time)
	assert.WithinDuration(t, pair.AccessExpiresAt, expiresAt, time.Second)
}

func TestLogout_Idempotent(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)

	// Already revoked by a previous logout.
	refreshRepo.On("Revoke", mock.Anything, tokenHash).Return(apperrors.ErrNotFound)
	blacklist.On("Add", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.Logout(context.Background(), u.ID, pair.AccessToken, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout_LegacyAccessTokenWithoutJTI(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, tokenHash := loginPair(t, svc, userRepo, refreshRepo, u)
	refreshRepo.On("Revoke", mock.Anything, tokenHash).Return(nil)

	// No access token at all: nothing to blacklist, logout still succeeds.
	err := svc.Logout(context.Background(), u.ID, "", pair.RefreshToken)

	require.NoError(t, err)
	blacklist.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogoutAll(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, _ := loginPair(t, svc, userRepo, refreshRepo, u)

	refreshRepo.On("RevokeAllForUser", mock.Anything, u.ID).Return(nil)
	blacklist.On("Add", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.LogoutAll(context.Background(), u.ID, pair.AccessToken)

	require.NoError(t, err)
	refreshRepo.AssertCalled(t, "RevokeAllForUser", mock.Anything, u.ID)
	blacklist.AssertCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestAuthenticate_Valid(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, _ := loginPair(t, svc, userRepo, refreshRepo, u)

	blacklist.On("IsBlacklisted", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)

	user, claims, err := svc.Authenticate(context.Background(), pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Name, user.Name)
	assert.Equal(t, u.Preferences, user.Preferences)
	blacklist.AssertExpectations(t)
	userRepo.AssertCalled(t, "GetByID", mock.Anything, u.ID)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	u := sampleUser()
	pair, _ := loginPair(t, svc, userRepo, refreshRepo, u)

	// The account is gone by the time the token comes back.
	blacklist.On("IsBlacklisted", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	userRepo.On("GetByID", mock.Anything, u.ID).Return(nil, apperrors.NotFound("user", u.ID))

	_, _, err := svc.Authenticate(context.Background(), pair.AccessToken)

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "invalid or expired token")
}

func TestAuthenticate_Blacklisted(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(userRepo, refreshRepo, blacklist)

	pair, _ := loginPair(t, svc, userRepo, refreshRepo, sampleUser())

	blacklist.On("IsBlacklisted", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	_, _, err := svc.Authenticate(context.Background(), pair.AccessToken)

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "invalid or expired token")
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthenticate_Garbage(t *testing.T) {
	blacklist := new(mockBlacklistRepository)
	svc := newTestAuthService(new(mockUserRepository), new(mockRefreshTokenRepository), blacklist)

	_, _, err := svc.Authenticate(context.Background(), "not-a-jwt")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	blacklist.AssertNotCalled(t, "IsBlacklisted", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Sessions / Profile / Preferences
// ---------------------------------------------------------------------------

func TestSessions(t *testing.T) {
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(new(mockUserRepository), refreshRepo, new(mockBlacklistRepository))

	now := time.Now().UTC()
	refreshRepo.On("ListActiveForUser", mock.Anything, "u-1234").Return([]domain.Session{
		{ID: "rt-2", DeviceInfo: "iPhone", CreatedAt: now},
		{ID: "rt-1", DeviceInfo: "Mozilla/5.0", CreatedAt: now.Add(-time.Hour)},
	}, nil)

	sessions, err := svc.Sessions(context.Background(), "u-1234")

	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestUpdateProfile(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(updated *domain.User) bool {
		return updated.Name == "Alice Jones"
	})).Return(nil)

	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Name: strPtr("Alice Jones")})

	require.NoError(t, err)
	assert.Equal(t, "Alice Jones", got.Name)
	userRepo.AssertExpectations(t)
}

func TestUpdatePreferences_PartialMerge(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.UpdatePreferences(context.Background(), u.ID, UpdatePreferencesInput{
		Currency:      strPtr("EUR"),
		WeeklyReports: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Preferences.Currency)
	assert.False(t, got.Preferences.WeeklyReports)
	// Untouched fields keep their defaults.
	assert.Equal(t, "en", got.Preferences.Language)
	assert.True(t, got.Preferences.EmailNotifications)
}

func TestUpdatePreferences_NoFields_NoWrite(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)

	got, err := svc.UpdatePreferences(context.Background(), u.ID, UpdatePreferencesInput{})

	require.NoError(t, err)
	assert.Equal(t, u.Preferences, got.Preferences)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestChangePassword_RevokesAllSessions(t *testing.T) {
	userRepo := new(mockUserRepository)
	refreshRepo := new(mockRefreshTokenRepository)
	svc := newTestAuthService(userRepo, refreshRepo, new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	refreshRepo.On("RevokeAllForUser", mock.Anything, u.ID).Return(nil)

	err := svc.ChangePassword(context.Background(), u.ID, "Sup3rSecret", "N3wSecretPass")

	require.NoError(t, err)
	refreshRepo.AssertCalled(t, "RevokeAllForUser", mock.Anything, u.ID)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestAuthService(userRepo, new(mockRefreshTokenRepository), new(mockBlacklistRepository))

	u := sampleUser()
	userRepo.On("GetByID", mock.Anything, u.ID).Return(u, nil)

	err := svc.ChangePassword(context.Background(), u.ID, "notmypassword1A", "N3wSecretPass")

	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}
