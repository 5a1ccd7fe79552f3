package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/FinanceGo/internal/auth"
	"github.com/utafrali/FinanceGo/internal/domain"
	"github.com/utafrali/FinanceGo/internal/event"
	"github.com/utafrali/FinanceGo/internal/repository"
	apperrors "github.com/utafrali/FinanceGo/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// invalidTokenMsg is returned for every token verification failure so a
// caller cannot distinguish expired, revoked, and forged tokens.
const invalidTokenMsg = "invalid or expired token"

// AuthService implements registration, login, and the session lifecycle.
type AuthService struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
	blacklist   repository.BlacklistRepository
	tokens      *auth.TokenManager
	producer    *event.Producer
	logger      *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshRepo repository.RefreshTokenRepository,
	blacklist repository.BlacklistRepository,
	tokens *auth.TokenManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		blacklist:   blacklist,
		tokens:      tokens,
		producer:    producer,
		logger:      logger,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email      string
	Password   string
	DeviceInfo string
	IPAddress  string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

// UpdatePreferencesInput holds the parameters for updating preferences.
// Absent fields leave the stored value untouched.
type UpdatePreferencesInput struct {
	Currency           *string
	Language           *string
	EmailNotifications *bool
	PushNotifications  *bool
	WeeklyReports      *bool
	BudgetAlerts       *bool
}

// --- Auth Operations ---

// Register creates a new user account, hashes the password, and returns a
// token pair so the client is signed in immediately.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokens(ctx, user, "", "")
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
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
	)

	return user, pair, nil
}

// Login authenticates a user with email and password, returning tokens.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	pair, err := s.issueTokens(ctx, user, input.DeviceInfo, input.IPAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. The stored record decides validity, so a token that
// verifies cryptographically but was already rotated, revoked, or swept is
// rejected. Of two concurrent refreshes with the same token exactly one
// wins; the loser gets the same uniform rejection as any replay.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, deviceInfo, ipAddress string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(invalidTokenMsg)
	}

	tokenHash := hashToken(refreshToken)
	stored, err := s.refreshRepo.GetValidByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidTokenMsg)
		}
		return nil, fmt.Errorf("look up refresh token: %w", err)
	}

	// The guarded revoke is the rotation's serialization point.
	if err := s.refreshRepo.Revoke(ctx, tokenHash); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidTokenMsg)
		}
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidTokenMsg)
		}
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	// Carry forward the session metadata when the client sends none.
	if deviceInfo == "" {
		deviceInfo = stored.DeviceInfo
	}
	if ipAddress == "" {
		ipAddress = stored.IPAddress
	}

	pair, err := s.issueTokens(ctx, user, deviceInfo, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return pair, nil
}

// Logout revokes the presented refresh token and blacklists the access
// token for its remaining lifetime. It is idempotent and best-effort: a
// token that is already revoked, expired, or unknown does not fail the call.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if refreshToken != "" {
		if err := s.refreshRepo.Revoke(ctx, hashToken(refreshToken)); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to revoke refresh token on logout",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.blacklistAccessToken(ctx, userID, accessToken)

	// Publish logout event (non-blocking on failure).
	if err := s.producer.PublishUserLoggedOut(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_out event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
	)

	return nil
}

// LogoutAll revokes every refresh token the user holds and blacklists the
// presented access token. Access tokens on other devices stay valid until
// they expire; their sessions die at the next refresh.
func (s *AuthService) LogoutAll(ctx context.Context, userID, accessToken string) error {
	if err := s.refreshRepo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	s.blacklistAccessToken(ctx, userID, accessToken)

	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", userID),
	)

	return nil
}

// Authenticate verifies an access token and resolves the principal behind
// it. Tokens whose jti has been blacklisted by a logout are rejected, as are
// tokens for users that no longer exist. Tokens without a jti skip the
// blacklist check rather than being locked out wholesale.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, *auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, nil, apperrors.Unauthorized(invalidTokenMsg)
	}

	if claims.ID != "" {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("check token blacklist: %w", err)
		}
		if blacklisted {
			return nil, nil, apperrors.Unauthorized(invalidTokenMsg)
		}
	}

	// A signed token outlives its account: once the user row is gone the
	// token is as dead as a forged one, and the caller learns nothing more.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized(invalidTokenMsg)
		}
		return nil, nil, fmt.Errorf("resolve authenticated user: %w", err)
	}

	return user, claims, nil
}

// Sessions returns the user's active sessions, newest first.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.refreshRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// --- Profile Operations ---

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		user.Name = *input.Name
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// UpdatePreferences merges the provided preference fields into the user's
// stored preferences. When every field is absent nothing is written.
func (s *AuthService) UpdatePreferences(ctx context.Context, userID string, input UpdatePreferencesInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for preferences update: %w", err)
	}

	changed := false
	if input.Currency != nil {
		user.Preferences.Currency = *input.Currency
		changed = true
	}
	if input.Language != nil {
		user.Preferences.Language = *input.Language
		changed = true
	}
	if input.EmailNotifications != nil {
		user.Preferences.EmailNotifications = *input.EmailNotifications
		changed = true
	}
	if input.PushNotifications != nil {
		user.Preferences.PushNotifications = *input.PushNotifications
		changed = true
	}
	if input.WeeklyReports != nil {
		user.Preferences.WeeklyReports = *input.WeeklyReports
		changed = true
	}
	if input.BudgetAlerts != nil {
		user.Preferences.BudgetAlerts = *input.BudgetAlerts
		changed = true
	}

	if !changed {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user preferences: %w", err)
	}

	s.logger.InfoContext(ctx, "user preferences updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// ChangePassword allows an authenticated user to change their password.
// Every existing session is revoked so stolen refresh tokens die with the
// old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if err := s.refreshRepo.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password change",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- Helpers ---

// issueTokens mints a token pair and persists the refresh token's hash
// together with the session metadata.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, deviceInfo, ipAddress string) (*domain.TokenPair, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token pair: %w", err)
	}

	record := &domain.RefreshToken{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		TokenHash:  hashToken(pair.RefreshToken),
		ExpiresAt:  pair.RefreshExpiresAt,
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.refreshRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return pair, nil
}

// blacklistAccessToken records the access token's jti until the token's own
// expiry. The token is decoded without signature verification so even a
// token that no longer validates gets its jti retired. Failures are logged,
// not returned, because logout must stay idempotent.
func (s *AuthService) blacklistAccessToken(ctx context.Context, userID, accessToken string) {
	if accessToken == "" {
		return
	}

	jti, err := s.tokens.TokenID(accessToken)
	if err != nil || jti == "" {
		return
	}

	expiresAt, err := s.tokens.TokenExpiry(accessToken)
	if err != nil {
		return
	}

	if err := s.blacklist.Add(ctx, jti, expiresAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to blacklist access token",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
