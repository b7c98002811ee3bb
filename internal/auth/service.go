// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", core.ErrAuthentication)
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID               string
	Email            string
	Name             string
	Phone            string
	PasswordHash     string
	Role             string
	Status           string
	SecurityQuestion string
	SecurityAnswer   string
	TokenVersion     int
	CreatedAt        time.Time
}

// Registration is a new account as submitted at sign-up, with the password
// already hashed.
type Registration struct {
	Email            string
	PasswordHash     string
	Name             string
	Phone            string
	SecurityQuestion string
	SecurityAnswer   string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, reg Registration) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo           Repository
	jwt            *JWTManager
	userProvider   UserProvider
	redis          *redis.Client
	events         notify.Publisher
	clock          core.Clock
	logger         *slog.Logger
	resetTicketTTL time.Duration
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	events notify.Publisher,
	clock core.Clock,
	logger *slog.Logger,
	resetTicketTTL time.Duration,
) *Service {
	return &Service{
		repo:           repo,
		jwt:            jwt,
		userProvider:   userProvider,
		redis:          redisClient,
		events:         events,
		clock:          clock,
		logger:         logger,
		resetTicketTTL: resetTicketTTL,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if err := sessionAllowed(user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	s.publishSession(ctx, notify.TypeSessionStarted, user.ID)

	return resp, nil
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, Registration{
		Email:            req.Email,
		PasswordHash:     passwordHash,
		Name:             req.Name,
		Phone:            req.Phone,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	s.publishSession(ctx, notify.TypeSessionStarted, user.ID)

	return resp, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		s.logger.Warn("refresh token reuse detected",
			"account_id", storedToken.AccountID,
			"family_id", storedToken.FamilyID,
		)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid(s.clock.Now()) {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := sessionAllowed(user); err != nil {
		//nolint:errcheck // account can no longer hold the session either way
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the refresh token and, when the caller's access token is
// known, blacklists it for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken != nil {
		if storedToken.AccountID != claims.UserID {
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		}

		if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
			!errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	if err := s.RevokeAccessToken(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return err
	}

	s.publishSession(ctx, notify.TypeSessionEnded, claims.UserID)

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForAccount(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	s.publishSession(ctx, notify.TypeSessionEnded, userID)

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if jti == "" || ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", core.Classify(err))
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", core.Classify(err))
	}

	return exists > 0, nil
}

// ValidateSession re-checks a verified access token against the stored
// account and returns the stored role.
func (s *Service) ValidateSession(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (string, error) {
	blacklisted, err := s.IsAccessTokenBlacklisted(ctx, claims.JTI)
	if err != nil {
		return "", err
	}
	if blacklisted {
		return "", fmt.Errorf("validate session: %w", core.ErrTokenRevoked)
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("validate session: %w", core.ErrTokenInvalid)
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := sessionAllowed(user); err != nil {
		return "", fmt.Errorf("validate session: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return "", fmt.Errorf("validate session: %w", core.ErrTokenRevoked)
	}

	return user.Role, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveForAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.AccountID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	return s.ResetCredential(ctx, userID, newPassword)
}

// ResetQuestion returns the security question registered for email.
func (s *Service) ResetQuestion(ctx context.Context, email string) (string, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("reset question: %w", err)
	}

	if user.Status == authz.StatusDeleted || user.SecurityQuestion == "" {
		return "", fmt.Errorf("reset question: %w", core.ErrNotFound)
	}

	return user.SecurityQuestion, nil
}

// VerifyAnswer checks the security answer and, on a match, issues a
// single-use reset ticket. Only the ticket's hash is kept in Redis.
func (s *Service) VerifyAnswer(
	ctx context.Context,
	email, answer string,
) (*ResetTicketResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Status == authz.StatusDeleted ||
		!core.CompareAnswer(answer, user.SecurityAnswer) {
		return nil, ErrInvalidCredentials
	}

	ticket, err := core.GenerateResetTicket()
	if err != nil {
		return nil, fmt.Errorf("generate reset ticket: %w", err)
	}

	key := resetTicketPrefix + core.HashToken(ticket)
	if err := s.redis.Set(ctx, key, user.ID, s.resetTicketTTL).Err(); err != nil {
		return nil, fmt.Errorf("store reset ticket: %w", core.Classify(err))
	}

	return &ResetTicketResponse{
		Ticket:    ticket,
		ExpiresAt: s.clock.Now().Add(s.resetTicketTTL),
	}, nil
}

// CompleteReset consumes a reset ticket and sets the new password.
func (s *Service) CompleteReset(
	ctx context.Context,
	ticket, newPassword string,
) error {
	key := resetTicketPrefix + core.HashToken(ticket)

	accountID, err := s.redis.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("complete reset: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return fmt.Errorf("consume reset ticket: %w", core.Classify(err))
	}

	if err := s.ResetCredential(ctx, accountID, newPassword); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "account_id", accountID)

	return nil
}

// ResetCredential rewrites an account's password hash and ends every
// session it holds. Callers must have authenticated the request already.
func (s *Service) ResetCredential(
	ctx context.Context,
	accountID, newPassword string,
) error {
	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, accountID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, accountID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	now := s.clock.Now()

	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID, now)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	next := &RefreshToken{
		ID:        uuid.New().String(),
		AccountID: user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if oldTokenID == nil {
		if err := s.repo.Create(ctx, next); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	} else if err := s.repo.Rotate(ctx, *oldTokenID, next, now); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
		// A concurrent refresh consumed the token first.
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, familyID)
		s.logger.Warn("refresh token reuse detected",
			"account_id", user.ID,
			"family_id", familyID,
		)
		return nil, ErrTokenReuse
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    now.Add(ttl),
		},
	}, nil
}

func (s *Service) publishSession(ctx context.Context, eventType, accountID string) {
	ev, err := notify.NewEvent(eventType, accountID, s.clock.Now(), nil)
	if err != nil {
		return
	}
	notify.Fanout(ctx, s.events, s.logger, ev, notify.SessionTopic(accountID))
}

func sessionAllowed(user *UserInfo) error {
	if authz.CanHoldSession(user.Status) {
		return nil
	}
	if user.Status == authz.StatusPaused {
		return core.ErrAccountPaused
	}
	return ErrInvalidCredentials
}

func toUserResponse(user *UserInfo) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}
