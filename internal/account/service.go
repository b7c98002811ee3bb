// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/wifi-portal/internal/auth"
	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

// SessionRevoker revokes every refresh token an account holds.
type SessionRevoker interface {
	RevokeAllForAccount(ctx context.Context, accountID string) error
}

type Service struct {
	repo     Repository
	sessions SessionRevoker
	events   notify.Publisher
	clock    core.Clock
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	sessions SessionRevoker,
	events notify.Publisher,
	clock core.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(account), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	account, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(account), nil
}

func (s *Service) Create(
	ctx context.Context,
	reg auth.Registration,
) (*auth.UserInfo, error) {
	answerHash, err := core.HashAnswer(reg.SecurityAnswer)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	account := &Account{
		ID:               uuid.New().String(),
		Email:            normalizeEmail(reg.Email),
		PasswordHash:     reg.PasswordHash,
		FullName:         strings.TrimSpace(reg.Name),
		Phone:            strings.TrimSpace(reg.Phone),
		Role:             authz.RoleUser,
		Status:           authz.StatusActive,
		SecurityQuestion: strings.TrimSpace(reg.SecurityQuestion),
		SecurityAnswer:   answerHash,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created", "account_id", account.ID)

	return toUserInfo(account), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAccounts(
	ctx context.Context,
	actor authz.Actor,
	params ListParams,
) ([]Account, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("list accounts: %w", core.ErrForbidden)
	}
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, accountID)
}

// UpdateMe applies self-service profile edits. Role and status are never
// reachable from here.
func (s *Service) UpdateMe(
	ctx context.Context,
	accountID string,
	req UpdateMeRequest,
) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		account.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.SecurityQuestion != nil {
		account.SecurityQuestion = strings.TrimSpace(*req.SecurityQuestion)
	}
	if req.SecurityAnswer != nil {
		answerHash, err := core.HashAnswer(*req.SecurityAnswer)
		if err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		account.SecurityAnswer = answerHash
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateRole toggles an account between user and admin. Superadmin and
// deleted accounts cannot be changed.
func (s *Service) UpdateRole(
	ctx context.Context,
	actor authz.Actor,
	id, role string,
) (*Account, error) {
	if !authz.CanManageAccounts(actor.Role) {
		return nil, fmt.Errorf("update role: %w", core.ErrForbidden)
	}

	if role != authz.RoleUser && role != authz.RoleAdmin {
		return nil, fmt.Errorf(
			"update role: %w",
			core.NewInputError("role", "role must be user or admin"),
		)
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.IsSuperAdmin() || account.IsDeleted() {
		return nil, fmt.Errorf("update role: immutable account: %w", core.ErrForbidden)
	}

	changed := account.Role != role
	account.Role = role

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	// Tokens and open streams carry the old role, so they must not outlive it.
	if changed {
		if err := s.terminateSessions(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("update role: %w", err)
		}
	}

	s.logger.Info("account role changed",
		"account_id", account.ID,
		"role", role,
		"actor_id", actor.ID,
	)

	return account, nil
}

// UpdateStatus pauses, reactivates or deletes an account. Any status that
// cannot hold a session terminates the account's sessions immediately.
func (s *Service) UpdateStatus(
	ctx context.Context,
	actor authz.Actor,
	id, status string,
) (*Account, error) {
	if !authz.CanManageAccounts(actor.Role) {
		return nil, fmt.Errorf("update status: %w", core.ErrForbidden)
	}

	if !authz.ValidStatus(status) {
		return nil, fmt.Errorf(
			"update status: %w",
			core.NewInputError("status", "status must be active, paused or deleted"),
		)
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.IsSuperAdmin() || account.IsDeleted() {
		return nil, fmt.Errorf("update status: immutable account: %w", core.ErrForbidden)
	}

	account.Status = status
	if status == authz.StatusDeleted {
		account.Role = authz.RoleDeleted
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	if !authz.CanHoldSession(status) {
		if err := s.terminateSessions(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("account status changed",
		"account_id", account.ID,
		"status", status,
		"actor_id", actor.ID,
	)

	return account, nil
}

func (s *Service) terminateSessions(ctx context.Context, accountID string) error {
	if err := s.sessions.RevokeAllForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	if err := s.repo.IncrementTokenVersion(ctx, accountID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	ev, err := notify.NewEvent(notify.TypeSessionTerminated, accountID, s.clock.Now(), nil)
	if err != nil {
		return err
	}
	notify.Fanout(ctx, s.events, s.logger, ev, notify.SessionTopic(accountID))

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(a *Account) *auth.UserInfo {
	return &auth.UserInfo{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.FullName,
		Phone:            a.Phone,
		PasswordHash:     a.PasswordHash,
		Role:             a.Role,
		Status:           a.Status,
		SecurityQuestion: a.SecurityQuestion,
		SecurityAnswer:   a.SecurityAnswer,
		TokenVersion:     a.TokenVersion,
		CreatedAt:        a.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
