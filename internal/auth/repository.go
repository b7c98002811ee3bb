// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	// Rotate marks usedID as used and stores next in one statement. It
	// returns ErrNotFound when usedID was already used or revoked.
	Rotate(ctx context.Context, usedID string, next *RefreshToken, now time.Time) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
	ListActiveForAccount(
		ctx context.Context,
		accountID string,
	) ([]RefreshToken, error)
}

const tokenColumns = `
	id, account_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, account_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.AccountID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "token_hash", tokenHash)
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "id", id)
}

func (r *repository) findOne(
	ctx context.Context,
	column, value string,
) (*RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE ` + column + ` = $1`

	var token RefreshToken
	if err := r.db.GetContext(ctx, &token, query, value); err != nil {
		return nil, fmt.Errorf("find refresh token: %w", core.Classify(err))
	}

	return &token, nil
}

func (r *repository) Rotate(
	ctx context.Context,
	usedID string,
	next *RefreshToken,
	now time.Time,
) error {
	query := `
		WITH used AS (
			UPDATE refresh_tokens
			SET is_used = TRUE, used_at = $8, replaced_by_id = $1
			WHERE id = $9 AND is_used = FALSE AND revoked_at IS NULL
			RETURNING id
		)
		INSERT INTO refresh_tokens (
			id, account_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		)
		SELECT $1, $2, $3, $4, $5, $6, $7 FROM used
		RETURNING created_at`

	err := r.db.GetContext(ctx, &next.CreatedAt, query,
		next.ID,
		next.AccountID,
		next.TokenHash,
		next.FamilyID,
		next.ExpiresAt,
		next.UserAgent,
		next.IPAddress,
		now,
		usedID,
	)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", core.Classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) RevokeAllForAccount(
	ctx context.Context,
	accountID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE account_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("revoke account tokens: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) ListActiveForAccount(
	ctx context.Context,
	accountID string,
) ([]RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE account_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, accountID); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", core.Classify(err))
	}

	return tokens, nil
}
