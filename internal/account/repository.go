// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]Account, int, error)
}

const accountColumns = `
	id, email, password_hash, full_name, phone, role, status,
	security_question, security_answer, token_version, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (
			id, email, password_hash, full_name, phone, role, status,
			security_question, security_answer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at, token_version`

	row := r.db.QueryRowxContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Phone,
		account.Role,
		account.Status,
		account.SecurityQuestion,
		account.SecurityAnswer,
	)
	if err := row.Scan(&account.CreatedAt, &account.UpdatedAt, &account.TokenVersion); err != nil {
		return fmt.Errorf("create account: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, fmt.Errorf("get account: %w", core.Classify(err))
	}

	return &account, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	var account Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, fmt.Errorf("get account by email: %w", core.Classify(err))
	}

	return &account, nil
}

func (r *repository) Update(ctx context.Context, account *Account) error {
	query := `
		UPDATE accounts
		SET full_name = $2, phone = $3, role = $4, status = $5,
		    security_question = $6, security_answer = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &account.UpdatedAt, query,
		account.ID,
		account.FullName,
		account.Phone,
		account.Role,
		account.Status,
		account.SecurityQuestion,
		account.SecurityAnswer,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE accounts
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Account, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM accounts WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", core.Classify(err))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM accounts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		accountColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", core.Classify(err))
	}

	return accounts, total, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.Classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
