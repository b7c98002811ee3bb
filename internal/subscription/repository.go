// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	Decide(ctx context.Context, id string, d Decision) (*Subscription, error)
	MarkRevealed(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]Subscription, int, error)
	CurrentForOwner(ctx context.Context, ownerID string, now time.Time) (*Subscription, error)
	Stats(ctx context.Context) (Stats, error)
}

const subscriptionColumns = `
	id, owner_id, full_name, phone, band, payment_method, transaction_ref,
	mac_address, price, status, reveal_triggered, start_at, end_at,
	decided_by, decided_at, created_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, owner_id, full_name, phone, band, payment_method,
			transaction_ref, mac_address, price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &sub.CreatedAt, query,
		sub.ID,
		sub.OwnerID,
		sub.FullName,
		sub.Phone,
		sub.Band,
		sub.PaymentMethod,
		sub.TransactionRef,
		sub.MACAddress,
		sub.Price,
		sub.Status,
	)
	if err != nil {
		return fmt.Errorf("create subscription: %w", core.Classify(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	var sub Subscription
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, fmt.Errorf("get subscription: %w", core.Classify(err))
	}

	return &sub, nil
}

// Decide applies d only while the record is still pending. A record that
// exists but was already decided yields ErrAlreadyDecided.
func (r *repository) Decide(
	ctx context.Context,
	id string,
	d Decision,
) (*Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $2, start_at = $3, end_at = $4,
		    decided_by = $5, decided_at = $6
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + subscriptionColumns

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query,
		id,
		d.Status,
		d.StartAt,
		d.EndAt,
		d.DecidedBy,
		d.DecidedAt,
	)
	if err == nil {
		return &sub, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decide subscription: %w", core.Classify(err))
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("decide subscription: %w", core.Classify(err))
	}

	if !exists {
		return nil, fmt.Errorf("decide subscription: %w", core.ErrNotFound)
	}
	return nil, fmt.Errorf("decide subscription: %w", core.ErrAlreadyDecided)
}

// MarkRevealed flips the reveal flag once. Only the caller that flips it
// gets true.
func (r *repository) MarkRevealed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET reveal_triggered = TRUE
		WHERE id = $1 AND reveal_triggered = FALSE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark revealed: %w", core.Classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark revealed: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", core.Classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Subscription, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, params.OwnerID)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM subscriptions WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", core.Classify(err))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM subscriptions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		subscriptionColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var subs []Subscription
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", core.Classify(err))
	}

	return subs, total, nil
}

// CurrentForOwner is the active, unexpired record with the latest end.
func (r *repository) CurrentForOwner(
	ctx context.Context,
	ownerID string,
	now time.Time,
) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE owner_id = $1 AND status = 'ACTIVE' AND end_at > $2
		ORDER BY end_at DESC
		LIMIT 1`

	var sub Subscription
	if err := r.db.GetContext(ctx, &sub, query, ownerID, now); err != nil {
		return nil, fmt.Errorf("current subscription: %w", core.Classify(err))
	}

	return &sub, nil
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*)                                        AS total,
			COUNT(*) FILTER (WHERE status = 'PENDING')      AS pending,
			COUNT(*) FILTER (WHERE status = 'ACTIVE')       AS active,
			COUNT(*) FILTER (WHERE status = 'REJECTED')     AS rejected,
			COALESCE(SUM(price) FILTER (WHERE status = 'ACTIVE'), 0) AS revenue
		FROM subscriptions`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return Stats{}, fmt.Errorf("subscription stats: %w", core.Classify(err))
	}

	return stats, nil
}
