// AngelaMos | 2026
// repository.go

package pricing

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type Repository interface {
	Get(ctx context.Context) (*Pricing, error)
	Update(ctx context.Context, u Update, actorID string) (*Pricing, error)
}

const pricingColumns = `
	price_24, price_5, ssid_24, ssid_5, password_24, password_5,
	updated_at, updated_by`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*Pricing, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing WHERE id = 1`

	var p Pricing
	if err := r.db.GetContext(ctx, &p, query); err != nil {
		return nil, fmt.Errorf("get pricing: %w", core.Classify(err))
	}

	return &p, nil
}

// Update merges u into the row in one statement, so concurrent partial
// updates of different fields never overwrite each other.
func (r *repository) Update(
	ctx context.Context,
	u Update,
	actorID string,
) (*Pricing, error) {
	query := `
		UPDATE pricing
		SET price_24    = COALESCE($1, price_24),
		    price_5     = COALESCE($2, price_5),
		    ssid_24     = COALESCE($3, ssid_24),
		    ssid_5      = COALESCE($4, ssid_5),
		    password_24 = COALESCE($5, password_24),
		    password_5  = COALESCE($6, password_5),
		    updated_at  = NOW(),
		    updated_by  = $7
		WHERE id = 1
		RETURNING ` + pricingColumns

	var p Pricing
	err := r.db.GetContext(ctx, &p, query,
		u.Price24,
		u.Price5,
		u.SSID24,
		u.SSID5,
		u.Password24,
		u.Password5,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("update pricing: %w", core.Classify(err))
	}

	return &p, nil
}
