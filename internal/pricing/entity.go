// AngelaMos | 2026
// entity.go

package pricing

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

const (
	Band24 = "2.4GHz"
	Band5  = "5GHz"
)

func ValidBand(band string) bool {
	return band == Band24 || band == Band5
}

// Pricing is the single shared row holding the price, network name and
// network credential of each band.
type Pricing struct {
	Price24    int64     `db:"price_24"`
	Price5     int64     `db:"price_5"`
	SSID24     string    `db:"ssid_24"`
	SSID5      string    `db:"ssid_5"`
	Password24 string    `db:"password_24"`
	Password5  string    `db:"password_5"`
	UpdatedAt  time.Time `db:"updated_at"`
	UpdatedBy  *string   `db:"updated_by"`
}

func (p *Pricing) PriceFor(band string) (int64, error) {
	switch band {
	case Band24:
		return p.Price24, nil
	case Band5:
		return p.Price5, nil
	}
	return 0, fmt.Errorf("price for %q: %w", band, core.NewInputError("band", "unknown band"))
}

// Credential is what a subscriber needs to join the band's network.
type Credential struct {
	Band     string `json:"band"`
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

func (p *Pricing) CredentialFor(band string) (Credential, error) {
	switch band {
	case Band24:
		return Credential{Band: band, SSID: p.SSID24, Password: p.Password24}, nil
	case Band5:
		return Credential{Band: band, SSID: p.SSID5, Password: p.Password5}, nil
	}
	return Credential{}, fmt.Errorf("credential for %q: %w", band, core.NewInputError("band", "unknown band"))
}

// Update is a partial overwrite: nil fields keep their stored value.
type Update struct {
	Price24    *int64  `json:"price_24,omitempty"    validate:"omitempty,gte=0"`
	Price5     *int64  `json:"price_5,omitempty"     validate:"omitempty,gte=0"`
	SSID24     *string `json:"ssid_24,omitempty"     validate:"omitempty,max=64"`
	SSID5      *string `json:"ssid_5,omitempty"      validate:"omitempty,max=64"`
	Password24 *string `json:"password_24,omitempty" validate:"omitempty,max=128"`
	Password5  *string `json:"password_5,omitempty"  validate:"omitempty,max=128"`
}

func (u Update) IsEmpty() bool {
	return u.Price24 == nil && u.Price5 == nil &&
		u.SSID24 == nil && u.SSID5 == nil &&
		u.Password24 == nil && u.Password5 == nil
}
