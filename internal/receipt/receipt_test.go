// AngelaMos | 2026
// receipt_test.go

package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

func approvedSub() *subscription.Subscription {
	start := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(144 * time.Hour)
	return &subscription.Subscription{
		ID:             "0b6c0f69-1d0b-4b8e-9d59-7d1f1d5c3a11",
		OwnerID:        "owner-1",
		FullName:       "Élodie Mabiala",
		Phone:          "+242066000000",
		Band:           pricing.Band24,
		PaymentMethod:  subscription.MethodAirtel,
		TransactionRef: "AM-778812",
		Price:          2000,
		Status:         subscription.StatusActive,
		StartAt:        &start,
		EndAt:          &end,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	doc, err := Render(approvedSub(), pricing.Pricing{SSID24: "Portal-24"}, "WiFi Portal")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Greater(t, len(doc), 500)
}

func TestRenderIsDeterministic(t *testing.T) {
	snap := pricing.Pricing{SSID24: "Portal-24"}

	first, err := Render(approvedSub(), snap, "WiFi Portal")
	require.NoError(t, err)

	for i := range 20 {
		again, err := Render(approvedSub(), snap, "WiFi Portal")
		require.NoError(t, err)
		require.Equal(t, first, again, "render %d differs", i)
	}
}

func TestRenderRejectsUndecided(t *testing.T) {
	sub := approvedSub()
	sub.Status = subscription.StatusPending
	sub.StartAt = nil
	sub.EndAt = nil

	_, err := Render(sub, pricing.Pricing{}, "WiFi Portal")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "receipt-0b6c0f69-1d0b-4b8e-9d59-7d1f1d5c3a11.pdf", Filename(approvedSub()))
}
