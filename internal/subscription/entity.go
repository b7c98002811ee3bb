// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

const (
	StatusPending  = "PENDING"
	StatusActive   = "ACTIVE"
	StatusRejected = "REJECTED"
)

const (
	MethodAirtel = "Airtel Money"
	MethodMoov   = "Moov Money"
)

func ValidPaymentMethod(method string) bool {
	return method == MethodAirtel || method == MethodMoov
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusActive, StatusRejected:
		return true
	}
	return false
}

// Subscription is one access request. Price and band are fixed at submission;
// StartAt and EndAt are set only by approval.
type Subscription struct {
	ID              string     `db:"id"`
	OwnerID         string     `db:"owner_id"`
	FullName        string     `db:"full_name"`
	Phone           string     `db:"phone"`
	Band            string     `db:"band"`
	PaymentMethod   string     `db:"payment_method"`
	TransactionRef  string     `db:"transaction_ref"`
	MACAddress      *string    `db:"mac_address"`
	Price           int64      `db:"price"`
	Status          string     `db:"status"`
	RevealTriggered bool       `db:"reveal_triggered"`
	StartAt         *time.Time `db:"start_at"`
	EndAt           *time.Time `db:"end_at"`
	DecidedBy       *string    `db:"decided_by"`
	DecidedAt       *time.Time `db:"decided_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

func (s *Subscription) IsPending() bool {
	return s.Status == StatusPending
}

// Decision is the conditional write applied to a pending record.
type Decision struct {
	Status    string
	StartAt   *time.Time
	EndAt     *time.Time
	DecidedBy string
	DecidedAt time.Time
}

// Stats is the revenue summary over every record.
type Stats struct {
	Total    int   `db:"total"    json:"total"`
	Pending  int   `db:"pending"  json:"pending"`
	Active   int   `db:"active"   json:"active"`
	Rejected int   `db:"rejected" json:"rejected"`
	Revenue  int64 `db:"revenue"  json:"revenue"`
}
