// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type SubmitRequest struct {
	Band           string `json:"band"            validate:"required,oneof=2.4GHz 5GHz"`
	PaymentMethod  string `json:"payment_method"  validate:"required,oneof='Airtel Money' 'Moov Money'"`
	TransactionRef string `json:"transaction_ref" validate:"required,max=128"`
	MACAddress     string `json:"mac_address"     validate:"omitempty,mac"`
}

type SubscriptionResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	FullName        string     `json:"full_name"`
	Phone           string     `json:"phone"`
	Band            string     `json:"band"`
	PaymentMethod   string     `json:"payment_method"`
	TransactionRef  string     `json:"transaction_ref"`
	MACAddress      *string    `json:"mac_address,omitempty"`
	Price           int64      `json:"price"`
	Status          string     `json:"status"`
	RevealTriggered bool       `json:"reveal_triggered"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	DecidedBy       *string    `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ListParams struct {
	Page     int
	PageSize int
	OwnerID  string
	Status   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		FullName:        s.FullName,
		Phone:           s.Phone,
		Band:            s.Band,
		PaymentMethod:   s.PaymentMethod,
		TransactionRef:  s.TransactionRef,
		MACAddress:      s.MACAddress,
		Price:           s.Price,
		Status:          s.Status,
		RevealTriggered: s.RevealTriggered,
		StartAt:         s.StartAt,
		EndAt:           s.EndAt,
		DecidedBy:       s.DecidedBy,
		DecidedAt:       s.DecidedAt,
		CreatedAt:       s.CreatedAt,
	}
}

func ToResponseList(subs []Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = ToResponse(&subs[i])
	}
	return out
}
