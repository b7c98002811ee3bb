// AngelaMos | 2026
// dto.go

package account

import (
	"time"
)

type UpdateMeRequest struct {
	FullName         *string `json:"full_name,omitempty"         validate:"omitempty,min=1,max=100"`
	Phone            *string `json:"phone,omitempty"             validate:"omitempty,min=6,max=32"`
	SecurityQuestion *string `json:"security_question,omitempty" validate:"omitempty,min=3,max=255"`
	SecurityAnswer   *string `json:"security_answer,omitempty"   validate:"omitempty,min=1,max=255"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused deleted"`
}

type AccountResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	SecurityQuestion string    `json:"security_question,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ListParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Status   string `json:"status"`
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

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Email:            a.Email,
		FullName:         a.FullName,
		Phone:            a.Phone,
		Role:             a.Role,
		Status:           a.Status,
		SecurityQuestion: a.SecurityQuestion,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i]))
	}
	return responses
}
