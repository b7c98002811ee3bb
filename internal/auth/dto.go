// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterRequest struct {
	Email            string `json:"email"             validate:"required,email,max=255"`
	Password         string `json:"password"          validate:"required,min=8,max=128"`
	Name             string `json:"name"              validate:"required,min=1,max=100"`
	Phone            string `json:"phone"             validate:"required,min=6,max=32"`
	SecurityQuestion string `json:"security_question" validate:"required,min=3,max=255"`
	SecurityAnswer   string `json:"security_answer"   validate:"required,min=1,max=255"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

type ResetQuestionRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetQuestionResponse struct {
	Question string `json:"question"`
}

type ResetVerifyRequest struct {
	Email  string `json:"email"  validate:"required,email,max=255"`
	Answer string `json:"answer" validate:"required,max=255"`
}

type ResetTicketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ResetCompleteRequest struct {
	Ticket      string `json:"ticket"       validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}
