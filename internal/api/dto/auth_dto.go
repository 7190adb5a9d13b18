package dto

import (
	"time"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public account shape.
type UserResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	FullName   string          `json:"full_name"`
	Phone      *string         `json:"phone,omitempty"`
	Role       domain.UserRole `json:"role"`
	ProjectIDs []string        `json:"project_ids,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UserFromDomain maps an account, never exposing the password hash.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Phone:      u.Phone,
		Role:       u.Role,
		ProjectIDs: u.ProjectIDs,
		CreatedAt:  u.CreatedAt,
	}
}

// RateTicketRequest payload for authenticated and public rating.
type RateTicketRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}
