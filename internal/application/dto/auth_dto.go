package dto

import (
	"regexp"
	"strings"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SignUpRequest represents a new account registration
type SignUpRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Validate trims the profile fields and checks them
func (r *SignUpRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)

	switch {
	case r.FirstName == "":
		return apperrors.ValidationError("first_name", "first name is required")
	case r.LastName == "":
		return apperrors.ValidationError("last_name", "last name is required")
	case r.Email == "":
		return apperrors.ValidationError("email", "email is required")
	case !emailRegex.MatchString(r.Email):
		return apperrors.ValidationError("email", "invalid email format")
	case r.Phone == "":
		return apperrors.ValidationError("phone", "phone is required")
	case len(r.Password) < MinPasswordLength:
		return apperrors.ValidationError("password", "password must be at least 8 characters")
	}
	return nil
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks both credentials are present
func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return apperrors.ValidationError("email", "email is required")
	}
	if r.Password == "" {
		return apperrors.ValidationError("password", "password is required")
	}
	return nil
}

// UserResponse represents a user profile in responses
type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// ToUserResponse converts a model to its wire form
func ToUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
	}
}
