package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	DisplayName       string    `json:"display_name" db:"display_name"`
	FirstName         *string   `json:"first_name" db:"first_name"`
	LastName          *string   `json:"last_name" db:"last_name"`
	Bio               *string   `json:"bio" db:"bio"`
	PhoneNumber       *string   `json:"phone_number" db:"phone_number"`
	ProfilePictureURL *string   `json:"profile_picture_url" db:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	Username             string  `json:"username" binding:"required,min=3,max=50"`
	Email                string  `json:"email" binding:"required,email"`
	DisplayName          string  `json:"display_name" binding:"required,max=100"`
	PhoneNumber          *string `json:"phone_number" binding:"omitempty,max=20"`
	Password             string  `json:"password" binding:"required,min=8"`
	PasswordConfirmation string  `json:"password_confirmation" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UpdateProfileRequest carries a partial update: nil fields are left
// untouched, non-nil fields overwrite.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Bio         *string `json:"bio" binding:"omitempty,max=255"`
	Username    *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
