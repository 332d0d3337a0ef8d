package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a directed edge from the owner to another user.
type Contact struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OwnerID    uuid.UUID `json:"owner_id" db:"owner_id"`
	ContactID  uuid.UUID `json:"contact_id" db:"contact_id"`
	Nickname   *string   `json:"nickname" db:"nickname"`
	IsBlocked  bool      `json:"is_blocked" db:"is_blocked"`
	IsFavorite bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	// Joined from users for list responses.
	ContactUsername    string  `json:"contact_username,omitempty"`
	ContactDisplayName string  `json:"contact_display_name,omitempty"`
	ContactPictureURL  *string `json:"contact_picture_url,omitempty"`
}

type AddContactRequest struct {
	ContactID uuid.UUID `json:"contact_id" binding:"required"`
	Nickname  *string   `json:"nickname" binding:"omitempty,max=100"`
}

type UpdateContactRequest struct {
	Nickname   *string `json:"nickname" binding:"omitempty,max=100"`
	IsBlocked  *bool   `json:"is_blocked"`
	IsFavorite *bool   `json:"is_favorite"`
}
