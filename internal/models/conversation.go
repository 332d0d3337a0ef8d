package models

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

func (t ConversationType) Valid() bool {
	return t == ConversationDirect || t == ConversationGroup
}

type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

func (r ParticipantRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group membership bounds. A direct conversation always has exactly two
// active participants.
const (
	GroupMinParticipants = 2
	GroupMaxParticipants = 50
)

type Conversation struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	Type           ConversationType `json:"type" db:"type"`
	Name           *string          `json:"name" db:"name"`
	Description    *string          `json:"description" db:"description"`
	AvatarURL      *string          `json:"avatar_url" db:"avatar_url"`
	CreatorID      uuid.UUID        `json:"creator_id" db:"creator_id"`
	LastActivityAt time.Time        `json:"last_activity_at" db:"last_activity_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`

	Participants []Participant `json:"participants,omitempty"`
	UnreadCount  int64         `json:"unread_count"`
}

// Participant is a user's membership record within one conversation.
// LastReadSeq is the monotone watermark into the conversation's message
// sequence used for unread computation.
type Participant struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	ConversationID       uuid.UUID       `json:"conversation_id" db:"conversation_id"`
	UserID               uuid.UUID       `json:"user_id" db:"user_id"`
	Role                 ParticipantRole `json:"role" db:"role"`
	IsActive             bool            `json:"is_active" db:"is_active"`
	JoinedAt             time.Time       `json:"joined_at" db:"joined_at"`
	LeftAt               *time.Time      `json:"left_at" db:"left_at"`
	LastReadSeq          int64           `json:"last_read_seq" db:"last_read_seq"`
	NotificationsEnabled bool            `json:"notifications_enabled" db:"notifications_enabled"`
}

type CreateConversationRequest struct {
	Type           ConversationType `json:"type" binding:"required"`
	Name           *string          `json:"name" binding:"omitempty,max=100"`
	Description    *string          `json:"description"`
	ParticipantIDs []uuid.UUID      `json:"participant_ids" binding:"required"`
}

type AddParticipantRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
