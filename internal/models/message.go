package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeAudio MessageType = "audio"
	MessageTypeFile  MessageType = "file"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// Message is one content unit in a conversation. Seq is assigned by the
// store and is the ordering key within a conversation; the read watermark
// on participants refers to it.
type Message struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	Seq              int64       `json:"seq" db:"seq"`
	ConversationID   uuid.UUID   `json:"conversation_id" db:"conversation_id"`
	SenderID         uuid.UUID   `json:"sender_id" db:"sender_id"`
	MessageType      MessageType `json:"message_type" db:"message_type"`
	Content          *string     `json:"content" db:"content"`
	MediaURL         *string     `json:"media_url" db:"media_url"`
	ReplyToMessageID *uuid.UUID  `json:"reply_to_message_id" db:"reply_to_message_id"`
	IsEdited         bool        `json:"is_edited" db:"is_edited"`
	EditedAt         *time.Time  `json:"edited_at" db:"edited_at"`
	IsDeleted        bool        `json:"is_deleted" db:"is_deleted"`
	DeletedAt        *time.Time  `json:"deleted_at" db:"deleted_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// MessageState is the explicit edit/delete state machine: active -> edited
// (repeatable) and active|edited -> deleted (terminal).
type MessageState string

const (
	MessageStateActive  MessageState = "active"
	MessageStateEdited  MessageState = "edited"
	MessageStateDeleted MessageState = "deleted"
)

func (m *Message) State() MessageState {
	switch {
	case m.IsDeleted:
		return MessageStateDeleted
	case m.IsEdited:
		return MessageStateEdited
	}
	return MessageStateActive
}

// Tombstone strips the content of a deleted message while keeping its
// position and reply linkage intact.
func (m *Message) Tombstone() {
	if !m.IsDeleted {
		return
	}
	m.Content = nil
	m.MediaURL = nil
	m.Attachments = nil
}

type Attachment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MessageID    uuid.UUID `json:"message_id" db:"message_id"`
	FileName     string    `json:"file_name" db:"file_name"`
	FileType     string    `json:"file_type" db:"file_type"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	URL          string    `json:"url" db:"url"`
	ThumbnailURL *string   `json:"thumbnail_url" db:"thumbnail_url"`
	Duration     *int      `json:"duration" db:"duration"`
	Width        *int      `json:"width" db:"width"`
	Height       *int      `json:"height" db:"height"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type AttachmentInput struct {
	FileName     string  `json:"file_name" binding:"required,max=255"`
	FileType     string  `json:"file_type" binding:"required,max=100"`
	FileSize     int64   `json:"file_size" binding:"required,gt=0"`
	URL          string  `json:"url" binding:"required"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Duration     *int    `json:"duration"`
	Width        *int    `json:"width"`
	Height       *int    `json:"height"`
}

type PostMessageRequest struct {
	MessageType      MessageType       `json:"message_type" binding:"required"`
	Content          *string           `json:"content"`
	MediaURL         *string           `json:"media_url"`
	ReplyToMessageID *uuid.UUID        `json:"reply_to_message_id"`
	Attachments      []AttachmentInput `json:"attachments"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MarkReadRequest struct {
	MessageID uuid.UUID `json:"message_id" binding:"required"`
}
