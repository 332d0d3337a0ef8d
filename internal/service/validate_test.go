package service

import (
	"testing"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDedupeParticipants(t *testing.T) {
	creator := uuid.New()
	a := uuid.New()
	b := uuid.New()

	out := dedupeParticipants(creator, []uuid.UUID{a, creator, b, a, b})
	require.Equal(t, []uuid.UUID{a, b}, out)

	require.Empty(t, dedupeParticipants(creator, []uuid.UUID{creator, creator}))
	require.Empty(t, dedupeParticipants(creator, nil))
}

func TestValidateCreateConversation(t *testing.T) {
	name := "Team"

	t.Run("direct requires exactly one other", func(t *testing.T) {
		req := &models.CreateConversationRequest{Type: models.ConversationDirect}
		require.NoError(t, validateCreateConversation(req, []uuid.UUID{uuid.New()}))

		err := validateCreateConversation(req, nil)
		require.Error(t, err)
		require.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

		err = validateCreateConversation(req, []uuid.UUID{uuid.New(), uuid.New()})
		require.Error(t, err)
	})

	t.Run("group requires a name", func(t *testing.T) {
		req := &models.CreateConversationRequest{Type: models.ConversationGroup}
		err := validateCreateConversation(req, []uuid.UUID{uuid.New(), uuid.New()})
		require.Error(t, err)
		require.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

		req.Name = &name
		require.NoError(t, validateCreateConversation(req, []uuid.UUID{uuid.New(), uuid.New()}))
	})

	t.Run("group membership bounds", func(t *testing.T) {
		req := &models.CreateConversationRequest{Type: models.ConversationGroup, Name: &name}

		require.Error(t, validateCreateConversation(req, []uuid.UUID{uuid.New()}))

		// The creator counts toward the cap.
		atMax := make([]uuid.UUID, models.GroupMaxParticipants-1)
		for i := range atMax {
			atMax[i] = uuid.New()
		}
		require.NoError(t, validateCreateConversation(req, atMax))
		require.Error(t, validateCreateConversation(req, append(atMax, uuid.New())))
	})

	t.Run("unknown type", func(t *testing.T) {
		req := &models.CreateConversationRequest{Type: "broadcast"}
		require.Error(t, validateCreateConversation(req, []uuid.UUID{uuid.New()}))
	})
}

func TestValidateMessagePayload(t *testing.T) {
	content := "hello"
	empty := ""
	mediaURL := "https://cdn.example.com/pic.png"

	require.NoError(t, validateMessagePayload(&models.PostMessageRequest{
		MessageType: models.MessageTypeText,
		Content:     &content,
	}))

	require.NoError(t, validateMessagePayload(&models.PostMessageRequest{
		MessageType: models.MessageTypeImage,
		MediaURL:    &mediaURL,
	}))

	require.NoError(t, validateMessagePayload(&models.PostMessageRequest{
		MessageType: models.MessageTypeFile,
		Attachments: []models.AttachmentInput{{FileName: "a.pdf", FileType: "application/pdf", FileSize: 10, URL: mediaURL}},
	}))

	err := validateMessagePayload(&models.PostMessageRequest{MessageType: models.MessageTypeText})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	// An empty string is not content
	err = validateMessagePayload(&models.PostMessageRequest{MessageType: models.MessageTypeText, Content: &empty})
	require.Error(t, err)

	err = validateMessagePayload(&models.PostMessageRequest{MessageType: "sticker", Content: &content})
	require.Error(t, err)
}
