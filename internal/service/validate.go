package service

import (
	"fmt"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
)

// dedupeParticipants drops duplicate ids and the creator from the requested
// participant list.
func dedupeParticipants(creatorID uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{creatorID: true}
	var out []uuid.UUID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// validateCreateConversation enforces the participant-count rules: a direct
// conversation takes exactly one other user, a group takes 2-50 others and
// requires a name.
func validateCreateConversation(req *models.CreateConversationRequest, others []uuid.UUID) error {
	if !req.Type.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid conversation type %q", req.Type))
	}

	switch req.Type {
	case models.ConversationDirect:
		if len(others) != 1 {
			return apperrors.Validation("a direct conversation requires exactly one other participant")
		}
	case models.ConversationGroup:
		if req.Name == nil || *req.Name == "" {
			return apperrors.Validation("a group conversation requires a name")
		}
		if len(others) < models.GroupMinParticipants {
			return apperrors.Validation(fmt.Sprintf("a group conversation requires at least %d other participants", models.GroupMinParticipants))
		}
		if len(others)+1 > models.GroupMaxParticipants {
			return apperrors.Validation(fmt.Sprintf("a group conversation allows at most %d participants", models.GroupMaxParticipants))
		}
	}
	return nil
}

// validateMessagePayload checks the content/media mutual-satisfaction rule:
// at least one of them must be present. The declared message type is taken
// as-is and not re-derived from the payload.
func validateMessagePayload(req *models.PostMessageRequest) error {
	if !req.MessageType.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid message type %q", req.MessageType))
	}

	hasContent := req.Content != nil && *req.Content != ""
	hasMedia := req.MediaURL != nil && *req.MediaURL != ""
	if !hasContent && !hasMedia && len(req.Attachments) == 0 {
		return apperrors.Validation("message requires content or media")
	}
	return nil
}
