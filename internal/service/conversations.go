package service

import (
	"context"
	"fmt"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ConversationService struct {
	db *database.Database
}

func NewConversationService(db *database.Database) *ConversationService {
	return &ConversationService{db: db}
}

const conversationColumns = `id, type, name, description, avatar_url, creator_id, last_activity_at, created_at, updated_at`

func scanConversation(row pgx.Row, c *models.Conversation) error {
	return row.Scan(
		&c.ID, &c.Type, &c.Name, &c.Description, &c.AvatarURL, &c.CreatorID,
		&c.LastActivityAt, &c.CreatedAt, &c.UpdatedAt,
	)
}

// Create validates the participant set, applies the blocked-contact policy
// for direct conversations, and inserts the conversation together with all
// participant rows in one transaction. The creator joins as admin.
func (s *ConversationService) Create(ctx context.Context, creatorID uuid.UUID, req *models.CreateConversationRequest) (*models.Conversation, error) {
	others := dedupeParticipants(creatorID, req.ParticipantIDs)
	if err := validateCreateConversation(req, others); err != nil {
		return nil, err
	}

	if req.Type == models.ConversationDirect {
		blocked, err := s.isBlockedEitherWay(ctx, creatorID, others[0])
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, apperrors.Conflict("cannot start a conversation with a blocked contact")
		}
	}

	if err := s.ensureUsersExist(ctx, others); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var conv models.Conversation
	insertConv := `
		INSERT INTO conversations (type, name, description, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + conversationColumns
	if err := scanConversation(tx.QueryRow(ctx, insertConv, req.Type, req.Name, req.Description, creatorID), &conv); err != nil {
		return nil, apperrors.Internal("failed to create conversation", err)
	}

	insertParticipant := `
		INSERT INTO conversation_participants (conversation_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, user_id, role, is_active, joined_at, left_at, last_read_seq, notifications_enabled`

	memberIDs := append([]uuid.UUID{creatorID}, others...)
	for i, userID := range memberIDs {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		var p models.Participant
		err := tx.QueryRow(ctx, insertParticipant, conv.ID, userID, role).Scan(
			&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsActive,
			&p.JoinedAt, &p.LeftAt, &p.LastReadSeq, &p.NotificationsEnabled,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperrors.Conflict("duplicate participant")
			}
			return nil, apperrors.Internal("failed to add participant", err)
		}
		conv.Participants = append(conv.Participants, p)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Internal("failed to commit conversation", err)
	}
	return &conv, nil
}

// Get returns one conversation with its participant list; the caller must
// be an active participant.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	if err := scanConversation(s.db.QueryRow(ctx, query, conversationID), &conv); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}

	participants, err := s.listParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants

	active := false
	for _, p := range participants {
		if p.UserID == userID && p.IsActive {
			active = true
			conv.UnreadCount, err = s.unreadCount(ctx, conversationID, userID, p.LastReadSeq)
			if err != nil {
				return nil, err
			}
		}
	}
	if !active {
		return nil, apperrors.ErrNotParticipant
	}
	return &conv, nil
}

// List returns the caller's conversations, most recently active first, with
// unread counts computed against each membership's read watermark.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	query := `
		SELECT c.id, c.type, c.name, c.description, c.avatar_url, c.creator_id,
			c.last_activity_at, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m
				WHERE m.conversation_id = c.id AND m.seq > p.last_read_seq
					AND m.sender_id <> p.user_id AND NOT m.is_deleted) AS unread_count
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1 AND p.is_active
		ORDER BY c.last_activity_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list conversations", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		err := rows.Scan(
			&c.ID, &c.Type, &c.Name, &c.Description, &c.AvatarURL, &c.CreatorID,
			&c.LastActivityAt, &c.CreatedAt, &c.UpdatedAt, &c.UnreadCount,
		)
		if err != nil {
			return nil, apperrors.Internal("failed to scan conversation", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

// AddParticipant adds or reactivates a group membership. The count check
// and the insert run in the same transaction; the partial unique index on
// active rows settles concurrent adds of the same user.
func (s *ConversationService) AddParticipant(ctx context.Context, actorID, conversationID, userID uuid.UUID) (*models.Participant, error) {
	if err := s.ensureUsersExist(ctx, []uuid.UUID{userID}); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var convType models.ConversationType
	err = tx.QueryRow(ctx, `SELECT type FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&convType)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}
	if convType == models.ConversationDirect {
		return nil, apperrors.Conflict("participants of a direct conversation are fixed")
	}

	var actorActive bool
	err = tx.QueryRow(ctx, `
		SELECT is_active FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2 AND is_active`, conversationID, actorID).Scan(&actorActive)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrNotParticipant
		}
		return nil, apperrors.Internal("failed to check membership", err)
	}

	var activeCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE conversation_id = $1 AND is_active`, conversationID).Scan(&activeCount)
	if err != nil {
		return nil, apperrors.Internal("failed to count participants", err)
	}
	if activeCount >= models.GroupMaxParticipants {
		return nil, apperrors.Conflict(fmt.Sprintf("conversation is full (%d participants)", models.GroupMaxParticipants))
	}

	participantColumns := `id, conversation_id, user_id, role, is_active, joined_at, left_at, last_read_seq, notifications_enabled`

	// Rejoin keeps the existing membership row; the read watermark survives
	// a leave/rejoin cycle.
	var p models.Participant
	reactivate := `
		UPDATE conversation_participants
		SET is_active = TRUE, left_at = NULL, joined_at = NOW(), role = 'member'
		WHERE conversation_id = $1 AND user_id = $2 AND NOT is_active
		RETURNING ` + participantColumns
	err = tx.QueryRow(ctx, reactivate, conversationID, userID).Scan(
		&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsActive,
		&p.JoinedAt, &p.LeftAt, &p.LastReadSeq, &p.NotificationsEnabled,
	)
	if err != nil && !isNoRows(err) {
		return nil, apperrors.Internal("failed to reactivate participant", err)
	}

	if isNoRows(err) {
		insert := `
			INSERT INTO conversation_participants (conversation_id, user_id, role)
			VALUES ($1, $2, 'member')
			RETURNING ` + participantColumns
		err = tx.QueryRow(ctx, insert, conversationID, userID).Scan(
			&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsActive,
			&p.JoinedAt, &p.LeftAt, &p.LastReadSeq, &p.NotificationsEnabled,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperrors.Conflict("user is already a participant")
			}
			return nil, apperrors.Internal("failed to add participant", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Internal("failed to commit participant", err)
	}
	return &p, nil
}

// RemoveParticipant deactivates a membership. Removing someone else
// requires the admin role; any active member may leave. A group never drops
// below two active participants.
func (s *ConversationService) RemoveParticipant(ctx context.Context, actorID, conversationID, userID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var convType models.ConversationType
	err = tx.QueryRow(ctx, `SELECT type FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&convType)
	if err != nil {
		if isNoRows(err) {
			return apperrors.ErrConversationNotFound
		}
		return apperrors.Internal("failed to fetch conversation", err)
	}
	if convType == models.ConversationDirect {
		return apperrors.Conflict("participants of a direct conversation are fixed")
	}

	var actorRole models.ParticipantRole
	err = tx.QueryRow(ctx, `
		SELECT role FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2 AND is_active`, conversationID, actorID).Scan(&actorRole)
	if err != nil {
		if isNoRows(err) {
			return apperrors.ErrNotParticipant
		}
		return apperrors.Internal("failed to check membership", err)
	}
	if actorID != userID && actorRole != models.RoleAdmin {
		return apperrors.Forbidden("only an admin can remove other participants")
	}

	var activeCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE conversation_id = $1 AND is_active`, conversationID).Scan(&activeCount)
	if err != nil {
		return apperrors.Internal("failed to count participants", err)
	}
	if activeCount-1 < models.GroupMinParticipants {
		return apperrors.Conflict("removal would leave the conversation below the membership floor")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE conversation_participants
		SET is_active = FALSE, left_at = NOW()
		WHERE conversation_id = $1 AND user_id = $2 AND is_active`, conversationID, userID)
	if err != nil {
		return apperrors.Internal("failed to remove participant", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("participant not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Internal("failed to commit removal", err)
	}
	return nil
}

// IsActiveParticipant reports whether the user currently belongs to the
// conversation.
func (s *ConversationService) IsActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var active bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2 AND is_active
		)`, conversationID, userID).Scan(&active)
	if err != nil {
		return false, apperrors.Internal("failed to check membership", err)
	}
	return active, nil
}

func (s *ConversationService) listParticipants(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, user_id, role, is_active, joined_at, left_at, last_read_seq, notifications_enabled
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at ASC`, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to list participants", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		err := rows.Scan(
			&p.ID, &p.ConversationID, &p.UserID, &p.Role, &p.IsActive,
			&p.JoinedAt, &p.LeftAt, &p.LastReadSeq, &p.NotificationsEnabled,
		)
		if err != nil {
			return nil, apperrors.Internal("failed to scan participant", err)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *ConversationService) unreadCount(ctx context.Context, conversationID, userID uuid.UUID, lastReadSeq int64) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND seq > $2 AND sender_id <> $3 AND NOT is_deleted`,
		conversationID, lastReadSeq, userID).Scan(&count)
	if err != nil {
		return 0, apperrors.Internal("failed to count unread messages", err)
	}
	return count, nil
}

// isBlockedEitherWay reports whether either user has blocked the other.
func (s *ConversationService) isBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var blocked bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contacts
			WHERE is_blocked AND (
				(owner_id = $1 AND contact_id = $2) OR (owner_id = $2 AND contact_id = $1)
			)
		)`, a, b).Scan(&blocked)
	if err != nil {
		return false, apperrors.Internal("failed to check block status", err)
	}
	return blocked, nil
}

func (s *ConversationService) ensureUsersExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return apperrors.Internal("failed to look up users", err)
	}
	if count != len(ids) {
		return apperrors.ErrUserNotFound
	}
	return nil
}
