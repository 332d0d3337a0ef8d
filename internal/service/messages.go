package service

import (
	"context"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MessageService struct {
	db *database.Database
}

func NewMessageService(db *database.Database) *MessageService {
	return &MessageService{db: db}
}

const messageColumns = `id, seq, conversation_id, sender_id, message_type, content, media_url,
	reply_to_message_id, is_edited, edited_at, is_deleted, deleted_at, created_at`

func scanMessage(row pgx.Row, m *models.Message) error {
	return row.Scan(
		&m.ID, &m.Seq, &m.ConversationID, &m.SenderID, &m.MessageType, &m.Content, &m.MediaURL,
		&m.ReplyToMessageID, &m.IsEdited, &m.EditedAt, &m.IsDeleted, &m.DeletedAt, &m.CreatedAt,
	)
}

// Post appends a message to the conversation. The sender must be an active
// participant, the payload must carry content or media, and a reply target
// must live in the same conversation. Ordering comes from the store-assigned
// seq, never from wall-clock time.
func (s *MessageService) Post(ctx context.Context, senderID, conversationID uuid.UUID, req *models.PostMessageRequest) (*models.Message, error) {
	if err := validateMessagePayload(req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, conversationID).Scan(&exists); err != nil {
		return nil, apperrors.Internal("failed to fetch conversation", err)
	}
	if !exists {
		return nil, apperrors.ErrConversationNotFound
	}

	var active bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2 AND is_active
		)`, conversationID, senderID).Scan(&active)
	if err != nil {
		return nil, apperrors.Internal("failed to check membership", err)
	}
	if !active {
		return nil, apperrors.ErrNotParticipant
	}

	if req.ReplyToMessageID != nil {
		var replyConvID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT conversation_id FROM messages WHERE id = $1`, *req.ReplyToMessageID).Scan(&replyConvID)
		if err != nil || replyConvID != conversationID {
			if err != nil && !isNoRows(err) {
				return nil, apperrors.Internal("failed to resolve reply target", err)
			}
			return nil, apperrors.NotFound("reply target not found in this conversation")
		}
	}

	var msg models.Message
	insert := `
		INSERT INTO messages (conversation_id, sender_id, message_type, content, media_url, reply_to_message_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns
	err = scanMessage(tx.QueryRow(ctx, insert,
		conversationID, senderID, req.MessageType, req.Content, req.MediaURL, req.ReplyToMessageID,
	), &msg)
	if err != nil {
		return nil, apperrors.Internal("failed to create message", err)
	}

	for _, a := range req.Attachments {
		var att models.Attachment
		err := tx.QueryRow(ctx, `
			INSERT INTO attachments (message_id, file_name, file_type, file_size, url, thumbnail_url, duration, width, height)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, message_id, file_name, file_type, file_size, url, thumbnail_url, duration, width, height, created_at`,
			msg.ID, a.FileName, a.FileType, a.FileSize, a.URL, a.ThumbnailURL, a.Duration, a.Width, a.Height,
		).Scan(
			&att.ID, &att.MessageID, &att.FileName, &att.FileType, &att.FileSize, &att.URL,
			&att.ThumbnailURL, &att.Duration, &att.Width, &att.Height, &att.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Internal("failed to create attachment", err)
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	if _, err := tx.Exec(ctx, `UPDATE conversations SET last_activity_at = NOW(), updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return nil, apperrors.Internal("failed to update conversation activity", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Internal("failed to commit message", err)
	}
	return &msg, nil
}

// List pages messages by seq, newest page first but each page in ascending
// order. Deleted messages are returned as tombstones so ordering and reply
// chains stay intact for the reader.
func (s *MessageService) List(ctx context.Context, userID, conversationID uuid.UUID, beforeSeq int64, limit int) ([]models.Message, error) {
	var active bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2 AND is_active
		)`, conversationID, userID).Scan(&active)
	if err != nil {
		return nil, apperrors.Internal("failed to check membership", err)
	}
	if !active {
		return nil, apperrors.ErrNotParticipant
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND ($2::BIGINT = 0 OR seq < $2)
		ORDER BY seq DESC
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, conversationID, beforeSeq, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list messages", err)
	}
	defer rows.Close()

	var page []models.Message
	for rows.Next() {
		var m models.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, apperrors.Internal("failed to scan message", err)
		}
		page = append(page, m)
	}
	rows.Close()

	// Reverse into ascending seq order.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	if err := s.loadAttachments(ctx, page); err != nil {
		return nil, err
	}
	for i := range page {
		page[i].Tombstone()
	}
	if page == nil {
		page = []models.Message{}
	}
	return page, nil
}

// Edit rewrites the content of the caller's own message. A deleted message
// is terminal and can no longer be edited; repeated edits refresh edited_at.
func (s *MessageService) Edit(ctx context.Context, actorID, messageID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	if err := scanMessage(s.db.QueryRow(ctx, query, messageID), &msg); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Internal("failed to fetch message", err)
	}

	if msg.SenderID != actorID {
		return nil, apperrors.ErrNotMessageOwner
	}
	if msg.State() == models.MessageStateDeleted {
		return nil, apperrors.ErrMessageDeleted
	}

	update := `
		UPDATE messages
		SET content = $1, is_edited = TRUE, edited_at = NOW()
		WHERE id = $2 AND NOT is_deleted
		RETURNING ` + messageColumns
	if err := scanMessage(s.db.QueryRow(ctx, update, content, messageID), &msg); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrMessageDeleted
		}
		return nil, apperrors.Internal("failed to edit message", err)
	}
	return &msg, nil
}

// Delete soft-deletes a message. The sender or a conversation admin may
// delete; a second delete of the same message is a no-op, not an error.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	if err := scanMessage(s.db.QueryRow(ctx, query, messageID), &msg); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Internal("failed to fetch message", err)
	}

	if msg.SenderID != actorID {
		var actorRole models.ParticipantRole
		err := s.db.QueryRow(ctx, `
			SELECT role FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2 AND is_active`, msg.ConversationID, actorID).Scan(&actorRole)
		if err != nil || actorRole != models.RoleAdmin {
			if err != nil && !isNoRows(err) {
				return nil, apperrors.Internal("failed to check membership", err)
			}
			return nil, apperrors.Forbidden("only the sender or an admin can delete a message")
		}
	}

	// Deleted is terminal: a repeat delete returns the tombstone unchanged.
	if msg.State() == models.MessageStateDeleted {
		msg.Tombstone()
		return &msg, nil
	}

	update := `
		UPDATE messages
		SET is_deleted = TRUE, deleted_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING ` + messageColumns
	if err := scanMessage(s.db.QueryRow(ctx, update, messageID), &msg); err != nil {
		if !isNoRows(err) {
			return nil, apperrors.Internal("failed to delete message", err)
		}
		// A concurrent delete won the race; return its tombstone.
		if err := scanMessage(s.db.QueryRow(ctx, query, messageID), &msg); err != nil {
			return nil, apperrors.Internal("failed to fetch message", err)
		}
	}
	msg.Tombstone()
	return &msg, nil
}

// MarkRead advances the caller's read watermark to the given message. The
// update is conditional on the cursor not moving backwards, which keeps it
// correct under concurrent calls from multiple sessions.
func (s *MessageService) MarkRead(ctx context.Context, userID, conversationID, messageID uuid.UUID) (int64, error) {
	var seq int64
	var msgConvID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT seq, conversation_id FROM messages WHERE id = $1`, messageID).Scan(&seq, &msgConvID)
	if err != nil || msgConvID != conversationID {
		if err != nil && !isNoRows(err) {
			return 0, apperrors.Internal("failed to resolve message", err)
		}
		return 0, apperrors.Validation("message does not belong to the conversation")
	}

	// Membership probe only; the conditional update below enforces
	// monotonicity on its own.
	var one int
	err = s.db.QueryRow(ctx, `
		SELECT 1 FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2 AND is_active`, conversationID, userID).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return 0, apperrors.ErrNotParticipant
		}
		return 0, apperrors.Internal("failed to check membership", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE conversation_participants
		SET last_read_seq = $1
		WHERE conversation_id = $2 AND user_id = $3 AND is_active AND last_read_seq <= $1`,
		seq, conversationID, userID)
	if err != nil {
		return 0, apperrors.Internal("failed to advance read cursor", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, apperrors.Validation("read cursor cannot move backwards")
	}
	return seq, nil
}

func (s *MessageService) loadAttachments(ctx context.Context, page []models.Message) error {
	index := make(map[uuid.UUID]*models.Message, len(page))
	ids := make([]uuid.UUID, 0, len(page))
	for i := range page {
		if page[i].IsDeleted {
			continue
		}
		index[page[i].ID] = &page[i]
		ids = append(ids, page[i].ID)
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, message_id, file_name, file_type, file_size, url, thumbnail_url, duration, width, height, created_at
		FROM attachments
		WHERE message_id = ANY($1)
		ORDER BY created_at ASC`, ids)
	if err != nil {
		return apperrors.Internal("failed to load attachments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Attachment
		err := rows.Scan(
			&a.ID, &a.MessageID, &a.FileName, &a.FileType, &a.FileSize, &a.URL,
			&a.ThumbnailURL, &a.Duration, &a.Width, &a.Height, &a.CreatedAt,
		)
		if err != nil {
			return apperrors.Internal("failed to scan attachment", err)
		}
		if m, ok := index[a.MessageID]; ok {
			m.Attachments = append(m.Attachments, a)
		}
	}
	return nil
}
