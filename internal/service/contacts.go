package service

import (
	"context"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
)

type ContactService struct {
	db *database.Database
}

func NewContactService(db *database.Database) *ContactService {
	return &ContactService{db: db}
}

const contactColumns = `id, owner_id, contact_id, nickname, is_blocked, is_favorite, created_at, updated_at`

// Add creates the directed edge owner -> contact. The pair is unique; a
// second add surfaces as a conflict rather than a duplicate row.
func (s *ContactService) Add(ctx context.Context, ownerID uuid.UUID, req *models.AddContactRequest) (*models.Contact, error) {
	if req.ContactID == ownerID {
		return nil, apperrors.Validation("cannot add yourself as a contact")
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, req.ContactID).Scan(&exists); err != nil {
		return nil, apperrors.Internal("failed to look up user", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	var contact models.Contact
	query := `
		INSERT INTO contacts (owner_id, contact_id, nickname)
		VALUES ($1, $2, $3)
		RETURNING ` + contactColumns
	err := s.db.QueryRow(ctx, query, ownerID, req.ContactID, req.Nickname).Scan(
		&contact.ID, &contact.OwnerID, &contact.ContactID, &contact.Nickname,
		&contact.IsBlocked, &contact.IsFavorite, &contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrContactExists
		}
		return nil, apperrors.Internal("failed to create contact", err)
	}
	return &contact, nil
}

func (s *ContactService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	query := `
		SELECT c.id, c.owner_id, c.contact_id, c.nickname, c.is_blocked, c.is_favorite, c.created_at, c.updated_at,
			u.username, u.display_name, u.profile_picture_url
		FROM contacts c
		JOIN users u ON u.id = c.contact_id
		WHERE c.owner_id = $1
		ORDER BY u.display_name ASC`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to list contacts", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		err := rows.Scan(
			&c.ID, &c.OwnerID, &c.ContactID, &c.Nickname, &c.IsBlocked, &c.IsFavorite,
			&c.CreatedAt, &c.UpdatedAt, &c.ContactUsername, &c.ContactDisplayName, &c.ContactPictureURL,
		)
		if err != nil {
			return nil, apperrors.Internal("failed to scan contact", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Update applies a partial update to nickname and the block/favorite flags.
func (s *ContactService) Update(ctx context.Context, ownerID, contactID uuid.UUID, req *models.UpdateContactRequest) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET nickname = COALESCE($1, nickname),
			is_blocked = COALESCE($2, is_blocked),
			is_favorite = COALESCE($3, is_favorite),
			updated_at = NOW()
		WHERE owner_id = $4 AND contact_id = $5
		RETURNING ` + contactColumns

	var contact models.Contact
	err := s.db.QueryRow(ctx, query, req.Nickname, req.IsBlocked, req.IsFavorite, ownerID, contactID).Scan(
		&contact.ID, &contact.OwnerID, &contact.ContactID, &contact.Nickname,
		&contact.IsBlocked, &contact.IsFavorite, &contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrContactNotFound
		}
		return nil, apperrors.Internal("failed to update contact", err)
	}
	return &contact, nil
}

func (s *ContactService) Remove(ctx context.Context, ownerID, contactID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM contacts WHERE owner_id = $1 AND contact_id = $2`, ownerID, contactID)
	if err != nil {
		return apperrors.Internal("failed to remove contact", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrContactNotFound
	}
	return nil
}
