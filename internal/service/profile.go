package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"
	"messenger-backend/internal/storage"

	"github.com/google/uuid"
)

const MaxProfilePictureSize = 5 * 1024 * 1024

// BlobStore is the external object-store boundary used by the profile
// picture flow.
type BlobStore interface {
	Upload(bucket, key, contentType string, body io.Reader) (string, error)
	Delete(publicURL string) error
}

type ProfileService struct {
	db           *database.Database
	blobs        BlobStore
	avatarBucket string
}

func NewProfileService(db *database.Database, blobs BlobStore, avatarBucket string) *ProfileService {
	return &ProfileService{db: db, blobs: blobs, avatarBucket: avatarBucket}
}

// UploadPicture replaces the user's profile picture. The old external
// object is deleted first; a failed stale delete is logged and does not
// block the replacement, since an orphaned blob is the lesser failure. The
// object key is derived from the user id so re-uploads overwrite in place.
func (s *ProfileService) UploadPicture(ctx context.Context, userID uuid.UUID, contentType string, size int64, body io.Reader) (*models.User, error) {
	if size > MaxProfilePictureSize {
		return nil, apperrors.PayloadTooLarge(fmt.Sprintf("profile picture exceeds %d bytes", MaxProfilePictureSize))
	}
	if _, ok := storage.ImageExtension(contentType); !ok {
		return nil, apperrors.UnsupportedMedia(fmt.Sprintf("content type %q is not an allowed image type", contentType))
	}

	var currentURL *string
	err := s.db.QueryRow(ctx, `SELECT profile_picture_url FROM users WHERE id = $1`, userID).Scan(&currentURL)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}

	if currentURL != nil {
		if err := s.blobs.Delete(*currentURL); err != nil {
			log.Printf("warning: stale profile picture %s not deleted: %v", *currentURL, err)
		}
	}

	key := storage.AvatarKey(userID, contentType)
	url, err := s.blobs.Upload(s.avatarBucket, key, contentType, body)
	if err != nil {
		return nil, apperrors.ExternalService("failed to upload profile picture", err)
	}

	var user models.User
	update := `
		UPDATE users SET profile_picture_url = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	if err := scanUser(s.db.QueryRow(ctx, update, url, userID), &user); err != nil {
		return nil, apperrors.Internal("failed to store profile picture reference", err)
	}
	return &user, nil
}

// DeletePicture removes the external object and then clears the local
// reference. When the external delete fails the reference is kept, so the
// blob can be retried rather than orphaned behind a dangling pointer.
func (s *ProfileService) DeletePicture(ctx context.Context, userID uuid.UUID) error {
	var currentURL *string
	err := s.db.QueryRow(ctx, `SELECT profile_picture_url FROM users WHERE id = $1`, userID).Scan(&currentURL)
	if err != nil {
		if isNoRows(err) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Internal("failed to fetch user", err)
	}
	if currentURL == nil {
		return apperrors.ErrNoProfilePicture
	}

	if err := s.blobs.Delete(*currentURL); err != nil {
		return apperrors.ExternalService("failed to delete profile picture", err)
	}

	if _, err := s.db.Exec(ctx, `UPDATE users SET profile_picture_url = NULL, updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return apperrors.Internal("failed to clear profile picture reference", err)
	}
	return nil
}
