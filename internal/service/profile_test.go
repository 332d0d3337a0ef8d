package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"messenger-backend/internal/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	uploads []string
	deletes []string
	fail    bool
}

func (f *fakeBlobStore) Upload(bucket, key, contentType string, body io.Reader) (string, error) {
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	f.uploads = append(f.uploads, bucket+"/"+key)
	return "https://storage.example.com/" + bucket + "/" + key, nil
}

func (f *fakeBlobStore) Delete(publicURL string) error {
	if f.fail {
		return errors.New("storage unavailable")
	}
	f.deletes = append(f.deletes, publicURL)
	return nil
}

func TestUploadPictureRejectsOversizedPayload(t *testing.T) {
	blobs := &fakeBlobStore{}
	svc := NewProfileService(nil, blobs, "avatars")

	_, err := svc.UploadPicture(context.Background(), uuid.New(), "image/png", MaxProfilePictureSize+1, bytes.NewReader(nil))
	require.Error(t, err)
	require.Equal(t, apperrors.CodePayloadTooLarge, apperrors.CodeOf(err))
	require.Empty(t, blobs.uploads, "oversized uploads must never reach storage")
}

func TestUploadPictureRejectsNonImageType(t *testing.T) {
	blobs := &fakeBlobStore{}
	svc := NewProfileService(nil, blobs, "avatars")

	_, err := svc.UploadPicture(context.Background(), uuid.New(), "application/pdf", 1024, bytes.NewReader(nil))
	require.Error(t, err)
	require.Equal(t, apperrors.CodeUnsupportedMedia, apperrors.CodeOf(err))
	require.Empty(t, blobs.uploads)
}
