package storage

import "github.com/google/uuid"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension maps an allowed image MIME type to a file extension.
// The second return is false for types the profile-picture flow rejects.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// AvatarKey derives the object key for a user's profile picture from the
// user id alone, so a re-upload always overwrites the same object.
func AvatarKey(userID uuid.UUID, contentType string) string {
	ext, _ := ImageExtension(contentType)
	return userID.String() + ext
}

// AttachmentKey namespaces chat media by conversation with a fresh object
// id per upload.
func AttachmentKey(conversationID uuid.UUID, ext string) string {
	return conversationID.String() + "/" + uuid.New().String() + ext
}
