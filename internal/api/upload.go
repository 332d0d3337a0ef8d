package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"messenger-backend/internal/middleware"
	"messenger-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadProfilePicture replaces the caller's profile picture (multipart
// field "image", 5MB cap, image types only).
func (s *Server) UploadProfilePicture(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	user, err := s.profile.UploadPicture(c.Request.Context(), middleware.MustUserID(c), contentType, header.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) DeleteProfilePicture(c *gin.Context) {
	if err := s.profile.DeletePicture(c.Request.Context(), middleware.MustUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile picture deleted"})
}

// UploadMedia stores a chat attachment and returns its metadata; the
// caller references the URL when posting the message.
func (s *Server) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	const maxFileSize = 10 * 1024 * 1024
	if header.Size > maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	allowedTypes := map[string]bool{
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"image/gif":       true,
		"image/webp":      true,
		"video/mp4":       true,
		"video/webm":      true,
		"audio/mpeg":      true,
		"audio/ogg":       true,
		"audio/wav":       true,
		"application/pdf": true,
		"text/plain":      true,
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("File type not allowed: %s", contentType)})
		return
	}

	ext := filepath.Ext(header.Filename)
	key := uuid.New().String() + ext
	if raw := c.Query("conversation_id"); raw != "" {
		conversationID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
			return
		}
		if !s.requireParticipant(c, conversationID) {
			return
		}
		key = storage.AttachmentKey(conversationID, ext)
	}

	url, err := s.storage.Upload(s.config.Supabase.MediaBucket, key, contentType, file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to upload file: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":  url,
		"name": header.Filename,
		"type": contentType,
		"size": header.Size,
	})
}
