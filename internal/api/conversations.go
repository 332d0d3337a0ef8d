package api

import (
	"net/http"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/middleware"
	"messenger-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) CreateConversation(c *gin.Context) {
	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := s.conversations.Create(c.Request.Context(), middleware.MustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) GetConversations(c *gin.Context) {
	conversations, err := s.conversations.List(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (s *Server) GetConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	conv, err := s.conversations.Get(c.Request.Context(), middleware.MustUserID(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) AddParticipant(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var req models.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := s.conversations.AddParticipant(c.Request.Context(), middleware.MustUserID(c), conversationID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}

func (s *Server) RemoveParticipant(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := s.conversations.RemoveParticipant(c.Request.Context(), middleware.MustUserID(c), conversationID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant removed"})
}

// Typing indicators

func (s *Server) requireParticipant(c *gin.Context, conversationID uuid.UUID) bool {
	active, err := s.conversations.IsActiveParticipant(c.Request.Context(), conversationID, middleware.MustUserID(c))
	if err != nil {
		respondError(c, err)
		return false
	}
	if !active {
		respondError(c, apperrors.ErrNotParticipant)
		return false
	}
	return true
}

func (s *Server) StartTyping(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}
	if s.typing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Typing indicators unavailable"})
		return
	}

	if !s.requireParticipant(c, conversationID) {
		return
	}
	if err := s.typing.Set(c.Request.Context(), conversationID, middleware.MustUserID(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to set typing indicator"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Typing"})
}

func (s *Server) StopTyping(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}
	if s.typing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Typing indicators unavailable"})
		return
	}

	if !s.requireParticipant(c, conversationID) {
		return
	}
	if err := s.typing.Clear(c.Request.Context(), conversationID, middleware.MustUserID(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to clear typing indicator"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stopped typing"})
}

func (s *Server) GetTyping(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}
	if s.typing == nil {
		c.JSON(http.StatusOK, gin.H{"user_ids": []uuid.UUID{}})
		return
	}
	if !s.requireParticipant(c, conversationID) {
		return
	}

	userIDs, err := s.typing.Active(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch typing indicators"})
		return
	}
	if userIDs == nil {
		userIDs = []uuid.UUID{}
	}
	c.JSON(http.StatusOK, gin.H{"user_ids": userIDs})
}
