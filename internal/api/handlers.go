package api

import (
	"net/http"
	"time"

	"messenger-backend/internal/auth"
	"messenger-backend/internal/config"
	"messenger-backend/internal/database"
	"messenger-backend/internal/middleware"
	"messenger-backend/internal/models"
	"messenger-backend/internal/service"
	"messenger-backend/internal/storage"
	"messenger-backend/internal/typing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	db         *database.Database
	config     *config.Config
	jwtManager *auth.JWTManager
	denylist   *auth.Denylist

	users         *service.UserService
	profile       *service.ProfileService
	conversations *service.ConversationService
	messages      *service.MessageService
	contacts      *service.ContactService
	settings      *service.SettingsService
	typing        *typing.Store
	storage       *storage.SupabaseStorage
}

func NewServer(db *database.Database, rdb *redis.Client, cfg *config.Config) *Server {
	blobs := storage.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)

	var denylist *auth.Denylist
	var typingStore *typing.Store
	if rdb != nil {
		denylist = auth.NewDenylist(rdb)
		typingStore = typing.NewStore(rdb)
	}

	return &Server{
		db:            db,
		config:        cfg,
		jwtManager:    auth.NewJWTManager(cfg),
		denylist:      denylist,
		users:         service.NewUserService(db),
		profile:       service.NewProfileService(db, blobs, cfg.Supabase.AvatarBucket),
		conversations: service.NewConversationService(db),
		messages:      service.NewMessageService(db),
		contacts:      service.NewContactService(db),
		settings:      service.NewSettingsService(db),
		typing:        typingStore,
		storage:       blobs,
	}
}

// Auth handlers

func (s *Server) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, models.LoginResponse{User: *user, Token: token})
}

func (s *Server) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{User: *user, Token: token})
}

// Logout denylists the presented token for its remaining lifetime.
func (s *Server) Logout(c *gin.Context) {
	if s.denylist != nil {
		jti := c.GetString("token_jti")
		if expiresAt, ok := c.Get("token_expires_at"); ok {
			_ = s.denylist.Revoke(c.Request.Context(), jti, expiresAt.(time.Time))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Refresh exchanges a valid token for a fresh one.
func (s *Server) Refresh(c *gin.Context) {
	user, err := s.users.Get(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{User: *user, Token: token})
}

// User handlers

func (s *Server) GetProfile(c *gin.Context) {
	user, err := s.users.Get(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), middleware.MustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.users.ChangePassword(c.Request.Context(), middleware.MustUserID(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
