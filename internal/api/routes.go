package api

import (
	"messenger-backend/internal/auth"
	"messenger-backend/internal/config"
	"messenger-backend/internal/database"
	"messenger-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRoutes(router *gin.Engine, db *database.Database, rdb *redis.Client, cfg *config.Config) {
	server := NewServer(db, rdb, cfg)
	jwtManager := auth.NewJWTManager(cfg)

	router.Use(middleware.CORSSpecific(cfg.GetCORSOrigins()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "messenger-backend",
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Auth routes (no authentication required)
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", server.Register)
			authRoutes.POST("/login", server.Login)
		}

		// Protected routes (authentication required)
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtManager, server.denylist))
		{
			protected.POST("/auth/logout", server.Logout)
			protected.POST("/auth/refresh", server.Refresh)
			protected.PUT("/auth/password", server.ChangePassword)

			// User routes
			protected.GET("/user", server.GetProfile)
			protected.PUT("/user", server.UpdateProfile)
			protected.POST("/user/profile-picture", server.UploadProfilePicture)
			protected.DELETE("/user/profile-picture", server.DeleteProfilePicture)

			// Settings routes
			protected.GET("/settings", server.GetSettings)
			protected.PUT("/settings", server.UpdateSettings)

			// Contact routes
			contacts := protected.Group("/contacts")
			{
				contacts.POST("", server.AddContact)
				contacts.GET("", server.GetContacts)
				contacts.PUT("/:id", server.UpdateContact)
				contacts.DELETE("/:id", server.RemoveContact)
			}

			// Conversation routes
			conversations := protected.Group("/conversations")
			{
				conversations.POST("", server.CreateConversation)
				conversations.GET("", server.GetConversations)
				conversations.GET("/:id", server.GetConversation)
				conversations.POST("/:id/participants", server.AddParticipant)
				conversations.DELETE("/:id/participants/:userId", server.RemoveParticipant)

				conversations.POST("/:id/messages", server.PostMessage)
				conversations.GET("/:id/messages", server.GetMessages)
				conversations.POST("/:id/read", server.MarkRead)

				conversations.PUT("/:id/typing", server.StartTyping)
				conversations.DELETE("/:id/typing", server.StopTyping)
				conversations.GET("/:id/typing", server.GetTyping)
			}

			// Message routes addressed by message id
			protected.PUT("/messages/:id", server.EditMessage)
			protected.DELETE("/messages/:id", server.DeleteMessage)

			// Media upload for chat attachments
			protected.POST("/media/upload", server.UploadMedia)
		}
	}
}
