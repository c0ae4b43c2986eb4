package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/auth"
	"partyspark-backend/internal/config"
	"partyspark-backend/internal/middleware"
)

// SetupRoutes wires every handler group onto the engine.
func SetupRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, resets *auth.ResetTokenStore, log *zap.Logger, cfg *config.Config) {
	authHandler := NewAuthHandler(db, resets, log, cfg.JWTSecret)
	userHandler := NewUserHandler(db, log)
	categoryHandler := NewCategoryHandler(db, log)
	partyHandler := NewPartyHandler(db, rdb, log)
	rsvpHandler := NewRSVPHandler(db, log)
	commentHandler := NewCommentHandler(db, log)
	likeHandler := NewLikeHandler(db, log)
	invitationHandler := NewInvitationHandler(db, log)
	notificationHandler := NewNotificationHandler(db, log)
	mediaHandler := NewMediaHandler(db, log, cfg.MediaRoot, cfg.MaxUploadMB)
	analyticsHandler := NewAnalyticsHandler(db, rdb, log)
	adminHandler := NewAdminHandler(db, log)
	healthHandler := NewHealthHandler(db, rdb, cfg.APIVersion)

	// Public surface
	r.GET("/health/", healthHandler.Health)
	r.GET("/api/info/", healthHandler.Info)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/media", cfg.MediaRoot)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/password/reset", authHandler.RequestPasswordReset)
		authGroup.POST("/password/reset/confirm", authHandler.ConfirmPasswordReset)
	}

	requireAuth := middleware.Auth(cfg.JWTSecret)

	authed := v1.Group("", requireAuth)
	{
		authed.POST("/auth/password/change", authHandler.ChangePassword)

		authed.GET("/users/me", userHandler.Me)
		authed.PATCH("/users/me", userHandler.UpdateMe)
		authed.GET("/users/me/settings", userHandler.GetSettings)
		authed.PATCH("/users/me/settings", userHandler.UpdateSettings)
		authed.GET("/users/:id", userHandler.GetUser)
		authed.POST("/connections", userHandler.CreateConnection)
		authed.PATCH("/connections/:id", userHandler.RespondConnection)
		authed.GET("/connections", userHandler.ListConnections)
	}

	parties := v1.Group("/parties")
	{
		parties.GET("", partyHandler.List)
		parties.GET("/categories", categoryHandler.List)
		parties.GET("/:id", partyHandler.Get)
		parties.GET("/:id/comments", commentHandler.List)
		parties.GET("/:id/likes", likeHandler.List)

		owned := parties.Group("", requireAuth)
		{
			owned.POST("", partyHandler.Create)
			owned.PUT("/:id", partyHandler.Update)
			owned.PATCH("/:id/status", partyHandler.UpdateStatus)
			owned.DELETE("/:id", partyHandler.Delete)
			owned.POST("/:id/cohosts", partyHandler.AddCoHost)
			owned.DELETE("/:id/cohosts/:userId", partyHandler.RemoveCoHost)

			owned.POST("/:id/rsvp", rsvpHandler.Respond)
			owned.GET("/:id/rsvps", rsvpHandler.List)
			owned.POST("/:id/rsvps/:rsvpId/approve", rsvpHandler.Approve)
			owned.POST("/:id/rsvps/:rsvpId/checkin", rsvpHandler.CheckIn)

			owned.POST("/:id/comments", commentHandler.Create)
			owned.POST("/:id/like", likeHandler.Toggle)

			owned.POST("/:id/invite", invitationHandler.Invite)
			owned.GET("/:id/invitations", invitationHandler.ListSent)
		}
	}

	invitations := v1.Group("/invitations", requireAuth)
	{
		invitations.GET("", invitationHandler.ListMine)
		invitations.POST("/:id/respond", invitationHandler.Respond)
		invitations.POST("/:id/revoke", invitationHandler.Revoke)
	}

	comments := v1.Group("/comments", requireAuth)
	{
		comments.PATCH("/:commentId", commentHandler.Update)
		comments.DELETE("/:commentId", commentHandler.Delete)
		comments.POST("/:commentId/pin", commentHandler.Pin)
	}

	notifications := v1.Group("/notifications", requireAuth)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	media := v1.Group("/media", requireAuth)
	{
		media.POST("/upload", mediaHandler.Upload)
		media.GET("", mediaHandler.ListMine)
		media.DELETE("/:id", mediaHandler.Delete)
	}

	analytics := v1.Group("/analytics", requireAuth)
	{
		analytics.GET("/parties/:id", analyticsHandler.PartySummary)
		analytics.GET("/overview", analyticsHandler.HostOverview)
		analytics.GET("/platform", middleware.RequireAdmin(db), analyticsHandler.PlatformOverview)
	}

	admin := v1.Group("/admin", requireAuth, middleware.RequireAdmin(db))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.UpdateUserFlags)
		admin.GET("/profiles", adminHandler.ListProfiles)
		admin.GET("/parties", adminHandler.ListParties)
		admin.GET("/rsvps", adminHandler.ListRSVPs)
		admin.GET("/comments", adminHandler.ListComments)

		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)
	}
}
