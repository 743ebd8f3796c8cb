package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"talentTrack/internal/api/middleware"
	"talentTrack/internal/auth"
	"talentTrack/internal/config"
	"talentTrack/internal/storage"
)

// RegisterRoutes 注册全部 API 路由。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	storageClient *storage.Client,
	logger *slog.Logger,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger, cfg.API.LoginRateLimitPerHour, cfg.API.CookieDomain)
	candidateHandler := NewCandidateHandler(db, asynqClient, storageClient, logger, cfg.Clamd.Addr, cfg.Upload.MaxBytes)
	jobHandler := NewJobHandler(db, asynqClient, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.WsAllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(authService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		candidateGroup := v1.Group("/candidates")
		candidateGroup.Use(authMiddleware, passwordGate)
		{
			candidateGroup.POST("/upload", candidateHandler.UploadResume)
			candidateGroup.GET("", candidateHandler.ListCandidates)
			candidateGroup.GET("/:id", candidateHandler.GetCandidate)
			candidateGroup.PUT("/:id", candidateHandler.UpdateCandidate)
			candidateGroup.DELETE("/:id", candidateHandler.DeleteCandidate)
			candidateGroup.GET("/:id/matches", candidateHandler.ListMatches)
			candidateGroup.GET("/:id/resume-link", candidateHandler.GetResumeLink)
		}

		jobGroup := v1.Group("/jobs")
		jobGroup.Use(authMiddleware, passwordGate)
		{
			jobGroup.POST("", jobHandler.CreateJob)
			jobGroup.GET("", jobHandler.ListJobs)
			jobGroup.GET("/:id", jobHandler.GetJob)
			jobGroup.PUT("/:id", jobHandler.UpdateJob)
			jobGroup.DELETE("/:id", jobHandler.DeleteJob)
		}
	}
}
