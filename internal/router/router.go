package router

import (
	"net/http"

	"ideahub/internal/handlers"
	"ideahub/internal/middleware"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps collects the long-lived services the handlers need.
type Deps struct {
	Voting  *services.VotingService
	Cascade *services.CascadeService
	Recount *services.RecountService
	LLM     *services.LLMService
	Mail    *services.MailService
	Logger  *zap.Logger
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Logger)
	ideaHandler := handlers.NewIdeaHandler(deps.Cascade, deps.Logger)
	commentHandler := handlers.NewCommentHandler(deps.Cascade, deps.Mail, deps.Logger)
	voteHandler := handlers.NewVoteHandler(deps.Voting)
	analyticsHandler := handlers.NewAnalyticsHandler(utils.NewCache(500))
	aiHandler := handlers.NewAIHandler(deps.LLM, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Recount, deps.Logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(middleware.LoadUser())

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		auth.PUT("/profile", middleware.AuthRequired(), authHandler.UpdateProfile)
	}

	api.GET("/categories", ideaHandler.Categories)

	ideas := api.Group("/ideas")
	{
		ideas.GET("", ideaHandler.List)
		ideas.GET("/:id", ideaHandler.Get)
		ideas.GET("/:id/comments", commentHandler.ListForIdea)
		ideas.GET("/:id/vote-stats", voteHandler.IdeaStats)

		protected := ideas.Group("", middleware.AuthRequired())
		{
			protected.POST("", ideaHandler.Create)
			protected.PUT("/:id", ideaHandler.Update)
			protected.DELETE("/:id", ideaHandler.Delete)
			protected.POST("/:id/comments", commentHandler.Create)
			protected.POST("/:id/votes", voteHandler.CastIdeaVote)
			protected.DELETE("/:id/votes", voteHandler.RemoveIdeaVote)
		}
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:id", commentHandler.Get)
		comments.GET("/:id/replies", commentHandler.Replies)
		comments.GET("/:id/vote-stats", voteHandler.CommentStats)

		protected := comments.Group("", middleware.AuthRequired())
		{
			protected.PUT("/:id", commentHandler.Update)
			protected.DELETE("/:id", commentHandler.Delete)
			protected.PATCH("/:id/restore", commentHandler.Restore)
			protected.DELETE("/:id/hard", commentHandler.HardDelete)
			protected.POST("/:id/votes", voteHandler.CastCommentVote)
			protected.DELETE("/:id/votes", voteHandler.RemoveCommentVote)
		}
	}

	analytics := api.Group("/analytics")
	{
		analytics.GET("/popular", analyticsHandler.Popular)
		analytics.GET("/statistics", analyticsHandler.Statistics)
		analytics.GET("/trending", analyticsHandler.Trending)
	}

	ai := api.Group("/ai", middleware.AuthRequired(), middleware.AIRateLimit())
	{
		ai.POST("/suggest", aiHandler.Suggest)
		ai.POST("/analyze/:id", aiHandler.Analyze)
	}

	admin := api.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/repair/:kind/:id", adminHandler.Repair)
		admin.GET("/statistics", adminHandler.Statistics)
	}
}
