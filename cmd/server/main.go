package main

import (
	"log"
	"os"

	"ideahub/internal/db"
	"ideahub/internal/router"
	"ideahub/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	logger, err := zap.NewProduction()
	if os.Getenv("GIN_MODE") != "release" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	db.Init()

	// Services
	voting := services.NewVotingService(db.DB, logger)
	recount := services.NewRecountService(db.DB, logger)
	voting.SetRecounter(recount)
	cascade := services.NewCascadeService(db.DB, logger)
	llm := services.NewLLMService(logger)
	mail := services.NewMailService(logger)

	// Initialize Gin
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.RegisterRoutes(r, router.Deps{
		Voting:  voting,
		Cascade: cascade,
		Recount: recount,
		LLM:     llm,
		Mail:    mail,
		Logger:  logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("IdeaHub server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
