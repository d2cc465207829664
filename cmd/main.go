package main

import (
  "fmt"
  "os"
  "time"

  "github.com/gemchat-org/gemchat-backend/internal/db"
  "github.com/gemchat-org/gemchat-backend/internal/handlers"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
  "github.com/gemchat-org/gemchat-backend/internal/middleware"
  "github.com/gemchat-org/gemchat-backend/internal/repos"
  "github.com/gemchat-org/gemchat-backend/internal/server"
  "github.com/gemchat-org/gemchat-backend/internal/services"
  "github.com/gemchat-org/gemchat-backend/internal/utils"
)

func main() {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  tokenTTL := utils.GetEnvAsInt("TOKEN_TTL", 604800, log)
  log.Info("Environment variables loaded for Main :)")

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Fatal error: Cannot init Postgres", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  chatRepo := repos.NewChatRepo(thePG, log)
  chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService", "error", err)
  }
  geminiService, err := services.NewGeminiService(log)
  if err != nil {
    log.Error("Fatal error: Cannot init GeminiService", "error", err)
    os.Exit(1)
  }
  authService := services.NewAuthService(thePG, log, userRepo, emailService, jwtSecretKey, time.Duration(tokenTTL)*time.Second)
  chatService := services.NewChatService(thePG, log, chatRepo, chatMessageRepo, geminiService)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService)
  chatHandler := handlers.NewChatHandler(chatService)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  log.Info("Setting Up Middleware from Main now...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  log.Info("Middleware Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:    authHandler,
    ChatHandler:    chatHandler,
    AuthMiddleware: authMiddleware,
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
