package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/gemchat-org/gemchat-backend/internal/handlers"
  "github.com/gemchat-org/gemchat-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler           *handlers.AuthHandler
  ChatHandler           *handlers.ChatHandler
  AuthMiddleware        *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
        "http://localhost:3000",
    },
    AllowMethods:     []string{"GET","POST","PUT","DELETE","PATCH","OPTIONS"},
    AllowHeaders:     []string{"Authorization","Content-Type","X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  auth := router.Group("/auth")
  {
    auth.POST("/register", cfg.AuthHandler.Register)
    auth.POST("/login", cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  authProtected := auth.Group("/")
  authProtected.Use(cfg.AuthMiddleware.RequireAuth())
  authProtected.GET("/profile", cfg.AuthHandler.Profile)

  chat := router.Group("/chat")
  chat.Use(cfg.AuthMiddleware.RequireAuth())
  chat.POST("/new", cfg.ChatHandler.NewChat)
  chat.GET("/history", cfg.ChatHandler.History)
  chat.DELETE("/delete", cfg.ChatHandler.DeleteChat)
  chat.POST("/gemini", cfg.ChatHandler.Gemini)

  return router
}
