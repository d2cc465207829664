package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/gemchat-org/gemchat-backend/internal/services"
  "github.com/gemchat-org/gemchat-backend/internal/types"
)

type AuthHandler struct {
  authService     services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Username        string              `json:"username"`
    Email           string              `json:"email"`
    Password        string              `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  user := types.User{
    Username: req.Username,
    Email:    req.Email,
    Password: req.Password,
  }
  token, err := ah.authService.RegisterUser(c.Request.Context(), &user)
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{
    "message": "registration successful",
    "token":   token,
    "user":    user,
  })
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email           string          `json:"email"`
    Password        string          `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  token, user, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "message": "login successful",
    "token":   token,
    "user":    user,
  })
}

func (ah *AuthHandler) Profile(c *gin.Context) {
  user, err := ah.authService.GetProfile(c.Request.Context())
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusOK, user)
}
