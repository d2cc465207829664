package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/services"
)

type ChatHandler struct {
  chatService     services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) NewChat(c *gin.Context) {
  var req struct {
    ChatName        string          `json:"chatName,omitempty"`
  }
  // Body is optional; an empty one falls through to the default chat name.
  _ = c.ShouldBindJSON(&req)
  chat, err := ch.chatService.CreateChat(c.Request.Context(), req.ChatName)
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusCreated, chat)
}

// History serves both listings: with ?chatId it returns that chat's messages
// in chronological order, without it the caller's chats most recent first.
func (ch *ChatHandler) History(c *gin.Context) {
  chatIDStr := c.Query("chatId")
  if chatIDStr != "" {
    chatID, err := uuid.Parse(chatIDStr)
    if err != nil {
      abortWithError(c, fmt.Errorf("%w: invalid chatId", apperr.ErrInvalidInput))
      return
    }
    msgs, err := ch.chatService.GetChatMessages(c.Request.Context(), chatID)
    if err != nil {
      abortWithError(c, err)
      return
    }
    c.JSON(http.StatusOK, msgs)
    return
  }
  chats, err := ch.chatService.GetUserChats(c.Request.Context())
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusOK, chats)
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
  chatIDStr := c.Query("chatId")
  if chatIDStr == "" {
    abortWithError(c, fmt.Errorf("%w: chatId is required", apperr.ErrInvalidInput))
    return
  }
  chatID, err := uuid.Parse(chatIDStr)
  if err != nil {
    abortWithError(c, fmt.Errorf("%w: invalid chatId", apperr.ErrInvalidInput))
    return
  }
  if err := ch.chatService.DeleteChat(c.Request.Context(), chatID); err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "chat deleted successfully"})
}

func (ch *ChatHandler) Gemini(c *gin.Context) {
  var req struct {
    ChatID          string          `json:"chatId"`
    Message         string          `json:"message"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if req.ChatID == "" || req.Message == "" {
    abortWithError(c, fmt.Errorf("%w: chatId and message are required", apperr.ErrInvalidInput))
    return
  }
  chatID, err := uuid.Parse(req.ChatID)
  if err != nil {
    abortWithError(c, fmt.Errorf("%w: invalid chatId", apperr.ErrInvalidInput))
    return
  }
  reply, err := ch.chatService.Exchange(c.Request.Context(), chatID, req.Message)
  if err != nil {
    abortWithError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": reply})
}
