package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
  "github.com/gemchat-org/gemchat-backend/internal/normalization"
  "github.com/gemchat-org/gemchat-backend/internal/repos"
  "github.com/gemchat-org/gemchat-backend/internal/requestdata"
  "github.com/gemchat-org/gemchat-backend/internal/types"
)

const defaultChatName = "New chat"

type ChatService interface {
  //Chat Level
  CreateChat(ctx context.Context, chatName string) (*types.Chat, error)
  GetUserChats(ctx context.Context) ([]*types.Chat, error)
  DeleteChat(ctx context.Context, chatID uuid.UUID) error
  //Message Level
  GetChatMessages(ctx context.Context, chatID uuid.UUID) ([]*types.ChatMessage, error)
  Exchange(ctx context.Context, chatID uuid.UUID, message string) (string, error)
}

type chatService struct {
  db                *gorm.DB
  log               *logger.Logger
  chatRepo          repos.ChatRepo
  chatMessageRepo   repos.ChatMessageRepo
  geminiService     GeminiService
}

func NewChatService(
  db                *gorm.DB,
  log               *logger.Logger,
  chatRepo          repos.ChatRepo,
  chatMessageRepo   repos.ChatMessageRepo,
  geminiService     GeminiService,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{
    db:               db,
    log:              serviceLog,
    chatRepo:         chatRepo,
    chatMessageRepo:  chatMessageRepo,
    geminiService:    geminiService,
  }
}

func (cs *chatService) CreateChat(ctx context.Context, chatName string) (*types.Chat, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  name := normalization.ParseInputString(chatName)
  if name == "" {
    name = defaultChatName
  }
  chat := &types.Chat{
    ID:       uuid.New(),
    UserID:   rd.UserID,
    ChatName: name,
  }
  created, err := cs.chatRepo.CreateChat(ctx, nil, chat)
  if err != nil {
    cs.log.Warn("Failed to create chat, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to create chat: %w", err)
  }
  return created, nil
}

func (cs *chatService) GetUserChats(ctx context.Context) ([]*types.Chat, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  chats, err := cs.chatRepo.GetUserChats(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to get user chats, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to get user chats: %w", err)
  }
  return chats, nil
}

// DeleteChat removes the chat row first and its messages after, outside a
// transaction. A crash between the two steps leaves orphaned message rows;
// the postgres FK cascade covers that window in production.
func (cs *chatService) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  if chatID == uuid.Nil {
    return fmt.Errorf("%w: chatId is required", apperr.ErrInvalidInput)
  }
  deleted, err := cs.chatRepo.DeleteByIDAndUser(ctx, nil, chatID, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to delete chat, Cannot proceed. Returning error.", "error", err)
    return fmt.Errorf("Failed to delete chat: %w", err)
  }
  if deleted == 0 {
    cs.log.Warn("No chat matched id and owner, nothing deleted", "chatID", chatID, "userID", rd.UserID)
    return fmt.Errorf("%w: chat not found", apperr.ErrNotFound)
  }
  if err := cs.chatMessageRepo.FullDeleteByChatID(ctx, nil, chatID); err != nil {
    cs.log.Warn("Failed to delete chat messages after chat row, Cannot proceed. Returning error.", "error", err)
    return fmt.Errorf("Failed to delete chat messages: %w", err)
  }
  return nil
}

func (cs *chatService) GetChatMessages(ctx context.Context, chatID uuid.UUID) ([]*types.ChatMessage, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  if chatID == uuid.Nil {
    return nil, fmt.Errorf("%w: chatId is required", apperr.ErrInvalidInput)
  }
  msgs, err := cs.chatMessageRepo.GetByChatID(ctx, nil, chatID)
  if err != nil {
    cs.log.Warn("Failed to get chat messages, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to get chat messages: %w", err)
  }
  return msgs, nil
}

// Exchange runs the full message round-trip:
// persist user turn -> call Gemini -> persist bot turn -> touch chat.
// The user turn is durable before the upstream call, so an upstream failure
// leaves it behind without a paired bot reply.
func (cs *chatService) Exchange(ctx context.Context, chatID uuid.UUID, message string) (string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return "", fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  if chatID == uuid.Nil || message == "" {
    cs.log.Warn("Missing chatId or message for exchange, Cannot proceed.")
    return "", fmt.Errorf("%w: chatId and message are required", apperr.ErrInvalidInput)
  }

  //1) Persist User Turn
  userTurn := &types.ChatMessage{
    ChatID: chatID,
    UserID: rd.UserID,
    Text:   message,
    IsBot:  false,
  }
  if _, err := cs.chatMessageRepo.CreateMessages(ctx, nil, []*types.ChatMessage{userTurn}); err != nil {
    cs.log.Warn("Failed to persist user turn, Cannot proceed. Returning error.", "error", err)
    return "", fmt.Errorf("Failed to persist user message: %w", err)
  }

  //2) Call Gemini
  reply, err := cs.geminiService.Complete(ctx, message)
  if err != nil {
    cs.log.Warn("Gemini call failed; user turn stays persisted without a bot reply", "error", err, "chatID", chatID)
    return "", err
  }

  //3) Persist Bot Turn
  botTurn := &types.ChatMessage{
    ChatID: chatID,
    UserID: rd.UserID,
    Text:   reply,
    IsBot:  true,
  }
  if _, err := cs.chatMessageRepo.CreateMessages(ctx, nil, []*types.ChatMessage{botTurn}); err != nil {
    cs.log.Warn("Failed to persist bot turn, Cannot proceed. Returning error.", "error", err)
    return "", fmt.Errorf("Failed to persist bot message: %w", err)
  }

  //4) Touch Chat
  if err := cs.chatRepo.TouchChat(ctx, nil, chatID); err != nil {
    cs.log.Warn("Failed to touch chat after exchange, Cannot proceed. Returning error.", "error", err)
    return "", fmt.Errorf("Failed to update chat timestamp: %w", err)
  }
  return reply, nil
}
