package repos

import (
    "context"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/gemchat-org/gemchat-backend/internal/logger"
    "github.com/gemchat-org/gemchat-backend/internal/types"
)

type ChatRepo interface {
    CreateChat(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
    GetByID(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (*types.Chat, error)
    GetUserChats(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error)
    DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error)
    TouchChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error
}

type chatRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
    return &chatRepo{
        db: db,
        log: baseLog.With("repo", "ChatRepo"),
    }
}

func (cr *chatRepo) CreateChat(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
    if tx == nil {
        tx = cr.db
    }
    if chat.ID == uuid.Nil {
        chat.ID = uuid.New()
    }
    if err := tx.WithContext(ctx).Create(chat).Error; err != nil {
        cr.log.Error("failed to create chat", "error", err)
        return nil, err
    }
    return chat, nil
}

func (cr *chatRepo) GetByID(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (*types.Chat, error) {
    if tx == nil {
        tx = cr.db
    }
    var c types.Chat
    if err := tx.WithContext(ctx).
        Where("id = ?", chatID).
        First(&c).Error; err != nil {
        return nil, err
    }
    return &c, nil
}

func (cr *chatRepo) GetUserChats(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chat, error) {
    if tx == nil {
        tx = cr.db
    }
    var chats []*types.Chat
    if err := tx.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("updated_at DESC").
        Find(&chats).Error; err != nil {
        cr.log.Error("failed to get user chats", "error", err)
        return nil, err
    }
    return chats, nil
}

// DeleteByIDAndUser removes the chat only when both id and owner match, so
// ownership is enforced by the query itself. Returns the number of rows
// removed.
func (cr *chatRepo) DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error) {
    if tx == nil {
        tx = cr.db
    }
    res := tx.WithContext(ctx).
        Where("id = ? AND user_id = ?", chatID, userID).
        Delete(&types.Chat{})
    if res.Error != nil {
        cr.log.Error("failed to delete chat", "error", res.Error)
        return 0, res.Error
    }
    return res.RowsAffected, nil
}

func (cr *chatRepo) TouchChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error {
    if tx == nil {
        tx = cr.db
    }
    if err := tx.WithContext(ctx).
        Model(&types.Chat{}).
        Where("id = ?", chatID).
        Update("updated_at", time.Now()).Error; err != nil {
        cr.log.Error("failed to touch chat", "error", err)
        return err
    }
    return nil
}
