package repos

import (
    "context"
    "testing"
    "time"

    "github.com/google/uuid"

    "github.com/gemchat-org/gemchat-backend/internal/logger"
    "github.com/gemchat-org/gemchat-backend/internal/types"
)

func TestGetByChatIDChronological(t *testing.T) {
    db := newTestDB(t)
    repo := NewChatMessageRepo(db, logger.NewNop())
    ctx := context.Background()
    chatID := uuid.New()
    userID := uuid.New()

    base := time.Now().Add(-time.Hour)
    // Insert out of order on purpose; the query must sort by creation time.
    if _, err := repo.CreateMessages(ctx, nil, []*types.ChatMessage{
        {ChatID: chatID, UserID: userID, Text: "reply", IsBot: true, CreatedAt: base.Add(time.Second)},
        {ChatID: chatID, UserID: userID, Text: "question", IsBot: false, CreatedAt: base},
    }); err != nil {
        t.Fatalf("CreateMessages failed: %v", err)
    }

    msgs, err := repo.GetByChatID(ctx, nil, chatID)
    if err != nil {
        t.Fatalf("GetByChatID failed: %v", err)
    }
    if len(msgs) != 2 {
        t.Fatalf("Expected 2 messages, got %d", len(msgs))
    }
    if msgs[0].Text != "question" || msgs[1].Text != "reply" {
        t.Errorf("Expected chronological order, got [%s, %s]", msgs[0].Text, msgs[1].Text)
    }
    for i := 1; i < len(msgs); i++ {
        if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
            t.Errorf("Message %d created before message %d", i, i-1)
        }
    }
}

func TestFullDeleteByChatID(t *testing.T) {
    db := newTestDB(t)
    repo := NewChatMessageRepo(db, logger.NewNop())
    ctx := context.Background()
    chatID := uuid.New()
    otherChatID := uuid.New()
    userID := uuid.New()

    if _, err := repo.CreateMessages(ctx, nil, []*types.ChatMessage{
        {ChatID: chatID, UserID: userID, Text: "one", IsBot: false},
        {ChatID: chatID, UserID: userID, Text: "two", IsBot: true},
        {ChatID: otherChatID, UserID: userID, Text: "keep", IsBot: false},
    }); err != nil {
        t.Fatalf("CreateMessages failed: %v", err)
    }

    if err := repo.FullDeleteByChatID(ctx, nil, chatID); err != nil {
        t.Fatalf("FullDeleteByChatID failed: %v", err)
    }

    msgs, err := repo.GetByChatID(ctx, nil, chatID)
    if err != nil {
        t.Fatalf("GetByChatID failed: %v", err)
    }
    if len(msgs) != 0 {
        t.Errorf("Expected 0 messages after delete, got %d", len(msgs))
    }

    kept, err := repo.GetByChatID(ctx, nil, otherChatID)
    if err != nil {
        t.Fatalf("GetByChatID failed: %v", err)
    }
    if len(kept) != 1 {
        t.Errorf("Expected other chat's message untouched, got %d", len(kept))
    }
}
