package repos

import (
    "testing"

    "gorm.io/driver/sqlite"
    "gorm.io/gorm"

    "github.com/gemchat-org/gemchat-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
    t.Helper()
    db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
    if err != nil {
        t.Fatalf("failed to open test db: %v", err)
    }
    sqlDB, err := db.DB()
    if err != nil {
        t.Fatalf("failed to get sql db: %v", err)
    }
    // A second pool connection would see an empty in-memory database.
    sqlDB.SetMaxOpenConns(1)
    if err := db.AutoMigrate(&types.User{}, &types.Chat{}, &types.ChatMessage{}); err != nil {
        t.Fatalf("failed to migrate test db: %v", err)
    }
    return db
}
