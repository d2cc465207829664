package types

import (
  "time"

  "github.com/google/uuid"
)

type ChatMessage struct {
  ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  ChatID      uuid.UUID       `gorm:"index;not null" json:"chatId"`
  UserID      uuid.UUID       `gorm:"index" json:"-"`
  Text        string          `gorm:"column:text" json:"text"`
  IsBot       bool            `gorm:"column:is_bot" json:"isBot"`
  CreatedAt   time.Time       `gorm:"not null" json:"createdAt"`
  UpdatedAt   time.Time       `gorm:"not null" json:"-"`
}

func (ChatMessage) TableName() string {
  return "chat_message"
}
