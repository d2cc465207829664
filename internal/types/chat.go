package types

import (
  "time"

  "github.com/google/uuid"
)

type Chat struct {
  ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  UserID      uuid.UUID         `gorm:"index;not null" json:"-"`
  ChatName    string            `gorm:"column:chat_name" json:"chatName"`
  CreatedAt   time.Time         `gorm:"not null" json:"createdAt"`
  UpdatedAt   time.Time         `gorm:"not null" json:"updatedAt"`
}

func (Chat) TableName() string {
  return "chat"
}
