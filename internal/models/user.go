package models

import "time"

type User struct {
	ID             int64     `yaml:"id" json:"id"`
	Name           string    `yaml:"name" json:"name"`
	Email          string    `yaml:"email" json:"email"`
	Role           string    `yaml:"role" json:"role"` // guest, hotel_owner, admin
	TelegramChatID int64     `yaml:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at" json:"updated_at"`
}
