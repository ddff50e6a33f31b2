package models

import "time"

type Hotel struct {
	ID          int64     `yaml:"id" json:"id"`
	OwnerUserID int64     `yaml:"owner_user_id" json:"owner_user_id"`
	Name        string    `yaml:"name" json:"name"`
	City        string    `yaml:"city" json:"city"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}
