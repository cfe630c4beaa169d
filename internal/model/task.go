package model

import (
	"time"

	"gorm.io/gorm"
)

// Task is a to-do record owned by exactly one user.
type Task struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OwnerID     uint           `json:"owner_id" gorm:"not null;index"`
	Title       string         `json:"title" gorm:"size:16;not null"`
	Description string         `json:"description" gorm:"size:100;not null"`
	Priority    int            `json:"priority" gorm:"not null"`
	Complete    bool           `json:"complete" gorm:"default:false;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Owner User `json:"-" gorm:"foreignKey:OwnerID"`
}
