package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered user.
type User struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Username       string         `json:"username" gorm:"uniqueIndex;size:64;not null"`
	HashedPassword string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role           Role           `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	PhoneNumber    *string        `json:"phone_number,omitempty" gorm:"size:25"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tasks []Task `json:"-" gorm:"foreignKey:OwnerID"`
}

// BeforeCreate defaults the role of new users.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
