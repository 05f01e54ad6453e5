package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// User is the local identity created on first Google sign-in.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Email       string         `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	Picture     *string        `gorm:"column:picture"`
	Role        enums.UserRole `gorm:"column:role;type:text;not null;default:buyer"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
