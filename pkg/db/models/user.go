package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a storefront customer identity.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string     `gorm:"type:text;not null;uniqueIndex"`
	Username         string     `gorm:"column:username;not null;default:''"`
	PasswordHash     string     `gorm:"column:password_hash;not null;default:''"`
	FirstName        string     `gorm:"column:first_name;not null;default:''"`
	LastName         string     `gorm:"column:last_name;not null;default:''"`
	Phone            *string    `gorm:"column:phone"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
