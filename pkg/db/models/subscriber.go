package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a mailing-list entry keyed by email.
type Subscriber struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
