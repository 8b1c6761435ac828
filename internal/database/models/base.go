package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID primary key and timestamps
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// RecordStatus is the lifecycle state shared by company-scoped business
// records. Removed rows stay in the table but never show up in lists again.
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusArchived RecordStatus = "archived"
	StatusRemoved  RecordStatus = "removed"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusRemoved:
		return true
	}
	return false
}
