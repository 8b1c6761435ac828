package models

import "github.com/google/uuid"

type Project struct {
	Base
	CompanyID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"company_id"`
	ClientID    *uuid.UUID   `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	Status      RecordStatus `gorm:"not null;default:'active';index" json:"status"`

	Client *Client `gorm:"foreignKey:ClientID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}
