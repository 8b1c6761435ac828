package models

import "github.com/google/uuid"

type Client struct {
	Base
	CompanyID uuid.UUID    `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string       `gorm:"not null" json:"name"`
	Notes     string       `json:"notes,omitempty"`
	Status    RecordStatus `gorm:"not null;default:'active';index" json:"status"`

	Contacts []ClientContact `gorm:"foreignKey:ClientID" json:"contacts,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

type ClientContact struct {
	Base
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	FullName string    `gorm:"not null" json:"full_name"`
	Position string    `json:"position,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty"`
}

func (ClientContact) TableName() string {
	return "client_contacts"
}
