package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"not null" json:"first_name"`
	LastName     string `gorm:"not null" json:"last_name"`
	MiddleName   string `json:"middle_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`

	IsEmailVerified bool `gorm:"default:false" json:"is_email_verified"`

	// Single-slot verification code: serves initial signup verification and,
	// together with PendingEmail, email-change confirmation. Issuing a new
	// code overwrites any outstanding one.
	EmailVerificationCode string     `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	PendingEmail          string     `json:"-"`

	// Single-slot password reset code.
	PasswordResetCode    string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	CurrentCompanyID *uuid.UUID `gorm:"type:uuid" json:"current_company_id,omitempty"`

	Memberships []CompanyUser `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}
