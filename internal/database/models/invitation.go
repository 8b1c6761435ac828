package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
)

// Invitation is a pending grant of company membership, redeemed by token.
// Rows are never deleted; redemption and cancellation are status transitions.
type Invitation struct {
	Base
	CompanyID uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	Email     string           `gorm:"not null;index" json:"email"`
	Role      Role             `gorm:"not null;default:'user'" json:"role"`
	Token     string           `gorm:"uniqueIndex;not null" json:"-"`
	InvitedBy uuid.UUID        `gorm:"type:uuid;not null" json:"invited_by"`
	Status    InvitationStatus `gorm:"not null;default:'pending';index" json:"status"`
	ExpiresAt time.Time        `gorm:"not null" json:"expires_at"`

	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Inviter *User    `gorm:"foreignKey:InvitedBy" json:"-"`
}

func (Invitation) TableName() string {
	return "employee_invitations"
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
