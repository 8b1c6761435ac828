package models

import "github.com/google/uuid"

type Company struct {
	Base
	Name string `gorm:"not null" json:"name"`

	Members []CompanyUser `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

// Role is the per-company privilege level of a member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Rank orders roles for privilege comparisons and employee listing:
// owner < admin < user < viewer.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 1
	case RoleAdmin:
		return 2
	case RoleUser:
		return 3
	case RoleViewer:
		return 4
	}
	return 5
}

// CanManage reports whether a caller with this role may assign or edit the
// given role. Admins are confined to user/viewer; the owner role is only
// ever manageable as part of company creation, never through membership
// endpoints.
func (r Role) CanManage(target Role) bool {
	switch r {
	case RoleOwner:
		return target != RoleOwner
	case RoleAdmin:
		return target == RoleUser || target == RoleViewer
	}
	return false
}

type CompanyUser struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_member" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_member" json:"user_id"`
	Role      Role      `gorm:"not null;default:'user'" json:"role"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (CompanyUser) TableName() string {
	return "company_users"
}
