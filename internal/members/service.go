package members

import (
	"context"
	"errors"
	"sort"

	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrForbidden      = errors.New("insufficient privileges")
	ErrNotFound       = errors.New("employee not found")
	ErrUserNotFound   = errors.New("no user with this email")
	ErrAlreadyMember  = errors.New("user is already a member of the company")
	ErrOwnerImmutable = errors.New("the owner cannot be changed or removed")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Employee is a company member joined with profile fields for listing.
type Employee struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	MiddleName string      `json:"middle_name,omitempty"`
	Phone      string      `json:"phone,omitempty"`
	AvatarURL  string      `json:"avatar_url,omitempty"`
	Role       models.Role `json:"role"`
	JoinedAt   string      `json:"joined_at"`
}

// List returns the members of a company ordered by role rank then surname.
// Any member may list; the caller's own role rides along for UI gating.
func (s *Service) List(ctx context.Context, callerID, companyID uuid.UUID) ([]Employee, models.Role, error) {
	caller, err := s.membership(ctx, callerID, companyID)
	if err != nil {
		return nil, "", err
	}

	var memberships []models.CompanyUser
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("company_id = ?", companyID).
		Find(&memberships).Error
	if err != nil {
		return nil, "", err
	}

	employees := make([]Employee, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		employees = append(employees, Employee{
			ID:         m.UserID,
			Email:      m.User.Email,
			FirstName:  m.User.FirstName,
			LastName:   m.User.LastName,
			MiddleName: m.User.MiddleName,
			Phone:      m.User.Phone,
			AvatarURL:  m.User.AvatarURL,
			Role:       m.Role,
			JoinedAt:   m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	sortEmployees(employees)
	return employees, caller.Role, nil
}

func sortEmployees(employees []Employee) {
	sort.Slice(employees, func(i, j int) bool {
		a, b := employees[i], employees[j]
		if a.Role.Rank() != b.Role.Rank() {
			return a.Role.Rank() < b.Role.Rank()
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
}

// Add attaches an existing account to the company. This path never creates
// accounts; that is what invitations are for.
func (s *Service) Add(ctx context.Context, callerID, companyID uuid.UUID, email string, role models.Role) error {
	caller, err := s.membership(ctx, callerID, companyID)
	if err != nil {
		return err
	}
	if !caller.Role.CanManage(role) {
		return ErrForbidden
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	var existing models.CompanyUser
	err = s.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, user.ID).
		First(&existing).Error
	if err == nil {
		return ErrAlreadyMember
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	membership := models.CompanyUser{
		CompanyID: companyID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// ChangeRole moves a member to a new role. The owner role is immutable for
// everyone, including the owner themselves.
func (s *Service) ChangeRole(ctx context.Context, callerID, companyID, targetID uuid.UUID, newRole models.Role) error {
	caller, err := s.membership(ctx, callerID, companyID)
	if err != nil {
		return err
	}
	if !caller.Role.CanManage(newRole) {
		return ErrForbidden
	}

	target, err := s.targetMembership(ctx, companyID, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	if !caller.Role.CanManage(target.Role) {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Model(target).Update("role", newRole).Error
}

// Remove detaches a member from the company. The owner can never be removed.
func (s *Service) Remove(ctx context.Context, callerID, companyID, targetID uuid.UUID) error {
	caller, err := s.membership(ctx, callerID, companyID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleOwner && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}

	target, err := s.targetMembership(ctx, companyID, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}
	if !caller.Role.CanManage(target.Role) {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Delete(target).Error
}

func (s *Service) membership(ctx context.Context, userID, companyID uuid.UUID) (*models.CompanyUser, error) {
	var m models.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) targetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyUser, error) {
	var m models.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
