package tenants

import (
	"context"
	"errors"

	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotMember    = errors.New("user is not a member of the company")
	ErrUserNotFound = errors.New("user not found")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CompanySummary is one entry in a user's workspace list.
type CompanySummary struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	IsCurrent bool        `json:"is_current"`
}

// ListMine returns every company the user belongs to, flagging the one
// currently selected on the account.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]CompanySummary, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var memberships []models.CompanyUser
	err := s.db.WithContext(ctx).
		Preload("Company").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]CompanySummary, 0, len(memberships))
	for _, m := range memberships {
		if m.Company == nil {
			continue
		}
		summaries = append(summaries, CompanySummary{
			ID:        m.CompanyID,
			Name:      m.Company.Name,
			Role:      m.Role,
			IsCurrent: user.CurrentCompanyID != nil && *user.CurrentCompanyID == m.CompanyID,
		})
	}
	return summaries, nil
}

// Create opens a new company with the caller as its owner and selects it
// as the caller's current workspace.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Company, error) {
	company := models.Company{Name: name}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		membership := models.CompanyUser{
			CompanyID: company.ID,
			UserID:    userID,
			Role:      models.RoleOwner,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("current_company_id", company.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Switch changes the caller's current workspace. Membership is required.
func (s *Service) Switch(ctx context.Context, userID, companyID uuid.UUID) error {
	var membership models.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}

	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("current_company_id", companyID).Error
}
