package invitations

import (
	"context"
	"errors"
	"time"

	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrForbidden           = errors.New("insufficient privileges")
	ErrAlreadyMember       = errors.New("user is already a member of the company")
	ErrDuplicateInvitation = errors.New("an active invitation already exists")
	ErrNotFound            = errors.New("invitation not found")
	ErrCancelled           = errors.New("invitation was cancelled")
	ErrAlreadyUsed         = errors.New("invitation was already used")
	ErrExpired             = errors.New("invitation has expired")
	ErrEmailTaken          = errors.New("a user with this email already exists")
	ErrDeliveryFailed      = errors.New("could not deliver invitation email")
)

// InvitationTTL is how long an invitation token stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewService(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// Invite issues a new invitation and emails the acceptance link. The insert
// and the send succeed or fail together: an invitation whose email never went
// out must not exist, so a delivery failure rolls the transaction back. This
// is the opposite of the registration policy, where the account outlives a
// failed delivery.
func (s *Service) Invite(ctx context.Context, callerID, companyID uuid.UUID, email string, role models.Role) error {
	var caller models.CompanyUser
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Company").
		Where("user_id = ? AND company_id = ?", callerID, companyID).
		First(&caller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}

	if !caller.Role.CanManage(role) {
		return ErrForbidden
	}

	// Existing account that is already a member?
	var member models.CompanyUser
	err = s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = company_users.user_id").
		Where("users.email = ? AND company_users.company_id = ?", email, companyID).
		First(&member).Error
	if err == nil {
		return ErrAlreadyMember
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// At most one pending, unexpired invitation per (email, company).
	var pending models.Invitation
	err = s.db.WithContext(ctx).
		Where("email = ? AND company_id = ? AND status = ? AND expires_at > ?",
			email, companyID, models.InvitationPending, time.Now()).
		First(&pending).Error
	if err == nil {
		return ErrDuplicateInvitation
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation := models.Invitation{
			CompanyID: companyID,
			Email:     email,
			Role:      role,
			Token:     token,
			InvitedBy: callerID,
			Status:    models.InvitationPending,
			ExpiresAt: time.Now().Add(InvitationTTL),
		}
		if err := tx.Create(&invitation).Error; err != nil {
			return err
		}

		if err := s.notifier.SendInvitation(ctx, email, token, caller.Company.Name, caller.User.FullName()); err != nil {
			return ErrDeliveryFailed
		}
		return nil
	})
}

// InspectResult is what an acceptance landing page may see: never more than
// the invited email, the company name and the proposed role.
type InspectResult struct {
	Email       string      `json:"email"`
	CompanyName string      `json:"company_name"`
	Role        models.Role `json:"role"`
}

func (s *Service) Inspect(ctx context.Context, token string) (*InspectResult, error) {
	invitation, err := s.findByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if err := checkRedeemable(invitation); err != nil {
		return nil, err
	}

	return &InspectResult{
		Email:       invitation.Email,
		CompanyName: invitation.Company.Name,
		Role:        invitation.Role,
	}, nil
}

type AcceptInput struct {
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
	Phone      string
}

// Accept converts a pending invitation into a verified user plus a membership
// row. Redemption is at-most-once: the status flip is guarded by the pending
// state, so of two concurrent accepts exactly one commits.
func (s *Service) Accept(ctx context.Context, token string, input AcceptInput) (uuid.UUID, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return uuid.Nil, err
	}

	var userID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation, err := s.findByToken(ctx, tx, token)
		if err != nil {
			return err
		}
		if err := checkRedeemable(invitation); err != nil {
			return err
		}

		// Guards against a registration that raced this acceptance.
		var existing models.User
		err = tx.Where("email = ?", invitation.Email).First(&existing).Error
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		result := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitation.ID, models.InvitationPending).
			Updates(map[string]interface{}{
				"status":      models.InvitationAccepted,
				"accepted_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyUsed
		}

		// The invitation email is proof of receipt, so the account starts
		// out verified.
		user := models.User{
			Email:            invitation.Email,
			PasswordHash:     hash,
			FirstName:        input.FirstName,
			LastName:         input.LastName,
			MiddleName:       input.MiddleName,
			Phone:            input.Phone,
			IsEmailVerified:  true,
			CurrentCompanyID: &invitation.CompanyID,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		membership := models.CompanyUser{
			CompanyID: invitation.CompanyID,
			UserID:    user.ID,
			Role:      invitation.Role,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		userID = user.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

// Cancel withdraws a pending invitation.
func (s *Service) Cancel(ctx context.Context, callerID, companyID, invitationID uuid.UUID) error {
	var caller models.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", callerID, companyID).
		First(&caller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}

	var invitation models.Invitation
	err = s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", invitationID, companyID).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !caller.Role.CanManage(invitation.Role) {
		return ErrForbidden
	}
	if invitation.Status != models.InvitationPending {
		return ErrAlreadyUsed
	}

	return s.db.WithContext(ctx).Model(&invitation).
		Update("status", models.InvitationCancelled).Error
}

// List returns the pending invitations of a company.
func (s *Service) List(ctx context.Context, callerID, companyID uuid.UUID) ([]models.Invitation, error) {
	var caller models.CompanyUser
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", callerID, companyID).
		First(&caller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if caller.Role != models.RoleOwner && caller.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	var invitations []models.Invitation
	err = s.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, models.InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (s *Service) findByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := tx.WithContext(ctx).
		Preload("Company").
		Where("token = ?", token).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func checkRedeemable(invitation *models.Invitation) error {
	switch invitation.Status {
	case models.InvitationCancelled:
		return ErrCancelled
	case models.InvitationPending:
	default:
		return ErrAlreadyUsed
	}
	if invitation.Expired(time.Now()) {
		return ErrExpired
	}
	return nil
}
