package auth

import (
	"context"
	"errors"
	"time"

	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrCodeExpired        = errors.New("code has expired")
	ErrInvalidCode        = errors.New("invalid code")
	ErrNoCodeRequested    = errors.New("no code was requested")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrDeliveryFailed     = errors.New("could not deliver email")
)

// SignupMailer queues the registration verification email. Queueing is
// fire-and-forget: a failure must not undo the registration.
type SignupMailer interface {
	EnqueueSignupEmail(ctx context.Context, email, code string) error
}

type Service struct {
	db       *gorm.DB
	jwt      *JWTService
	signup   SignupMailer
	notifier notify.Notifier
}

func NewService(db *gorm.DB, jwt *JWTService, signup SignupMailer, notifier notify.Notifier) *Service {
	return &Service{db: db, jwt: jwt, signup: signup, notifier: notifier}
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	MiddleName  string
	Phone       string
	CompanyName string
}

// RegisterResult reports the created user and, when email delivery could not
// be confirmed, the code itself as a fallback channel for non-production use.
type RegisterResult struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Code      string
	EmailSent bool
}

type AuthResult struct {
	Token     string
	User      *models.User
	CompanyID *uuid.UUID
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(CodeTTL)

	var user models.User
	var company models.Company
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company = models.Company{Name: input.CompanyName}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		user = models.User{
			Email:                 input.Email,
			PasswordHash:          hash,
			FirstName:             input.FirstName,
			LastName:              input.LastName,
			MiddleName:            input.MiddleName,
			Phone:                 input.Phone,
			EmailVerificationCode: code,
			VerificationExpiresAt: &expires,
			CurrentCompanyID:      &company.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		membership := models.CompanyUser{
			CompanyID: company.ID,
			UserID:    user.ID,
			Role:      models.RoleOwner,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		// The unique index on users.email closes the race between the
		// existence check above and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	result := &RegisterResult{
		UserID:    user.ID,
		CompanyID: company.ID,
		Code:      code,
	}

	// Delivery failure does not roll anything back: the account stands and
	// the code stays available through the result.
	if s.signup != nil {
		if err := s.signup.EnqueueSignupEmail(ctx, input.Email, code); err == nil {
			result.EmailSent = true
		}
	}

	return result, nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}
	if user.EmailVerificationCode == "" {
		return nil, ErrNoCodeRequested
	}
	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrCodeExpired
	}
	if user.EmailVerificationCode != code {
		return nil, ErrInvalidCode
	}

	err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"is_email_verified":       true,
		"email_verification_code": "",
		"verification_expires_at": nil,
	}).Error
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	user.IsEmailVerified = true
	return &AuthResult{Token: token, User: &user, CompanyID: user.CurrentCompanyID}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a wrong password: never reveal whether the
			// account exists.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: &user, CompanyID: user.CurrentCompanyID}, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	expires := time.Now().Add(CodeTTL)

	// Overwrites any outstanding reset code: one active code per user.
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_reset_code":    code,
		"password_reset_expires": expires,
	}).Error
	if err != nil {
		return err
	}

	// There is no other way to hand over a reset code, so here a delivery
	// failure is the caller's problem.
	if err := s.notifier.SendCode(ctx, email, code, notify.PurposeReset); err != nil {
		return ErrDeliveryFailed
	}
	return nil
}

// VerifyResetCode is the read-only check a client runs before collecting the
// new password.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	_, err := s.checkResetCode(ctx, email, code)
	return err
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.checkResetCode(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_hash":          hash,
		"password_reset_code":    "",
		"password_reset_expires": nil,
	}).Error
}

func (s *Service) checkResetCode(ctx context.Context, email, code string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.PasswordResetCode == "" {
		return nil, ErrNoCodeRequested
	}
	if user.PasswordResetExpires == nil || time.Now().After(*user.PasswordResetExpires) {
		return nil, ErrCodeExpired
	}
	if user.PasswordResetCode != code {
		return nil, ErrInvalidCode
	}
	return &user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

type ProfileInput struct {
	FirstName  string
	LastName   string
	MiddleName string
	Phone      string
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"first_name":  input.FirstName,
		"last_name":   input.LastName,
		"middle_name": input.MiddleName,
		"phone":       input.Phone,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
}

func (s *Service) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	var taken models.User
	err := s.db.WithContext(ctx).Where("email = ? AND id <> ?", newEmail, userID).First(&taken).Error
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	expires := time.Now().Add(CodeTTL)

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"email_verification_code": code,
		"verification_expires_at": expires,
		"pending_email":           newEmail,
	}).Error
	if err != nil {
		return err
	}

	if err := s.notifier.SendCode(ctx, newEmail, code, notify.PurposeEmailChange); err != nil {
		return ErrDeliveryFailed
	}
	return nil
}

func (s *Service) ConfirmEmailChange(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PendingEmail == "" || user.EmailVerificationCode == "" {
		return ErrNoCodeRequested
	}
	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return ErrCodeExpired
	}
	if user.EmailVerificationCode != code {
		return ErrInvalidCode
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"email":                   user.PendingEmail,
		"pending_email":           "",
		"email_verification_code": "",
		"verification_expires_at": nil,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}
