package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/notify"
	"github.com/avolkov/revtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	emails []string
	fail   bool
}

func (f *fakeEnqueuer) EnqueueSignupEmail(ctx context.Context, email, code string) error {
	if f.fail {
		return errors.New("queue down")
	}
	f.emails = append(f.emails, email)
	return nil
}

type fakeNotifier struct {
	codes map[string]string
	fail  bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: make(map[string]string)}
}

func (f *fakeNotifier) SendCode(ctx context.Context, email, code string, purpose notify.Purpose) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.codes[email] = code
	return nil
}

func (f *fakeNotifier) SendInvitation(ctx context.Context, email, token, companyName, inviterName string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	return nil
}

func setupAuthService(t *testing.T) (*auth.Service, *testutil.TestSetup, *fakeEnqueuer, *fakeNotifier) {
	tc := testutil.NewTestContext(t)
	enqueuer := &fakeEnqueuer{}
	notifier := newFakeNotifier()
	svc := auth.NewService(tc.DB, tc.JWTService, enqueuer, notifier)
	return svc, tc, enqueuer, notifier
}

func register(t *testing.T, svc *auth.Service, email string) *auth.RegisterResult {
	t.Helper()

	result, err := svc.Register(context.Background(), auth.RegisterInput{
		Email:       email,
		Password:    "securepassword123",
		FirstName:   "Anna",
		LastName:    "Petrova",
		CompanyName: "Acme LLC",
	})
	require.NoError(t, err)
	return result
}

func TestService_Register(t *testing.T) {
	svc, tc, enqueuer, _ := setupAuthService(t)
	defer tc.Cleanup()

	t.Run("creates user, company and owner membership", func(t *testing.T) {
		result := register(t, svc, "owner@example.com")

		assert.NotEmpty(t, result.Code)
		assert.Len(t, result.Code, 4)
		assert.True(t, result.EmailSent)
		assert.Contains(t, enqueuer.emails, "owner@example.com")

		var user models.User
		require.NoError(t, tc.DB.First(&user, "email = ?", "owner@example.com").Error)
		assert.False(t, user.IsEmailVerified)
		require.NotNil(t, user.CurrentCompanyID)
		assert.Equal(t, result.CompanyID, *user.CurrentCompanyID)

		var membership models.CompanyUser
		require.NoError(t, tc.DB.First(&membership, "user_id = ?", user.ID).Error)
		assert.Equal(t, models.RoleOwner, membership.Role)
		assert.Equal(t, result.CompanyID, membership.CompanyID)
	})

	t.Run("duplicate email conflicts and leaves no orphan company", func(t *testing.T) {
		var companiesBefore int64
		require.NoError(t, tc.DB.Model(&models.Company{}).Count(&companiesBefore).Error)

		_, err := svc.Register(context.Background(), auth.RegisterInput{
			Email:       "owner@example.com",
			Password:    "otherpassword123",
			FirstName:   "Other",
			LastName:    "User",
			CompanyName: "Other LLC",
		})
		assert.ErrorIs(t, err, auth.ErrUserExists)

		var companiesAfter int64
		require.NoError(t, tc.DB.Model(&models.Company{}).Count(&companiesAfter).Error)
		assert.Equal(t, companiesBefore, companiesAfter)
	})

	t.Run("queue failure does not fail registration", func(t *testing.T) {
		enqueuer.fail = true
		defer func() { enqueuer.fail = false }()

		result := register(t, svc, "offline@example.com")
		assert.False(t, result.EmailSent)
		assert.NotEmpty(t, result.Code)
	})

	t.Run("storage failure is not mistaken for a free email", func(t *testing.T) {
		broken, btc, _, _ := setupAuthService(t)
		defer btc.Cleanup()
		require.NoError(t, btc.DB.Migrator().DropTable(&models.User{}))

		_, err := broken.Register(context.Background(), auth.RegisterInput{
			Email:       "anyone@example.com",
			Password:    "longenoughpw",
			FirstName:   "Any",
			LastName:    "One",
			CompanyName: "Any LLC",
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrUserExists)
	})
}

func TestService_VerifyEmail(t *testing.T) {
	svc, tc, _, _ := setupAuthService(t)
	defer tc.Cleanup()

	result := register(t, svc, "verify@example.com")

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.VerifyEmail(context.Background(), "verify@example.com", "0000")
		assert.ErrorIs(t, err, auth.ErrInvalidCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.VerifyEmail(context.Background(), "nobody@example.com", result.Code)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("valid code verifies and issues token", func(t *testing.T) {
		res, err := svc.VerifyEmail(context.Background(), "verify@example.com", result.Code)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.True(t, res.User.IsEmailVerified)

		var user models.User
		require.NoError(t, tc.DB.First(&user, "email = ?", "verify@example.com").Error)
		assert.Empty(t, user.EmailVerificationCode)
		assert.Nil(t, user.VerificationExpiresAt)
	})

	t.Run("replay after verification", func(t *testing.T) {
		_, err := svc.VerifyEmail(context.Background(), "verify@example.com", result.Code)
		assert.ErrorIs(t, err, auth.ErrAlreadyVerified)
	})

	t.Run("expired code", func(t *testing.T) {
		expired := register(t, svc, "late@example.com")
		past := time.Now().Add(-time.Minute)
		require.NoError(t, tc.DB.Model(&models.User{}).
			Where("email = ?", "late@example.com").
			Update("verification_expires_at", past).Error)

		_, err := svc.VerifyEmail(context.Background(), "late@example.com", expired.Code)
		assert.ErrorIs(t, err, auth.ErrCodeExpired)
	})
}

func TestService_Login(t *testing.T) {
	svc, tc, _, _ := setupAuthService(t)
	defer tc.Cleanup()

	result := register(t, svc, "login@example.com")

	t.Run("before verification", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "login@example.com", "securepassword123")
		assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
	})

	_, err := svc.VerifyEmail(context.Background(), "login@example.com", result.Code)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(context.Background(), "login@example.com", "securepassword123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)

		claims, err := tc.JWTService.ValidateToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, "login@example.com", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "login@example.com", "wrongpassword")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "ghost@example.com", "securepassword123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_PasswordReset(t *testing.T) {
	svc, tc, _, notifier := setupAuthService(t)
	defer tc.Cleanup()

	result := register(t, svc, "reset@example.com")
	_, err := svc.VerifyEmail(context.Background(), "reset@example.com", result.Code)
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("delivery failure surfaces", func(t *testing.T) {
		notifier.fail = true
		defer func() { notifier.fail = false }()

		err := svc.RequestPasswordReset(context.Background(), "reset@example.com")
		assert.ErrorIs(t, err, auth.ErrDeliveryFailed)
	})

	t.Run("full reset flow", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(context.Background(), "reset@example.com"))
		code := notifier.codes["reset@example.com"]
		require.NotEmpty(t, code)

		require.NoError(t, svc.VerifyResetCode(context.Background(), "reset@example.com", code))
		require.NoError(t, svc.ResetPassword(context.Background(), "reset@example.com", code, "brandnewpassword"))

		_, err := svc.Login(context.Background(), "reset@example.com", "brandnewpassword")
		assert.NoError(t, err)
		_, err = svc.Login(context.Background(), "reset@example.com", "securepassword123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("code is single use", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(context.Background(), "reset@example.com"))
		code := notifier.codes["reset@example.com"]

		require.NoError(t, svc.ResetPassword(context.Background(), "reset@example.com", code, "anotherpassword1"))
		err := svc.ResetPassword(context.Background(), "reset@example.com", code, "thirdpassword12")
		assert.ErrorIs(t, err, auth.ErrNoCodeRequested)
	})

	t.Run("wrong code", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(context.Background(), "reset@example.com"))
		err := svc.VerifyResetCode(context.Background(), "reset@example.com", "9999x")
		assert.ErrorIs(t, err, auth.ErrInvalidCode)
	})
}

func TestService_ChangePassword(t *testing.T) {
	svc, tc, _, _ := setupAuthService(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), user.ID, "notthepassword", "newpassword123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), user.ID, "testpassword123", "newpassword123")
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), user.Email, "newpassword123")
		assert.NoError(t, err)
	})
}

func TestService_EmailChange(t *testing.T) {
	svc, tc, _, notifier := setupAuthService(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)
	other := testutil.CreateTestUser(t, tc.DB)

	t.Run("taken email rejected up front", func(t *testing.T) {
		err := svc.RequestEmailChange(context.Background(), user.ID, other.Email)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("full change flow", func(t *testing.T) {
		require.NoError(t, svc.RequestEmailChange(context.Background(), user.ID, "fresh@example.com"))
		code := notifier.codes["fresh@example.com"]
		require.NotEmpty(t, code)

		require.NoError(t, svc.ConfirmEmailChange(context.Background(), user.ID, code))

		reloaded, err := svc.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", reloaded.Email)
		assert.Empty(t, reloaded.PendingEmail)
	})

	t.Run("confirm without request", func(t *testing.T) {
		err := svc.ConfirmEmailChange(context.Background(), user.ID, "1234")
		assert.ErrorIs(t, err, auth.ErrNoCodeRequested)
	})
}
