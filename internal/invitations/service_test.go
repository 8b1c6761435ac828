package invitations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avolkov/revtrack/internal/database/models"
	"github.com/avolkov/revtrack/internal/invitations"
	"github.com/avolkov/revtrack/internal/notify"
	"github.com/avolkov/revtrack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	invitations int
	fail        bool
}

func (f *fakeNotifier) SendCode(ctx context.Context, email, code string, purpose notify.Purpose) error {
	return nil
}

func (f *fakeNotifier) SendInvitation(ctx context.Context, email, token, companyName, inviterName string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.invitations++
	return nil
}

func setupInvitationService(t *testing.T) (*invitations.Service, *gorm.DB, *fakeNotifier) {
	db := testutil.SetupTestDB(t)
	notifier := &fakeNotifier{}
	return invitations.NewService(db, notifier), db, notifier
}

func pendingToken(t *testing.T, db *gorm.DB, companyID uuid.UUID) string {
	t.Helper()

	var invitation models.Invitation
	require.NoError(t, db.Where("company_id = ?", companyID).
		Order("created_at DESC").First(&invitation).Error)
	return invitation.Token
}

func TestService_Invite(t *testing.T) {
	svc, db, notifier := setupInvitationService(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.CreateTestCompany(t, db)
	owner := testutil.CreateTestMember(t, db, company, models.RoleOwner)
	admin := testutil.CreateTestMember(t, db, company, models.RoleAdmin)
	viewer := testutil.CreateTestMember(t, db, company, models.RoleViewer)

	ctx := context.Background()

	t.Run("owner invites an admin", func(t *testing.T) {
		err := svc.Invite(ctx, owner.ID, company.ID, "newadmin@example.com", models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, 1, notifier.invitations)

		var invitation models.Invitation
		require.NoError(t, db.First(&invitation, "email = ?", "newadmin@example.com").Error)
		assert.Equal(t, models.InvitationPending, invitation.Status)
		assert.NotEmpty(t, invitation.Token)
		assert.WithinDuration(t, time.Now().Add(invitations.InvitationTTL), invitation.ExpiresAt, time.Minute)
	})

	t.Run("admin cannot propose admin", func(t *testing.T) {
		err := svc.Invite(ctx, admin.ID, company.ID, "peer@example.com", models.RoleAdmin)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("nobody can propose owner", func(t *testing.T) {
		err := svc.Invite(ctx, owner.ID, company.ID, "second@example.com", models.RoleOwner)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("viewer cannot invite", func(t *testing.T) {
		err := svc.Invite(ctx, viewer.ID, company.ID, "anyone@example.com", models.RoleViewer)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, db)
		err := svc.Invite(ctx, outsider.ID, company.ID, "anyone@example.com", models.RoleUser)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("existing member is rejected", func(t *testing.T) {
		err := svc.Invite(ctx, owner.ID, company.ID, viewer.Email, models.RoleUser)
		assert.ErrorIs(t, err, invitations.ErrAlreadyMember)
	})

	t.Run("duplicate pending invitation is rejected", func(t *testing.T) {
		err := svc.Invite(ctx, owner.ID, company.ID, "newadmin@example.com", models.RoleUser)
		assert.ErrorIs(t, err, invitations.ErrDuplicateInvitation)
	})

	t.Run("delivery failure rolls the invitation back", func(t *testing.T) {
		notifier.fail = true
		defer func() { notifier.fail = false }()

		err := svc.Invite(ctx, owner.ID, company.ID, "undelivered@example.com", models.RoleUser)
		assert.ErrorIs(t, err, invitations.ErrDeliveryFailed)

		var count int64
		require.NoError(t, db.Model(&models.Invitation{}).
			Where("email = ?", "undelivered@example.com").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("expired invitation does not block a new one", func(t *testing.T) {
		require.NoError(t, svc.Invite(ctx, owner.ID, company.ID, "slow@example.com", models.RoleUser))
		require.NoError(t, db.Model(&models.Invitation{}).
			Where("email = ?", "slow@example.com").
			Update("expires_at", time.Now().Add(-time.Hour)).Error)

		err := svc.Invite(ctx, owner.ID, company.ID, "slow@example.com", models.RoleUser)
		assert.NoError(t, err)
	})
}

func TestService_InspectAndAccept(t *testing.T) {
	svc, db, _ := setupInvitationService(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.CreateTestCompany(t, db)
	owner := testutil.CreateTestMember(t, db, company, models.RoleOwner)

	ctx := context.Background()

	require.NoError(t, svc.Invite(ctx, owner.ID, company.ID, "invitee@example.com", models.RoleUser))
	token := pendingToken(t, db, company.ID)

	t.Run("inspect exposes only email, company and role", func(t *testing.T) {
		result, err := svc.Inspect(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "invitee@example.com", result.Email)
		assert.Equal(t, company.Name, result.CompanyName)
		assert.Equal(t, models.RoleUser, result.Role)
	})

	t.Run("inspect with unknown token", func(t *testing.T) {
		_, err := svc.Inspect(ctx, "no-such-token")
		assert.ErrorIs(t, err, invitations.ErrNotFound)
	})

	t.Run("accept creates a verified member", func(t *testing.T) {
		userID, err := svc.Accept(ctx, token, invitations.AcceptInput{
			Password:  "securepassword123",
			FirstName: "Ivan",
			LastName:  "Sidorov",
		})
		require.NoError(t, err)

		var user models.User
		require.NoError(t, db.First(&user, "id = ?", userID).Error)
		assert.Equal(t, "invitee@example.com", user.Email)
		assert.True(t, user.IsEmailVerified)
		require.NotNil(t, user.CurrentCompanyID)
		assert.Equal(t, company.ID, *user.CurrentCompanyID)

		var membership models.CompanyUser
		require.NoError(t, db.First(&membership, "user_id = ?", userID).Error)
		assert.Equal(t, models.RoleUser, membership.Role)

		var invitation models.Invitation
		require.NoError(t, db.First(&invitation, "token = ?", token).Error)
		assert.Equal(t, models.InvitationAccepted, invitation.Status)
		require.NotNil(t, invitation.AcceptedAt)
	})

	t.Run("second accept of the same token", func(t *testing.T) {
		_, err := svc.Accept(ctx, token, invitations.AcceptInput{
			Password:  "securepassword123",
			FirstName: "Late",
			LastName:  "Comer",
		})
		assert.ErrorIs(t, err, invitations.ErrAlreadyUsed)
	})

	t.Run("accept with taken email", func(t *testing.T) {
		existing := testutil.CreateTestUser(t, db)
		require.NoError(t, svc.Invite(ctx, owner.ID, company.ID, "second@example.com", models.RoleUser))
		tok := pendingToken(t, db, company.ID)

		// Someone registers that email between invite and accept.
		require.NoError(t, db.Model(&models.Invitation{}).
			Where("token = ?", tok).
			Update("email", existing.Email).Error)

		_, err := svc.Accept(ctx, tok, invitations.AcceptInput{
			Password:  "securepassword123",
			FirstName: "Taken",
			LastName:  "Email",
		})
		assert.ErrorIs(t, err, invitations.ErrEmailTaken)
	})

	t.Run("expired token is not redeemable", func(t *testing.T) {
		require.NoError(t, svc.Invite(ctx, owner.ID, company.ID, "tardy@example.com", models.RoleUser))
		tok := pendingToken(t, db, company.ID)
		require.NoError(t, db.Model(&models.Invitation{}).
			Where("token = ?", tok).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		_, err := svc.Inspect(ctx, tok)
		assert.ErrorIs(t, err, invitations.ErrExpired)

		_, err = svc.Accept(ctx, tok, invitations.AcceptInput{
			Password:  "securepassword123",
			FirstName: "Too",
			LastName:  "Late",
		})
		assert.ErrorIs(t, err, invitations.ErrExpired)
	})
}

func TestService_CancelAndList(t *testing.T) {
	svc, db, _ := setupInvitationService(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.CreateTestCompany(t, db)
	owner := testutil.CreateTestMember(t, db, company, models.RoleOwner)
	admin := testutil.CreateTestMember(t, db, company, models.RoleAdmin)
	user := testutil.CreateTestMember(t, db, company, models.RoleUser)

	ctx := context.Background()

	require.NoError(t, svc.Invite(ctx, owner.ID, company.ID, "a@example.com", models.RoleAdmin))
	require.NoError(t, svc.Invite(ctx, admin.ID, company.ID, "b@example.com", models.RoleUser))

	t.Run("plain member cannot list", func(t *testing.T) {
		_, err := svc.List(ctx, user.ID, company.ID)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("admin lists pending invitations", func(t *testing.T) {
		list, err := svc.List(ctx, admin.ID, company.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("admin cannot cancel an admin-role invitation", func(t *testing.T) {
		var invitation models.Invitation
		require.NoError(t, db.First(&invitation, "email = ?", "a@example.com").Error)

		err := svc.Cancel(ctx, admin.ID, company.ID, invitation.ID)
		assert.ErrorIs(t, err, invitations.ErrForbidden)
	})

	t.Run("owner cancels and the token dies", func(t *testing.T) {
		var invitation models.Invitation
		require.NoError(t, db.First(&invitation, "email = ?", "a@example.com").Error)

		require.NoError(t, svc.Cancel(ctx, owner.ID, company.ID, invitation.ID))

		_, err := svc.Inspect(ctx, invitation.Token)
		assert.ErrorIs(t, err, invitations.ErrCancelled)

		list, err := svc.List(ctx, owner.ID, company.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("cancelling twice", func(t *testing.T) {
		var invitation models.Invitation
		require.NoError(t, db.First(&invitation, "email = ?", "a@example.com").Error)

		err := svc.Cancel(ctx, owner.ID, company.ID, invitation.ID)
		assert.ErrorIs(t, err, invitations.ErrAlreadyUsed)
	})
}
