package notify

import "context"

// Purpose selects the template for a code email.
type Purpose string

const (
	PurposeSignup      Purpose = "signup"
	PurposeReset       Purpose = "password_reset"
	PurposeEmailChange Purpose = "email_change"
)

// Notifier delivers transactional email. Implementations may fail
// independently of any data mutation; callers decide per flow whether a
// delivery failure is fatal.
type Notifier interface {
	SendCode(ctx context.Context, email, code string, purpose Purpose) error
	SendInvitation(ctx context.Context, email, token, companyName, inviterName string) error
}
