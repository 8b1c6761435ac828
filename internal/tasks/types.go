package tasks

import (
	"context"
	"encoding/json"

	"github.com/avolkov/revtrack/pkg/queue"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSignupEmail = "email:signup_code"
)

// SignupEmailPayload carries a registration verification code to the mail
// worker. Delivery failure is non-fatal for registration, which is why this
// path goes through the queue instead of a synchronous send.
type SignupEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func NewSignupEmailTask(payload SignupEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSignupEmail, data), nil
}

// Enqueuer hands mail tasks to the queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueSignupEmail(ctx context.Context, email, code string) error {
	task, err := NewSignupEmailTask(SignupEmailPayload{Email: email, Code: code})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(queue.MailQueue), asynq.MaxRetry(3))
	return err
}
