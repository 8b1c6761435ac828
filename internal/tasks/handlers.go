package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/avolkov/revtrack/internal/notify"
	"github.com/hibiken/asynq"
)

// Handler processes queued mail tasks.
type Handler struct {
	notifier notify.Notifier
	log      *slog.Logger
}

func NewHandler(notifier notify.Notifier, log *slog.Logger) *Handler {
	return &Handler{notifier: notifier, log: log}
}

// Register registers all task handlers with the mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSignupEmail, h.HandleSignupEmail)
}

func (h *Handler) HandleSignupEmail(ctx context.Context, t *asynq.Task) error {
	var p SignupEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshaling signup email payload: %w", err)
	}

	if err := h.notifier.SendCode(ctx, p.Email, p.Code, notify.PurposeSignup); err != nil {
		h.log.Warn("signup email delivery failed, will retry", "email", p.Email, "error", err)
		return err
	}

	h.log.Info("signup email delivered", "email", p.Email)
	return nil
}
