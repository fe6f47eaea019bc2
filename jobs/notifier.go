package jobs

import (
	"context"
	"log/slog"
)

// MailNotifier satisfies the directory Notifier interfaces by enqueueing
// send-email tasks.
type MailNotifier struct {
	client *Client
	logger *slog.Logger
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(client *Client, logger *slog.Logger) *MailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailNotifier{client: client, logger: logger}
}

// PasswordReset enqueues the reset email for asynchronous delivery.
func (n *MailNotifier) PasswordReset(ctx context.Context, email, resetToken string) error {
	info, err := n.client.EnqueueSendEmail(ctx, NewPasswordResetEmail(email, resetToken))
	if err != nil {
		return err
	}
	n.logger.Info("queued password reset mail", slog.String("task_id", info.ID))
	return nil
}
