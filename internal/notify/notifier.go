// Package notify defines the outbound notification contracts. Delivery is
// always best-effort: callers run on background workers and drop failures.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// EmailSender delivers templated email to a single recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// WhatsAppSender delivers a plain-text WhatsApp message.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, message string) error
}

// Notifier bundles the outbound channels.
type Notifier interface {
	EmailSender
	WhatsAppSender
}

// LogNotifier writes would-be deliveries to the log. It stands in for the
// real email/WhatsApp gateways in development and tests.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds the logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendEmail(_ context.Context, to, subject, _ string) error {
	n.logger.Info("email notification",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

func (n *LogNotifier) SendWhatsApp(_ context.Context, to, message string) error {
	n.logger.Info("whatsapp notification",
		zap.String("to", to),
		zap.Int("message_len", len(message)))
	return nil
}
