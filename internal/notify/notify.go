// Package notify delivers applicant notifications for Kestrel.
package notify

import (
	"context"
	"fmt"

	"github.com/openlend/kestrel/internal/domain"
)

// New creates a notifier based on configuration.
// SMTP credentials missing or type "noop" yields a disabled notifier
// so the decision pipeline never depends on mail delivery.
func New(cfg domain.NotifierConfig) (domain.Notifier, error) {
	switch cfg.Type {
	case "smtp":
		return NewSMTPNotifier(cfg), nil

	case "noop", "":
		return NewNoopNotifier(), nil

	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", cfg.Type)
	}
}

// NoopNotifier drops all notifications. Used when mail is not configured.
type NoopNotifier struct{}

// NewNoopNotifier creates a disabled notifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Send discards the notification.
func (n *NoopNotifier) Send(ctx context.Context, _ *domain.Notification) error {
	return nil
}

// Enabled reports whether notifications are delivered.
func (n *NoopNotifier) Enabled() bool {
	return false
}
