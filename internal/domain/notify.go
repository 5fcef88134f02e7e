package domain

import (
	"context"
)

// Notifier sends applicant-facing notifications. Delivery is best-effort:
// failures are logged by callers and never alter a decision.
type Notifier interface {
	// Send delivers a single notification.
	Send(ctx context.Context, n *Notification) error

	// Enabled reports whether the notifier is configured for delivery.
	Enabled() bool
}

// Notification is a plain-text message to an applicant.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotifierConfig holds SMTP settings for the email notifier. The notifier
// runs disabled (no-op) when username or password is empty.
type NotifierConfig struct {
	// Type is the notifier type: "smtp" or "noop"
	Type string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}
