package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openlend/kestrel/internal/domain"
)

// SMTPNotifier sends notifications over SMTP with STARTTLS auth.
// Runs disabled when credentials are not configured.
type SMTPNotifier struct {
	cfg domain.NotifierConfig
	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP notifier from configuration.
func NewSMTPNotifier(cfg domain.NotifierConfig) *SMTPNotifier {
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUsername
	}
	return &SMTPNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Enabled reports whether SMTP credentials are configured.
func (n *SMTPNotifier) Enabled() bool {
	return n.cfg.SMTPUsername != "" && n.cfg.SMTPPassword != ""
}

// Send delivers a single notification. Returns nil without sending when
// the notifier is disabled.
func (n *SMTPNotifier) Send(ctx context.Context, msg *domain.Notification) error {
	if !n.Enabled() {
		return nil
	}
	if msg == nil || msg.To == "" {
		return fmt.Errorf("notification recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.SMTPUsername, n.cfg.SMTPPassword, n.cfg.SMTPHost)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", n.cfg.FromName, n.cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	if err := n.send(addr, auth, n.cfg.FromEmail, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
