package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
)

func decidedApplication(approved bool) *domain.Application {
	app := &domain.Application{
		ID:           "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		LoanType:     domain.LoanPersonal,
		FullName:     "Meera Shah",
		Email:        "meera@example.com",
		Amount:       300000,
		TenureMonths: 36,
		EMI: &emi.Schedule{
			EMI:          9964.29,
			AnnualRate:   12.0,
			TenureMonths: 36,
			TotalAmount:  358714.44,
			Principal:    300000,
		},
	}
	if approved {
		app.Status = domain.StatusApproved
		app.Decision = &domain.Decision{Approved: true, Reasons: []string{}}
	} else {
		app.Status = domain.StatusRejected
		app.Decision = &domain.Decision{
			Approved: false,
			Reasons:  []string{"Monthly salary (20000) is below minimum requirement (25000)"},
		}
	}
	return app
}

func TestConfirmationMessage(t *testing.T) {
	msg := ConfirmationMessage(decidedApplication(true))

	if msg.To != "meera@example.com" {
		t.Errorf("unexpected recipient: %s", msg.To)
	}
	if msg.Subject != "Loan Application Confirmation - a1b2c3d4" {
		t.Errorf("unexpected subject: %s", msg.Subject)
	}
	for _, want := range []string{
		"Dear Meera Shah",
		"Application ID: a1b2c3d4-e5f6-7890-abcd-ef1234567890",
		"Personal Loan",
		"Monthly EMI: 9964.29",
		"Interest Rate: 12.00% per annum",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestStatusMessage(t *testing.T) {
	t.Run("Approved", func(t *testing.T) {
		msg := StatusMessage(decidedApplication(true))
		if msg.Subject != "Loan Application Status Update - APPROVED" {
			t.Errorf("unexpected subject: %s", msg.Subject)
		}
		if !strings.Contains(msg.Body, "Congratulations") {
			t.Errorf("approval body missing congratulations:\n%s", msg.Body)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		msg := StatusMessage(decidedApplication(false))
		if msg.Subject != "Loan Application Status Update - REJECTED" {
			t.Errorf("unexpected subject: %s", msg.Subject)
		}
		if !strings.Contains(msg.Body, "Monthly salary (20000) is below minimum requirement (25000)") {
			t.Errorf("rejection body missing reason:\n%s", msg.Body)
		}
	})
}

func TestSMTPNotifierDisabled(t *testing.T) {
	n := NewSMTPNotifier(domain.NotifierConfig{Type: "smtp"})
	if n.Enabled() {
		t.Error("notifier without credentials should be disabled")
	}

	// Send is a no-op when disabled
	called := false
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		return nil
	}
	if err := n.Send(context.Background(), &domain.Notification{To: "x@example.com"}); err != nil {
		t.Fatalf("disabled send should not error: %v", err)
	}
	if called {
		t.Error("disabled notifier must not attempt delivery")
	}
}

func TestSMTPNotifierSend(t *testing.T) {
	n := NewSMTPNotifier(domain.NotifierConfig{
		Type:         "smtp",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUsername: "loans@example.com",
		SMTPPassword: "secret",
		FromEmail:    "loans@example.com",
		FromName:     "Loan Application System",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	notification := ConfirmationMessage(decidedApplication(true))
	if err := n.Send(context.Background(), notification); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("unexpected addr: %s", gotAddr)
	}
	if gotFrom != "loans@example.com" {
		t.Errorf("unexpected from: %s", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "meera@example.com" {
		t.Errorf("unexpected to: %v", gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: Loan Application Confirmation - a1b2c3d4\r\n") {
		t.Errorf("message missing subject header:\n%s", body)
	}
	if !strings.Contains(body, "From: Loan Application System <loans@example.com>\r\n") {
		t.Errorf("message missing from header:\n%s", body)
	}

	t.Run("MissingRecipient", func(t *testing.T) {
		if err := n.Send(context.Background(), &domain.Notification{}); err == nil {
			t.Error("expected error for missing recipient")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := n.Send(ctx, notification); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestNewFactory(t *testing.T) {
	t.Run("Noop", func(t *testing.T) {
		n, err := New(domain.NotifierConfig{Type: "noop"})
		if err != nil {
			t.Fatalf("failed to create noop notifier: %v", err)
		}
		if n.Enabled() {
			t.Error("noop notifier should be disabled")
		}
		if err := n.Send(context.Background(), nil); err != nil {
			t.Errorf("noop send should not error: %v", err)
		}
	})

	t.Run("SMTP", func(t *testing.T) {
		n, err := New(domain.NotifierConfig{Type: "smtp", SMTPUsername: "u", SMTPPassword: "p"})
		if err != nil {
			t.Fatalf("failed to create smtp notifier: %v", err)
		}
		if !n.Enabled() {
			t.Error("smtp notifier with credentials should be enabled")
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := New(domain.NotifierConfig{Type: "sms"}); err == nil {
			t.Error("expected error for unsupported notifier type")
		}
	})
}
