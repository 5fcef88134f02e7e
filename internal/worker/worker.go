// Package worker provides async notification dispatch from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/notify"
)

// Worker listens for decided applications and dispatches applicant
// notifications. Delivery is best-effort: failures are logged and never
// re-queued, the decision record is already persisted by the API layer.
type Worker struct {
	bus      domain.EventBus
	notifier domain.Notifier

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new notification worker.
func NewWorker(bus domain.EventBus, notifier domain.Notifier) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the decided-application topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicApplicationDecided, w.handleDecided)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("notification worker started",
		"topic", domain.TopicApplicationDecided,
		"notifier_enabled", w.notifier != nil && w.notifier.Enabled(),
	)

	return nil
}

// handleDecided dispatches notifications for a decided application.
func (w *Worker) handleDecided(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var app domain.Application
	if err := json.Unmarshal(msg.Payload, &app); err != nil {
		slog.Error("failed to parse application message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	if app.Email == "" {
		slog.Debug("application has no email, skipping notification",
			"application_id", app.ID,
		)
		return nil
	}

	sent := 0
	for _, n := range []*domain.Notification{
		notify.ConfirmationMessage(&app),
		notify.StatusMessage(&app),
	} {
		if w.notifier == nil || !w.notifier.Enabled() {
			continue
		}
		if err := w.notifier.Send(ctx, n); err != nil {
			slog.Error("notification delivery failed",
				"application_id", app.ID,
				"subject", n.Subject,
				"error", err,
			)
			continue
		}
		sent++

		payload, _ := json.Marshal(n)
		if err := w.bus.Publish(ctx, domain.TopicNotificationSent, payload); err != nil {
			slog.Error("failed to publish notification event",
				"application_id", app.ID,
				"error", err,
			)
		}
	}

	slog.Info("application notifications processed",
		"application_id", app.ID,
		"status", app.Status,
		"sent", sent,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("notification worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
