package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openlend/kestrel/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, domain.TopicApplicationDecided, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if sub.Topic() != domain.TopicApplicationDecided {
		t.Errorf("unexpected topic: %s", sub.Topic())
	}

	if err := b.Publish(ctx, domain.TopicApplicationDecided, []byte(`{"id":"app-1"}`)); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Topic != domain.TopicApplicationDecided {
			t.Errorf("unexpected topic: %s", msg.Topic)
		}
		if string(msg.Payload) != `{"id":"app-1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
		if msg.ID == "" {
			t.Error("message ID should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, domain.TopicNotificationSent, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, domain.TopicApplicationReceived, []byte("other topic")); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case msg := <-received:
		t.Errorf("received message for unrelated topic: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannelBusMultipleSubscribers(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(3)

	for i := 0; i < 3; i++ {
		sub, err := b.Subscribe(ctx, "fanout.test", func(ctx context.Context, msg *domain.Message) error {
			wg.Done()
			return nil
		})
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
		defer sub.Unsubscribe()
	}

	if err := b.Publish(ctx, "fanout.test", []byte("hello")); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the message")
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, "unsub.test", func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("failed to unsubscribe: %v", err)
	}

	// Give handler goroutine a moment to stop
	time.Sleep(20 * time.Millisecond)

	if err := b.Publish(ctx, "unsub.test", []byte("after unsubscribe")); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case <-received:
		t.Error("received message after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannelBusRequestReply(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	// Responder echoes the payload back on the reply topic
	sub, err := b.Subscribe(ctx, "echo", func(ctx context.Context, msg *domain.Message) error {
		// Reply topics are derived per-request; find the matching one
		b.mu.RLock()
		var replyTopic string
		for topic := range b.subscriptions {
			if topic != "echo" && len(topic) > len("echo.reply.") && topic[:11] == "echo.reply." {
				replyTopic = topic
			}
		}
		b.mu.RUnlock()
		if replyTopic == "" {
			return nil
		}
		return b.Publish(ctx, replyTopic, append([]byte("echo: "), msg.Payload...))
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	reply, err := b.Request(reqCtx, "echo", []byte("ping"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if string(reply) != "echo: ping" {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestChannelBusClosed(t *testing.T) {
	b := NewChannelBus(10)
	ctx := context.Background()

	if err := b.Ping(ctx); err != nil {
		t.Errorf("ping should succeed on open bus: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	if err := b.Ping(ctx); err == nil {
		t.Error("ping should fail on closed bus")
	}
	if err := b.Publish(ctx, "topic", []byte("data")); err == nil {
		t.Error("publish should fail on closed bus")
	}
	if _, err := b.Subscribe(ctx, "topic", nil); err == nil {
		t.Error("subscribe should fail on closed bus")
	}

	// Double close is a no-op
	if err := b.Close(); err != nil {
		t.Errorf("double close should not error: %v", err)
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 10})
		if err != nil {
			t.Fatalf("failed to create channel bus: %v", err)
		}
		defer b.Close()
		if _, ok := b.(*ChannelBus); !ok {
			t.Errorf("expected *ChannelBus, got %T", b)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unsupported bus type")
		}
	})
}
