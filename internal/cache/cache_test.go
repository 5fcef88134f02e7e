package cache

import (
	"context"
	"testing"
	"time"

	"github.com/openlend/kestrel/internal/domain"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	c := NewLRUCache(100)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		val, err := c.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if string(val) != "value1" {
			t.Errorf("expected value1, got %s", val)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		val, err := c.Get(ctx, "no-such-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for missing key, got %s", val)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := c.Set(ctx, "key1", []byte("value2"), time.Minute); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		val, _ := c.Get(ctx, "key1")
		if string(val) != "value2" {
			t.Errorf("expected value2, got %s", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := c.Delete(ctx, "key1"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		val, _ := c.Get(ctx, "key1")
		if val != nil {
			t.Errorf("expected nil after delete, got %s", val)
		}
	})
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache(100)
	ctx := context.Background()

	if err := c.Set(ctx, "ephemeral", []byte("data"), 10*time.Millisecond); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	val, err := c.Get(ctx, "ephemeral")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != nil {
		t.Errorf("expected expired entry to be gone, got %s", val)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(3)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte(key), time.Minute); err != nil {
			t.Fatalf("failed to set %s: %v", key, err)
		}
	}

	// Touch "a" so "b" becomes the oldest
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatalf("failed to get: %v", err)
	}

	if err := c.Set(ctx, "d", []byte("d"), time.Minute); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	val, _ := c.Get(ctx, "b")
	if val != nil {
		t.Error("expected least recently used entry to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		val, _ := c.Get(ctx, key)
		if val == nil {
			t.Errorf("expected %s to survive eviction", key)
		}
	}

	size, capacity := c.Stats()
	if size != 3 || capacity != 3 {
		t.Errorf("unexpected stats: size=%d capacity=%d", size, capacity)
	}
}

func TestLRUCacheApplicationRoundTrip(t *testing.T) {
	c := NewLRUCache(100)
	ctx := context.Background()

	score := 680.0
	app := &domain.Application{
		ID:           "app-cache-1",
		LoanType:     domain.LoanCar,
		FullName:     "Ravi Kumar",
		Age:          29,
		Email:        "ravi@example.com",
		Amount:       600000,
		TenureMonths: 60,
		Car: &domain.CarDetails{
			AnnualIncome:   960000,
			CarPrice:       800000,
			DownPayment:    150000,
			WorkExperience: 4,
			CreditScore:    &score,
		},
		Status: domain.StatusApproved,
	}

	if err := c.SetApplication(ctx, app.ID, app, time.Minute); err != nil {
		t.Fatalf("failed to cache application: %v", err)
	}

	got, err := c.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("failed to get application: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached application")
	}
	if got.LoanType != domain.LoanCar || got.FullName != "Ravi Kumar" {
		t.Errorf("application fields not restored: %+v", got)
	}
	if got.Car == nil || got.Car.CreditScore == nil || *got.Car.CreditScore != 680 {
		t.Errorf("car details not restored: %+v", got.Car)
	}

	missing, err := c.GetApplication(ctx, "no-such-app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing application, got %+v", missing)
	}
}

func TestLRUCacheCounters(t *testing.T) {
	c := NewLRUCache(100)
	ctx := context.Background()

	t.Run("IncrementsWithinWindow", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := c.IncrementCounter(ctx, "intake:user@example.com", time.Minute)
			if err != nil {
				t.Fatalf("failed to increment: %v", err)
			}
			if got != want {
				t.Errorf("expected %d, got %d", want, got)
			}
		}
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		got, err := c.IncrementCounter(ctx, "intake:other@example.com", time.Minute)
		if err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
		if got != 1 {
			t.Errorf("expected 1 for new key, got %d", got)
		}
	})

	t.Run("WindowReset", func(t *testing.T) {
		if _, err := c.IncrementCounter(ctx, "intake:burst", 10*time.Millisecond); err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
		time.Sleep(30 * time.Millisecond)

		got, err := c.IncrementCounter(ctx, "intake:burst", time.Minute)
		if err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
		if got != 1 {
			t.Errorf("expected counter to reset after window, got %d", got)
		}
	})
}

func TestNewFactory(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 10})
		if err != nil {
			t.Fatalf("failed to create memory cache: %v", err)
		}
		defer c.Close()
		if _, ok := c.(*LRUCache); !ok {
			t.Errorf("expected *LRUCache, got %T", c)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported cache type")
		}
	})
}
