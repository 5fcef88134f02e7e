package velocity

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/openlend/kestrel/internal/cache"
	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/repository"
)

func TestVelocityService(t *testing.T) {
	// Create temp database
	tmpFile, err := os.CreateTemp("", "velocity-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	lruCache := cache.NewLRUCache(100)
	defer lruCache.Close()

	svc := NewService(repo, lruCache)

	ctx := context.Background()

	t.Run("EmptyDatabase", func(t *testing.T) {
		count, err := svc.CountRecent(ctx, "fresh@example.com", 3600)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected count 0 for empty database, got %d", count)
		}
	})

	t.Run("WithApplications", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			app := &domain.Application{
				ID:           fmt.Sprintf("app-%d", i),
				LoanType:     domain.LoanPersonal,
				FullName:     "Repeat Applicant",
				Age:          30,
				Phone:        "9876543210",
				Email:        "repeat@example.com",
				Amount:       100000,
				TenureMonths: 24,
				Personal:     &domain.PersonalDetails{MonthlyIncome: 50000},
				Status:       domain.StatusRejected,
				CreatedAt:    time.Now().UTC(),
				UpdatedAt:    time.Now().UTC(),
			}
			if err := repo.SaveApplication(ctx, app); err != nil {
				t.Fatalf("failed to save application: %v", err)
			}
		}

		count, err := svc.CountRecent(ctx, "repeat@example.com", 3600)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 5 {
			t.Errorf("expected count 5, got %d", count)
		}

		count, err = svc.CountRecent(ctx, "other@example.com", 3600)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected count 0 for other email, got %d", count)
		}
	})

	t.Run("RequiresEmail", func(t *testing.T) {
		_, err := svc.CountRecent(ctx, "", 3600)
		if err == nil {
			t.Error("expected error for empty email")
		}
	})

	t.Run("IntakeGetter", func(t *testing.T) {
		getter := svc.GetIntakeGetter()
		if getter == nil {
			t.Fatal("GetIntakeGetter returned nil")
		}

		count, err := getter(ctx, "repeat@example.com", 3600)
		if err != nil {
			t.Fatalf("IntakeGetter failed: %v", err)
		}
		if count != 5 {
			t.Errorf("expected count 5, got %d", count)
		}
	})

	t.Run("RecordSubmission", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := svc.RecordSubmission(ctx, "burst@example.com", time.Minute)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Errorf("expected counter %d, got %d", want, got)
			}
		}
	})
}

func TestNoDataSource(t *testing.T) {
	svc := &Service{} // No repo

	ctx := context.Background()
	_, err := svc.CountRecent(ctx, "someone@example.com", 3600)
	if err == nil {
		t.Error("expected error with no data source")
	}
}
