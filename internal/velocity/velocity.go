// Package velocity tracks application intake frequency per applicant.
package velocity

import (
	"context"
	"fmt"
	"time"

	"github.com/openlend/kestrel/internal/domain"
)

// Service counts recent applications per applicant email. The repository is
// the source of truth; the cache carries a fast submission counter used to
// spot bursts at intake time without a database round trip.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a new velocity service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// CountRecent returns the number of applications submitted with the given
// email within the window. This is the IntakeGetter signature expected by
// the policy engine.
func (s *Service) CountRecent(ctx context.Context, email string, windowSecs int) (int64, error) {
	if email == "" {
		return 0, fmt.Errorf("email is required")
	}
	if s.repo == nil {
		return 0, fmt.Errorf("no data source available")
	}

	since := time.Now().Add(-time.Duration(windowSecs) * time.Second)
	count, err := s.repo.CountApplicationsByEmail(ctx, email, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

// RecordSubmission bumps the cached intake counter for the email and
// returns the count within the window. Counter failures are non-fatal;
// callers log and move on.
func (s *Service) RecordSubmission(ctx context.Context, email string, window time.Duration) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.IncrementCounter(ctx, "intake:"+email, window)
}

// GetIntakeGetter returns an IntakeGetter function for the policy engine.
func (s *Service) GetIntakeGetter() func(ctx context.Context, email string, windowSecs int) (int64, error) {
	return s.CountRecent
}
