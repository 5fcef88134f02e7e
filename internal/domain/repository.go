package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Application operations
	SaveApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, loanType LoanType) ([]*Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status string) error
	DeleteApplication(ctx context.Context, id string) error

	// CountApplicationsByEmail counts applications submitted with the given
	// email since the cutoff. Used for intake velocity.
	CountApplicationsByEmail(ctx context.Context, email string, since time.Time) (int64, error)

	// Policy configuration operations
	SavePolicyConfig(ctx context.Context, policy *PolicyConfig) error
	GetPolicyConfig(ctx context.Context, policyID string) (*PolicyConfig, error)
	ListPolicyConfigs(ctx context.Context) ([]*PolicyConfig, error)
	DeletePolicyConfig(ctx context.Context, policyID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
