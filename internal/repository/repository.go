// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// detailsEnvelope serializes the per-type detail structs into the single
// details column; exactly one member is non-nil.
type detailsEnvelope struct {
	Education *domain.EducationDetails `json:"education,omitempty"`
	Home      *domain.HomeDetails      `json:"home,omitempty"`
	Car       *domain.CarDetails       `json:"car,omitempty"`
	Personal  *domain.PersonalDetails  `json:"personal,omitempty"`
	Business  *domain.BusinessDetails  `json:"business,omitempty"`
}

func marshalDetails(app *domain.Application) (string, error) {
	env := detailsEnvelope{
		Education: app.Education,
		Home:      app.Home,
		Car:       app.Car,
		Personal:  app.Personal,
		Business:  app.Business,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal details: %w", err)
	}
	return string(data), nil
}

func unmarshalDetails(app *domain.Application, data string) error {
	if data == "" {
		return nil
	}
	var env detailsEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return fmt.Errorf("failed to parse details: %w", err)
	}
	app.Education = env.Education
	app.Home = env.Home
	app.Car = env.Car
	app.Personal = env.Personal
	app.Business = env.Business
	return nil
}

// SaveApplication stores an application along with its decision and EMI
// schedule.
func (r *SQLRepository) SaveApplication(ctx context.Context, app *domain.Application) error {
	if app == nil || app.ID == "" {
		return fmt.Errorf("%w: application with ID is required", ErrInvalidInput)
	}

	details, err := marshalDetails(app)
	if err != nil {
		return err
	}

	var decision, emiInfo []byte
	if app.Decision != nil {
		decision, _ = json.Marshal(app.Decision)
	}
	if app.EMI != nil {
		emiInfo, _ = json.Marshal(app.EMI)
	}

	query := `
		INSERT INTO applications (
			id, loan_type, full_name, age, gender, phone, email,
			amount, tenure_months, purpose, details, decision, emi_info,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		app.ID, string(app.LoanType), app.FullName, app.Age, app.Gender,
		app.Phone, app.Email,
		app.Amount, app.TenureMonths, app.Purpose,
		details, nullable(decision), nullable(emiInfo),
		app.Status, app.CreatedAt, app.UpdatedAt,
	)
	return err
}

const applicationColumns = `id, loan_type, full_name, age, gender, phone, email,
	   amount, tenure_months, purpose, details, decision, emi_info,
	   status, created_at, updated_at`

func scanApplication(scan func(dest ...any) error) (*domain.Application, error) {
	var app domain.Application
	var loanType, details string
	var decision, emiInfo sql.NullString

	err := scan(
		&app.ID, &loanType, &app.FullName, &app.Age, &app.Gender,
		&app.Phone, &app.Email,
		&app.Amount, &app.TenureMonths, &app.Purpose,
		&details, &decision, &emiInfo,
		&app.Status, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.LoanType = domain.LoanType(loanType)
	if err := unmarshalDetails(&app, details); err != nil {
		return nil, err
	}
	if decision.Valid && decision.String != "" {
		var d domain.Decision
		if err := json.Unmarshal([]byte(decision.String), &d); err == nil {
			app.Decision = &d
		}
	}
	if emiInfo.Valid && emiInfo.String != "" {
		var s emi.Schedule
		if err := json.Unmarshal([]byte(emiInfo.String), &s); err == nil {
			app.EMI = &s
		}
	}

	return &app, nil
}

// GetApplication retrieves an application by ID.
func (r *SQLRepository) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`

	app, err := scanApplication(r.db.QueryRowContext(ctx, r.rebind(query), id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ListApplications retrieves applications, optionally filtered by loan type,
// newest first.
func (r *SQLRepository) ListApplications(ctx context.Context, loanType domain.LoanType) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var args []any
	if loanType != "" {
		query += ` WHERE loan_type = ?`
		args = append(args, string(loanType))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

// UpdateApplicationStatus overrides the status of an application.
func (r *SQLRepository) UpdateApplicationStatus(ctx context.Context, id string, status string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	query := `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), status, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteApplication removes an application.
func (r *SQLRepository) DeleteApplication(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM applications WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// CountApplicationsByEmail counts applications for an email since the cutoff.
func (r *SQLRepository) CountApplicationsByEmail(ctx context.Context, email string, since time.Time) (int64, error) {
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	query := `SELECT COUNT(*) FROM applications WHERE email = ? AND created_at >= ?`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), email, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	return count, nil
}

// SavePolicyConfig stores a policy rule configuration.
func (r *SQLRepository) SavePolicyConfig(ctx context.Context, policy *domain.PolicyConfig) error {
	if policy == nil || policy.ID == "" {
		return fmt.Errorf("%w: policy with ID is required", ErrInvalidInput)
	}

	enabled := 0
	if policy.Enabled {
		enabled = 1
	}
	loanType := policy.LoanType
	if loanType == "" {
		loanType = domain.PolicyLoanTypeAll
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO policy_rules (
			id, name, description, loan_type, expression, reason, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			loan_type = excluded.loan_type,
			expression = excluded.expression,
			reason = excluded.reason,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		policy.ID, policy.Name, policy.Description, loanType,
		policy.Expression, policy.Reason, enabled,
		now, now,
	)
	return err
}

// GetPolicyConfig retrieves an active policy rule.
func (r *SQLRepository) GetPolicyConfig(ctx context.Context, policyID string) (*domain.PolicyConfig, error) {
	if policyID == "" {
		return nil, fmt.Errorf("%w: policyID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, loan_type, expression, reason, enabled, created_at, updated_at
		FROM policy_rules
		WHERE id = ? AND enabled = 1
	`

	var cfg domain.PolicyConfig
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), policyID).Scan(
		&cfg.ID, &cfg.Name, &cfg.Description, &cfg.LoanType,
		&cfg.Expression, &cfg.Reason, &enabled,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg.Enabled = enabled == 1

	return &cfg, nil
}

// ListPolicyConfigs retrieves all active policy rules.
func (r *SQLRepository) ListPolicyConfigs(ctx context.Context) ([]*domain.PolicyConfig, error) {
	query := `
		SELECT id, name, description, loan_type, expression, reason, enabled, created_at, updated_at
		FROM policy_rules
		WHERE enabled = 1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.PolicyConfig
	for rows.Next() {
		var cfg domain.PolicyConfig
		var enabled int

		if err := rows.Scan(
			&cfg.ID, &cfg.Name, &cfg.Description, &cfg.LoanType,
			&cfg.Expression, &cfg.Reason, &enabled,
			&cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, err
		}

		cfg.Enabled = enabled == 1
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// DeletePolicyConfig soft-deletes a policy rule by setting enabled = 0.
func (r *SQLRepository) DeletePolicyConfig(ctx context.Context, policyID string) error {
	if policyID == "" {
		return fmt.Errorf("%w: policyID is required", ErrInvalidInput)
	}

	query := `
		UPDATE policy_rules
		SET enabled = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), policyID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// nullable maps empty JSON blobs to NULL.
func nullable(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
