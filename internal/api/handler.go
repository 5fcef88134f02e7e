package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/openlend/kestrel/internal/decision"
	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
	"github.com/openlend/kestrel/internal/policy"
	"github.com/openlend/kestrel/internal/repository"
	"github.com/openlend/kestrel/internal/rules"
	"github.com/openlend/kestrel/internal/validate"
	"github.com/openlend/kestrel/internal/velocity"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo           domain.Repository
	cache          domain.Cache
	bus            domain.EventBus
	engine         *rules.Engine
	policies       *policy.Engine
	processor      *decision.Processor
	intake         *velocity.Service
	velocityWindow int
	version        string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, policies *policy.Engine, processor *decision.Processor, intake *velocity.Service, velocityWindow int, version string) *Handler {
	return &Handler{
		repo:           repo,
		cache:          cache,
		bus:            bus,
		engine:         engine,
		policies:       policies,
		processor:      processor,
		intake:         intake,
		velocityWindow: velocityWindow,
		version:        version,
	}
}

// applicationCacheTTL bounds how long decided applications sit in cache.
const applicationCacheTTL = 10 * time.Minute

// ApplyResponse is the response for POST /apply/{loanType}.
type ApplyResponse struct {
	ApplicationID string           `json:"application_id"`
	LoanType      domain.LoanType  `json:"loan_type"`
	Status        string           `json:"status"`
	Decision      *domain.Decision `json:"decision"`
	EMI           *emi.Schedule    `json:"emi_info"`
	Message       string           `json:"message"`
}

// Apply handles POST /apply/{loanType}: validates the submission, runs the
// decision pipeline synchronously and persists the decided application.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)
	loanType := domain.LoanType(chi.URLParam(r, "loanType"))

	var req domain.ApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := validate.Request(loanType, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	app := req.ToApplication(loanType)
	app.ID = uuid.New().String()

	if h.bus != nil {
		if payload, err := json.Marshal(app); err == nil {
			if err := h.bus.Publish(ctx, domain.TopicApplicationReceived, payload); err != nil {
				slog.Error("failed to publish application received", "error", err)
			}
		}
	}

	// Bump the intake counter; policy rules read the authoritative count
	// from the repository.
	if h.intake != nil {
		if _, err := h.intake.RecordSubmission(ctx, app.Email, time.Duration(h.velocityWindow)*time.Second); err != nil {
			slog.Warn("failed to record intake", "email", app.Email, "error", err)
		}
	}

	// 1. Built-in eligibility checks
	rulesStart := time.Now()
	ruleDecision, sched, err := h.engine.Evaluate(app)
	if err != nil {
		slog.Error("evaluation failed", "application_id", app.ID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}
	rulesMs := time.Since(rulesStart).Milliseconds()

	// 2. Supplemental policies
	policiesStart := time.Now()
	var violations []domain.PolicyViolation
	policiesEvaluated := 0
	if h.policies != nil {
		policiesEvaluated = h.policies.PolicyCount()
		violations, err = h.policies.EvaluateAll(ctx, &policy.EvaluateInput{
			AppID:          app.ID,
			LoanType:       string(loanType),
			Amount:         app.Amount,
			TenureMonths:   app.TenureMonths,
			EMI:            sched.EMI,
			MonthlyIncome:  app.MonthlyIncome(),
			CreditScore:    app.CreditScoreValue(),
			Age:            app.Age,
			Email:          app.Email,
			VelocityWindow: h.velocityWindow,
		})
		if err != nil {
			slog.Error("policy evaluation failed", "application_id", app.ID, "error", err)
		}
	}
	policiesMs := time.Since(policiesStart).Milliseconds()

	// 3. Final decision
	final := h.processor.Process(ctx, &decision.Input{
		TraceID:           traceID,
		RuleDecision:      ruleDecision,
		Violations:        violations,
		PoliciesEvaluated: policiesEvaluated,
		RulesMs:           rulesMs,
		PoliciesMs:        policiesMs,
		StartTime:         start,
	})

	app.Decision = final
	app.EMI = &sched
	app.Status = final.Status()
	app.UpdatedAt = time.Now().UTC()

	// 4. Persist and cache
	if h.repo != nil {
		if err := h.repo.SaveApplication(ctx, app); err != nil {
			slog.Error("failed to save application", "application_id", app.ID, "error", err)
		}
	}
	if h.cache != nil {
		if err := h.cache.SetApplication(ctx, app.ID, app, applicationCacheTTL); err != nil {
			slog.Warn("failed to cache application", "application_id", app.ID, "error", err)
		}
	}

	// 5. Publish decided event (drives notification dispatch)
	if h.bus != nil {
		if payload, err := json.Marshal(app); err == nil {
			if err := h.bus.Publish(ctx, domain.TopicApplicationDecided, payload); err != nil {
				slog.Error("failed to publish application decided", "error", err)
			}
		}
	}

	slog.Info("application decided",
		"application_id", app.ID,
		"loan_type", loanType,
		"status", app.Status,
		"reason_count", len(final.Reasons),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusCreated, ApplyResponse{
		ApplicationID: app.ID,
		LoanType:      loanType,
		Status:        app.Status,
		Decision:      final,
		EMI:           &sched,
		Message:       final.Reason(),
	})
}

// EMIRequest is the request body for POST /emi.
type EMIRequest struct {
	LoanType   string         `json:"loan_type"`
	Amount     float64        `json:"loan_amount"`
	Tenure     int            `json:"loan_tenure"`
	TenureUnit emi.TenureUnit `json:"tenure_unit,omitempty"`
}

// CalculateEMI handles POST /emi: the standalone calculator, no persistence.
func (h *Handler) CalculateEMI(w http.ResponseWriter, r *http.Request) {
	var req EMIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	unit := req.TenureUnit
	if unit == "" {
		unit = emi.Months
	}

	sched, err := emi.ComputeForLoanType(req.LoanType, req.Amount, req.Tenure, unit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// ListLoanProducts handles GET /loan-details.
func (h *Handler) ListLoanProducts(w http.ResponseWriter, r *http.Request) {
	products := make([]domain.LoanProduct, 0, len(domain.AllLoanTypes()))
	for _, t := range domain.AllLoanTypes() {
		if p, ok := domain.ProductFor(t); ok {
			products = append(products, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// GetLoanProduct handles GET /loan-details/{loanType}.
func (h *Handler) GetLoanProduct(w http.ResponseWriter, r *http.Request) {
	loanType := domain.LoanType(chi.URLParam(r, "loanType"))
	p, ok := domain.ProductFor(loanType)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown loan type: " + string(loanType),
		})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListApplications handles GET /applications with optional ?loan_type= filter.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	loanType := domain.LoanType(r.URL.Query().Get("loan_type"))
	if loanType != "" && !loanType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown loan type: " + string(loanType),
		})
		return
	}

	apps, err := h.repo.ListApplications(ctx, loanType)
	if err != nil {
		slog.Error("failed to list applications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list applications",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
		"count":        len(apps),
	})
}

// GetApplication handles GET /applications/{id}. Cache is consulted first.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID := chi.URLParam(r, "id")

	if appID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "application id is required",
		})
		return
	}

	if h.cache != nil {
		if app, err := h.cache.GetApplication(ctx, appID); err == nil && app != nil {
			writeJSON(w, http.StatusOK, app)
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	app, err := h.repo.GetApplication(ctx, appID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "application not found",
			})
			return
		}
		slog.Error("failed to get application", "id", appID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get application",
		})
		return
	}

	if h.cache != nil {
		_ = h.cache.SetApplication(ctx, appID, app, applicationCacheTTL)
	}

	writeJSON(w, http.StatusOK, app)
}

// UpdateStatusRequest is the request body for PUT /applications/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateApplicationStatus handles PUT /applications/{id}/status, the manual
// override path for reviewers.
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Status != domain.StatusApproved && req.Status != domain.StatusRejected {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "status must be approved or rejected",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.UpdateApplicationStatus(ctx, appID, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "application not found",
			})
			return
		}
		slog.Error("failed to update status", "id", appID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update status",
		})
		return
	}

	// Drop the stale cached copy
	if h.cache != nil {
		_ = h.cache.Delete(ctx, "app:"+appID)
	}

	slog.Info("application status updated", "id", appID, "status", req.Status)
	writeJSON(w, http.StatusOK, map[string]string{
		"application_id": appID,
		"status":         req.Status,
	})
}

// DeleteApplication handles DELETE /applications/{id}.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteApplication(ctx, appID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "application not found",
			})
			return
		}
		slog.Error("failed to delete application", "id", appID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to delete application",
		})
		return
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, "app:"+appID)
	}

	slog.Info("application deleted", "id", appID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "application deleted",
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListPolicies returns all loaded policies from the engine.
// Policies are loaded from the database at startup and can be reloaded via
// POST /policies/reload.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	loaded := h.policies.GetLoadedPolicies()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": loaded,
		"count":    len(loaded),
		"source":   "database",
	})
}

// GetPolicy retrieves a policy by ID from the loaded engine policies.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	for _, p := range h.policies.GetLoadedPolicies() {
		if p.ID == policyID {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "policy not found",
	})
}

// CreatePolicyRequest is the request body for creating a policy.
type CreatePolicyRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LoanType    string `json:"loan_type,omitempty"`
	Expression  string `json:"expression"`
	Reason      string `json:"reason"`
	Enabled     bool   `json:"enabled"`
}

// CreatePolicy creates a new policy and saves it to the database.
// The CEL expression is compiled before persisting so invalid policies never
// reach storage.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" || req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, expression, and reason are required",
		})
		return
	}

	loanType := req.LoanType
	if loanType == "" {
		loanType = domain.PolicyLoanTypeAll
	}
	if loanType != domain.PolicyLoanTypeAll && !domain.LoanType(loanType).Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown loan type: " + loanType,
		})
		return
	}

	cfg := &domain.PolicyConfig{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		LoanType:    loanType,
		Expression:  req.Expression,
		Reason:      req.Reason,
		Enabled:     req.Enabled,
	}

	// Compile to validate the expression
	if err := h.policies.ValidatePolicy(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SavePolicyConfig(ctx, cfg); err != nil {
			slog.Error("failed to save policy config", "id", cfg.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save policy",
			})
			return
		}
	}

	if cfg.Enabled {
		if err := h.policies.LoadPolicy(cfg); err != nil {
			slog.Error("failed to load policy into engine", "id", cfg.ID, "error", err)
		}
	}

	slog.Info("policy created", "id", cfg.ID, "name", cfg.Name, "loan_type", cfg.LoanType)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"policy":  cfg,
		"message": "Policy created and loaded.",
	})
}

// DeletePolicy disables a policy and reloads the engine.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID := chi.URLParam(r, "id")

	if policyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id is required",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.DeletePolicyConfig(ctx, policyID); err != nil {
			slog.Error("failed to delete policy", "id", policyID, "error", err)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "policy not found",
			})
			return
		}

		// Auto-reload after delete so the engine drops the policy
		dbPolicies, err := h.repo.ListPolicyConfigs(ctx)
		if err != nil {
			slog.Error("failed to reload policies after delete", "error", err)
		} else if err := h.policies.ReloadPolicies(dbPolicies); err != nil {
			slog.Error("failed to reload policy engine after delete", "error", err)
		}
	}

	slog.Info("policy deleted", "id", policyID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Policy deleted and engine reloaded.",
	})
}

// ReloadPolicies reloads all policies from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbPolicies, err := h.repo.ListPolicyConfigs(ctx)
	if err != nil {
		slog.Error("failed to list policies from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load policies from database",
		})
		return
	}

	if err := h.policies.ReloadPolicies(dbPolicies); err != nil {
		slog.Error("failed to reload policies into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload policies: " + err.Error(),
		})
		return
	}

	slog.Info("policies reloaded from database", "count", len(dbPolicies))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "policies reloaded successfully",
		"count":   len(dbPolicies),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
