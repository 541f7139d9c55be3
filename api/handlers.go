/*
handlers.go - HTTP API handlers for the scale-up planner

PURPOSE:
  Exposes scenarios, KPIs, cost data, saved configurations and the live
  plan over REST. Handles HTTP request/response and JSON serialization,
  and delegates to the store, the gateway and the session manager.

ENDPOINTS:
  Scenarios:
    GET    /api/scenarios               List scenarios
    POST   /api/scenarios               Create scenario
    GET    /api/scenarios/{id}          Get scenario
    PUT    /api/scenarios/{id}          Update scenario (logged)
    DELETE /api/scenarios/{id}          Delete scenario with its KPIs and costs

  KPIs / cost data:
    GET    /api/scenarios/{id}/kpis       List KPIs of a scenario
    POST   /api/kpis                      Create KPI
    PUT    /api/kpis/{id}                 Update KPI (logged)
    DELETE /api/kpis/{id}                 Delete KPI
    GET    /api/scenarios/{id}/cost-data  List cost data, newest first
    POST   /api/cost-data                 Create cost data
    PUT    /api/cost-data/{id}            Update cost data (logged)
    DELETE /api/cost-data/{id}            Delete cost data

  Configurations:
    GET    /api/configurations/{name}   Load, falling back to the latest save
    PUT    /api/configurations/{name}   Upsert by (org, name)

  Live plan, derived data and demo: see plan.go, derived.go, demo.go.

REQUEST CONTEXT:
  X-Org-Key selects the organization (default from config).
  X-User is recorded as the modifier of saves and log entries.
  ?config= selects the configuration name of the live plan.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, bad table/row/column
  - 404: Resource not found
  - 500: Internal errors
  - 503: Save failed; edits are kept and retried on the next save

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Session gate in front of /api
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/report"
	"github.com/warp/scaleup-planner/session"
	"github.com/warp/scaleup-planner/store/sqlite"
)

// Request headers carrying the caller's context.
const (
	HeaderOrgKey = "X-Org-Key"
	HeaderUser   = "X-User"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Gateway  *gateway.Gateway
	Sessions *session.Manager

	// Layout is the page geometry for printable reports.
	Layout report.Layout

	// DefaultOrgKey is used when a request has no X-Org-Key header.
	DefaultOrgKey string

	logger *zap.Logger

	// Font faces are not safe for concurrent use.
	renderMu sync.Mutex

	// Track currently loaded demo dataset
	mu             sync.Mutex
	currentDataset string
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, gw *gateway.Gateway, sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:         store,
		Gateway:       gw,
		Sessions:      sessions,
		Layout:        report.DefaultLayout(),
		DefaultOrgKey: "default",
		logger:        logger.Named("api"),
	}
}

func (h *Handler) orgKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderOrgKey)); v != "" {
		return v
	}
	return h.DefaultOrgKey
}

func modifiedBy(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUser))
}

// session opens the live plan selected by the request.
func (h *Handler) session(r *http.Request) *session.Session {
	s := h.Sessions.Open(r.Context(), h.orgKey(r), r.URL.Query().Get("config"))
	s.SetEditor(modifiedBy(r))
	return s
}

// Health reports liveness and store connectivity. Not behind the gate.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.Store.ListScenarios(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}

	dtos := make([]ScenarioDTO, len(scenarios))
	for i, sc := range scenarios {
		dtos[i] = toScenarioDTO(sc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScenario returns a single scenario.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := h.Store.GetScenario(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scenario", err)
		return
	}
	if sc == nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(*sc))
}

// CreateScenario creates a new scenario.
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var sc plan.Scenario
	applyScenario(&sc, req)
	if sc.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	saved, err := h.Store.SaveScenario(r.Context(), sc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create scenario", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScenarioDTO(*saved))
}

// UpdateScenario applies the given fields and logs what changed.
func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.Store.GetScenario(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scenario", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	updated := *existing
	applyScenario(&updated, req)
	if updated.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	saved, err := h.Store.SaveScenario(ctx, updated)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update scenario", err)
		return
	}
	h.logChanges(r, fieldChanges("scenarios", saved.ID, modifiedBy(r), scenarioFields(*existing), scenarioFields(*saved)))

	writeJSON(w, http.StatusOK, toScenarioDTO(*saved))
}

// DeleteScenario removes a scenario with its KPIs and cost data.
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteScenario(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), "Failed to delete scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applyScenario(sc *plan.Scenario, req ScenarioRequest) {
	if req.Name != nil {
		sc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		sc.Description = *req.Description
	}
	if req.TargetUnits != nil {
		sc.TargetUnits = *req.TargetUnits
	}
}

// =============================================================================
// KPI HANDLERS
// =============================================================================

// ListKPIs returns the KPIs of one scenario.
func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if !h.scenarioExists(w, r, id) {
		return
	}
	kpis, err := h.Store.ListKPIs(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list KPIs", err)
		return
	}

	dtos := make([]KPIDTO, len(kpis))
	for i, k := range kpis {
		dtos[i] = toKPIDTO(k)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateKPI creates a KPI for an existing scenario.
func (h *Handler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	var req KPIRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var k plan.KPI
	applyKPI(&k, req)
	if k.ScenarioID == "" || k.Name == "" {
		writeError(w, http.StatusBadRequest, "scenario_id and name are required", nil)
		return
	}

	saved, err := h.Store.SaveKPI(r.Context(), k)
	if err != nil {
		writeError(w, statusFor(err), "Failed to create KPI", err)
		return
	}
	writeJSON(w, http.StatusCreated, toKPIDTO(*saved))
}

// UpdateKPI applies the given fields and logs what changed.
func (h *Handler) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req KPIRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.Store.GetKPI(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get KPI", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "KPI not found", nil)
		return
	}

	updated := *existing
	applyKPI(&updated, req)
	if updated.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	saved, err := h.Store.SaveKPI(ctx, updated)
	if err != nil {
		writeError(w, statusFor(err), "Failed to update KPI", err)
		return
	}
	h.logChanges(r, fieldChanges("kpis", saved.ID, modifiedBy(r), kpiFields(*existing), kpiFields(*saved)))

	writeJSON(w, http.StatusOK, toKPIDTO(*saved))
}

// DeleteKPI removes a KPI.
func (h *Handler) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteKPI(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), "Failed to delete KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applyKPI(k *plan.KPI, req KPIRequest) {
	if req.ScenarioID != nil {
		k.ScenarioID = strings.TrimSpace(*req.ScenarioID)
	}
	if req.Name != nil {
		k.Name = strings.TrimSpace(*req.Name)
	}
	if req.TargetValue != nil {
		k.TargetValue = *req.TargetValue
	}
	if req.CurrentValue != nil {
		k.CurrentValue = *req.CurrentValue
	}
	if req.Unit != nil {
		k.Unit = *req.Unit
	}
	if req.Owner != nil {
		k.Owner = *req.Owner
	}
}

// =============================================================================
// COST DATA HANDLERS
// =============================================================================

// ListCostData returns the cost rows of one scenario, newest first.
func (h *Handler) ListCostData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if !h.scenarioExists(w, r, id) {
		return
	}
	rows, err := h.Store.ListCostData(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cost data", err)
		return
	}

	dtos := make([]CostDataDTO, len(rows))
	for i, c := range rows {
		dtos[i] = toCostDataDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCostData records a cost snapshot for an existing scenario.
func (h *Handler) CreateCostData(w http.ResponseWriter, r *http.Request) {
	var req CostDataRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var c plan.CostData
	applyCostData(&c, req)
	if c.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "scenario_id is required", nil)
		return
	}

	saved, err := h.Store.SaveCostData(r.Context(), c)
	if err != nil {
		writeError(w, statusFor(err), "Failed to create cost data", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCostDataDTO(*saved))
}

// UpdateCostData applies the given fields and logs what changed.
func (h *Handler) UpdateCostData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CostDataRequest
	if !decodeBody(w, r, &req) {
		return
	}

	existing, err := h.Store.GetCostData(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get cost data", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Cost data not found", nil)
		return
	}

	updated := *existing
	applyCostData(&updated, req)

	saved, err := h.Store.SaveCostData(ctx, updated)
	if err != nil {
		writeError(w, statusFor(err), "Failed to update cost data", err)
		return
	}
	h.logChanges(r, fieldChanges("cost_data", saved.ID, modifiedBy(r), costFields(*existing), costFields(*saved)))

	writeJSON(w, http.StatusOK, toCostDataDTO(*saved))
}

// DeleteCostData removes a cost-data row.
func (h *Handler) DeleteCostData(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCostData(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), "Failed to delete cost data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applyCostData(c *plan.CostData, req CostDataRequest) {
	if req.ScenarioID != nil {
		c.ScenarioID = strings.TrimSpace(*req.ScenarioID)
	}
	if req.Capex != nil {
		c.Capex = *req.Capex
	}
	if req.Opex != nil {
		c.Opex = *req.Opex
	}
	if req.CostPerUnit != nil {
		c.CostPerUnit = *req.CostPerUnit
	}
}

func (h *Handler) scenarioExists(w http.ResponseWriter, r *http.Request, id string) bool {
	sc, err := h.Store.GetScenario(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scenario", err)
		return false
	}
	if sc == nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return false
	}
	return true
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// GetConfiguration loads a saved configuration by name, falling back to
// the organization's most recent one.
func (h *Handler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.Gateway.LoadConfiguration(r.Context(), h.orgKey(r), chi.URLParam(r, "name"))
	if errors.Is(err, plan.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Configuration not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(&loaded.Configuration, loaded.Fallback))
}

// SaveConfiguration upserts a configuration by (org, name).
func (h *Handler) SaveConfiguration(w http.ResponseWriter, r *http.Request) {
	var req SaveConfigurationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		writeError(w, http.StatusBadRequest, "payload must be valid JSON", nil)
		return
	}
	key := plan.ScenarioKey(req.ScenarioKey)
	if key != "" && !key.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario key %q", key), plan.ErrUnknownScenario)
		return
	}

	saved, err := h.Gateway.SaveConfiguration(r.Context(), h.orgKey(r), gateway.SaveRequest{
		Name:        chi.URLParam(r, "name"),
		Description: req.Description,
		Payload:     req.Payload,
		ScenarioKey: key,
		VariantName: req.VariantName,
		ModifiedBy:  modifiedBy(r),
	})
	if err != nil {
		writeError(w, statusFor(err), "Failed to save configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(saved, false))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeBody reads the JSON body into dst, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, plan.ErrUnknownTable),
		errors.Is(err, plan.ErrRowOutOfRange),
		errors.Is(err, plan.ErrColumnOutOfRange),
		errors.Is(err, plan.ErrUnknownScenario),
		errors.Is(err, plan.ErrUnknownVariant),
		errors.Is(err, gateway.ErrNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
