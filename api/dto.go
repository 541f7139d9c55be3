/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal plan model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Scenarios / KPIs / cost data:
    ScenarioDTO, ScenarioRequest, KPIDTO, KPIRequest, CostDataDTO, CostDataRequest

  Configurations:
    ConfigurationDTO, SaveConfigurationRequest

  Live plan:
    PlanDTO, TableDTO, CellChangeRequest, SelectionRequest

  Derived:
    metrics.Bundle and report.Report are served as-is; PagesDTO

  Demo:
    DatasetDTO, LoadDatasetRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/scaleup-planner/gateway"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/report"
	"github.com/warp/scaleup-planner/table"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ScenarioDTO represents a scenario in API responses.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetUnits int    `json:"target_units"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// ScenarioRequest is the body for creating or updating a scenario.
type ScenarioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	TargetUnits *int    `json:"target_units"`
}

// KPIDTO represents a KPI in API responses.
type KPIDTO struct {
	ID           string  `json:"id"`
	ScenarioID   string  `json:"scenario_id"`
	Name         string  `json:"name"`
	TargetValue  float64 `json:"target_value"`
	CurrentValue float64 `json:"current_value"`
	Unit         string  `json:"unit"`
	Owner        string  `json:"owner"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// KPIRequest is the body for creating or updating a KPI. Omitted fields
// keep their current value on update.
type KPIRequest struct {
	ScenarioID   *string  `json:"scenario_id"`
	Name         *string  `json:"name"`
	TargetValue  *float64 `json:"target_value"`
	CurrentValue *float64 `json:"current_value"`
	Unit         *string  `json:"unit"`
	Owner        *string  `json:"owner"`
}

// CostDataDTO represents a cost-data row in API responses.
type CostDataDTO struct {
	ID          string  `json:"id"`
	ScenarioID  string  `json:"scenario_id"`
	Capex       float64 `json:"capex"`
	Opex        float64 `json:"opex"`
	CostPerUnit float64 `json:"cost_per_unit"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CostDataRequest is the body for creating or updating cost data.
type CostDataRequest struct {
	ScenarioID  *string  `json:"scenario_id"`
	Capex       *float64 `json:"capex"`
	Opex        *float64 `json:"opex"`
	CostPerUnit *float64 `json:"cost_per_unit"`
}

// ConfigurationDTO is a stored configuration. Fallback is set when the
// requested name did not exist and the latest one of any name was served.
type ConfigurationDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Payload        json.RawMessage `json:"payload"`
	ScenarioKey    string          `json:"scenario_key"`
	VariantName    string          `json:"variant_name"`
	LastModifiedBy string          `json:"last_modified_by"`
	UpdatedAt      string          `json:"updated_at"`
	Fallback       bool            `json:"fallback"`
}

// SaveConfigurationRequest is the body of PUT /configurations/{name}.
type SaveConfigurationRequest struct {
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	ScenarioKey string          `json:"scenario_key"`
	VariantName string          `json:"variant_name"`
}

// PlanDTO describes the live plan of a session.
type PlanDTO struct {
	OrgKey         string                                       `json:"org_key"`
	Configuration  string                                       `json:"configuration"`
	ScenarioKey    plan.ScenarioKey                             `json:"scenario_key"`
	Variant        string                                       `json:"variant"`
	Variants       []string                                     `json:"variants"`
	Parameters     map[plan.ScenarioKey]plan.ScenarioParameters `json:"parameters"`
	Tables         map[plan.TableKind]int                       `json:"table_rows"`
	PendingChanges int                                          `json:"pending_changes"`
	Sync           gateway.SyncStatus                           `json:"sync"`
	Seeded         bool                                         `json:"seeded"`
	LoadMessage    string                                       `json:"load_message,omitempty"`
}

// TableDTO is one table of the active selection in its positional layout.
type TableDTO struct {
	Table   plan.TableKind `json:"table"`
	Columns []string       `json:"columns"`
	Rows    table.Table    `json:"rows"`
}

// CellChangeRequest sets one cell.
type CellChangeRequest struct {
	Row    int `json:"row"`
	Column int `json:"column"`
	Value  any `json:"value"`
}

// SelectionRequest switches scenario key and/or variant.
type SelectionRequest struct {
	ScenarioKey plan.ScenarioKey `json:"scenario_key"`
	Variant     string           `json:"variant"`
}

// SyncDTO is the answer to save and sync-status calls.
type SyncDTO struct {
	PendingChanges int                `json:"pending_changes"`
	Sync           gateway.SyncStatus `json:"sync"`
}

// PagesDTO lists the printable pages of the report.
type PagesDTO struct {
	Total int           `json:"total"`
	Pages []report.Page `json:"pages"`
}

// DatasetDTO describes a demo dataset.
type DatasetDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadDatasetRequest is the body of POST /demo/load.
type LoadDatasetRequest struct {
	DatasetID string `json:"dataset_id"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toScenarioDTO(sc plan.Scenario) ScenarioDTO {
	return ScenarioDTO{
		ID:          sc.ID,
		Name:        sc.Name,
		Description: sc.Description,
		TargetUnits: sc.TargetUnits,
		CreatedAt:   formatTime(sc.CreatedAt),
		UpdatedAt:   formatTime(sc.UpdatedAt),
	}
}

func toKPIDTO(k plan.KPI) KPIDTO {
	return KPIDTO{
		ID:           k.ID,
		ScenarioID:   k.ScenarioID,
		Name:         k.Name,
		TargetValue:  k.TargetValue,
		CurrentValue: k.CurrentValue,
		Unit:         k.Unit,
		Owner:        k.Owner,
		UpdatedAt:    formatTime(k.UpdatedAt),
	}
}

func toCostDataDTO(c plan.CostData) CostDataDTO {
	return CostDataDTO{
		ID:          c.ID,
		ScenarioID:  c.ScenarioID,
		Capex:       c.Capex,
		Opex:        c.Opex,
		CostPerUnit: c.CostPerUnit,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func toConfigurationDTO(cfg *plan.Configuration, fallback bool) ConfigurationDTO {
	payload := json.RawMessage(cfg.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	return ConfigurationDTO{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Description:    cfg.Description,
		Payload:        payload,
		ScenarioKey:    string(cfg.ScenarioKey),
		VariantName:    cfg.VariantName,
		LastModifiedBy: cfg.LastModifiedBy,
		UpdatedAt:      formatTime(cfg.UpdatedAt),
		Fallback:       fallback,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
