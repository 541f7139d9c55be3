/*
Package plan defines the scale-up planning data model.

PURPOSE:
  Named-field records for everything the dashboard edits and derives from:
  scenarios and their parameters, KPIs, cost data, and the per-variant
  tables (projects, risks, resources, processes, capex and opex lines).

KEY CONCEPTS:
  - Scenario:     A named production-volume case stored in the database
  - ScenarioKey:  The small fixed enumeration ("50k", "200k") the plan
                  payload uses to key parameters and tables
  - Variant:      A named product/process configuration; each variant has
                  its own Tables per scenario key
  - Plan:         The in-memory state container for one configuration
                  (see plan.go)

POSITIONAL LEGACY:
  Persisted payloads store tables as positional rows (a project is a
  24-cell array). The records here are the canonical shape; legacy.go
  converts at the persistence boundary and for cell edits.

SEE ALSO:
  - legacy.go:  Column layouts and row <-> record adapters
  - payload.go: JSON encoding of a Plan
  - errors.go:  Sentinel errors
*/
package plan

import "time"

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioKey identifies a production-volume case inside a plan payload.
type ScenarioKey string

const (
	Scenario50k  ScenarioKey = "50k"
	Scenario200k ScenarioKey = "200k"
)

// ScenarioKeys lists the known keys in display order.
var ScenarioKeys = []ScenarioKey{Scenario50k, Scenario200k}

// Valid reports whether k is one of the known keys.
func (k ScenarioKey) Valid() bool {
	return k == Scenario50k || k == Scenario200k
}

// Scenario is a persisted production-volume case.
type Scenario struct {
	ID          string
	Name        string
	Description string
	TargetUnits int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScenarioParameters are the operating assumptions for one scenario key.
type ScenarioParameters struct {
	UnitsPerYear float64 `json:"units_per_year"`
	HoursPerDay  float64 `json:"hours_per_day"`
	Shifts       float64 `json:"shifts"`
}

// =============================================================================
// KPI AND COST DATA
// =============================================================================

// KPI is a tracked indicator for a scenario. TargetValue is used as a
// denominator; derivations floor it at a small epsilon.
type KPI struct {
	ID           string
	ScenarioID   string
	Name         string
	TargetValue  float64
	CurrentValue float64
	Unit         string
	Owner        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CostData holds the cost roll-up for a scenario. In practice a scenario
// has at most one; lookups take the first match.
type CostData struct {
	ID          string
	ScenarioID  string
	Capex       float64
	Opex        float64
	CostPerUnit float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FindCostData returns the first CostData belonging to scenarioID, or nil.
func FindCostData(rows []CostData, scenarioID string) *CostData {
	for i := range rows {
		if rows[i].ScenarioID == scenarioID {
			return &rows[i]
		}
	}
	return nil
}

// =============================================================================
// TABLE RECORDS
// =============================================================================

// Priority is a MoSCoW classification.
type Priority string

const (
	PriorityMust   Priority = "Must"
	PriorityShould Priority = "Should"
	PriorityCould  Priority = "Could"
	PriorityWont   Priority = "Won't"
)

// Status values matched case-insensitively by the roll-ups.
const (
	StatusGreen = "GREEN"
	StatusRed   = "RED"
)

// RACI names who is Responsible, Accountable, Consulted and Informed.
type RACI struct {
	Responsible string
	Accountable string
	Consulted   string
	Informed    string
}

// Project is one row of the project portfolio.
type Project struct {
	ID              string
	Name            string
	Type            string
	Priority        Priority
	Owner           string
	Start           string
	Finish          string
	Dependencies    string
	Deliverables    string
	Goal            string
	RACI            RACI
	Needs           string
	Barriers        string
	RiskNotes       string
	BudgetCapex     float64
	BudgetOpex      float64
	PercentComplete float64
	ProcessLink     string
	Critical        bool
	Status          string
	SlackDays       float64
}

// Level is a High/Medium/Low rating; empty means unrated.
type Level string

const (
	LevelHigh   Level = "H"
	LevelMedium Level = "M"
	LevelLow    Level = "L"
)

// RiskStatus tracks a risk through mitigation.
type RiskStatus string

const (
	RiskOpen       RiskStatus = "Open"
	RiskMonitoring RiskStatus = "Monitoring"
	RiskMitigated  RiskStatus = "Mitigated"
	RiskClosed     RiskStatus = "Closed"
)

// Risk is one row of the risk register.
type Risk struct {
	ID          string
	Description string
	Impact      Level
	Probability Level
	Mitigation  string
	Owner       string
	DueDate     string
	Status      RiskStatus
}

// ResourceType classifies a Resource.
type ResourceType string

const (
	ResourcePersonnel ResourceType = "Personnel"
	ResourceEquipment ResourceType = "Equipment"
	ResourceSoftware  ResourceType = "Software"
	ResourceFacility  ResourceType = "Facility"
	ResourceOther     ResourceType = "Other"
)

// Resource is one row of the resource plan.
type Resource struct {
	Name       string
	Type       ResourceType
	Quantity   float64
	UnitCost   float64
	Department string
	Notes      string
}

// Process is one manufacturing process step.
type Process struct {
	Name             string
	CycleTimeMinutes float64
	BatchSize        float64
	YieldPercent     float64
	TaktTargetSecs   float64
	Equipment        string
	Operators        string
	Notes            string
}

// CapexLine is a capital expenditure line item.
type CapexLine struct {
	Item        string
	Quantity    float64
	UnitCost    float64
	InstallCost float64
}

// OpexLine is an operating expenditure line item.
type OpexLine struct {
	Item     string
	Cadence  string
	Quantity float64
	UnitCost float64
}

// =============================================================================
// PERSISTED AGGREGATES
// =============================================================================

// Configuration is the persisted plan blob. (OrgKey, Name) is the natural
// key; saves overwrite in place.
type Configuration struct {
	ID             string
	OrgKey         string
	Name           string
	Description    string
	Payload        []byte
	ScenarioKey    ScenarioKey
	VariantName    string
	LastModifiedBy string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ModificationLogEntry is one field change in the append-only audit trail.
type ModificationLogEntry struct {
	TableName  string
	RecordID   string
	FieldName  string
	OldValue   string
	NewValue   string
	ModifiedBy string
	ModifiedAt time.Time
}
