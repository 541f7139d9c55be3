/*
legacy.go - Positional row layouts and record adapters

PURPOSE:
  Persisted payloads and the table-editing surfaces address cells by
  position. This file is the only place that knows the positions; every
  other package works on named records.

LAYOUTS:
  projects   24 columns (budget capex at 17, budget opex at 18)
  risks       8 columns
  resources   6 columns
  processes   8 columns (name, cycle min, batch, yield %, takt s, ...)
  capex       4 columns (item, qty, unit cost, install cost)
  opex        4 columns (item, cadence, qty, unit cost)

MIGRATION:
  Old rows shorter than the layout read missing cells as empty; rows
  longer than the layout drop the extra cells on the next save.
*/
package plan

import (
	"strings"

	"github.com/warp/scaleup-planner/table"
)

// TableKind names an editable table inside Tables.
type TableKind string

const (
	TableProjects  TableKind = "projects"
	TableRisks     TableKind = "risks"
	TableResources TableKind = "resources"
	TableProcesses TableKind = "processes"
	TableCapex     TableKind = "capex"
	TableOpex      TableKind = "opex"
)

// TableKinds lists every table in payload order.
var TableKinds = []TableKind{TableProjects, TableRisks, TableResources, TableProcesses, TableCapex, TableOpex}

// ParseTableKind validates a table name.
func ParseTableKind(s string) (TableKind, error) {
	k := TableKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TableKinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownTable
}

// Project column positions.
const (
	ColProjectID = iota
	ColProjectName
	ColProjectType
	ColProjectPriority
	ColProjectOwner
	ColProjectStart
	ColProjectFinish
	ColProjectDependencies
	ColProjectDeliverables
	ColProjectGoal
	ColProjectResponsible
	ColProjectAccountable
	ColProjectConsulted
	ColProjectInformed
	ColProjectNeeds
	ColProjectBarriers
	ColProjectRiskNotes
	ColProjectBudgetCapex
	ColProjectBudgetOpex
	ColProjectPercentComplete
	ColProjectProcessLink
	ColProjectCritical
	ColProjectStatus
	ColProjectSlackDays
)

var columns = map[TableKind][]string{
	TableProjects: {
		"ID", "Name", "Type", "Priority", "Owner", "Start", "Finish",
		"Dependencies", "Deliverables", "Goal",
		"Responsible", "Accountable", "Consulted", "Informed",
		"Needs", "Barriers", "Risk Notes",
		"Budget CapEx", "Budget OpEx", "Percent Complete",
		"Process Link", "Critical", "Status", "Slack Days",
	},
	TableRisks:     {"ID", "Description", "Impact", "Probability", "Mitigation", "Owner", "Due Date", "Status"},
	TableResources: {"Name", "Type", "Quantity", "Unit Cost", "Department", "Notes"},
	TableProcesses: {"Name", "Cycle Time", "Batch Size", "Yield", "Takt Target", "Equipment", "Operators", "Notes"},
	TableCapex:     {"Item", "Quantity", "Unit Cost", "Install Cost"},
	TableOpex:      {"Item", "Cadence", "Quantity", "Unit Cost"},
}

// Columns returns the header list for a table. The returned slice must not
// be modified.
func Columns(k TableKind) []string {
	return columns[k]
}

// =============================================================================
// ROW -> RECORD
// =============================================================================

// ProjectFromRow reads a positional project row.
func ProjectFromRow(r table.Row) Project {
	return Project{
		ID:           str(r, ColProjectID),
		Name:         str(r, ColProjectName),
		Type:         str(r, ColProjectType),
		Priority:     parsePriority(str(r, ColProjectPriority)),
		Owner:        str(r, ColProjectOwner),
		Start:        str(r, ColProjectStart),
		Finish:       str(r, ColProjectFinish),
		Dependencies: str(r, ColProjectDependencies),
		Deliverables: str(r, ColProjectDeliverables),
		Goal:         str(r, ColProjectGoal),
		RACI: RACI{
			Responsible: str(r, ColProjectResponsible),
			Accountable: str(r, ColProjectAccountable),
			Consulted:   str(r, ColProjectConsulted),
			Informed:    str(r, ColProjectInformed),
		},
		Needs:           str(r, ColProjectNeeds),
		Barriers:        str(r, ColProjectBarriers),
		RiskNotes:       str(r, ColProjectRiskNotes),
		BudgetCapex:     nonNegative(num(r, ColProjectBudgetCapex)),
		BudgetOpex:      nonNegative(num(r, ColProjectBudgetOpex)),
		PercentComplete: num(r, ColProjectPercentComplete),
		ProcessLink:     str(r, ColProjectProcessLink),
		Critical:        table.ToBool(r.Cell(ColProjectCritical)),
		Status:          str(r, ColProjectStatus),
		SlackDays:       num(r, ColProjectSlackDays),
	}
}

// RiskFromRow reads a positional risk row.
func RiskFromRow(r table.Row) Risk {
	return Risk{
		ID:          str(r, 0),
		Description: str(r, 1),
		Impact:      ParseLevel(str(r, 2)),
		Probability: ParseLevel(str(r, 3)),
		Mitigation:  str(r, 4),
		Owner:       str(r, 5),
		DueDate:     str(r, 6),
		Status:      parseRiskStatus(str(r, 7)),
	}
}

// ResourceFromRow reads a positional resource row.
func ResourceFromRow(r table.Row) Resource {
	return Resource{
		Name:       str(r, 0),
		Type:       parseResourceType(str(r, 1)),
		Quantity:   num(r, 2),
		UnitCost:   num(r, 3),
		Department: str(r, 4),
		Notes:      str(r, 5),
	}
}

// ProcessFromRow reads a positional process row.
func ProcessFromRow(r table.Row) Process {
	return Process{
		Name:             str(r, 0),
		CycleTimeMinutes: num(r, 1),
		BatchSize:        num(r, 2),
		YieldPercent:     num(r, 3),
		TaktTargetSecs:   num(r, 4),
		Equipment:        str(r, 5),
		Operators:        str(r, 6),
		Notes:            str(r, 7),
	}
}

// CapexFromRow reads a positional capex row.
func CapexFromRow(r table.Row) CapexLine {
	return CapexLine{Item: str(r, 0), Quantity: num(r, 1), UnitCost: num(r, 2), InstallCost: num(r, 3)}
}

// OpexFromRow reads a positional opex row.
func OpexFromRow(r table.Row) OpexLine {
	return OpexLine{Item: str(r, 0), Cadence: str(r, 1), Quantity: num(r, 2), UnitCost: num(r, 3)}
}

// =============================================================================
// RECORD -> ROW
// =============================================================================

// Row renders the project in the 24-column layout.
func (p Project) Row() table.Row {
	return table.Row{
		p.ID, p.Name, p.Type, string(p.Priority), p.Owner, p.Start, p.Finish,
		p.Dependencies, p.Deliverables, p.Goal,
		p.RACI.Responsible, p.RACI.Accountable, p.RACI.Consulted, p.RACI.Informed,
		p.Needs, p.Barriers, p.RiskNotes,
		p.BudgetCapex, p.BudgetOpex, p.PercentComplete,
		p.ProcessLink, p.Critical, p.Status, p.SlackDays,
	}
}

// Row renders the risk in the 8-column layout.
func (r Risk) Row() table.Row {
	return table.Row{r.ID, r.Description, string(r.Impact), string(r.Probability), r.Mitigation, r.Owner, r.DueDate, string(r.Status)}
}

// Row renders the resource in the 6-column layout.
func (r Resource) Row() table.Row {
	return table.Row{r.Name, string(r.Type), r.Quantity, r.UnitCost, r.Department, r.Notes}
}

// Row renders the process in the 8-column layout.
func (p Process) Row() table.Row {
	return table.Row{p.Name, p.CycleTimeMinutes, p.BatchSize, p.YieldPercent, p.TaktTargetSecs, p.Equipment, p.Operators, p.Notes}
}

// Row renders the capex line in the 4-column layout.
func (c CapexLine) Row() table.Row {
	return table.Row{c.Item, c.Quantity, c.UnitCost, c.InstallCost}
}

// Row renders the opex line in the 4-column layout.
func (o OpexLine) Row() table.Row {
	return table.Row{o.Item, o.Cadence, o.Quantity, o.UnitCost}
}

// =============================================================================
// ENUM PARSING
// =============================================================================

// ParseLevel accepts H/M/L or High/Medium/Low in any case. Anything else
// is unrated.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H", "HIGH":
		return LevelHigh
	case "M", "MED", "MEDIUM":
		return LevelMedium
	case "L", "LOW":
		return LevelLow
	}
	return ""
}

func parsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "must":
		return PriorityMust
	case "should":
		return PriorityShould
	case "could":
		return PriorityCould
	case "won't", "wont":
		return PriorityWont
	}
	return Priority(s)
}

func parseRiskStatus(s string) RiskStatus {
	for _, st := range []RiskStatus{RiskOpen, RiskMonitoring, RiskMitigated, RiskClosed} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st
		}
	}
	return RiskStatus(s)
}

func parseResourceType(s string) ResourceType {
	for _, rt := range []ResourceType{ResourcePersonnel, ResourceEquipment, ResourceSoftware, ResourceFacility, ResourceOther} {
		if strings.EqualFold(strings.TrimSpace(s), string(rt)) {
			return rt
		}
	}
	return ResourceType(s)
}

func str(r table.Row, i int) string {
	return table.ToString(r.Cell(i))
}

func num(r table.Row, i int) float64 {
	return table.ToNum(r.Cell(i), 0)
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
