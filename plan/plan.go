package plan

import "github.com/warp/scaleup-planner/table"

// Tables holds every editable table for one variant and scenario key.
type Tables struct {
	Projects  []Project
	Risks     []Risk
	Resources []Resource
	Processes []Process
	Capex     []CapexLine
	Opex      []OpexLine
}

// Plan is the state container for one live configuration. A session owns
// it exclusively; derivations receive it (or its Active tables) by pointer.
type Plan struct {
	ScenarioKey ScenarioKey
	Variant     string
	Parameters  map[ScenarioKey]ScenarioParameters
	// Variants maps variant name -> scenario key -> tables.
	Variants map[string]map[ScenarioKey]*Tables
}

// New returns an empty plan with the given selection.
func New(key ScenarioKey, variant string) *Plan {
	return &Plan{
		ScenarioKey: key,
		Variant:     variant,
		Parameters:  make(map[ScenarioKey]ScenarioParameters),
		Variants:    make(map[string]map[ScenarioKey]*Tables),
	}
}

// Active returns the tables for the current selection, creating empty
// tables when they do not exist yet.
func (p *Plan) Active() *Tables {
	return p.TablesFor(p.Variant, p.ScenarioKey)
}

// TablesFor returns (and lazily creates) the tables for variant/key.
func (p *Plan) TablesFor(variant string, key ScenarioKey) *Tables {
	if p.Variants == nil {
		p.Variants = make(map[string]map[ScenarioKey]*Tables)
	}
	byKey, ok := p.Variants[variant]
	if !ok {
		byKey = make(map[ScenarioKey]*Tables)
		p.Variants[variant] = byKey
	}
	t, ok := byKey[key]
	if !ok {
		t = &Tables{}
		byKey[key] = t
	}
	return t
}

// ActiveParameters returns the parameters for the current scenario key.
func (p *Plan) ActiveParameters() ScenarioParameters {
	return p.Parameters[p.ScenarioKey]
}

// Select switches the active scenario key and variant. The variant must
// already exist unless the plan has no variants at all.
func (p *Plan) Select(key ScenarioKey, variant string) error {
	if !key.Valid() {
		return ErrUnknownScenario
	}
	if variant == "" {
		variant = p.Variant
	}
	if _, ok := p.Variants[variant]; !ok && len(p.Variants) > 0 {
		return ErrUnknownVariant
	}
	p.ScenarioKey = key
	p.Variant = variant
	return nil
}

// VariantNames lists variant names in no particular order.
func (p *Plan) VariantNames() []string {
	names := make([]string, 0, len(p.Variants))
	for name := range p.Variants {
		names = append(names, name)
	}
	return names
}

// =============================================================================
// TABLE ACCESS BY KIND
// =============================================================================

// Len returns the row count of a table.
func (t *Tables) Len(k TableKind) int {
	switch k {
	case TableProjects:
		return len(t.Projects)
	case TableRisks:
		return len(t.Risks)
	case TableResources:
		return len(t.Resources)
	case TableProcesses:
		return len(t.Processes)
	case TableCapex:
		return len(t.Capex)
	case TableOpex:
		return len(t.Opex)
	}
	return 0
}

// Rows renders a table in its positional layout.
func (t *Tables) Rows(k TableKind) table.Table {
	out := make(table.Table, t.Len(k))
	for i := range out {
		out[i] = t.row(k, i)
	}
	return out
}

func (t *Tables) row(k TableKind, i int) table.Row {
	switch k {
	case TableProjects:
		return t.Projects[i].Row()
	case TableRisks:
		return t.Risks[i].Row()
	case TableResources:
		return t.Resources[i].Row()
	case TableProcesses:
		return t.Processes[i].Row()
	case TableCapex:
		return t.Capex[i].Row()
	case TableOpex:
		return t.Opex[i].Row()
	}
	return nil
}

func (t *Tables) put(k TableKind, i int, r table.Row) {
	switch k {
	case TableProjects:
		t.Projects[i] = ProjectFromRow(r)
	case TableRisks:
		t.Risks[i] = RiskFromRow(r)
	case TableResources:
		t.Resources[i] = ResourceFromRow(r)
	case TableProcesses:
		t.Processes[i] = ProcessFromRow(r)
	case TableCapex:
		t.Capex[i] = CapexFromRow(r)
	case TableOpex:
		t.Opex[i] = OpexFromRow(r)
	}
}

// SetCell writes value at (row, col) and re-reads the row into its record,
// so numeric columns are coerced the same way persisted data is.
func (t *Tables) SetCell(k TableKind, row, col int, value any) error {
	cols := Columns(k)
	if cols == nil {
		return ErrUnknownTable
	}
	if col < 0 || col >= len(cols) {
		return columnError(k, col, len(cols))
	}
	n := t.Len(k)
	if row < 0 || row >= n {
		return rowError(k, row, n)
	}

	r := t.row(k, row)
	r[col] = value
	t.put(k, row, r)
	return nil
}

// AddRow appends an empty row and returns its index.
func (t *Tables) AddRow(k TableKind) (int, error) {
	switch k {
	case TableProjects:
		t.Projects = append(t.Projects, Project{})
	case TableRisks:
		t.Risks = append(t.Risks, Risk{Status: RiskOpen})
	case TableResources:
		t.Resources = append(t.Resources, Resource{})
	case TableProcesses:
		t.Processes = append(t.Processes, Process{})
	case TableCapex:
		t.Capex = append(t.Capex, CapexLine{})
	case TableOpex:
		t.Opex = append(t.Opex, OpexLine{})
	default:
		return 0, ErrUnknownTable
	}
	return t.Len(k) - 1, nil
}

// DeleteRow removes the row at index.
func (t *Tables) DeleteRow(k TableKind, index int) error {
	if Columns(k) == nil {
		return ErrUnknownTable
	}
	n := t.Len(k)
	if index < 0 || index >= n {
		return rowError(k, index, n)
	}
	switch k {
	case TableProjects:
		t.Projects = remove(t.Projects, index)
	case TableRisks:
		t.Risks = remove(t.Risks, index)
	case TableResources:
		t.Resources = remove(t.Resources, index)
	case TableProcesses:
		t.Processes = remove(t.Processes, index)
	case TableCapex:
		t.Capex = remove(t.Capex, index)
	case TableOpex:
		t.Opex = remove(t.Opex, index)
	}
	return nil
}

func remove[T any](s []T, i int) []T {
	return append(s[:i:i], s[i+1:]...)
}
