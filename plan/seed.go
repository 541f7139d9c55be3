package plan

// SeedVariant is the variant name of the default seed plan.
const SeedVariant = "Injection Molding"

// Seed returns the default plan used when no configuration exists or the
// stored one cannot be loaded. Each call returns a fresh copy.
func Seed() *Plan {
	p := New(Scenario50k, SeedVariant)
	p.Parameters[Scenario50k] = ScenarioParameters{UnitsPerYear: 50_000, HoursPerDay: 16, Shifts: 2}
	p.Parameters[Scenario200k] = ScenarioParameters{UnitsPerYear: 200_000, HoursPerDay: 24, Shifts: 3}

	*p.TablesFor(SeedVariant, Scenario50k) = Tables{
		Projects: []Project{
			{
				ID: "P-001", Name: "Mold tooling qualification", Type: "Equipment", Priority: PriorityMust,
				Owner: "Manufacturing Eng", Start: "2026-01-05", Finish: "2026-03-27",
				Deliverables: "Qualified 4-cavity mold", Goal: "Cpk >= 1.33 on critical dims",
				RACI: RACI{Responsible: "ME lead", Accountable: "Ops director", Consulted: "Quality", Informed: "Finance"},
				Needs: "Tool steel, CMM time", Barriers: "Toolmaker lead time",
				BudgetCapex: 180_000, BudgetOpex: 12_000, PercentComplete: 65,
				ProcessLink: "Molding", Critical: true, Status: StatusGreen,
			},
			{
				ID: "P-002", Name: "Operator hiring and training", Type: "People", Priority: PriorityMust,
				Owner: "HR", Start: "2026-02-01", Finish: "2026-05-29", Dependencies: "P-001",
				Deliverables: "8 certified operators", Goal: "Second shift staffed",
				RACI: RACI{Responsible: "HR partner", Accountable: "Plant manager"},
				BudgetOpex: 96_000, PercentComplete: 30, ProcessLink: "Assembly",
				Status: StatusGreen, SlackDays: 10,
			},
			{
				ID: "P-003", Name: "MES rollout", Type: "Software", Priority: PriorityShould,
				Owner: "IT", Start: "2026-03-02", Finish: "2026-08-28",
				Deliverables: "Line-side traceability", Goal: "Lot genealogy for every unit",
				RACI: RACI{Responsible: "IT PM", Accountable: "CIO", Consulted: "Quality"},
				Barriers: "Integration with ERP", RiskNotes: "Vendor resourcing",
				BudgetCapex: 75_000, BudgetOpex: 18_000, PercentComplete: 15,
				Status: StatusRed, SlackDays: 0,
			},
			{
				ID: "P-004", Name: "Packaging line layout", Type: "Facility", Priority: PriorityCould,
				Owner: "Facilities", Start: "2026-04-06", Finish: "2026-06-26",
				BudgetCapex: 40_000, PercentComplete: 0, ProcessLink: "Packaging",
				Status: "AMBER", SlackDays: 20,
			},
		},
		Risks: []Risk{
			{ID: "R-001", Description: "Resin supplier single-sourced", Impact: LevelHigh, Probability: LevelMedium,
				Mitigation: "Qualify second supplier", Owner: "Procurement", DueDate: "2026-04-30", Status: RiskOpen},
			{ID: "R-002", Description: "Mold rework delays launch", Impact: LevelHigh, Probability: LevelLow,
				Mitigation: "Early T1 sampling", Owner: "ME lead", DueDate: "2026-03-15", Status: RiskMonitoring},
			{ID: "R-003", Description: "Operator turnover on second shift", Impact: LevelMedium, Probability: LevelMedium,
				Mitigation: "Shift premium", Owner: "HR", DueDate: "2026-06-01", Status: RiskOpen},
			{ID: "R-004", Description: "MES vendor slip", Impact: LevelLow, Probability: LevelHigh,
				Mitigation: "Paper travelers as fallback", Owner: "IT PM", Status: RiskMitigated},
		},
		Resources: []Resource{
			{Name: "Molding operator", Type: ResourcePersonnel, Quantity: 8, UnitCost: 52_000, Department: "Operations"},
			{Name: "Process engineer", Type: ResourcePersonnel, Quantity: 2, UnitCost: 95_000, Department: "Engineering"},
			{Name: "CMM", Type: ResourceEquipment, Quantity: 1, UnitCost: 120_000, Department: "Quality"},
			{Name: "MES licenses", Type: ResourceSoftware, Quantity: 20, UnitCost: 900, Department: "IT"},
		},
		Processes: []Process{
			{Name: "Molding", CycleTimeMinutes: 1.5, BatchSize: 4, YieldPercent: 97, TaktTargetSecs: 72, Equipment: "350t press", Operators: "1"},
			{Name: "Deburr", CycleTimeMinutes: 0.8, BatchSize: 1, YieldPercent: 99.5, TaktTargetSecs: 72, Operators: "1"},
			{Name: "Assembly", CycleTimeMinutes: 1.4, BatchSize: 1, YieldPercent: 98, TaktTargetSecs: 72, Equipment: "Fixture A", Operators: "2"},
			{Name: "Inspection", CycleTimeMinutes: 0.5, BatchSize: 10, YieldPercent: 100, TaktTargetSecs: 72, Equipment: "Vision"},
			{Name: "Packaging", CycleTimeMinutes: 0.6, BatchSize: 12, YieldPercent: 100, TaktTargetSecs: 72, Operators: "1"},
		},
		Capex: []CapexLine{
			{Item: "350t injection press", Quantity: 2, UnitCost: 210_000, InstallCost: 25_000},
			{Item: "4-cavity mold", Quantity: 2, UnitCost: 90_000, InstallCost: 0},
			{Item: "Assembly fixtures", Quantity: 3, UnitCost: 15_000, InstallCost: 2_000},
		},
		Opex: []OpexLine{
			{Item: "Operator labor", Cadence: "per_year", Quantity: 8, UnitCost: 52_000},
			{Item: "Resin", Cadence: "per_year", Quantity: 50_000, UnitCost: 3.2},
			{Item: "Maintenance contract", Cadence: "per_year", Quantity: 1, UnitCost: 18_000},
		},
	}

	*p.TablesFor(SeedVariant, Scenario200k) = Tables{
		Projects: []Project{
			{
				ID: "P-101", Name: "Second molding cell", Type: "Equipment", Priority: PriorityMust,
				Owner: "Manufacturing Eng", Start: "2026-06-01", Finish: "2026-12-18",
				BudgetCapex: 650_000, BudgetOpex: 40_000, PercentComplete: 10,
				ProcessLink: "Molding", Critical: true, Status: StatusGreen,
			},
			{
				ID: "P-102", Name: "Automated packaging", Type: "Equipment", Priority: PriorityShould,
				Owner: "Facilities", Start: "2026-07-01", Finish: "2027-02-26", Dependencies: "P-101",
				BudgetCapex: 280_000, BudgetOpex: 15_000, PercentComplete: 0,
				ProcessLink: "Packaging", Status: StatusRed,
			},
		},
		Risks: []Risk{
			{ID: "R-101", Description: "Demand ramp slower than plan", Impact: LevelHigh, Probability: LevelMedium,
				Mitigation: "Stage capex by quarter", Owner: "Finance", Status: RiskOpen},
			{ID: "R-102", Description: "Floor space constraint", Impact: LevelMedium, Probability: LevelHigh,
				Mitigation: "Lease adjacent bay", Owner: "Facilities", Status: RiskOpen},
		},
		Resources: []Resource{
			{Name: "Molding operator", Type: ResourcePersonnel, Quantity: 24, UnitCost: 52_000, Department: "Operations"},
			{Name: "Packaging robot", Type: ResourceEquipment, Quantity: 2, UnitCost: 140_000, Department: "Operations"},
		},
		Processes: []Process{
			{Name: "Molding", CycleTimeMinutes: 1.5, BatchSize: 8, YieldPercent: 97, TaktTargetSecs: 27},
			{Name: "Assembly", CycleTimeMinutes: 1.4, BatchSize: 1, YieldPercent: 98, TaktTargetSecs: 27},
			{Name: "Packaging", CycleTimeMinutes: 0.2, BatchSize: 12, YieldPercent: 100, TaktTargetSecs: 27},
		},
		Capex: []CapexLine{
			{Item: "350t injection press", Quantity: 6, UnitCost: 210_000, InstallCost: 60_000},
			{Item: "Packaging cell", Quantity: 1, UnitCost: 280_000, InstallCost: 30_000},
		},
		Opex: []OpexLine{
			{Item: "Operator labor", Cadence: "per_year", Quantity: 24, UnitCost: 52_000},
			{Item: "Resin", Cadence: "per_year", Quantity: 200_000, UnitCost: 3.0},
		},
	}
	return p
}
