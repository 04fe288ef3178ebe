package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioID identifies a Portfolio.
type PortfolioID int64

// Portfolio belongs to a user and caches the last-computed aggregate so
// read-heavy dashboards are not forced through the Portfolio Aggregator on
// every page load.
type Portfolio struct {
	ID          PortfolioID
	UserID      string
	Name        string
	Description *string
	IsPrimary   bool

	CachedTotalValue      decimal.Decimal
	CachedSurvivalScore   *decimal.Decimal
	CachedScenarioGradual *decimal.Decimal
	CachedScenarioRapid   *decimal.Decimal
	CachedScenarioHyper   *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PortfolioHolding is unique per (portfolio, company).
type PortfolioHolding struct {
	ID          int64
	PortfolioID PortfolioID
	CompanyID   CompanyID

	Shares      decimal.Decimal // >= 0
	CostBasis   decimal.Decimal
	CostPerShare decimal.Decimal

	CachedCurrentPrice decimal.Decimal
	CachedCurrentValue decimal.Decimal
	CachedGain         decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldingScore pairs a holding with the company and latest score needed to
// compute it, the unit the Portfolio Aggregator (4.E) iterates over.
type HoldingScore struct {
	Holding PortfolioHolding
	Company Company
	Score   *SurvivalScore // nil if the company has never been scored
}

// SectorAllocation is one entry of the analyze() sector breakdown,
// ordered by Value descending.
type SectorAllocation struct {
	Sector   string
	Value    decimal.Decimal
	WeightPct decimal.Decimal
}

// PortfolioAnalysis is the result of analyze(portfolio_id).
type PortfolioAnalysis struct {
	PortfolioID PortfolioID
	TotalValue  decimal.Decimal

	// OverallScore is nil for an empty portfolio (spec.md §8 scenario 4).
	OverallScore *decimal.Decimal
	Factors      map[FactorKey]decimal.Decimal
	Scenarios    map[Scenario]decimal.Decimal

	SectorAllocations []SectorAllocation
	HoldingCount      int
}

// ScenarioParams are the three numbers that parametrize a devaluation
// scenario's portfolio projection, per spec.md §4.B.
type ScenarioParams struct {
	DeclinePct decimal.Decimal
	Months     int
	InflationPct decimal.Decimal
}

// ScenarioParamsFor returns the fixed parameters for a named scenario.
// ScenarioCurrent has no projection parameters (it is the baseline).
func ScenarioParamsFor(s Scenario) (ScenarioParams, bool) {
	switch s {
	case ScenarioGradual:
		return ScenarioParams{DeclinePct: decimal.NewFromFloat(17.5), Months: 48, InflationPct: decimal.NewFromFloat(6)}, true
	case ScenarioRapid:
		return ScenarioParams{DeclinePct: decimal.NewFromFloat(35), Months: 15, InflationPct: decimal.NewFromFloat(12)}, true
	case ScenarioHyper:
		return ScenarioParams{DeclinePct: decimal.NewFromFloat(55), Months: 6, InflationPct: decimal.NewFromFloat(50)}, true
	default:
		return ScenarioParams{}, false
	}
}

// HoldingProjection is one holding's contribution to a scenario().
type HoldingProjection struct {
	CompanyID        CompanyID
	CurrentValue     decimal.Decimal
	ProtectionFactor decimal.Decimal
	ProjectedNominal decimal.Decimal
	ProjectedReal    decimal.Decimal
	RealChangePct    decimal.Decimal
}

// PortfolioScenarioResult is the result of scenario(portfolio_id, scenario).
type PortfolioScenarioResult struct {
	PortfolioID PortfolioID
	Scenario    Scenario
	Params      ScenarioParams

	TotalCurrentValue     decimal.Decimal
	TotalProjectedNominal decimal.Decimal
	TotalProjectedReal    decimal.Decimal
	TotalRealChangePct    decimal.Decimal

	Holdings []HoldingProjection
}
