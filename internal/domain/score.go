package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is the ordinal classification of a SurvivalScore.total_score.
type Tier string

const (
	TierFortress   Tier = "FORTRESS"
	TierResilient  Tier = "RESILIENT"
	TierModerate   Tier = "MODERATE"
	TierVulnerable Tier = "VULNERABLE"
	TierExposed    Tier = "EXPOSED"
)

// Scenario names the four dollar-devaluation regimes a score can be
// evaluated under.
type Scenario string

const (
	ScenarioCurrent Scenario = "current"
	ScenarioGradual Scenario = "gradual"
	ScenarioRapid   Scenario = "rapid"
	ScenarioHyper   Scenario = "hyper"
)

// FactorKey names one of the seven orthogonal scoring dimensions.
type FactorKey string

const (
	FactorHardAssets         FactorKey = "hard_assets"
	FactorPreciousMetals     FactorKey = "precious_metals"
	FactorCommodities        FactorKey = "commodities"
	FactorForeignRevenue     FactorKey = "foreign_revenue"
	FactorPricingPower       FactorKey = "pricing_power"
	FactorDebtStructure      FactorKey = "debt_structure"
	FactorEssentialServices  FactorKey = "essential_services"
)

// AllFactors enumerates the seven factors in the canonical order used for
// deterministic iteration (map iteration order is not stable in Go).
var AllFactors = []FactorKey{
	FactorHardAssets,
	FactorPreciousMetals,
	FactorCommodities,
	FactorForeignRevenue,
	FactorPricingPower,
	FactorDebtStructure,
	FactorEssentialServices,
}

// SurvivalScore is a per (company, score_date) row, immutable once written.
type SurvivalScore struct {
	ID        int64
	CompanyID CompanyID
	ScoreDate time.Time

	TotalScore decimal.Decimal
	Confidence decimal.Decimal
	Tier       Tier

	HardAssets        decimal.Decimal
	PreciousMetals    decimal.Decimal
	Commodities       decimal.Decimal
	ForeignRevenue    decimal.Decimal
	PricingPower      decimal.Decimal
	DebtStructure     decimal.Decimal
	EssentialServices decimal.Decimal

	ScenarioGradual decimal.Decimal
	ScenarioRapid   decimal.Decimal
	ScenarioHyper   decimal.Decimal

	ScoringVersion string
	CreatedAt      time.Time
}

// Factor returns the score for the named factor.
func (s SurvivalScore) Factor(key FactorKey) decimal.Decimal {
	switch key {
	case FactorHardAssets:
		return s.HardAssets
	case FactorPreciousMetals:
		return s.PreciousMetals
	case FactorCommodities:
		return s.Commodities
	case FactorForeignRevenue:
		return s.ForeignRevenue
	case FactorPricingPower:
		return s.PricingPower
	case FactorDebtStructure:
		return s.DebtStructure
	case FactorEssentialServices:
		return s.EssentialServices
	default:
		return decimal.Zero
	}
}

// Scenario returns the scenario-specific total score, falling back to
// TotalScore for the "current" scenario (current has no separate field:
// it IS the total score under the current weight vector).
func (s SurvivalScore) Scenario(sc Scenario) decimal.Decimal {
	switch sc {
	case ScenarioGradual:
		return s.ScenarioGradual
	case ScenarioRapid:
		return s.ScenarioRapid
	case ScenarioHyper:
		return s.ScenarioHyper
	default:
		return s.TotalScore
	}
}
