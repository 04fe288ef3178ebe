// Package portfolio implements the Portfolio Aggregator (spec.md §4.E):
// value-weighted roll-ups of a portfolio's holdings into one aggregate
// SurvivalScore (analyze) and projections of portfolio value under a named
// devaluation scenario (scenario). Neither operation persists anything —
// both are computed fresh on read from the holdings, companies, and latest
// scores a caller already has loaded.
package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

// Aggregator is the Portfolio Aggregator component.
type Aggregator struct {
	portfolios persistence.PortfolioRepo
	holdings   persistence.PortfolioHoldingRepo
	companies  persistence.CompanyRepo
	scores     persistence.SurvivalScoreRepo
}

// New builds an Aggregator wired to the repositories it needs.
func New(portfolios persistence.PortfolioRepo, holdings persistence.PortfolioHoldingRepo, companies persistence.CompanyRepo, scores persistence.SurvivalScoreRepo) *Aggregator {
	return &Aggregator{portfolios: portfolios, holdings: holdings, companies: companies, scores: scores}
}

func (a *Aggregator) loadHoldingScores(ctx context.Context, portfolioID domain.PortfolioID) ([]domain.HoldingScore, error) {
	holdings, err := a.holdings.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}

	out := make([]domain.HoldingScore, 0, len(holdings))
	for _, h := range holdings {
		company, err := a.companies.Get(ctx, h.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("get company %d: %w", h.CompanyID, err)
		}
		if company == nil {
			continue
		}
		score, err := a.scores.Latest(ctx, h.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("latest score for company %d: %w", h.CompanyID, err)
		}
		out = append(out, domain.HoldingScore{Holding: h, Company: *company, Score: score})
	}
	return out, nil
}

// Analyze computes the value-weighted aggregate for portfolioID, per
// spec.md §4.E: factor_value = Σ(holding.current_value * score.factor) / V,
// where V is the value of the holdings that have a score; an unscored
// holding counts toward TotalValue only. An empty portfolio returns
// OverallScore=nil, TotalValue=0 (§8 scenario 4); one whose holdings are all
// unscored returns OverallScore=nil with TotalValue set to their sum.
func (a *Aggregator) Analyze(ctx context.Context, portfolioID domain.PortfolioID) (domain.PortfolioAnalysis, error) {
	holdingScores, err := a.loadHoldingScores(ctx, portfolioID)
	if err != nil {
		return domain.PortfolioAnalysis{}, err
	}

	analysis := domain.PortfolioAnalysis{
		PortfolioID: portfolioID,
		TotalValue:  decimal.Zero,
		HoldingCount: len(holdingScores),
	}

	totalValue := decimal.Zero
	scoredValue := decimal.Zero
	factorTotals := make(map[domain.FactorKey]decimal.Decimal)
	scenarioTotals := make(map[domain.Scenario]decimal.Decimal)
	sectorValues := make(map[string]decimal.Decimal)

	for _, hs := range holdingScores {
		v := hs.Holding.CachedCurrentValue
		totalValue = totalValue.Add(v)
		sectorValues[hs.Company.Sector] = sectorValues[hs.Company.Sector].Add(v)

		if hs.Score == nil {
			continue
		}
		scoredValue = scoredValue.Add(v)
		for _, f := range domain.AllFactors {
			factorTotals[f] = factorTotals[f].Add(v.Mul(hs.Score.Factor(f)))
		}
		for _, sc := range []domain.Scenario{domain.ScenarioCurrent, domain.ScenarioGradual, domain.ScenarioRapid, domain.ScenarioHyper} {
			scenarioTotals[sc] = scenarioTotals[sc].Add(v.Mul(hs.Score.Scenario(sc)))
		}
	}
	analysis.TotalValue = totalValue

	if scoredValue.IsZero() {
		return analysis, nil
	}

	factors := make(map[domain.FactorKey]decimal.Decimal, len(factorTotals))
	for k, total := range factorTotals {
		factors[k] = total.Div(scoredValue).Round(2)
	}
	scenarios := make(map[domain.Scenario]decimal.Decimal, len(scenarioTotals))
	for k, total := range scenarioTotals {
		scenarios[k] = total.Div(scoredValue).Round(2)
	}
	overall := scenarios[domain.ScenarioCurrent]

	analysis.OverallScore = &overall
	analysis.Factors = factors
	analysis.Scenarios = scenarios
	analysis.SectorAllocations = sectorAllocations(sectorValues, totalValue)

	return analysis, nil
}

func sectorAllocations(sectorValues map[string]decimal.Decimal, totalValue decimal.Decimal) []domain.SectorAllocation {
	allocations := make([]domain.SectorAllocation, 0, len(sectorValues))
	for sector, v := range sectorValues {
		var weight decimal.Decimal
		if !totalValue.IsZero() {
			weight = v.Div(totalValue).Mul(decimal.NewFromInt(100)).Round(2)
		}
		allocations = append(allocations, domain.SectorAllocation{Sector: sector, Value: v, WeightPct: weight})
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].Value.GreaterThan(allocations[j].Value) })
	return allocations
}

// Scenario projects portfolioID's holdings under a named devaluation
// scenario, per spec.md §4.E:
//
//	cumulative_inflation = (1+i)^y
//	protection_factor    = survival_score/100
//	nominal_growth       = 1 + i*protection_factor*y
//	projected_nominal    = current_value * nominal_growth
//	projected_real       = projected_nominal / cumulative_inflation
//	real_change_pct      = (projected_real/current_value - 1) * 100
func (a *Aggregator) Scenario(ctx context.Context, portfolioID domain.PortfolioID, scenario domain.Scenario) (domain.PortfolioScenarioResult, error) {
	params, ok := domain.ScenarioParamsFor(scenario)
	if !ok {
		return domain.PortfolioScenarioResult{}, fmt.Errorf("scenario %q has no projection parameters", scenario)
	}

	holdingScores, err := a.loadHoldingScores(ctx, portfolioID)
	if err != nil {
		return domain.PortfolioScenarioResult{}, err
	}

	years := decimal.NewFromFloat(float64(params.Months) / 12.0)
	inflationRate := params.InflationPct.Div(decimal.NewFromInt(100))
	cumulativeInflation := onePlus(inflationRate).Pow(years)

	result := domain.PortfolioScenarioResult{
		PortfolioID: portfolioID,
		Scenario:    scenario,
		Params:      params,
	}

	for _, hs := range holdingScores {
		v := hs.Holding.CachedCurrentValue
		result.TotalCurrentValue = result.TotalCurrentValue.Add(v)

		survivalScore := decimal.NewFromInt(50) // neutral default when unscored
		if hs.Score != nil {
			survivalScore = hs.Score.Scenario(scenario)
		}
		protectionFactor := survivalScore.Div(decimal.NewFromInt(100))

		nominalGrowth := decimal.NewFromInt(1).Add(inflationRate.Mul(protectionFactor).Mul(years))
		projectedNominal := v.Mul(nominalGrowth)
		projectedReal := projectedNominal.Div(cumulativeInflation)

		var realChangePct decimal.Decimal
		if !v.IsZero() {
			realChangePct = projectedReal.Div(v).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).Round(2)
		}

		result.TotalProjectedNominal = result.TotalProjectedNominal.Add(projectedNominal)
		result.TotalProjectedReal = result.TotalProjectedReal.Add(projectedReal)
		result.Holdings = append(result.Holdings, domain.HoldingProjection{
			CompanyID:        hs.Company.ID,
			CurrentValue:     v,
			ProtectionFactor: protectionFactor.Round(2),
			ProjectedNominal: projectedNominal.Round(2),
			ProjectedReal:    projectedReal.Round(2),
			RealChangePct:    realChangePct,
		})
	}

	if !result.TotalCurrentValue.IsZero() {
		result.TotalRealChangePct = result.TotalProjectedReal.Div(result.TotalCurrentValue).
			Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).Round(2)
	}
	result.TotalProjectedNominal = result.TotalProjectedNominal.Round(2)
	result.TotalProjectedReal = result.TotalProjectedReal.Round(2)

	return result, nil
}

func onePlus(rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(rate)
}
