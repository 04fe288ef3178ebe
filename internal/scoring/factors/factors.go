// Package factors implements the Factor Scorer (spec.md §4.A): a pure,
// stateless function from CompanyData to seven factor scores in [0,100].
// Every method has a defined value when its inputs are missing — there is
// no "N/A", only documented neutral or baseline fallbacks. All arithmetic
// uses github.com/shopspring/decimal so results are deterministic and
// reproducible across platforms, never float32/float64.
package factors

import (
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
	fifty   = decimal.NewFromInt(50)
)

func clamp(d, min, max decimal.Decimal) decimal.Decimal {
	if d.LessThan(min) {
		return min
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}

func clamp100(d decimal.Decimal) decimal.Decimal {
	return clamp(d, zero, hundred)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return zero
	}
	return *d
}

// Score computes all seven factor scores for d, per spec.md §4.A.
func Score(d domain.CompanyData) map[domain.FactorKey]decimal.Decimal {
	return map[domain.FactorKey]decimal.Decimal{
		domain.FactorHardAssets:        HardAssets(d),
		domain.FactorPreciousMetals:    PreciousMetals(d),
		domain.FactorCommodities:       Commodities(d),
		domain.FactorForeignRevenue:    ForeignRevenue(d),
		domain.FactorPricingPower:      PricingPower(d),
		domain.FactorDebtStructure:     DebtStructure(d),
		domain.FactorEssentialServices: EssentialServices(d),
	}
}

// HardAssets: tangible/total-assets ratio times 80, plus industry boosts.
func HardAssets(d domain.CompanyData) decimal.Decimal {
	if d.TotalAssets == nil || d.TotalAssets.IsZero() {
		return fifty
	}
	tangible := orZero(d.TangibleAssets)
	r := tangible.Div(*d.TotalAssets)
	base := r.Mul(decimal.NewFromInt(80))

	if isREITOrRealEstate(d.Industry) {
		base = base.Add(decimal.NewFromInt(10))
	}
	if containsMining(d.Industry) {
		base = base.Add(decimal.NewFromInt(10))
	}
	return round2(clamp100(base))
}

// PreciousMetals: flat baselines for mining/royalty industries, else scaled
// by precious-metals revenue share.
func PreciousMetals(d domain.CompanyData) decimal.Decimal {
	if isRoyaltyStreaming(d.Industry) {
		return decimal.NewFromInt(85)
	}
	if isPreciousMetalsIndustry(d.Industry) {
		base := decimal.NewFromInt(80)
		if d.ProvenReservesOz != nil {
			tenMillion := decimal.NewFromInt(10_000_000)
			reserveFactor := d.ProvenReservesOz.Div(tenMillion)
			if reserveFactor.GreaterThan(decimal.NewFromInt(1)) {
				reserveFactor = decimal.NewFromInt(1)
			}
			base = base.Add(reserveFactor.Mul(decimal.NewFromInt(20)))
		}
		return round2(clamp100(base))
	}
	pct := orZero(d.PreciousMetalsRevenuePct)
	return round2(clamp100(pct.Mul(decimal.NewFromInt(2))))
}

// Commodities: fixed industry base plus a linear adjustment around a 50%
// commodity-revenue midpoint.
func Commodities(d domain.CompanyData) decimal.Decimal {
	base := decimal.NewFromInt(int64(commodityBaseFor(d.Industry)))
	pct := orZero(d.CommodityRevenuePct)
	adj := pct.Sub(fifty).Mul(decimal.NewFromFloat(0.3))
	return round2(clamp100(base.Add(adj)))
}

// ForeignRevenue: piecewise linear in foreign_revenue_pct.
func ForeignRevenue(d domain.CompanyData) decimal.Decimal {
	pct := orZero(d.ForeignRevenuePct)
	seventy := decimal.NewFromInt(70)
	fiftyPct := fifty

	switch {
	case pct.GreaterThanOrEqual(seventy):
		return decimal.NewFromInt(95)
	case pct.GreaterThanOrEqual(fiftyPct):
		return round2(clamp100(seventy.Add(pct.Sub(fiftyPct).Mul(decimal.NewFromFloat(1.25)))))
	default:
		return round2(clamp100(pct.Mul(decimal.NewFromFloat(1.4))))
	}
}

// PricingPower: margin component plus a stability component penalized by
// 5-year gross-margin volatility.
func PricingPower(d domain.CompanyData) decimal.Decimal {
	margin := orZero(d.GrossMargin)
	marginComponent := margin.Mul(decimal.NewFromFloat(1.2))
	if marginComponent.GreaterThan(fifty) {
		marginComponent = fifty
	}

	std := decimal.NewFromInt(10) // default when missing
	if d.GrossMargin5yrStd != nil {
		std = *d.GrossMargin5yrStd
	}
	stabilityComponent := fifty.Sub(std.Mul(decimal.NewFromInt(5)))
	if stabilityComponent.LessThan(zero) {
		stabilityComponent = zero
	}

	return round2(clamp100(marginComponent.Add(stabilityComponent)))
}

// DebtStructure: fixed-rate share, maturity length, and leverage, summed.
func DebtStructure(d domain.CompanyData) decimal.Decimal {
	fixedPct := decimal.NewFromInt(50) // default
	if d.FixedRateDebtPct != nil {
		fixedPct = *d.FixedRateDebtPct
	}
	fixedComponent := fixedPct.Mul(decimal.NewFromFloat(0.5))

	maturity := decimal.NewFromInt(5) // default years
	if d.AvgDebtMaturityYears != nil {
		maturity = *d.AvgDebtMaturityYears
	}
	maturityComponent := maturity.Mul(decimal.NewFromInt(5))
	thirty := decimal.NewFromInt(30)
	if maturityComponent.GreaterThan(thirty) {
		maturityComponent = thirty
	}

	var leverageComponent decimal.Decimal
	if d.TotalAssets != nil && !d.TotalAssets.IsZero() && d.TotalDebt != nil {
		ratio := d.TotalDebt.Div(*d.TotalAssets)
		leverageComponent = decimal.NewFromInt(20).Sub(ratio.Mul(decimal.NewFromInt(40)))
		if leverageComponent.LessThan(zero) {
			leverageComponent = zero
		}
	} else {
		leverageComponent = decimal.NewFromInt(10)
	}

	return round2(clamp100(fixedComponent.Add(maturityComponent).Add(leverageComponent)))
}

// EssentialServices: fixed industry lookup, default 40.
func EssentialServices(d domain.CompanyData) decimal.Decimal {
	return decimal.NewFromInt(int64(essentialServicesFor(d.Industry)))
}
