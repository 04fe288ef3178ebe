package factors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

func dptr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestHardAssets_MissingTotalAssetsDefaultsTo50(t *testing.T) {
	d := domain.CompanyData{Industry: "Software"}
	assert.True(t, decimal.NewFromInt(50).Equal(HardAssets(d)))
}

func TestHardAssets_MiningBoost(t *testing.T) {
	d := domain.CompanyData{
		Industry:       "Gold Mining",
		TotalAssets:    dptr(100),
		TangibleAssets: dptr(50),
	}
	// r=0.5 -> base 40, +10 mining boost = 50
	assert.True(t, decimal.NewFromInt(50).Equal(HardAssets(d)))
}

func TestPreciousMetals_RoyaltyStreamingFlat85(t *testing.T) {
	d := domain.CompanyData{Industry: "Precious Metals Royalties"}
	assert.True(t, decimal.NewFromInt(85).Equal(PreciousMetals(d)))
}

func TestForeignRevenue_Piecewise(t *testing.T) {
	assert.True(t, decimal.NewFromInt(95).Equal(ForeignRevenue(domain.CompanyData{ForeignRevenuePct: dptr(80)})))
	assert.True(t, decimal.NewFromFloat(82.5).Equal(ForeignRevenue(domain.CompanyData{ForeignRevenuePct: dptr(60)})))
	assert.True(t, decimal.NewFromFloat(63).Equal(ForeignRevenue(domain.CompanyData{ForeignRevenuePct: dptr(45)})))
}

func TestEssentialServices_DefaultUnknownIndustry(t *testing.T) {
	assert.True(t, decimal.NewFromInt(40).Equal(EssentialServices(domain.CompanyData{Industry: "Widgets"})))
}

// TestGoldMinerScenario covers spec.md §8 concrete scenario 1.
func TestGoldMinerScenario(t *testing.T) {
	d := domain.CompanyData{
		Industry:             "Gold Mining",
		TotalAssets:          dptr(35e9),
		TangibleAssets:       dptr(30e9),
		ForeignRevenuePct:    dptr(45),
		GrossMargin:          dptr(35),
		GrossMargin5yrStd:    dptr(5),
		TotalDebt:            dptr(8e9),
		FixedRateDebtPct:     dptr(75),
		AvgDebtMaturityYears: dptr(8),
		ProvenReservesOz:     dptr(100_000_000),
	}

	scores := Score(d)
	ha, _ := scores[domain.FactorHardAssets].Float64()
	require.GreaterOrEqual(t, ha, 75.0)

	pm := scores[domain.FactorPreciousMetals]
	assert.True(t, decimal.NewFromInt(100).Equal(pm))
}

// TestBankScenario covers spec.md §8 concrete scenario 2.
func TestBankScenario(t *testing.T) {
	d := domain.CompanyData{
		Industry:             "Banks",
		TotalAssets:          dptr(3e12),
		TangibleAssets:       dptr(3e11),
		ForeignRevenuePct:    dptr(25),
		GrossMargin:          dptr(60),
		GrossMargin5yrStd:    dptr(8),
		TotalDebt:            dptr(5e11),
		FixedRateDebtPct:     dptr(40),
		AvgDebtMaturityYears: dptr(3),
	}

	scores := Score(d)
	ha, _ := scores[domain.FactorHardAssets].Float64()
	assert.Less(t, ha, 10.0)
	assert.True(t, decimal.NewFromInt(35).Equal(scores[domain.FactorEssentialServices]))
	pm, _ := scores[domain.FactorPreciousMetals].Float64()
	assert.LessOrEqual(t, pm, 10.0)
}

// TestUtilityScenario covers spec.md §8 concrete scenario 3.
func TestUtilityScenario(t *testing.T) {
	d := domain.CompanyData{
		Industry:             "Electric Utilities",
		TotalAssets:          dptr(150e9),
		TangibleAssets:       dptr(120e9),
		ForeignRevenuePct:    dptr(5),
		GrossMargin:          dptr(45),
		FixedRateDebtPct:     dptr(90),
		AvgDebtMaturityYears: dptr(15),
	}

	scores := Score(d)
	assert.True(t, decimal.NewFromInt(95).Equal(scores[domain.FactorEssentialServices]))
	assert.True(t, decimal.NewFromFloat(7).Equal(scores[domain.FactorForeignRevenue]))
}

// TestAllFactorsInRange is the universal §8 invariant: every factor score
// lies in [0,100] regardless of input.
func TestAllFactorsInRange(t *testing.T) {
	inputs := []domain.CompanyData{
		{},
		{Industry: "Gold Mining", TotalAssets: dptr(1), TangibleAssets: dptr(1), ProvenReservesOz: dptr(1e12)},
		{Industry: "Banks", CommodityRevenuePct: dptr(100)},
	}
	for _, d := range inputs {
		for key, score := range Score(d) {
			f, _ := score.Float64()
			assert.GreaterOrEqual(t, f, 0.0, "factor %s", key)
			assert.LessOrEqual(t, f, 100.0, "factor %s", key)
		}
	}
}

// TestDeterminism: identical input must produce byte-identical output.
func TestDeterminism(t *testing.T) {
	d := domain.CompanyData{
		Industry:    "Copper Mining",
		TotalAssets: dptr(42),
		TangibleAssets: dptr(30),
	}
	a := Score(d)
	b := Score(d)
	for k := range a {
		assert.Equal(t, a[k].String(), b[k].String())
	}
}
