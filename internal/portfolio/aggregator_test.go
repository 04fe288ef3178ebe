package portfolio

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type fakeHoldingRepo struct {
	holdings []domain.PortfolioHolding
}

func (f *fakeHoldingRepo) ListByPortfolio(ctx context.Context, portfolioID domain.PortfolioID) ([]domain.PortfolioHolding, error) {
	return f.holdings, nil
}
func (f *fakeHoldingRepo) Upsert(ctx context.Context, h domain.PortfolioHolding) error { return nil }
func (f *fakeHoldingRepo) UpdatePriceForCompany(ctx context.Context, companyID domain.CompanyID, price decimal.Decimal) error {
	return nil
}

type fakeCompanyRepo struct {
	byID map[domain.CompanyID]domain.Company
}

func (f *fakeCompanyRepo) Get(ctx context.Context, id domain.CompanyID) (*domain.Company, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
func (f *fakeCompanyRepo) GetByTicker(ctx context.Context, ticker string) (*domain.Company, error) {
	return nil, nil
}
func (f *fakeCompanyRepo) ListActive(ctx context.Context) ([]domain.Company, error) { return nil, nil }
func (f *fakeCompanyRepo) List(ctx context.Context, filter persistence.CompanyFilter) ([]domain.Company, int, error) {
	return nil, 0, nil
}
func (f *fakeCompanyRepo) Upsert(ctx context.Context, c domain.Company) (domain.CompanyID, error) {
	return 0, nil
}

type fakeScoreRepo struct {
	byCompany map[domain.CompanyID]*domain.SurvivalScore
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, s domain.SurvivalScore) error { return nil }
func (f *fakeScoreRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.SurvivalScore, error) {
	return f.byCompany[companyID], nil
}
func (f *fakeScoreRepo) Recent(ctx context.Context, companyID domain.CompanyID, n int) ([]domain.SurvivalScore, error) {
	return nil, nil
}
func (f *fakeScoreRepo) History(ctx context.Context, companyID domain.CompanyID, tr persistence.TimeRange, limit int) ([]domain.SurvivalScore, error) {
	return nil, nil
}
func (f *fakeScoreRepo) LatestForAll(ctx context.Context) (map[domain.CompanyID]domain.SurvivalScore, error) {
	return nil, nil
}
func (f *fakeScoreRepo) Rankings(ctx context.Context, scenario domain.Scenario, limit int) ([]persistence.RankedScore, error) {
	return nil, nil
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestAnalyze_EmptyPortfolioReturnsZeroValueAndNilScore(t *testing.T) {
	agg := New(nil, &fakeHoldingRepo{}, &fakeCompanyRepo{byID: map[domain.CompanyID]domain.Company{}}, &fakeScoreRepo{byCompany: map[domain.CompanyID]*domain.SurvivalScore{}})

	analysis, err := agg.Analyze(context.Background(), domain.PortfolioID(1))
	require.NoError(t, err)
	assert.Nil(t, analysis.OverallScore)
	assert.True(t, analysis.TotalValue.IsZero())
	assert.Equal(t, 0, analysis.HoldingCount)
}

func TestAnalyze_ValueWeightedAverage(t *testing.T) {
	companies := map[domain.CompanyID]domain.Company{
		1: {ID: 1, Sector: "Mining"},
		2: {ID: 2, Sector: "Utilities"},
	}
	scores := map[domain.CompanyID]*domain.SurvivalScore{
		1: {TotalScore: dec(90)},
		2: {TotalScore: dec(60)},
	}
	holdings := []domain.PortfolioHolding{
		{CompanyID: 1, CachedCurrentValue: dec(100)},
		{CompanyID: 2, CachedCurrentValue: dec(300)},
	}

	agg := New(nil, &fakeHoldingRepo{holdings: holdings}, &fakeCompanyRepo{byID: companies}, &fakeScoreRepo{byCompany: scores})

	analysis, err := agg.Analyze(context.Background(), domain.PortfolioID(1))
	require.NoError(t, err)
	require.NotNil(t, analysis.OverallScore)
	// (90*100 + 60*300) / 400 = 67.5
	assert.True(t, dec(67.5).Equal(*analysis.OverallScore))
	assert.True(t, dec(400).Equal(analysis.TotalValue))
	assert.Len(t, analysis.SectorAllocations, 2)
}

func TestAnalyze_UnscoredHoldingExcludedFromWeightedAverage(t *testing.T) {
	companies := map[domain.CompanyID]domain.Company{
		1: {ID: 1, Sector: "Mining"},
		2: {ID: 2, Sector: "Tech"},
	}
	scores := map[domain.CompanyID]*domain.SurvivalScore{
		1: {TotalScore: dec(80)},
	}
	holdings := []domain.PortfolioHolding{
		{CompanyID: 1, CachedCurrentValue: dec(100)},
		{CompanyID: 2, CachedCurrentValue: dec(900)}, // unscored, still counted in TotalValue
	}

	agg := New(nil, &fakeHoldingRepo{holdings: holdings}, &fakeCompanyRepo{byID: companies}, &fakeScoreRepo{byCompany: scores})

	analysis, err := agg.Analyze(context.Background(), domain.PortfolioID(1))
	require.NoError(t, err)
	require.NotNil(t, analysis.OverallScore)
	assert.True(t, dec(80).Equal(*analysis.OverallScore))
	assert.True(t, dec(1000).Equal(analysis.TotalValue))
}

func TestScenario_UnscoredHoldingUsesNeutralFifty(t *testing.T) {
	companies := map[domain.CompanyID]domain.Company{1: {ID: 1}}
	holdings := []domain.PortfolioHolding{{CompanyID: 1, CachedCurrentValue: dec(1000)}}

	agg := New(nil, &fakeHoldingRepo{holdings: holdings}, &fakeCompanyRepo{byID: companies}, &fakeScoreRepo{byCompany: map[domain.CompanyID]*domain.SurvivalScore{}})

	result, err := agg.Scenario(context.Background(), domain.PortfolioID(1), domain.ScenarioGradual)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 1)
	assert.True(t, dec(0.5).Equal(result.Holdings[0].ProtectionFactor))
}

func TestScenario_UsesScenarioSpecificScoreNotTotalScore(t *testing.T) {
	companies := map[domain.CompanyID]domain.Company{1: {ID: 1}}
	holdings := []domain.PortfolioHolding{{CompanyID: 1, CachedCurrentValue: dec(1000)}}
	scores := map[domain.CompanyID]*domain.SurvivalScore{
		1: {
			TotalScore:      dec(90),
			ScenarioGradual: dec(90),
			ScenarioRapid:   dec(90),
			ScenarioHyper:   dec(10),
		},
	}

	agg := New(nil, &fakeHoldingRepo{holdings: holdings}, &fakeCompanyRepo{byID: companies}, &fakeScoreRepo{byCompany: scores})

	result, err := agg.Scenario(context.Background(), domain.PortfolioID(1), domain.ScenarioHyper)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 1)
	// protection_factor must come from ScenarioHyper (10/100), not TotalScore (90/100).
	assert.True(t, dec(0.1).Equal(result.Holdings[0].ProtectionFactor))
}

func TestScenario_UnknownScenarioErrors(t *testing.T) {
	agg := New(nil, &fakeHoldingRepo{}, &fakeCompanyRepo{byID: map[domain.CompanyID]domain.Company{}}, &fakeScoreRepo{byCompany: map[domain.CompanyID]*domain.SurvivalScore{}})
	_, err := agg.Scenario(context.Background(), domain.PortfolioID(1), domain.Scenario("not-a-scenario"))
	assert.Error(t, err)
}
