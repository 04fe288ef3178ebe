package batch

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type fakeCompanyRepo struct {
	active []domain.Company
	delay  time.Duration
}

func (f *fakeCompanyRepo) Get(ctx context.Context, id domain.CompanyID) (*domain.Company, error) {
	return nil, nil
}
func (f *fakeCompanyRepo) GetByTicker(ctx context.Context, ticker string) (*domain.Company, error) {
	return nil, nil
}
func (f *fakeCompanyRepo) ListActive(ctx context.Context) ([]domain.Company, error) {
	return f.active, nil
}
func (f *fakeCompanyRepo) List(ctx context.Context, filter persistence.CompanyFilter) ([]domain.Company, int, error) {
	return nil, 0, nil
}
func (f *fakeCompanyRepo) Upsert(ctx context.Context, c domain.Company) (domain.CompanyID, error) {
	return 0, nil
}

type fakeFundamentalRepo struct {
	delay time.Duration
}

func (f *fakeFundamentalRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.Fundamental, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, nil
}
func (f *fakeFundamentalRepo) Upsert(ctx context.Context, fnd domain.Fundamental) error { return nil }

type fakeScoreRepo struct{}

func (f *fakeScoreRepo) Upsert(ctx context.Context, s domain.SurvivalScore) error { return nil }
func (f *fakeScoreRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.SurvivalScore, error) {
	return nil, nil
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

type fakeRunRepo struct {
	updated []domain.ScoringRun
}

func (f *fakeRunRepo) Insert(ctx context.Context, r domain.ScoringRun) error { return nil }
func (f *fakeRunRepo) Update(ctx context.Context, r domain.ScoringRun) error {
	f.updated = append(f.updated, r)
	return nil
}
func (f *fakeRunRepo) GetByDate(ctx context.Context, runDate time.Time) (*domain.ScoringRun, error) {
	return nil, nil
}

func TestRun_ExceedsMaxDurationMarksRunFailed(t *testing.T) {
	companies := []domain.Company{{ID: 1, Ticker: "AAA", IsActive: true}}
	runs := &fakeRunRepo{}
	scorer := New(
		&fakeCompanyRepo{active: companies},
		&fakeFundamentalRepo{delay: 50 * time.Millisecond},
		&fakeScoreRepo{},
		runs,
		Config{Workers: 1, ScoringVersion: "v1", MaxRunDuration: 5 * time.Millisecond},
	)

	run, err := scorer.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	require.Len(t, runs.updated, 1)
	assert.Equal(t, domain.RunStatusFailed, runs.updated[0].Status)
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestStats_EmptyReturnsNil(t *testing.T) {
	avg, median := stats(nil)
	assert.Nil(t, avg)
	assert.Nil(t, median)
}

func TestStats_SingleValue(t *testing.T) {
	avg, median := stats([]decimal.Decimal{dec(72.5)})
	assert.True(t, dec(72.5).Equal(*avg))
	assert.True(t, dec(72.5).Equal(*median))
}

func TestStats_MeanAndMedian(t *testing.T) {
	vals := []decimal.Decimal{dec(10), dec(20), dec(30), dec(40), dec(100)}
	avg, median := stats(vals)
	assert.True(t, dec(40).Equal(*avg))
	assert.True(t, dec(30).Equal(*median))
}

func TestStats_EvenCountMedianIsLowerMiddle(t *testing.T) {
	vals := []decimal.Decimal{dec(10), dec(20), dec(30), dec(40)}
	_, median := stats(vals)
	assert.True(t, dec(20).Equal(*median))
}

func TestStats_OrderIndependent(t *testing.T) {
	a := []decimal.Decimal{dec(5), dec(1), dec(3)}
	b := []decimal.Decimal{dec(1), dec(3), dec(5)}
	avgA, medA := stats(a)
	avgB, medB := stats(b)
	assert.True(t, avgA.Equal(*avgB))
	assert.True(t, medA.Equal(*medB))
}
