package alerts

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

type fakeAlertRepo struct {
	active []domain.Alert
	fired  []domain.Alert
}

func (f *fakeAlertRepo) ListActive(ctx context.Context) ([]domain.Alert, error) { return f.active, nil }
func (f *fakeAlertRepo) Get(ctx context.Context, id int64) (*domain.Alert, error) { return nil, nil }
func (f *fakeAlertRepo) Create(ctx context.Context, a domain.Alert) (int64, error) { return 0, nil }
func (f *fakeAlertRepo) MarkFired(ctx context.Context, a domain.Alert) error {
	f.fired = append(f.fired, a)
	return nil
}

type fakeScoreRepo struct {
	latest map[domain.CompanyID]*domain.SurvivalScore
	// recent is newest-first, matching persistence.SurvivalScoreRepo's
	// documented Recent() ordering.
	recent map[domain.CompanyID][]domain.SurvivalScore
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, s domain.SurvivalScore) error { return nil }
func (f *fakeScoreRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.SurvivalScore, error) {
	return f.latest[companyID], nil
}
func (f *fakeScoreRepo) Recent(ctx context.Context, companyID domain.CompanyID, n int) ([]domain.SurvivalScore, error) {
	rows := f.recent[companyID]
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
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

type fakeNotifier struct {
	notified []domain.Alert
}

func (n *fakeNotifier) Notify(ctx context.Context, a domain.Alert, score domain.SurvivalScore, message string) error {
	n.notified = append(n.notified, a)
	return nil
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestTick_ThresholdBelowFires(t *testing.T) {
	dir := domain.ThresholdBelow
	threshold := dec(50)
	alert := domain.Alert{ID: 1, CompanyID: 1, AlertType: domain.AlertTypeThreshold, ThresholdValue: &threshold, ThresholdDirection: &dir, IsActive: true}

	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{latest: map[domain.CompanyID]*domain.SurvivalScore{1: {TotalScore: dec(40)}}}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	assert.Len(t, notifier.notified, 1)
	assert.Len(t, alertRepo.fired, 1)
}

func TestTick_ThresholdNotCrossedDoesNotFire(t *testing.T) {
	dir := domain.ThresholdBelow
	threshold := dec(50)
	alert := domain.Alert{ID: 1, CompanyID: 1, AlertType: domain.AlertTypeThreshold, ThresholdValue: &threshold, ThresholdDirection: &dir, IsActive: true}

	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{latest: map[domain.CompanyID]*domain.SurvivalScore{1: {TotalScore: dec(70)}}}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, fired)
	assert.Empty(t, notifier.notified)
}

func TestTick_CooldownSkipsRecentlyFiredAlert(t *testing.T) {
	dir := domain.ThresholdBelow
	threshold := dec(50)
	justFired := time.Now().Add(-time.Minute)
	alert := domain.Alert{ID: 1, CompanyID: 1, AlertType: domain.AlertTypeThreshold, ThresholdValue: &threshold, ThresholdDirection: &dir, IsActive: true, LastTriggeredAt: &justFired}

	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{latest: map[domain.CompanyID]*domain.SurvivalScore{1: {TotalScore: dec(10)}}}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestTick_ScoreDropAgainstPriorRunFires(t *testing.T) {
	alert := domain.Alert{ID: 1, CompanyID: 1, AlertType: domain.AlertTypeScoreDrop, ChangePercent: decPtr(10), IsActive: true}

	now := time.Now()
	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{
		latest: map[domain.CompanyID]*domain.SurvivalScore{1: {TotalScore: dec(70), ScoreDate: now}},
		recent: map[domain.CompanyID][]domain.SurvivalScore{
			1: {
				{TotalScore: dec(70), ScoreDate: now},
				{TotalScore: dec(90), ScoreDate: now.AddDate(0, 0, -1)},
			},
		},
	}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	// (70-90)/90*100 = -22.2%, beyond the 10% drop threshold.
	assert.Equal(t, 1, fired)
}

func TestTick_OnlyOneRecentScoreDoesNotFireChangeAlert(t *testing.T) {
	alert := domain.Alert{ID: 1, CompanyID: 1, AlertType: domain.AlertTypeScoreDrop, ChangePercent: decPtr(10), IsActive: true}

	now := time.Now()
	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{
		latest: map[domain.CompanyID]*domain.SurvivalScore{1: {TotalScore: dec(70), ScoreDate: now}},
		recent: map[domain.CompanyID][]domain.SurvivalScore{
			1: {{TotalScore: dec(70), ScoreDate: now}},
		},
	}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestTick_UnscoredCompanySkipped(t *testing.T) {
	dir := domain.ThresholdBelow
	threshold := dec(50)
	alert := domain.Alert{ID: 1, CompanyID: 99, AlertType: domain.AlertTypeThreshold, ThresholdValue: &threshold, ThresholdDirection: &dir, IsActive: true}

	alertRepo := &fakeAlertRepo{active: []domain.Alert{alert}}
	scoreRepo := &fakeScoreRepo{latest: map[domain.CompanyID]*domain.SurvivalScore{}}
	notifier := &fakeNotifier{}

	eval := New(alertRepo, scoreRepo, notifier, time.Hour)
	fired, err := eval.Tick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func decPtr(f float64) *decimal.Decimal {
	d := dec(f)
	return &d
}
