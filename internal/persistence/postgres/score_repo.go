package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type scoreRow struct {
	ID                int64               `db:"id"`
	CompanyID         int64               `db:"company_id"`
	ScoreDate         time.Time           `db:"score_date"`
	TotalScore        decimal.Decimal     `db:"total_score"`
	Confidence        decimal.Decimal     `db:"confidence"`
	Tier              string              `db:"tier"`
	HardAssets        decimal.Decimal     `db:"hard_assets_score"`
	PreciousMetals    decimal.Decimal     `db:"precious_metals_score"`
	Commodities       decimal.Decimal     `db:"commodities_score"`
	ForeignRevenue    decimal.Decimal     `db:"foreign_revenue_score"`
	PricingPower      decimal.Decimal     `db:"pricing_power_score"`
	DebtStructure     decimal.Decimal     `db:"debt_structure_score"`
	EssentialServices decimal.Decimal     `db:"essential_services_score"`
	ScenarioGradual   decimal.NullDecimal `db:"scenario_gradual"`
	ScenarioRapid     decimal.NullDecimal `db:"scenario_rapid"`
	ScenarioHyper     decimal.NullDecimal `db:"scenario_hyper"`
	ScoringVersion    string              `db:"scoring_version"`
	CreatedAt         time.Time           `db:"created_at"`
}

func (r scoreRow) toDomain() domain.SurvivalScore {
	s := domain.SurvivalScore{
		ID:                r.ID,
		CompanyID:         domain.CompanyID(r.CompanyID),
		ScoreDate:         r.ScoreDate,
		TotalScore:        r.TotalScore,
		Confidence:        r.Confidence,
		Tier:              domain.Tier(r.Tier),
		HardAssets:        r.HardAssets,
		PreciousMetals:    r.PreciousMetals,
		Commodities:       r.Commodities,
		ForeignRevenue:    r.ForeignRevenue,
		PricingPower:      r.PricingPower,
		DebtStructure:     r.DebtStructure,
		EssentialServices: r.EssentialServices,
		ScoringVersion:    r.ScoringVersion,
		CreatedAt:         r.CreatedAt,
	}
	if r.ScenarioGradual.Valid {
		s.ScenarioGradual = r.ScenarioGradual.Decimal
	}
	if r.ScenarioRapid.Valid {
		s.ScenarioRapid = r.ScenarioRapid.Decimal
	}
	if r.ScenarioHyper.Valid {
		s.ScenarioHyper = r.ScenarioHyper.Decimal
	}
	return s
}

const scoreColumns = `id, company_id, score_date, total_score, confidence, tier,
	hard_assets_score, precious_metals_score, commodities_score, foreign_revenue_score,
	pricing_power_score, debt_structure_score, essential_services_score,
	scenario_gradual, scenario_rapid, scenario_hyper, scoring_version, created_at`

type scoreRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSurvivalScoreRepo creates a PostgreSQL-backed SurvivalScoreRepo.
func NewSurvivalScoreRepo(db *sqlx.DB, timeout time.Duration) persistence.SurvivalScoreRepo {
	return &scoreRepo{db: db, timeout: timeout}
}

// Upsert overwrites the row for (company_id, score_date) — spec.md §4.D
// step 3: rerunning the batch scorer on the same day is idempotent.
func (r *scoreRepo) Upsert(ctx context.Context, s domain.SurvivalScore) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO survival_scores (
			company_id, score_date, total_score, confidence, tier,
			hard_assets_score, precious_metals_score, commodities_score, foreign_revenue_score,
			pricing_power_score, debt_structure_score, essential_services_score,
			scenario_gradual, scenario_rapid, scenario_hyper, scoring_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (company_id, score_date) DO UPDATE SET
			total_score = EXCLUDED.total_score, confidence = EXCLUDED.confidence, tier = EXCLUDED.tier,
			hard_assets_score = EXCLUDED.hard_assets_score, precious_metals_score = EXCLUDED.precious_metals_score,
			commodities_score = EXCLUDED.commodities_score, foreign_revenue_score = EXCLUDED.foreign_revenue_score,
			pricing_power_score = EXCLUDED.pricing_power_score, debt_structure_score = EXCLUDED.debt_structure_score,
			essential_services_score = EXCLUDED.essential_services_score,
			scenario_gradual = EXCLUDED.scenario_gradual, scenario_rapid = EXCLUDED.scenario_rapid,
			scenario_hyper = EXCLUDED.scenario_hyper, scoring_version = EXCLUDED.scoring_version`,
		int64(s.CompanyID), s.ScoreDate, s.TotalScore, s.Confidence, string(s.Tier),
		s.HardAssets, s.PreciousMetals, s.Commodities, s.ForeignRevenue,
		s.PricingPower, s.DebtStructure, s.EssentialServices,
		s.ScenarioGradual, s.ScenarioRapid, s.ScenarioHyper, s.ScoringVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert survival_score for company %d on %s: %w", s.CompanyID, s.ScoreDate.Format("2006-01-02"), err)
	}
	return nil
}

func (r *scoreRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.SurvivalScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM survival_scores WHERE company_id = $1 ORDER BY score_date DESC LIMIT 1`, scoreColumns)
	var row scoreRow
	if err := r.db.GetContext(ctx, &row, query, int64(companyID)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest survival_score: %w", err)
	}
	s := row.toDomain()
	return &s, nil
}

func (r *scoreRepo) Recent(ctx context.Context, companyID domain.CompanyID, n int) ([]domain.SurvivalScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM survival_scores WHERE company_id = $1 ORDER BY score_date DESC LIMIT $2`, scoreColumns)
	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, int64(companyID), n); err != nil {
		return nil, fmt.Errorf("recent survival_scores: %w", err)
	}
	out := make([]domain.SurvivalScore, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *scoreRepo) History(ctx context.Context, companyID domain.CompanyID, tr persistence.TimeRange, limit int) ([]domain.SurvivalScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM survival_scores
		WHERE company_id = $1 AND score_date >= $2 AND score_date <= $3
		ORDER BY score_date DESC LIMIT $4`, scoreColumns)
	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, int64(companyID), tr.From, tr.To, limit); err != nil {
		return nil, fmt.Errorf("survival_score history: %w", err)
	}
	out := make([]domain.SurvivalScore, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// LatestForAll returns the most recent score per company via a lateral
// join, used by the Portfolio Aggregator (4.E) to batch-load holdings.
func (r *scoreRepo) LatestForAll(ctx context.Context) (map[domain.CompanyID]domain.SurvivalScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT s.id, s.company_id, s.score_date, s.total_score, s.confidence, s.tier,
			s.hard_assets_score, s.precious_metals_score, s.commodities_score, s.foreign_revenue_score,
			s.pricing_power_score, s.debt_structure_score, s.essential_services_score,
			s.scenario_gradual, s.scenario_rapid, s.scenario_hyper, s.scoring_version, s.created_at
		FROM companies c
		JOIN LATERAL (
			SELECT * FROM survival_scores ss WHERE ss.company_id = c.id
			ORDER BY ss.score_date DESC LIMIT 1
		) s ON true
		WHERE c.is_active = true`

	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("latest scores for all companies: %w", err)
	}
	out := make(map[domain.CompanyID]domain.SurvivalScore, len(rows))
	for _, row := range rows {
		s := row.toDomain()
		out[s.CompanyID] = s
	}
	return out, nil
}

// Rankings returns companies ranked by the given scenario's latest score,
// descending (spec.md §6 GET /rankings).
func (r *scoreRepo) Rankings(ctx context.Context, scenario domain.Scenario, limit int) ([]persistence.RankedScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	orderCol := "s.total_score"
	switch scenario {
	case domain.ScenarioGradual:
		orderCol = "s.scenario_gradual"
	case domain.ScenarioRapid:
		orderCol = "s.scenario_rapid"
	case domain.ScenarioHyper:
		orderCol = "s.scenario_hyper"
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.ticker, c.name, c.sector, c.industry, c.market_cap, c.exchange, c.country, c.is_active, c.created_at, c.updated_at,
			s.id, s.company_id, s.score_date, s.total_score, s.confidence, s.tier,
			s.hard_assets_score, s.precious_metals_score, s.commodities_score, s.foreign_revenue_score,
			s.pricing_power_score, s.debt_structure_score, s.essential_services_score,
			s.scenario_gradual, s.scenario_rapid, s.scenario_hyper, s.scoring_version, s.created_at
		FROM companies c
		JOIN LATERAL (
			SELECT * FROM survival_scores ss WHERE ss.company_id = c.id
			ORDER BY ss.score_date DESC LIMIT 1
		) s ON true
		WHERE c.is_active = true
		ORDER BY %s DESC NULLS LAST
		LIMIT $1`, orderCol)

	sqlxRows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("rankings query: %w", err)
	}
	defer sqlxRows.Close()

	var out []persistence.RankedScore
	for sqlxRows.Next() {
		var cr companyRow
		var sr scoreRow
		if err := sqlxRows.Scan(
			&cr.ID, &cr.Ticker, &cr.Name, &cr.Sector, &cr.Industry, &cr.MarketCap, &cr.Exchange, &cr.Country, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt,
			&sr.ID, &sr.CompanyID, &sr.ScoreDate, &sr.TotalScore, &sr.Confidence, &sr.Tier,
			&sr.HardAssets, &sr.PreciousMetals, &sr.Commodities, &sr.ForeignRevenue,
			&sr.PricingPower, &sr.DebtStructure, &sr.EssentialServices,
			&sr.ScenarioGradual, &sr.ScenarioRapid, &sr.ScenarioHyper, &sr.ScoringVersion, &sr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		out = append(out, persistence.RankedScore{Company: cr.toDomain(), Score: sr.toDomain()})
	}
	return out, sqlxRows.Err()
}
