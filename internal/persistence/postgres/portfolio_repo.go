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

type portfolioRow struct {
	ID                    int64               `db:"id"`
	UserID                string              `db:"user_id"`
	Name                  string              `db:"name"`
	Description           sql.NullString      `db:"description"`
	IsPrimary             bool                `db:"is_primary"`
	CachedTotalValue      decimal.Decimal     `db:"cached_total_value"`
	CachedSurvivalScore   decimal.NullDecimal `db:"cached_survival_score"`
	CachedScenarioGradual decimal.NullDecimal `db:"cached_scenario_gradual"`
	CachedScenarioRapid   decimal.NullDecimal `db:"cached_scenario_rapid"`
	CachedScenarioHyper   decimal.NullDecimal `db:"cached_scenario_hyper"`
	CreatedAt             time.Time           `db:"created_at"`
	UpdatedAt             time.Time           `db:"updated_at"`
}

func (r portfolioRow) toDomain() domain.Portfolio {
	p := domain.Portfolio{
		ID:               domain.PortfolioID(r.ID),
		UserID:           r.UserID,
		Name:             r.Name,
		IsPrimary:        r.IsPrimary,
		CachedTotalValue: r.CachedTotalValue,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Description.Valid {
		p.Description = &r.Description.String
	}
	p.CachedSurvivalScore = nd(r.CachedSurvivalScore)
	p.CachedScenarioGradual = nd(r.CachedScenarioGradual)
	p.CachedScenarioRapid = nd(r.CachedScenarioRapid)
	p.CachedScenarioHyper = nd(r.CachedScenarioHyper)
	return p
}

const portfolioColumns = `id, user_id, name, description, is_primary,
	cached_total_value, cached_survival_score, cached_scenario_gradual, cached_scenario_rapid, cached_scenario_hyper,
	created_at, updated_at`

type portfolioRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPortfolioRepo creates a PostgreSQL-backed PortfolioRepo.
func NewPortfolioRepo(db *sqlx.DB, timeout time.Duration) persistence.PortfolioRepo {
	return &portfolioRepo{db: db, timeout: timeout}
}

func (r *portfolioRepo) Get(ctx context.Context, id domain.PortfolioID) (*domain.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM portfolios WHERE id = $1`, portfolioColumns)
	var row portfolioRow
	if err := r.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get portfolio: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

func (r *portfolioRepo) ListByUser(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM portfolios WHERE user_id = $1 ORDER BY is_primary DESC, created_at`, portfolioColumns)
	var rows []portfolioRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list portfolios by user: %w", err)
	}
	out := make([]domain.Portfolio, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// Create inserts a new portfolio with IsPrimary as given. It does not check
// whether the user already has a primary portfolio (spec.md §3 invariant: at
// most one is_primary per user), and internal/portfolio does not check it
// either.
func (r *portfolioRepo) Create(ctx context.Context, p domain.Portfolio) (domain.PortfolioID, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO portfolios (user_id, name, description, is_primary, cached_total_value)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id`,
		p.UserID, p.Name, p.Description, p.IsPrimary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create portfolio: %w", err)
	}
	return domain.PortfolioID(id), nil
}

func (r *portfolioRepo) UpdateCached(ctx context.Context, id domain.PortfolioID, totalValue decimal.Decimal, score *decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE portfolios SET cached_total_value = $1, cached_survival_score = $2, updated_at = now()
		WHERE id = $3`, totalValue, ndOf(score), int64(id))
	if err != nil {
		return fmt.Errorf("update cached portfolio stats: %w", err)
	}
	return nil
}

type holdingRow struct {
	ID                 int64           `db:"id"`
	PortfolioID        int64           `db:"portfolio_id"`
	CompanyID          int64           `db:"company_id"`
	Shares             decimal.Decimal `db:"shares"`
	CostBasis          decimal.Decimal `db:"cost_basis"`
	CostPerShare       decimal.Decimal `db:"cost_per_share"`
	CachedCurrentPrice decimal.Decimal `db:"cached_current_price"`
	CachedCurrentValue decimal.Decimal `db:"cached_current_value"`
	CachedGain         decimal.Decimal `db:"cached_gain"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func (r holdingRow) toDomain() domain.PortfolioHolding {
	return domain.PortfolioHolding{
		ID:                 r.ID,
		PortfolioID:        domain.PortfolioID(r.PortfolioID),
		CompanyID:          domain.CompanyID(r.CompanyID),
		Shares:             r.Shares,
		CostBasis:          r.CostBasis,
		CostPerShare:       r.CostPerShare,
		CachedCurrentPrice: r.CachedCurrentPrice,
		CachedCurrentValue: r.CachedCurrentValue,
		CachedGain:         r.CachedGain,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type holdingRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPortfolioHoldingRepo creates a PostgreSQL-backed PortfolioHoldingRepo.
func NewPortfolioHoldingRepo(db *sqlx.DB, timeout time.Duration) persistence.PortfolioHoldingRepo {
	return &holdingRepo{db: db, timeout: timeout}
}

func (r *holdingRepo) ListByPortfolio(ctx context.Context, portfolioID domain.PortfolioID) ([]domain.PortfolioHolding, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []holdingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, portfolio_id, company_id, shares, cost_basis, cost_per_share,
			cached_current_price, cached_current_value, cached_gain, created_at, updated_at
		FROM portfolio_holdings WHERE portfolio_id = $1`, int64(portfolioID))
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	out := make([]domain.PortfolioHolding, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// UpdatePriceForCompany refreshes cached_current_price/value/gain on
// every holding of companyID, across every portfolio that holds it.
func (r *holdingRepo) UpdatePriceForCompany(ctx context.Context, companyID domain.CompanyID, price decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE portfolio_holdings SET
			cached_current_price = $1,
			cached_current_value = shares * $1,
			cached_gain = (shares * $1) - cost_basis,
			updated_at = now()
		WHERE company_id = $2`, price, int64(companyID))
	if err != nil {
		return fmt.Errorf("update cached price for company %d: %w", companyID, err)
	}
	return nil
}

func (r *holdingRepo) Upsert(ctx context.Context, h domain.PortfolioHolding) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_holdings (portfolio_id, company_id, shares, cost_basis, cost_per_share,
			cached_current_price, cached_current_value, cached_gain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (portfolio_id, company_id) DO UPDATE SET
			shares = EXCLUDED.shares, cost_basis = EXCLUDED.cost_basis, cost_per_share = EXCLUDED.cost_per_share,
			cached_current_price = EXCLUDED.cached_current_price, cached_current_value = EXCLUDED.cached_current_value,
			cached_gain = EXCLUDED.cached_gain, updated_at = now()`,
		int64(h.PortfolioID), int64(h.CompanyID), h.Shares, h.CostBasis, h.CostPerShare,
		h.CachedCurrentPrice, h.CachedCurrentValue, h.CachedGain,
	)
	if err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}
