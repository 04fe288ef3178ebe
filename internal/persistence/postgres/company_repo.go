package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type companyRow struct {
	ID        int64           `db:"id"`
	Ticker    string          `db:"ticker"`
	Name      string          `db:"name"`
	Sector    string          `db:"sector"`
	Industry  string          `db:"industry"`
	MarketCap decimal.Decimal `db:"market_cap"`
	Exchange  string          `db:"exchange"`
	Country   string          `db:"country"`
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r companyRow) toDomain() domain.Company {
	return domain.Company{
		ID:        domain.CompanyID(r.ID),
		Ticker:    r.Ticker,
		Name:      r.Name,
		Sector:    r.Sector,
		Industry:  r.Industry,
		MarketCap: r.MarketCap,
		Exchange:  r.Exchange,
		Country:   r.Country,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type companyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCompanyRepo creates a PostgreSQL-backed CompanyRepo.
func NewCompanyRepo(db *sqlx.DB, timeout time.Duration) persistence.CompanyRepo {
	return &companyRepo{db: db, timeout: timeout}
}

func (r *companyRepo) Get(ctx context.Context, id domain.CompanyID) (*domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row companyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, ticker, name, sector, industry, market_cap, exchange, country, is_active, created_at, updated_at
		FROM companies WHERE id = $1`, int64(id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

func (r *companyRepo) GetByTicker(ctx context.Context, ticker string) (*domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row companyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, ticker, name, sector, industry, market_cap, exchange, country, is_active, created_at, updated_at
		FROM companies WHERE ticker = $1`, ticker)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by ticker: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

func (r *companyRepo) ListActive(ctx context.Context) ([]domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []companyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, ticker, name, sector, industry, market_cap, exchange, country, is_active, created_at, updated_at
		FROM companies WHERE is_active = true ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}
	out := make([]domain.Company, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *companyRepo) List(ctx context.Context, filter persistence.CompanyFilter) ([]domain.Company, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	where := []string{"is_active = true"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Sector != "" {
		where = append(where, "sector = "+arg(filter.Sector))
	}
	if filter.Search != "" {
		where = append(where, "(ticker ILIKE "+arg("%"+filter.Search+"%")+" OR name ILIKE "+arg("%"+filter.Search+"%")+")")
	}

	sortCol := "ticker"
	switch filter.SortBy {
	case "market_cap":
		sortCol = "market_cap"
	case "name":
		sortCol = "name"
	case "ticker":
		sortCol = "ticker"
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, ticker, name, sector, industry, market_cap, exchange, country, is_active, created_at, updated_at
		FROM companies WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s`,
		strings.Join(where, " AND "), sortCol, dir, arg(limit), arg(filter.Offset))

	var rows []companyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM companies WHERE %s", strings.Join(where, " AND "))
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args[:len(args)-2]...); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	out := make([]domain.Company, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, total, nil
}

func (r *companyRepo) Upsert(ctx context.Context, c domain.Company) (domain.CompanyID, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO companies (ticker, name, sector, industry, market_cap, exchange, country, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name, sector = EXCLUDED.sector, industry = EXCLUDED.industry,
			market_cap = EXCLUDED.market_cap, exchange = EXCLUDED.exchange, country = EXCLUDED.country,
			is_active = EXCLUDED.is_active, updated_at = now()
		RETURNING id`,
		c.Ticker, c.Name, c.Sector, c.Industry, c.MarketCap, c.Exchange, c.Country, c.IsActive,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, fmt.Errorf("upsert company %s: %w (code %s)", c.Ticker, err, pqErr.Code)
		}
		return 0, fmt.Errorf("upsert company %s: %w", c.Ticker, err)
	}
	return domain.CompanyID(id), nil
}
