// Package persistence defines the repository interfaces for every entity in
// the data model: Company, Fundamental, SurvivalScore, MacroData, Portfolio,
// PortfolioHolding, Alert, ScoringRun. Concrete implementations live in
// persistence/postgres.
package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

// TimeRange represents a time window for data queries.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CompanyFilter narrows the GET /companies listing. The postgres
// CompanyRepo.List applies Sector and Search; MinScore, MaxScore and Tier
// are carried on the filter but not applied.
type CompanyFilter struct {
	Sector   string
	MinScore *float64
	MaxScore *float64
	Tier     string
	Search   string
	SortBy   string // ticker|market_cap|name; any other value, including "score", sorts by ticker
	SortDesc bool
	Limit    int
	Offset   int
}

// CompanyRepo persists Company identity rows.
type CompanyRepo interface {
	Get(ctx context.Context, id domain.CompanyID) (*domain.Company, error)
	GetByTicker(ctx context.Context, ticker string) (*domain.Company, error)
	ListActive(ctx context.Context) ([]domain.Company, error)
	List(ctx context.Context, filter CompanyFilter) ([]domain.Company, int, error)
	Upsert(ctx context.Context, c domain.Company) (domain.CompanyID, error)
}

// FundamentalRepo persists per-fiscal-period financial snapshots.
type FundamentalRepo interface {
	Latest(ctx context.Context, companyID domain.CompanyID) (*domain.Fundamental, error)
	Upsert(ctx context.Context, f domain.Fundamental) error
}

// SurvivalScoreRepo persists the immutable score time-series.
type SurvivalScoreRepo interface {
	// Upsert overwrites the row for (company_id, score_date) — batch reruns
	// on the same day are idempotent.
	Upsert(ctx context.Context, s domain.SurvivalScore) error
	Latest(ctx context.Context, companyID domain.CompanyID) (*domain.SurvivalScore, error)
	// Recent returns the n most recent rows for companyID, newest first.
	Recent(ctx context.Context, companyID domain.CompanyID, n int) ([]domain.SurvivalScore, error)
	History(ctx context.Context, companyID domain.CompanyID, tr TimeRange, limit int) ([]domain.SurvivalScore, error)
	// LatestForAll returns the most recent score per company, keyed by company_id.
	LatestForAll(ctx context.Context) (map[domain.CompanyID]domain.SurvivalScore, error)
	Rankings(ctx context.Context, scenario domain.Scenario, limit int) ([]RankedScore, error)
}

// RankedScore is one row of a rankings query: a company joined to its
// latest score, sorted by the scenario's score descending.
type RankedScore struct {
	Company domain.Company
	Score   domain.SurvivalScore
}

// MacroDataRepo persists the single daily macro snapshot.
type MacroDataRepo interface {
	Upsert(ctx context.Context, m domain.MacroData) error
	Current(ctx context.Context) (*domain.MacroData, error)
	History(ctx context.Context, tr TimeRange, limit int) ([]domain.MacroData, error)
}

// PortfolioRepo persists user portfolios.
type PortfolioRepo interface {
	Get(ctx context.Context, id domain.PortfolioID) (*domain.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Portfolio, error)
	Create(ctx context.Context, p domain.Portfolio) (domain.PortfolioID, error)
	UpdateCached(ctx context.Context, id domain.PortfolioID, totalValue decimal.Decimal, score *decimal.Decimal) error
}

// PortfolioHoldingRepo persists holdings within a portfolio.
type PortfolioHoldingRepo interface {
	ListByPortfolio(ctx context.Context, portfolioID domain.PortfolioID) ([]domain.PortfolioHolding, error)
	Upsert(ctx context.Context, h domain.PortfolioHolding) error
	// UpdatePriceForCompany refreshes cached_current_price (and the
	// derived cached_current_value/cached_gain) on every holding of
	// companyID across every portfolio, for the market-data refresh job.
	UpdatePriceForCompany(ctx context.Context, companyID domain.CompanyID, price decimal.Decimal) error
}

// AlertRepo persists alert rules and their trigger bookkeeping.
type AlertRepo interface {
	ListActive(ctx context.Context) ([]domain.Alert, error)
	Get(ctx context.Context, id int64) (*domain.Alert, error)
	Create(ctx context.Context, a domain.Alert) (int64, error)
	MarkFired(ctx context.Context, a domain.Alert) error
}

// ScoringRunRepo persists batch-run audit records.
type ScoringRunRepo interface {
	Insert(ctx context.Context, r domain.ScoringRun) error
	Update(ctx context.Context, r domain.ScoringRun) error
	GetByDate(ctx context.Context, runDate time.Time) (*domain.ScoringRun, error)
}

// Repository aggregates every repo interface behind one handle, mirroring
// the teacher's connection-manager wiring pattern.
type Repository struct {
	Companies    CompanyRepo
	Fundamentals FundamentalRepo
	Scores       SurvivalScoreRepo
	Macro        MacroDataRepo
	Portfolios   PortfolioRepo
	Holdings     PortfolioHoldingRepo
	Alerts       AlertRepo
	Runs         ScoringRunRepo
}

// HealthCheck represents repository health status.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}
