// Package domain holds the value types shared across the scoring pipeline:
// Company, Fundamental, SurvivalScore, MacroData, Portfolio,
// PortfolioHolding, Alert, and ScoringRun. These are plain structs with a
// foreign-key identifier back to Company where relevant — not a pointer
// graph — per the cyclic-ownership design note: companies, scores, and
// fundamentals fan out 1:N from the company as root.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyID identifies a Company. Opaque to callers; backed by a database
// surrogate key.
type CompanyID int64

// Company is immutable identity data. Destroyed rarely — is_active=false
// instead of a delete.
type Company struct {
	ID       CompanyID
	Ticker   string
	Name     string
	Sector   string
	Industry string
	MarketCap decimal.Decimal
	Exchange string
	Country  string
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
