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

type alertRow struct {
	ID                 int64               `db:"id"`
	UserID             string              `db:"user_id"`
	CompanyID          int64               `db:"company_id"`
	PortfolioID        sql.NullInt64       `db:"portfolio_id"`
	AlertType          string              `db:"alert_type"`
	ThresholdValue     decimal.NullDecimal `db:"threshold_value"`
	ThresholdDirection sql.NullString      `db:"threshold_direction"`
	ChangePercent      decimal.NullDecimal `db:"change_percent"`
	IsActive           bool                `db:"is_active"`
	LastTriggeredAt    sql.NullTime        `db:"last_triggered_at"`
	TriggerCount       int                 `db:"trigger_count"`
	NotifyEmail        bool                `db:"notify_email"`
	NotifyPush         bool                `db:"notify_push"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

func (r alertRow) toDomain() domain.Alert {
	a := domain.Alert{
		ID:           r.ID,
		UserID:       r.UserID,
		CompanyID:    domain.CompanyID(r.CompanyID),
		AlertType:    domain.AlertType(r.AlertType),
		IsActive:     r.IsActive,
		TriggerCount: r.TriggerCount,
		NotifyEmail:  r.NotifyEmail,
		NotifyPush:   r.NotifyPush,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.PortfolioID.Valid {
		pid := domain.PortfolioID(r.PortfolioID.Int64)
		a.PortfolioID = &pid
	}
	a.ThresholdValue = nd(r.ThresholdValue)
	a.ChangePercent = nd(r.ChangePercent)
	if r.ThresholdDirection.Valid {
		dir := domain.ThresholdDirection(r.ThresholdDirection.String)
		a.ThresholdDirection = &dir
	}
	if r.LastTriggeredAt.Valid {
		a.LastTriggeredAt = &r.LastTriggeredAt.Time
	}
	return a
}

const alertColumns = `id, user_id, company_id, portfolio_id, alert_type, threshold_value, threshold_direction,
	change_percent, is_active, last_triggered_at, trigger_count, notify_email, notify_push, created_at, updated_at`

type alertRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAlertRepo creates a PostgreSQL-backed AlertRepo.
func NewAlertRepo(db *sqlx.DB, timeout time.Duration) persistence.AlertRepo {
	return &alertRepo{db: db, timeout: timeout}
}

func (r *alertRepo) ListActive(ctx context.Context) ([]domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE is_active = true`, alertColumns)
	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	out := make([]domain.Alert, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *alertRepo) Get(ctx context.Context, id int64) (*domain.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = $1`, alertColumns)
	var row alertRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	a := row.toDomain()
	return &a, nil
}

func (r *alertRepo) Create(ctx context.Context, a domain.Alert) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var portfolioID sql.NullInt64
	if a.PortfolioID != nil {
		portfolioID = sql.NullInt64{Int64: int64(*a.PortfolioID), Valid: true}
	}
	var direction sql.NullString
	if a.ThresholdDirection != nil {
		direction = sql.NullString{String: string(*a.ThresholdDirection), Valid: true}
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO alerts (user_id, company_id, portfolio_id, alert_type, threshold_value, threshold_direction,
			change_percent, is_active, trigger_count, notify_email, notify_push)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING id`,
		a.UserID, int64(a.CompanyID), portfolioID, string(a.AlertType), ndOf(a.ThresholdValue), direction,
		ndOf(a.ChangePercent), a.IsActive, a.NotifyEmail, a.NotifyPush,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create alert: %w", err)
	}
	return id, nil
}

// MarkFired persists the trigger bookkeeping from domain.Alert.Fired.
func (r *alertRepo) MarkFired(ctx context.Context, a domain.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET last_triggered_at = $1, trigger_count = $2, updated_at = now() WHERE id = $3`,
		a.LastTriggeredAt, a.TriggerCount, a.ID)
	if err != nil {
		return fmt.Errorf("mark alert %d fired: %w", a.ID, err)
	}
	return nil
}
