package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type runRow struct {
	ID              uuid.UUID           `db:"id"`
	RunDate         time.Time           `db:"run_date"`
	CompaniesScored int                 `db:"companies_scored"`
	CompaniesFailed int                 `db:"companies_failed"`
	AvgScore        decimal.NullDecimal `db:"avg_score"`
	MedianScore     decimal.NullDecimal `db:"median_score"`
	DurationSeconds decimal.NullDecimal `db:"duration_seconds"`
	ScoringVersion  string              `db:"scoring_version"`
	Status          string              `db:"status"`
	ErrorMessage    sql.NullString      `db:"error_message"`
	StartedAt       time.Time           `db:"started_at"`
	CompletedAt     sql.NullTime        `db:"completed_at"`
}

func (r runRow) toDomain() domain.ScoringRun {
	run := domain.ScoringRun{
		ID:              r.ID,
		RunDate:         r.RunDate,
		CompaniesScored: r.CompaniesScored,
		CompaniesFailed: r.CompaniesFailed,
		ScoringVersion:  r.ScoringVersion,
		Status:          domain.RunStatus(r.Status),
		StartedAt:       r.StartedAt,
	}
	run.AvgScore = nd(r.AvgScore)
	run.MedianScore = nd(r.MedianScore)
	run.DurationSeconds = nd(r.DurationSeconds)
	if r.ErrorMessage.Valid {
		run.ErrorMessage = &r.ErrorMessage.String
	}
	if r.CompletedAt.Valid {
		run.CompletedAt = &r.CompletedAt.Time
	}
	return run
}

const runColumns = `id, run_date, companies_scored, companies_failed, avg_score, median_score,
	duration_seconds, scoring_version, status, error_message, started_at, completed_at`

type runRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScoringRunRepo creates a PostgreSQL-backed ScoringRunRepo.
func NewScoringRunRepo(db *sqlx.DB, timeout time.Duration) persistence.ScoringRunRepo {
	return &runRepo{db: db, timeout: timeout}
}

// Insert writes the ScoringRun row before any SurvivalScore from that run,
// per spec.md §5's ordering requirement.
func (r *runRepo) Insert(ctx context.Context, run domain.ScoringRun) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoring_runs (id, run_date, companies_scored, companies_failed, scoring_version, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.RunDate, run.CompaniesScored, run.CompaniesFailed, run.ScoringVersion, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scoring_run: %w", err)
	}
	return nil
}

func (r *runRepo) Update(ctx context.Context, run domain.ScoringRun) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE scoring_runs SET companies_scored = $1, companies_failed = $2, avg_score = $3, median_score = $4,
			duration_seconds = $5, status = $6, error_message = $7, completed_at = $8
		WHERE id = $9`,
		run.CompaniesScored, run.CompaniesFailed, ndOf(run.AvgScore), ndOf(run.MedianScore),
		ndOf(run.DurationSeconds), string(run.Status), run.ErrorMessage, run.CompletedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update scoring_run %s: %w", run.ID, err)
	}
	return nil
}

func (r *runRepo) GetByDate(ctx context.Context, runDate time.Time) (*domain.ScoringRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM scoring_runs WHERE run_date = $1 ORDER BY started_at DESC LIMIT 1`, runColumns)
	var row runRow
	if err := r.db.GetContext(ctx, &row, query, runDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get scoring_run by date: %w", err)
	}
	run := row.toDomain()
	return &run, nil
}
