// Package batch implements the Batch Scorer (spec.md §4.D): a daily sweep
// that loads every active company's latest Fundamental, runs it through
// the Scoring Engine, and upserts the resulting SurvivalScore, isolating
// per-company failures so one bad filing can't sink the whole run.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
	"github.com/broseidonlordofthebrocean/hedge/internal/scoring/engine"
)

// Config controls one batch run.
type Config struct {
	Workers        int
	ScoringVersion string
	MaxRunDuration time.Duration
}

// DefaultConfig matches SPEC_FULL.md's ambient defaults: 16 workers, a
// 60-minute wall-clock ceiling.
func DefaultConfig() Config {
	return Config{
		Workers:        16,
		ScoringVersion: "v1",
		MaxRunDuration: 60 * time.Minute,
	}
}

// Scorer is the Batch Scorer component.
type Scorer struct {
	companies    persistence.CompanyRepo
	fundamentals persistence.FundamentalRepo
	scores       persistence.SurvivalScoreRepo
	runs         persistence.ScoringRunRepo
	cfg          Config
}

// New builds a Scorer wired to the repositories it needs.
func New(companies persistence.CompanyRepo, fundamentals persistence.FundamentalRepo, scores persistence.SurvivalScoreRepo, runs persistence.ScoringRunRepo, cfg Config) *Scorer {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.MaxRunDuration <= 0 {
		cfg.MaxRunDuration = 60 * time.Minute
	}
	return &Scorer{companies: companies, fundamentals: fundamentals, scores: scores, runs: runs, cfg: cfg}
}

type companyResult struct {
	ticker string
	score  decimal.Decimal
	err    error
}

// Run executes one full sweep for scoreDate (the run_date, normalized to a
// calendar day), per the §4.D protocol:
//  1. insert a ScoringRun row in the running state
//  2. enumerate active companies
//  3. for each: fetch its latest Fundamental, project to CompanyData, score,
//     upsert the resulting SurvivalScore — failures are isolated per company
//  4. compute avg/median total_score across successes
//  5. mark the run completed (or failed, if listing the active companies
//     errored or the run exceeded MaxRunDuration)
func (s *Scorer) Run(ctx context.Context, scoreDate time.Time) (domain.ScoringRun, error) {
	run := domain.NewScoringRun(scoreDate, s.cfg.ScoringVersion)
	if err := s.runs.Insert(ctx, run); err != nil {
		return run, fmt.Errorf("insert scoring_run: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.MaxRunDuration)
	defer cancel()

	active, err := s.companies.ListActive(ctx)
	if err != nil {
		run.Fail(err.Error())
		_ = s.runs.Update(ctx, run)
		return run, fmt.Errorf("list active companies: %w", err)
	}

	results := make(chan companyResult, len(active))
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for _, company := range active {
		company := company
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results <- s.scoreOne(ctx, company, scoreDate, run.ScoringVersion)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var scored, failed int
	var totals []decimal.Decimal
	for r := range results {
		if r.err != nil {
			failed++
			log.Warn().Str("ticker", r.ticker).Err(r.err).Msg("company scoring failed")
			continue
		}
		scored++
		totals = append(totals, r.score)
	}

	// ctx is the timeout-bounded context from WithTimeout above; once it
	// fires mid-sweep the run did not finish within MaxRunDuration and must
	// be marked failed, not completed. The status write itself needs a
	// live context since ctx is already expired.
	updateCtx := ctx
	if ctx.Err() != nil {
		run.Fail(fmt.Sprintf("exceeded max run duration of %s", s.cfg.MaxRunDuration))
		updateCtx = context.Background()
	} else {
		avg, median := stats(totals)
		run.Complete(scored, failed, avg, median)
	}

	if err := s.runs.Update(updateCtx, run); err != nil {
		return run, fmt.Errorf("update scoring_run: %w", err)
	}
	return run, nil
}

func (s *Scorer) scoreOne(ctx context.Context, company domain.Company, scoreDate time.Time, version string) companyResult {
	fundamental, err := s.fundamentals.Latest(ctx, company.ID)
	if err != nil {
		return companyResult{ticker: company.Ticker, err: fmt.Errorf("fetch latest fundamental: %w", err)}
	}

	data := domain.ToCompanyData(company, fundamental)
	result := engine.Score(data)
	row := engine.ToSurvivalScore(company.ID, scoreDate, result, version)

	if err := s.scores.Upsert(ctx, row); err != nil {
		return companyResult{ticker: company.Ticker, err: fmt.Errorf("upsert survival_score: %w", err)}
	}
	return companyResult{ticker: company.Ticker, score: result.TotalScore}
}

// stats computes the mean and median of vals, or (nil, nil) if empty.
// gonum/stat needs a sorted float64 slice for Quantile, so the decimals are
// converted once and handed to stat.Mean / stat.Quantile rather than
// hand-rolling the arithmetic.
func stats(vals []decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
	if len(vals) == 0 {
		return nil, nil
	}
	floats := make([]float64, len(vals))
	for i, v := range vals {
		f, _ := v.Float64()
		floats[i] = f
	}
	sort.Float64s(floats)

	mean := stat.Mean(floats, nil)
	median := stat.Quantile(0.5, stat.Empirical, floats, nil)

	avg := decimal.NewFromFloat(mean).Round(2)
	med := decimal.NewFromFloat(median).Round(2)
	return &avg, &med
}
