package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/broseidonlordofthebrocean/hedge/internal/alerts"
	"github.com/broseidonlordofthebrocean/hedge/internal/batch"
	"github.com/broseidonlordofthebrocean/hedge/internal/cache"
	"github.com/broseidonlordofthebrocean/hedge/internal/config"
	"github.com/broseidonlordofthebrocean/hedge/internal/infrastructure/db"
	apihttp "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
	"github.com/broseidonlordofthebrocean/hedge/internal/portfolio"
	"github.com/broseidonlordofthebrocean/hedge/internal/scheduler"
	"github.com/broseidonlordofthebrocean/hedge/internal/vendors"
)

// app holds every long-lived component a subcommand might need. Not every
// field is populated by every subcommand — `hedge score` has no use for
// the alert hub, `hedge serve` has no use for the batch scorer's Config.
type app struct {
	cfg        *config.AppConfig
	dbManager  *db.Manager
	repos      *persistence.Repository
	vendorMgr  *vendors.Manager
	aggregator *portfolio.Aggregator
	scorer     *batch.Scorer
	evaluator  *alerts.Evaluator
	alertHub   *apihttp.AlertHub
}

// buildApp loads configuration and wires every component common to more
// than one subcommand, mirroring the teacher's main.go dependency-wiring
// block.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	configureLogging(cfg.Global.LogLevel)

	dbManager, err := db.NewManager(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	repos := dbManager.Repository()
	if repos == nil {
		return nil, fmt.Errorf("database is disabled; hedge requires a configured database")
	}

	vendorCache := cache.New(cfg.Cache)
	vendorMgr := vendors.NewManager(cfg, vendorCache)

	aggregator := portfolio.New(repos.Portfolios, repos.Holdings, repos.Companies, repos.Scores)

	scorer := batch.New(repos.Companies, repos.Fundamentals, repos.Scores, repos.Runs, batch.Config{
		Workers:        cfg.Scheduler.ScoringWorkers,
		ScoringVersion: cfg.Scheduler.ScoringVersion,
		MaxRunDuration: cfg.Scheduler.MaxRunDuration,
	})

	apihttp.InitializeMetrics()
	alertHub := apihttp.NewAlertHub()
	evaluator := alerts.New(repos.Alerts, repos.Scores, alertHub, cfg.Scheduler.AlertCooldown)

	return &app{
		cfg:        cfg,
		dbManager:  dbManager,
		repos:      repos,
		vendorMgr:  vendorMgr,
		aggregator: aggregator,
		scorer:     scorer,
		evaluator:  evaluator,
		alertHub:   alertHub,
	}, nil
}

// buildScheduler wires the cron dispatcher on top of an already-built app,
// including the market-data and macro refresh jobs when their vendors are
// configured.
func (a *app) buildScheduler() (*scheduler.Scheduler, error) {
	var market scheduler.MarketDataRefresher
	if _, ok := a.cfg.Vendors["market_data"]; ok {
		m, err := vendors.NewMarketDataRefresher(a.vendorMgr, a.cfg.Vendors["market_data"].BaseURL, a.repos.Companies, a.repos.Holdings)
		if err != nil {
			return nil, fmt.Errorf("build market data refresher: %w", err)
		}
		market = m
	}

	var macro scheduler.MacroRefresher
	if _, ok := a.cfg.Vendors["macro"]; ok {
		m, err := vendors.NewMacroRefresher(a.vendorMgr, a.cfg.Vendors["macro"].BaseURL, a.repos.Macro)
		if err != nil {
			return nil, fmt.Errorf("build macro refresher: %w", err)
		}
		macro = m
	}

	return scheduler.New(scheduler.Config{
		ScoringCron:    a.cfg.Scheduler.ScoringCron,
		AlertsCron:     a.cfg.Scheduler.AlertsCron,
		MacroCron:      a.cfg.Scheduler.MacroCron,
		MarketDataCron: a.cfg.Scheduler.MarketDataCron,
		Timezone:       a.cfg.Global.Timezone,
	}, a.scorer, a.evaluator, market, macro)
}

func configureLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
