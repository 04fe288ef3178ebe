package handlers

import (
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

func factorScores(s domain.SurvivalScore) wire.FactorScores {
	out := make(wire.FactorScores, len(domain.AllFactors))
	for _, f := range domain.AllFactors {
		v, _ := s.Factor(f).Float64()
		out[string(f)] = v
	}
	return out
}

func companyRecord(c domain.Company, score *domain.SurvivalScore) wire.CompanyRecord {
	marketCap, _ := c.MarketCap.Float64()
	rec := wire.CompanyRecord{
		Ticker:    c.Ticker,
		Name:      c.Name,
		Sector:    c.Sector,
		Industry:  c.Industry,
		MarketCap: marketCap,
		Exchange:  c.Exchange,
		Country:   c.Country,
	}
	if score != nil {
		total, _ := score.TotalScore.Float64()
		rec.LatestScore = &total
		rec.Tier = string(score.Tier)
		d := score.ScoreDate
		rec.ScoreDate = &d
	}
	return rec
}

func scoreRecord(s domain.SurvivalScore) wire.ScoreRecord {
	total, _ := s.TotalScore.Float64()
	confidence, _ := s.Confidence.Float64()
	gradual, _ := s.ScenarioGradual.Float64()
	rapid, _ := s.ScenarioRapid.Float64()
	hyper, _ := s.ScenarioHyper.Float64()

	rec := wire.ScoreRecord{
		ScoreDate:      s.ScoreDate,
		TotalScore:     total,
		Confidence:     confidence,
		Tier:           string(s.Tier),
		Factors:        factorScores(s),
		ScoringVersion: s.ScoringVersion,
	}
	rec.Scenarios.Gradual = gradual
	rec.Scenarios.Rapid = rapid
	rec.Scenarios.Hyper = hyper
	return rec
}
