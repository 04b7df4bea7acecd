// Package signal folds per-post analyses into one engagement-weighted
// trading signal for a stock.
package signal

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/wyhuang/guba-signal/models"
)

// Aggregator ranks posts by engagement and votes the top slice's analyses
// into an overall signal.
type Aggregator struct {
	topN   int
	logger *slog.Logger
}

func New(topN int, logger *slog.Logger) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{topN: topN, logger: logger}
}

// TopPosts returns the topN most-engaged posts, most engaged first. Ties
// keep their input order.
func (a *Aggregator) TopPosts(posts []models.Post) []models.Post {
	ranked := make([]models.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Engagement() > ranked[j].Engagement()
	})
	if len(ranked) > a.topN {
		ranked = ranked[:a.topN]
	}
	return ranked
}

// Aggregate votes the weighted analyses into an overall signal. Each entry
// contributes confidence times weight to its signal's score; scores are
// normalized to shares of the grand total, and the overall signal is the
// strict winner by share, hold on any tie. No votes or all-zero confidence
// yields a neutral hold.
func (a *Aggregator) Aggregate(details []models.WeightedAnalysis) models.Aggregate {
	scores := map[models.Signal]float64{
		models.SignalBuy:  0,
		models.SignalSell: 0,
		models.SignalHold: 0,
	}
	grandTotal := 0.0
	for _, d := range details {
		score := d.Analysis.Confidence * d.Weight
		scores[d.Analysis.Signal] += score
		grandTotal += score
	}

	if len(details) == 0 || grandTotal == 0 {
		a.logger.Warn("no analyses to aggregate, defaulting to hold")
		return models.Aggregate{
			OverallSignal:     models.SignalHold,
			OverallConfidence: 0.5,
			Recommendation:    recommendation(models.SignalHold, 0.5),
			Details:           details,
		}
	}

	overall := models.SignalHold
	best := scores[models.SignalHold]
	for _, s := range []models.Signal{models.SignalBuy, models.SignalSell} {
		if scores[s] > best {
			overall, best = s, scores[s]
		} else if scores[s] == best && overall != models.SignalHold {
			// Tied leaders cancel out.
			overall = models.SignalHold
		}
	}

	confidence := models.ClampConfidence(best / grandTotal)
	a.logger.Info("aggregated signal",
		"signal", overall,
		"confidence", confidence,
		"posts", len(details),
		"grand_total", grandTotal)

	return models.Aggregate{
		OverallSignal:     overall,
		OverallConfidence: confidence,
		Recommendation:    recommendation(overall, confidence),
		Details:           details,
	}
}

// Run is the full pipeline step: rank, classify via the supplied scoring
// function, weight, aggregate. Details come back most engaged first.
func (a *Aggregator) Run(posts []models.Post, classify func(models.Post) models.Analysis) models.Aggregate {
	top := a.TopPosts(posts)
	details := make([]models.WeightedAnalysis, 0, len(top))
	for _, p := range top {
		details = append(details, models.WeightedAnalysis{
			Post:     p,
			Analysis: classify(p),
			Weight:   p.Weight(),
		})
	}
	return a.Aggregate(details)
}

func recommendation(s models.Signal, confidence float64) string {
	switch s {
	case models.SignalBuy:
		return fmt.Sprintf("Forum sentiment leans bullish (confidence %.0f%%); consider building a position.", confidence*100)
	case models.SignalSell:
		return fmt.Sprintf("Forum sentiment leans bearish (confidence %.0f%%); consider reducing exposure.", confidence*100)
	default:
		return fmt.Sprintf("Forum sentiment is mixed (confidence %.0f%%); wait for a clearer setup.", confidence*100)
	}
}
