package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/wyhuang/guba-signal/models"
)

// Keyword sets the lexicon was calibrated with. A keyword counts once per
// title, regardless of repetition.
var (
	positiveZH = []string{
		"看好", "推荐", "买入", "增长", "利好", "突破", "大涨",
		"持有", "加仓", "创新高", "超预期", "牛股", "暴涨",
	}
	negativeZH = []string{
		"卖出", "下跌", "利空", "谨慎", "观望", "调整", "风险",
		"亏损", "减持", "破位", "回调", "暴跌", "割肉", "跑路",
	}
	positiveEN = []string{
		"bullish", "buy", "upside", "rally", "surge", "breakout",
		"growth", "beat", "upgrade", "accumulate",
	}
	negativeEN = []string{
		"bearish", "sell", "downside", "drop", "risk", "plunge",
		"loss", "downgrade", "crash", "caution",
	}
)

// signalThreshold: buy/sell is only called above this confidence, otherwise
// the lexicon stays at hold.
const signalThreshold = 0.7

// Lexicon is the deterministic local strategy. Identical titles always yield
// identical analyses.
type Lexicon struct {
	detector lingua.LanguageDetector
}

// NewLexicon builds the lexicon classifier with a Chinese/English language
// detector for keyword-set selection.
func NewLexicon() *Lexicon {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Chinese, lingua.English).
		Build()
	return &Lexicon{detector: detector}
}

// Classify counts keyword hits in the title. The dominant polarity's share of
// total hits becomes the confidence, capped below full certainty.
func (l *Lexicon) Classify(_ context.Context, title string) models.Analysis {
	pos, neg := l.countHits(title)
	total := pos + neg

	switch {
	case total == 0:
		return models.NeutralAnalysis("no sentiment keywords detected")
	case pos > neg:
		confidence := models.ClampConfidence(float64(pos) / float64(total))
		signal := models.SignalHold
		if confidence > signalThreshold {
			signal = models.SignalBuy
		}
		return models.Analysis{
			Sentiment:  models.SentimentPositive,
			Confidence: confidence,
			Signal:     signal,
			Reason:     fmt.Sprintf("detected %d bullish keywords, mood leans optimistic", pos),
		}
	case neg > pos:
		confidence := models.ClampConfidence(float64(neg) / float64(total))
		signal := models.SignalHold
		if confidence > signalThreshold {
			signal = models.SignalSell
		}
		return models.Analysis{
			Sentiment:  models.SentimentNegative,
			Confidence: confidence,
			Signal:     signal,
			Reason:     fmt.Sprintf("detected %d bearish keywords, mood leans pessimistic", neg),
		}
	default:
		return models.NeutralAnalysis("bullish and bearish keywords balance out")
	}
}

// countHits counts keyword presence against the title's detected language,
// falling through to the other language's sets when the primary finds
// nothing. Detection can therefore never suppress keyword evidence.
func (l *Lexicon) countHits(title string) (pos, neg int) {
	lower := strings.ToLower(title)

	primaryPos, primaryNeg := positiveZH, negativeZH
	altPos, altNeg := positiveEN, negativeEN
	if lang, ok := l.detector.DetectLanguageOf(title); ok && lang == lingua.English {
		primaryPos, primaryNeg = positiveEN, negativeEN
		altPos, altNeg = positiveZH, negativeZH
	}

	pos, neg = hits(lower, primaryPos), hits(lower, primaryNeg)
	if pos+neg == 0 {
		pos, neg = hits(lower, altPos), hits(lower, altNeg)
	}
	return pos, neg
}

func hits(title string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			n++
		}
	}
	return n
}
