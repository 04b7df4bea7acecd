package models

// Sentiment is the polarity assigned to one post title.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Signal is a discrete trading-style recommendation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Urgency grades how time-sensitive a remote analysis considers a post.
// Only the remote strategy fills it in.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// MaxConfidence caps every confidence the pipeline emits. Full certainty is
// never claimed for crowd sentiment.
const MaxConfidence = 0.95

// Analysis is the classification result for one post.
type Analysis struct {
	Sentiment  Sentiment `yaml:"sentiment" json:"sentiment"`
	Confidence float64   `yaml:"confidence" json:"confidence"`
	Signal     Signal    `yaml:"signal" json:"signal"`
	Reason     string    `yaml:"reason" json:"reason"`
	Urgency    Urgency   `yaml:"urgency,omitempty" json:"urgency,omitempty"`
}

// NeutralAnalysis is the defined fallback when no evidence is available:
// classification failures and keyword-free titles both land here.
func NeutralAnalysis(reason string) Analysis {
	return Analysis{
		Sentiment:  SentimentNeutral,
		Confidence: 0.5,
		Signal:     SignalHold,
		Reason:     reason,
	}
}

// ClampConfidence bounds a confidence value to [0, MaxConfidence].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// ValidSignal reports whether s is one of the three enumerated signals.
func ValidSignal(s Signal) bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// ValidSentiment reports whether s is one of the three enumerated polarities.
func ValidSentiment(s Sentiment) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// WeightedAnalysis pairs a post with its analysis and engagement weight inside
// an aggregate.
type WeightedAnalysis struct {
	Post     Post     `yaml:"post" json:"post"`
	Analysis Analysis `yaml:"analysis" json:"analysis"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

// Aggregate is the reduced signal over the analyzed top-N posts.
type Aggregate struct {
	OverallSignal     Signal             `yaml:"overall_signal" json:"overall_signal"`
	OverallConfidence float64            `yaml:"overall_confidence" json:"overall_confidence"`
	Recommendation    string             `yaml:"recommendation" json:"recommendation"`
	Details           []WeightedAnalysis `yaml:"details" json:"details"`
}
