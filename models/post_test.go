package models

import "testing"

func TestPostEngagement(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want int
	}{
		{"reads and comments", Post{ReadCount: 12000, CommentCount: 340}, 12340},
		{"zero activity", Post{}, 0},
		{"comments only", Post{CommentCount: 55}, 55},
	}
	for _, tt := range tests {
		if got := tt.post.Engagement(); got != tt.want {
			t.Errorf("%s: Engagement() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPostWeight(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want float64
	}{
		{"zero engagement floors at one", Post{}, 1.0},
		{"5000 engagement", Post{ReadCount: 4500, CommentCount: 500}, 6.0},
		{"sub-thousand engagement", Post{ReadCount: 500}, 1.5},
	}
	for _, tt := range tests {
		if got := tt.post.Weight(); got != tt.want {
			t.Errorf("%s: Weight() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.5, 0.5},
		{0.95, 0.95},
		{0.99, MaxConfidence},
		{1.5, MaxConfidence},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNeutralAnalysis(t *testing.T) {
	a := NeutralAnalysis("nothing to go on")

	if a.Sentiment != SentimentNeutral || a.Signal != SignalHold {
		t.Errorf("NeutralAnalysis() = %+v, want neutral/hold", a)
	}
	if a.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", a.Confidence)
	}
	if a.Reason != "nothing to go on" {
		t.Errorf("Reason = %q", a.Reason)
	}
}

func TestValidEnums(t *testing.T) {
	for _, s := range []Signal{SignalBuy, SignalSell, SignalHold} {
		if !ValidSignal(s) {
			t.Errorf("ValidSignal(%q) = false", s)
		}
	}
	if ValidSignal("yolo") {
		t.Error("ValidSignal accepted an unknown signal")
	}

	for _, s := range []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral} {
		if !ValidSentiment(s) {
			t.Errorf("ValidSentiment(%q) = false", s)
		}
	}
	if ValidSentiment("euphoric") {
		t.Error("ValidSentiment accepted an unknown sentiment")
	}
}
