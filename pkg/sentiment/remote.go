package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wyhuang/guba-signal/internal/common"
	"github.com/wyhuang/guba-signal/models"
)

const systemPrompt = "You are a professional stock-market analyst who extracts " +
	"investment signals from forum posts. Posts may be written in Chinese."

// RemoteConfig holds the remote strategy's tuned parameters.
type RemoteConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

func (c *RemoteConfig) applyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Remote classifies titles through an external chat-completions service.
// Results are cached by content hash for the session and written through to
// the optional store; every failure path degrades to a neutral default.
type Remote struct {
	cfg     RemoteConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	store   Store
	sleep   func(time.Duration)

	mu      sync.Mutex
	cache   map[string]models.Analysis
	context map[string]string // title hash -> post body excerpt
}

// NewRemote builds the remote classifier. Calls are rate limited to one per
// second so analysis bursts do not trip the service's own throttling.
func NewRemote(cfg RemoteConfig, store Store, logger *slog.Logger) *Remote {
	cfg.applyDefaults()
	return &Remote{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
		store:   store,
		sleep:   time.Sleep,
		cache:   make(map[string]models.Analysis),
		context: make(map[string]string),
	}
}

// AttachContext registers a post-body excerpt to include in the prompt when
// the given title is classified.
func (r *Remote) AttachContext(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context[common.ContentHash([]byte(title))] = body
}

// Classify scores one title. Cache, then store, then up to MaxRetries remote
// attempts; exhaustion yields the neutral default, never an error.
func (r *Remote) Classify(ctx context.Context, title string) models.Analysis {
	key := common.ContentHash([]byte(title))

	r.mu.Lock()
	if a, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return a
	}
	excerpt := r.context[key]
	r.mu.Unlock()

	if r.store != nil {
		if a, ok, err := r.store.GetAnalysis(key); err == nil && ok {
			r.remember(key, a)
			return a
		}
	}

	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			break // context canceled, no point retrying
		}

		a, err := r.call(ctx, title, excerpt)
		if err != nil {
			r.logger.Warn("remote classification attempt failed",
				"attempt", attempt+1, "error", err)
			if attempt < r.cfg.MaxRetries-1 {
				r.sleep(r.cfg.RetryDelay)
			}
			continue
		}

		r.remember(key, a)
		if r.store != nil {
			if err := r.store.PutAnalysis(key, a); err != nil {
				r.logger.Warn("failed to persist analysis", "error", err)
			}
		}
		return a
	}

	return models.NeutralAnalysis("classification service unavailable, defaulting to neutral")
}

func (r *Remote) remember(key string, a models.Analysis) {
	r.mu.Lock()
	r.cache[key] = a
	r.mu.Unlock()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisWire is the JSON object the service is asked to embed in its reply.
type analysisWire struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
	Signal     string   `json:"signal"`
	Reason     string   `json:"reason"`
	Urgency    string   `json:"urgency"`
}

// call performs one request/parse round trip.
func (r *Remote) call(ctx context.Context, title, excerpt string) (models.Analysis, error) {
	payload, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(title, excerpt)},
		},
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.http.Do(req)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Analysis{}, fmt.Errorf("service returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return models.Analysis{}, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if len(chat.Choices) == 0 {
		return models.Analysis{}, fmt.Errorf("response contained no choices")
	}

	return parseAnalysis(chat.Choices[0].Message.Content)
}

// parseAnalysis locates the first balanced JSON object in the reply text and
// validates it against the Analysis schema. Partial structures are rejected
// rather than trusted.
func parseAnalysis(reply string) (models.Analysis, error) {
	obj, err := firstJSONObject(reply)
	if err != nil {
		return models.Analysis{}, err
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return models.Analysis{}, fmt.Errorf("failed to parse analysis object: %w", err)
	}

	sentiment := models.Sentiment(wire.Sentiment)
	signal := models.Signal(wire.Signal)
	if !models.ValidSentiment(sentiment) {
		return models.Analysis{}, fmt.Errorf("unexpected sentiment %q", wire.Sentiment)
	}
	if !models.ValidSignal(signal) {
		return models.Analysis{}, fmt.Errorf("unexpected signal %q", wire.Signal)
	}
	if wire.Confidence == nil {
		return models.Analysis{}, fmt.Errorf("analysis object missing confidence")
	}

	return models.Analysis{
		Sentiment:  sentiment,
		Confidence: models.ClampConfidence(*wire.Confidence),
		Signal:     signal,
		Reason:     wire.Reason,
		Urgency:    models.Urgency(wire.Urgency),
	}, nil
}

// firstJSONObject scans for the first brace-balanced object, skipping brace
// characters inside JSON strings.
func firstJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("no balanced JSON object in reply")
}

func buildPrompt(title, excerpt string) string {
	var b bytes.Buffer
	b.WriteString("Analyze the sentiment of the following stock forum post and give a trading recommendation.\n\n")
	fmt.Fprintf(&b, "Post title: %q\n", title)
	if excerpt != "" {
		fmt.Fprintf(&b, "\nPost body excerpt:\n%s\n", excerpt)
	}
	b.WriteString(`
Reply with a JSON object in exactly this shape:
{
    "sentiment": "positive/negative/neutral",
    "confidence": 0.0-1.0,
    "signal": "buy/sell/hold",
    "reason": "detailed reasoning",
    "urgency": "high/medium/low"
}

Guidelines:
1. Watch for keywords such as 利好, 利空, 买入, 卖出, 推荐, 谨慎.
2. Judge the strength of the emotion, not just its direction.
3. Ground the recommendation in investment logic.
4. Rate how time-sensitive the information is.`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
