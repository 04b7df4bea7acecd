// Package fetcher issues paced, identity-rotating page requests against an
// anti-bot-protected listing source. Every response is classified as usable,
// blocked, or invalid before the caller sees it; partial or garbled markup is
// never returned as success.
package fetcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wyhuang/guba-signal/pkg/pacing"
)

// Sentinel causes recorded against the final attempt. All attempt failures
// are identical at the retry boundary; these only surface inside the wrapped
// exhaustion error.
var (
	ErrBlocked        = errors.New("blocked by anti-automation defenses")
	ErrInvalidContent = errors.New("response lacks expected content markers")
)

// defaultUserAgents is the rotating browser fingerprint pool.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
}

// defaultBlockedMarkers flag challenge and denial pages. ASCII markers are
// compared case-insensitively.
var defaultBlockedMarkers = []string{
	"access denied", "forbidden", "challenge", "验证", "反爬虫",
}

// Config holds the tuned fetch parameters. Thresholds are empirical values
// carried as configuration.
type Config struct {
	BaseURL    string
	StockCode  string
	MaxRetries int
	Timeout    time.Duration
	UserAgents []string
	Proxies    []string

	// MinBlockedLength: bodies shorter than this are treated as blocked.
	// MinValidLength: bodies longer than this pass validity on size alone.
	MinBlockedLength int
	MinValidLength   int
}

// DefaultConfig returns the calibrated fetch parameters for a stock code.
func DefaultConfig(baseURL, stockCode string) Config {
	return Config{
		BaseURL:          baseURL,
		StockCode:        stockCode,
		MaxRetries:       5,
		Timeout:          15 * time.Second,
		UserAgents:       defaultUserAgents,
		MinBlockedLength: 3000,
		MinValidLength:   5000,
	}
}

// ResponseClass is the outcome of response triage.
type ResponseClass int

const (
	ClassUsable ResponseClass = iota
	ClassBlocked
	ClassInvalid
)

// Client fetches listing pages for one crawl session. Not safe for concurrent
// use; the pacer it owns assumes a single sequential caller.
type Client struct {
	cfg    Config
	pacer  *pacing.Pacer
	logger *slog.Logger
	rand   *rand.Rand

	// base transport-level client, proxy-less. Proxied attempts build their
	// own client around the rotated proxy.
	http *http.Client
}

// New returns a Client gated by the given pacer.
func New(cfg Config, pacer *pacing.Pacer, logger *slog.Logger) *Client {
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	return &Client{
		cfg:    cfg,
		pacer:  pacer,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// ListURL builds the listing URL for a page index. Page 1 has no suffix.
func (c *Client) ListURL(page int) string {
	if page <= 1 {
		return fmt.Sprintf("%s/list,%s.html", c.cfg.BaseURL, c.cfg.StockCode)
	}
	return fmt.Sprintf("%s/list,%s_%d.html", c.cfg.BaseURL, c.cfg.StockCode, page)
}

// Fetch retrieves one page's markup, retrying up to MaxRetries. Transport
// errors, blocked responses, and invalid content are all equal at this
// boundary; only the final outcome is observable. A failed page is not fatal
// to the crawl, only to this call.
func (c *Client) Fetch(rawURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		c.pacer.Wait()

		req, err := c.buildRequest(rawURL, attempt)
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.clientForAttempt().Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("request failed", "url", rawURL, "attempt", attempt+1, "error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			c.logger.Warn("failed to read body", "url", rawURL, "attempt", attempt+1, "error", err)
			continue
		}

		switch c.Classify(resp.StatusCode, string(body)) {
		case ClassBlocked:
			lastErr = ErrBlocked
			c.logger.Warn("blocked response discarded",
				"url", rawURL, "attempt", attempt+1, "status", resp.StatusCode, "bytes", len(body))
			continue
		case ClassInvalid:
			lastErr = ErrInvalidContent
			c.logger.Warn("invalid content discarded",
				"url", rawURL, "attempt", attempt+1, "bytes", len(body))
			continue
		}

		return string(body), nil
	}

	return "", fmt.Errorf("fetch failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// Classify triages a response. Blocked outranks invalid: a challenge page may
// well contain none of the expected markers either.
func (c *Client) Classify(status int, body string) ResponseClass {
	lower := strings.ToLower(body)

	if status == http.StatusForbidden || status == http.StatusTooManyRequests {
		return ClassBlocked
	}
	for _, marker := range defaultBlockedMarkers {
		if strings.Contains(lower, marker) {
			return ClassBlocked
		}
	}
	if len(body) < c.cfg.MinBlockedLength {
		return ClassBlocked
	}

	valid := strings.Contains(body, "articlelistnew") ||
		strings.Contains(body, "articleh") ||
		strings.Contains(body, c.cfg.StockCode) ||
		len(body) > c.cfg.MinValidLength
	if !valid {
		return ClassInvalid
	}

	return ClassUsable
}

var pageSuffixPattern = regexp.MustCompile(`_(\d+)\.html`)

// buildRequest assembles one attempt's request with a freshly rotated
// identity. Retries rewrite the referrer to look like navigation from the
// previous page.
func (c *Client) buildRequest(rawURL string, attempt int) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	h := req.Header
	h.Set("User-Agent", c.cfg.UserAgents[c.rand.Intn(len(c.cfg.UserAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Cache-Control", "max-age=0")
	h.Set("Referer", c.referer(rawURL, attempt))
	h.Set("X-Forwarded-For", c.spoofedAddr())

	return req, nil
}

// referer is the site front page on first attempts; retries reference the
// previous listing page instead.
func (c *Client) referer(rawURL string, attempt int) string {
	if attempt > 0 {
		if m := pageSuffixPattern.FindStringSubmatch(rawURL); m != nil {
			prev := 1
			if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
				prev = n - 1
			}
			return fmt.Sprintf("%s/list,%s_%d.html", c.cfg.BaseURL, c.cfg.StockCode, prev)
		}
	}
	return "https://www.eastmoney.com/"
}

func (c *Client) spoofedAddr() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		c.rand.Intn(255)+1, c.rand.Intn(255)+1, c.rand.Intn(255)+1, c.rand.Intn(255)+1)
}

// clientForAttempt rotates through the proxy pool when one is configured.
func (c *Client) clientForAttempt() *http.Client {
	if len(c.cfg.Proxies) == 0 {
		return c.http
	}
	proxy := c.cfg.Proxies[c.rand.Intn(len(c.cfg.Proxies))]
	parsed, err := url.Parse(proxy)
	if err != nil {
		c.logger.Warn("invalid proxy skipped", "proxy", proxy, "error", err)
		return c.http
	}
	return &http.Client{
		Timeout:   c.cfg.Timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
	}
}
