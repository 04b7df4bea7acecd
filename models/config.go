// Package models defines the data structures shared across the pipeline:
// posts, analyses, aggregates, and runtime configuration.
package models

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// CrawlConfig holds runtime configuration for one crawl session. Values come
// from CLI flags with an optional yaml file underneath.
type CrawlConfig struct {
	StockCode  string   `yaml:"stock_code"`
	BaseURL    string   `yaml:"base_url"`
	StartPage  int      `yaml:"start_page"`
	EndPage    int      `yaml:"end_page"`
	MaxRetries int      `yaml:"max_retries"`
	TopN       int      `yaml:"top_n"`
	OutputDir  string   `yaml:"output_dir"`
	Proxies    []string `yaml:"proxies,omitempty"`
}

// DefaultCrawlConfig mirrors the tuned values the crawler was calibrated with.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		BaseURL:    "https://guba.eastmoney.com",
		StartPage:  1,
		EndPage:    3,
		MaxRetries: 5,
		TopN:       10,
		OutputDir:  "results",
	}
}

// LoadCrawlConfig reads a yaml config file over the defaults.
func LoadCrawlConfig(path string) (CrawlConfig, error) {
	cfg := DefaultCrawlConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Env carries environment-sourced settings, most importantly the
// classification-service credential. An empty APIKey disables the remote
// strategy and forces the lexicon fallback.
type Env struct {
	APIKey      string `envconfig:"DEEPSEEK_API_KEY"`
	APIEndpoint string `envconfig:"DEEPSEEK_API_URL" default:"https://api.deepseek.com/v1/chat/completions"`
	Model       string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	DBPath      string `envconfig:"GUBA_DB_PATH"`
}

// LoadEnv resolves Env from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return env, fmt.Errorf("failed to process environment: %w", err)
	}
	return env, nil
}
