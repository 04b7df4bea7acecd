package crawl

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/wyhuang/guba-signal/models"
	"github.com/wyhuang/guba-signal/pkg/db"
	"github.com/wyhuang/guba-signal/pkg/extractor"
	"github.com/wyhuang/guba-signal/pkg/fetcher"
	"github.com/wyhuang/guba-signal/pkg/pacing"
	"github.com/wyhuang/guba-signal/pkg/report"
)

// CrawlAction fetches a stock's forum listing pages, extracts and
// deduplicates posts, records the session in SQLite, and exports a CSV.
func CrawlAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	if config.StockCode == "" {
		return fmt.Errorf("stock code required\nUsage: guba-signal crawl --stock 002594")
	}

	_ = godotenv.Load() // optional .env, absence is fine
	env, err := models.LoadEnv()
	if err != nil {
		logger.Error("failed to load environment", "error", err)
		os.Exit(2)
	}

	database, err := db.Open(env.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	sessionID, err := database.CreateSession(config.StockCode, config.StartPage, config.EndPage)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(2)
	}

	fetchCfg := fetcher.DefaultConfig(config.BaseURL, config.StockCode)
	fetchCfg.MaxRetries = config.MaxRetries
	fetchCfg.Proxies = config.Proxies
	client := fetcher.New(fetchCfg, pacing.New(pacing.DefaultConfig()), logger)
	extract := extractor.New(config.BaseURL, config.StockCode, logger)

	var posts []models.Post
	pagesFetched, pagesFailed := 0, 0
	for page := config.StartPage; page <= config.EndPage; page++ {
		html, err := client.Fetch(client.ListURL(page))
		if err != nil {
			logger.Warn("page fetch failed", "page", page, "error", err)
			pagesFailed++
			continue
		}
		pagesFetched++
		posts = append(posts, extract.ExtractPage(html, page)...)
	}

	if err := database.InsertPosts(sessionID, posts); err != nil {
		logger.Error("failed to store posts", "error", err)
		os.Exit(2)
	}
	if err := database.FinishSession(sessionID, len(posts), pagesFetched, pagesFailed); err != nil {
		logger.Error("failed to finalize session", "error", err)
		os.Exit(2)
	}

	csvPath, err := report.NewWriter(config.OutputDir, logger).WritePosts(config.StockCode, posts)
	if err != nil {
		logger.Error("failed to export posts", "error", err)
		os.Exit(2)
	}

	fmt.Printf("Crawl complete for %s\n", config.StockCode)
	fmt.Printf("  Session:  %d\n", sessionID)
	fmt.Printf("  Pages:    %d fetched, %d failed\n", pagesFetched, pagesFailed)
	fmt.Printf("  Posts:    %d unique\n", len(posts))
	fmt.Printf("  Export:   %s\n", csvPath)
	fmt.Printf("  Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("\nTip: Use 'guba-signal analyze --stock %s' to score this session\n", config.StockCode)

	return nil
}

// loadConfig layers CLI flags over the yaml file over the defaults.
func loadConfig(c *cli.Context) (models.CrawlConfig, error) {
	config := models.DefaultCrawlConfig()
	if c.IsSet("config") {
		loaded, err := models.LoadCrawlConfig(c.String("config"))
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if c.IsSet("stock") {
		config.StockCode = c.String("stock")
	}
	if c.IsSet("start-page") {
		config.StartPage = c.Int("start-page")
	}
	if c.IsSet("end-page") {
		config.EndPage = c.Int("end-page")
	}
	if c.IsSet("output-dir") {
		config.OutputDir = c.String("output-dir")
	}

	if config.StartPage < 1 || config.EndPage < config.StartPage {
		return config, fmt.Errorf("invalid page range %d..%d", config.StartPage, config.EndPage)
	}
	return config, nil
}
