package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/wyhuang/guba-signal/models"
	"github.com/wyhuang/guba-signal/pkg/db"
	"github.com/wyhuang/guba-signal/pkg/enrich"
	"github.com/wyhuang/guba-signal/pkg/fetcher"
	"github.com/wyhuang/guba-signal/pkg/pacing"
	"github.com/wyhuang/guba-signal/pkg/report"
	"github.com/wyhuang/guba-signal/pkg/sentiment"
	"github.com/wyhuang/guba-signal/pkg/signal"
)

// AnalyzeAction classifies a crawl session's posts and folds them into one
// engagement-weighted trading signal.
func AnalyzeAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	_ = godotenv.Load()
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

	session, err := resolveSession(c, database)
	if err != nil {
		return err
	}

	posts, err := database.GetPosts(session.SessionID)
	if err != nil {
		logger.Error("failed to load posts", "error", err, "session_id", session.SessionID)
		os.Exit(2)
	}
	if len(posts) == 0 {
		fmt.Printf("Session %d has no posts to analyze\n", session.SessionID)
		return nil
	}

	classifier := sentiment.NewClassifier(env, database, logger)

	topN := c.Int("top")
	if topN <= 0 {
		topN = models.DefaultCrawlConfig().TopN
	}
	aggregator := signal.New(topN, logger)

	if c.Bool("with-content") {
		attachBodies(classifier, aggregator.TopPosts(posts), session.StockCode, logger)
	}

	ctx := context.Background()
	agg := aggregator.Run(posts, func(p models.Post) models.Analysis {
		return classifier.Classify(ctx, p.Title)
	})

	printAggregate(session, agg)

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = models.DefaultCrawlConfig().OutputDir
	}
	path, err := report.NewWriter(outputDir, logger).WriteAnalysis(session.StockCode, agg)
	if err != nil {
		logger.Error("failed to write analysis report", "error", err)
		os.Exit(2)
	}
	fmt.Printf("\nReport: %s\n", path)

	return nil
}

// resolveSession picks the session to analyze: --session by ID, otherwise the
// stock's most recent crawl.
func resolveSession(c *cli.Context, database *db.DB) (*db.Session, error) {
	if c.IsSet("session") {
		return database.GetSessionByID(int64(c.Int("session")))
	}

	stock := c.String("stock")
	if stock == "" {
		return nil, fmt.Errorf("session or stock required\nUsage: guba-signal analyze --stock 002594 OR guba-signal analyze --session 3")
	}
	session, err := database.LatestSession(stock)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("no crawl sessions for stock %s\nRun 'guba-signal crawl --stock %s' first", stock, stock)
	}
	return session, nil
}

// attachBodies fetches each top post's page and hands its distilled body to
// the remote classifier. The lexicon strategy scores titles only, so anything
// else is a no-op.
func attachBodies(classifier sentiment.Classifier, top []models.Post, stockCode string, logger *slog.Logger) {
	remote, ok := classifier.(*sentiment.Remote)
	if !ok {
		logger.Info("post bodies only enrich the remote strategy, skipping")
		return
	}

	client := fetcher.New(
		fetcher.DefaultConfig("https://guba.eastmoney.com", stockCode),
		pacing.New(pacing.DefaultConfig()),
		logger,
	)
	enricher := enrich.New(client, logger)

	for _, p := range top {
		body, err := enricher.BodyExcerpt(p.Link)
		if err != nil {
			logger.Warn("failed to enrich post", "title", p.Title, "error", err)
			continue
		}
		remote.AttachContext(p.Title, body)
	}
}

func printAggregate(session *db.Session, agg models.Aggregate) {
	fmt.Printf("Analysis for %s (session %d)\n", session.StockCode, session.SessionID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Signal:         %s\n", strings.ToUpper(string(agg.OverallSignal)))
	fmt.Printf("Confidence:     %.0f%%\n", agg.OverallConfidence*100)
	fmt.Printf("Recommendation: %s\n", agg.Recommendation)

	fmt.Printf("\nTop posts (%d):\n", len(agg.Details))
	fmt.Println(strings.Repeat("-", 60))
	for i, d := range agg.Details {
		fmt.Printf("%2d. [%s %.2f] %s\n", i+1, d.Analysis.Signal, d.Analysis.Confidence, d.Post.Title)
		fmt.Printf("    engagement: %d | weight: %.2f | %s\n",
			d.Post.Engagement(), d.Weight, d.Analysis.Sentiment)
		if d.Analysis.Reason != "" {
			fmt.Printf("    %s\n", d.Analysis.Reason)
		}
	}
}
