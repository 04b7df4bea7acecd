// Package report writes crawl and analysis results to disk. CSV files lead
// with a UTF-8 BOM so spreadsheet tools pick up the Chinese titles.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wyhuang/guba-signal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"title", "link", "read_count", "comment_count",
	"author", "time", "page", "crawl_time",
}

// Writer places result files under a per-run output directory.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, now: time.Now, logger: logger}
}

// WritePosts exports the crawl to guba_data_<code>_<timestamp>.csv and
// returns the file's path.
func (w *Writer) WritePosts(code string, posts []models.Post) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	name := fmt.Sprintf("guba_data_%s_%s.csv", code, w.now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range posts {
		record := []string{
			p.Title,
			p.Link,
			strconv.Itoa(p.ReadCount),
			strconv.Itoa(p.CommentCount),
			p.Author,
			p.Time,
			strconv.Itoa(p.Page),
			p.CrawlTime.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	w.logger.Info("wrote crawl export", "path", path, "posts", len(posts))
	return path, nil
}

// analysisDoc is the on-disk shape of an analysis run.
type analysisDoc struct {
	StockCode      string              `yaml:"stock_code"`
	GeneratedAt    string              `yaml:"generated_at"`
	Signal         models.Signal       `yaml:"signal"`
	Confidence     float64             `yaml:"confidence"`
	Recommendation string              `yaml:"recommendation"`
	Posts          []analysisDocDetail `yaml:"posts"`
}

type analysisDocDetail struct {
	Title      string           `yaml:"title"`
	Engagement int              `yaml:"engagement"`
	Weight     float64          `yaml:"weight"`
	Sentiment  models.Sentiment `yaml:"sentiment"`
	Signal     models.Signal    `yaml:"signal"`
	Confidence float64          `yaml:"confidence"`
	Reason     string           `yaml:"reason,omitempty"`
	Urgency    models.Urgency   `yaml:"urgency,omitempty"`
}

// WriteAnalysis exports the aggregate to guba_analysis_<code>_<timestamp>.yaml
// and returns the file's path.
func (w *Writer) WriteAnalysis(code string, agg models.Aggregate) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	doc := analysisDoc{
		StockCode:      code,
		GeneratedAt:    w.now().Format(time.RFC3339),
		Signal:         agg.OverallSignal,
		Confidence:     agg.OverallConfidence,
		Recommendation: agg.Recommendation,
	}
	for _, d := range agg.Details {
		doc.Posts = append(doc.Posts, analysisDocDetail{
			Title:      d.Post.Title,
			Engagement: d.Post.Engagement(),
			Weight:     d.Weight,
			Sentiment:  d.Analysis.Sentiment,
			Signal:     d.Analysis.Signal,
			Confidence: d.Analysis.Confidence,
			Reason:     d.Analysis.Reason,
			Urgency:    d.Analysis.Urgency,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	name := fmt.Sprintf("guba_analysis_%s_%s.yaml", code, w.now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger.Info("wrote analysis report", "path", path, "signal", agg.OverallSignal)
	return path, nil
}
