package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wyhuang/guba-signal/models"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	}
	return w
}

func TestWritePosts(t *testing.T) {
	w := testWriter(t)
	crawled := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{
			Title: "比亚迪销量创新高，利好", Link: "https://guba.eastmoney.com/news,002594,1.html",
			ReadCount: 12000, CommentCount: 340, Author: "老股民",
			Time: "03-15 08:55", Page: 1, CrawlTime: crawled,
		},
		{
			Title: "观望一下再说", Link: "https://guba.eastmoney.com/news,002594,2.html",
			ReadCount: 88, CommentCount: 3, Author: "未知",
			Time: "03-15 08:40", Page: 1, CrawlTime: crawled,
		},
	}

	path, err := w.WritePosts("002594", posts)
	if err != nil {
		t.Fatalf("WritePosts() error = %v", err)
	}
	if !strings.HasSuffix(path, "guba_data_002594_20260315_093000.csv") {
		t.Errorf("path = %s, want timestamped guba_data csv", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("export does not start with a UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want header + 2 rows", len(records))
	}
	wantHeader := "title,link,read_count,comment_count,author,time,page,crawl_time"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Errorf("header = %s, want %s", got, wantHeader)
	}
	if records[1][0] != "比亚迪销量创新高，利好" || records[1][2] != "12000" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][4] != "未知" {
		t.Errorf("row 2 author = %s, want 未知", records[2][4])
	}
}

func TestWritePosts_EmptyCrawlStillExportsHeader(t *testing.T) {
	w := testWriter(t)
	path, err := w.WritePosts("600519", nil)
	if err != nil {
		t.Fatalf("WritePosts() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), "title,link") {
		t.Error("header missing from empty export")
	}
}

func TestWriteAnalysis(t *testing.T) {
	w := testWriter(t)
	agg := models.Aggregate{
		OverallSignal:     models.SignalBuy,
		OverallConfidence: 0.82,
		Recommendation:    "Forum sentiment leans bullish (confidence 82%); consider building a position.",
		Details: []models.WeightedAnalysis{
			{
				Post:     models.Post{Title: "重磅利好", ReadCount: 4500, CommentCount: 500},
				Analysis: models.Analysis{Sentiment: models.SentimentPositive, Confidence: 0.9, Signal: models.SignalBuy, Reason: "strong demand"},
				Weight:   6.0,
			},
		},
	}

	path, err := w.WriteAnalysis("002594", agg)
	if err != nil {
		t.Fatalf("WriteAnalysis() error = %v", err)
	}
	if !strings.HasSuffix(path, "guba_analysis_002594_20260315_093000.yaml") {
		t.Errorf("path = %s, want timestamped guba_analysis yaml", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var doc struct {
		StockCode  string  `yaml:"stock_code"`
		Signal     string  `yaml:"signal"`
		Confidence float64 `yaml:"confidence"`
		Posts      []struct {
			Title      string  `yaml:"title"`
			Engagement int     `yaml:"engagement"`
			Weight     float64 `yaml:"weight"`
		} `yaml:"posts"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if doc.StockCode != "002594" || doc.Signal != "buy" || doc.Confidence != 0.82 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Posts) != 1 || doc.Posts[0].Engagement != 5000 || doc.Posts[0].Weight != 6.0 {
		t.Errorf("posts = %+v", doc.Posts)
	}
}
