package extractor

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	testBase = "https://guba.eastmoney.com"
	testCode = "002594"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const canonicalMarkup = `
<html><body>
<div id="articlelistnew">
  <div class="articleh">
    <span class="l1">1.2万</span>
    <span class="l2">345</span>
    <span class="l3"><a href="/news,002594,100001.html">比亚迪销量创新高，股价有望突破</a></span>
    <span class="l4">价值投资者</span>
    <span class="l5">11-20 09:31</span>
  </div>
  <div class="articleh">
    <span class="l1">888</span>
    <span class="l2">12</span>
    <span class="l3"><a href="//guba.eastmoney.com/news,002594,100002.html">今天这个走势大家怎么看啊</a></span>
    <span class="l4"></span>
    <span class="l5">11-20 09:40</span>
  </div>
  <div class="articleh">
    <span class="l3"><a href="/news,002594,100003.html">短标题</a></span>
  </div>
</div>
</body></html>`

func TestExtractPage_CanonicalContainer(t *testing.T) {
	e := New(testBase, testCode, testLogger())
	posts := e.ExtractPage(canonicalMarkup, 1)

	if len(posts) != 2 {
		t.Fatalf("ExtractPage() returned %d posts, want 2 (short title rejected)", len(posts))
	}

	first := posts[0]
	if first.Title != "比亚迪销量创新高，股价有望突破" {
		t.Errorf("first.Title = %q", first.Title)
	}
	if first.ReadCount != 12000 {
		t.Errorf("first.ReadCount = %d, want 12000", first.ReadCount)
	}
	if first.CommentCount != 345 {
		t.Errorf("first.CommentCount = %d, want 345", first.CommentCount)
	}
	if first.Author != "价值投资者" {
		t.Errorf("first.Author = %q", first.Author)
	}
	if first.Link != testBase+"/news,002594,100001.html" {
		t.Errorf("first.Link = %q, relative href not resolved", first.Link)
	}
	if first.Page != 1 {
		t.Errorf("first.Page = %d, want 1", first.Page)
	}

	second := posts[1]
	if second.Author != unknownAuthor {
		t.Errorf("second.Author = %q, want placeholder for empty span", second.Author)
	}
	if second.Link != "https://guba.eastmoney.com/news,002594,100002.html" {
		t.Errorf("second.Link = %q, protocol-relative href not resolved", second.Link)
	}
}

func TestExtractPage_Idempotent(t *testing.T) {
	a := New(testBase, testCode, testLogger()).ExtractPage(canonicalMarkup, 1)
	b := New(testBase, testCode, testLogger()).ExtractPage(canonicalMarkup, 1)

	if len(a) != len(b) {
		t.Fatalf("fresh extractions differ in size: %d vs %d", len(a), len(b))
	}
	for i := range a {
		// CrawlTime differs by construction; compare identity fields.
		if a[i].Title != b[i].Title || a[i].Link != b[i].Link ||
			a[i].ReadCount != b[i].ReadCount || a[i].CommentCount != b[i].CommentCount {
			t.Errorf("post %d differs between fresh extractions: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExtractPage_SessionSeenFilter(t *testing.T) {
	e := New(testBase, testCode, testLogger())

	first := e.ExtractPage(canonicalMarkup, 1)
	second := e.ExtractPage(canonicalMarkup, 1)

	if len(first) == 0 {
		t.Fatal("first extraction returned no posts")
	}
	if len(second) != 0 {
		t.Errorf("second extraction returned %d posts, want 0 (titles already seen)", len(second))
	}
	if e.SeenCount() != len(first) {
		t.Errorf("SeenCount() = %d, want %d", e.SeenCount(), len(first))
	}
}

func TestExtractPage_FallbackAnchorOnly(t *testing.T) {
	// No canonical container, no articleh rows: only the link-pattern
	// strategy can claim the single item.
	markup := `
<html><body>
  <div class="content">
    <a href="/news,002594,200001.html">主力资金大幅流入，后市可期</a>
    <a href="/news,600000,999999.html">别的股票的帖子标题在这里</a>
  </div>
</body></html>`

	e := New(testBase, testCode, testLogger())
	posts := e.ExtractPage(markup, 2)

	if len(posts) != 1 {
		t.Fatalf("ExtractPage() returned %d posts, want exactly 1 from fallback", len(posts))
	}
	if posts[0].Title != "主力资金大幅流入，后市可期" {
		t.Errorf("Title = %q", posts[0].Title)
	}
	if posts[0].ReadCount != 0 || posts[0].CommentCount != 0 {
		t.Errorf("fallback post engagement = %d/%d, want 0/0",
			posts[0].ReadCount, posts[0].CommentCount)
	}
}

func TestExtractPage_FirstClaimWins(t *testing.T) {
	// The same title appears in the canonical container (with counts) and as
	// a bare anchor. The canonical version must be authoritative.
	markup := `
<html><body>
<div id="articlelistnew">
  <div class="articleh">
    <span class="l1">5000</span><span class="l2">100</span>
    <span class="l3"><a href="/news,002594,300001.html">年报超预期，机构集体唱多</a></span>
    <span class="l4">老股民</span><span class="l5">今天 10:00</span>
  </div>
</div>
<div class="title"><a href="/news,002594,300001.html">年报超预期，机构集体唱多</a></div>
</body></html>`

	e := New(testBase, testCode, testLogger())
	posts := e.ExtractPage(markup, 1)

	if len(posts) != 1 {
		t.Fatalf("ExtractPage() returned %d posts, want 1", len(posts))
	}
	if posts[0].ReadCount != 5000 {
		t.Errorf("ReadCount = %d, want 5000 (canonical strategy must win the title)",
			posts[0].ReadCount)
	}
}

func TestListItemStrategy(t *testing.T) {
	// Exercised directly: inside the cascade the link-pattern strategy
	// outranks it and claims the same titles first.
	markup := `
<html><body>
<ul>
  <li class="post_item">
    <a href="/news,002594,400001.html">三季度业绩说明会纪要分享</a>
    <span class="read_count">3万</span>
    <span class="reply_num">56</span>
    <span class="author_name">研报搬运工</span>
    <span class="post_time">11-19 22:10</span>
  </li>
  <li class="other">
    <a href="/news,002594,400002.html">不在列表项类名里的标题</a>
  </li>
</ul>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	s := listItemStrategy{site{baseURL: testBase, code: testCode, now: time.Now}}
	posts := s.Extract(doc, 3)

	if len(posts) != 1 {
		t.Fatalf("Extract() returned %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.ReadCount != 30000 {
		t.Errorf("ReadCount = %d, want 30000", p.ReadCount)
	}
	if p.CommentCount != 56 {
		t.Errorf("CommentCount = %d, want 56", p.CommentCount)
	}
	if p.Author != "研报搬运工" {
		t.Errorf("Author = %q", p.Author)
	}
	if p.Time != "11-19 22:10" {
		t.Errorf("Time = %q", p.Time)
	}
}

func TestExtractPage_GarbageMarkup(t *testing.T) {
	e := New(testBase, testCode, testLogger())
	if posts := e.ExtractPage("not html at all <<<>>>", 1); len(posts) != 0 {
		t.Errorf("ExtractPage() on garbage = %d posts, want 0", len(posts))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1.2万", 12000},
		{"3亿", 300000000},
		{"", 0},
		{"abc", 0},
		{"345", 345},
		{" 888 ", 888},
		{"阅读 2.5万 次", 25000},
		{"0.5亿", 50000000},
		{"12.0万", 120000},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber_NeverNegative(t *testing.T) {
	for _, in := range []string{"-5", "减持-3万", "0"} {
		if got := ParseNumber(in); got < 0 {
			t.Errorf("ParseNumber(%q) = %d, want non-negative", in, got)
		}
	}
}

func TestStrategyOrderIsStable(t *testing.T) {
	e := New(testBase, testCode, testLogger())
	var names []string
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	want := []string{
		"article-list", "article-nodes", "link-pattern",
		"title-blocks", "title-class-scan", "list-items",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("cascade order = %v, want %v", names, want)
	}
}
