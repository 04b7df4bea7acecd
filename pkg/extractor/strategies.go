package extractor

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/wyhuang/guba-signal/models"
)

// unknownAuthor is the placeholder when a strategy cannot recover the author.
const unknownAuthor = "未知"

// Strategy is one independent heuristic over a page's markup. Strategies are
// total: an item they cannot parse yields nothing, never an error.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, page int) []models.Post
}

// site holds what every strategy needs to mint posts: where links resolve to
// and which instrument the listing belongs to.
type site struct {
	baseURL string
	code    string
	now     func() time.Time
}

func (s site) resolveLink(href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	default:
		return s.baseURL + href
	}
}

// validTitle enforces the extraction precondition: non-empty, more than five
// characters. Rune count, not bytes, so CJK titles measure like the source.
func validTitle(title string) bool {
	return title != "" && utf8.RuneCountInString(title) > 5
}

// articleListStrategy parses the canonical container: div#articlelistnew
// holding div.articleh rows with the l1..l5 span layout.
type articleListStrategy struct{ site }

func (articleListStrategy) Name() string { return "article-list" }

func (s articleListStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	var posts []models.Post
	doc.Find("div#articlelistnew div.articleh").Each(func(_ int, item *goquery.Selection) {
		if p, ok := s.parseArticleItem(item, page); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

// articleNodeStrategy scans the whole page for div.articleh rows, catching
// items that drifted out of the canonical container.
type articleNodeStrategy struct{ site }

func (articleNodeStrategy) Name() string { return "article-nodes" }

func (s articleNodeStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	var posts []models.Post
	doc.Find("div.articleh").Each(func(_ int, item *goquery.Selection) {
		if p, ok := s.parseArticleItem(item, page); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

// linkPatternStrategy matches anchors whose href carries the listing's own
// item pattern ("news,{code}"). Engagement metadata is not recoverable here.
type linkPatternStrategy struct{ site }

func (linkPatternStrategy) Name() string { return "link-pattern" }

func (s linkPatternStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	marker := "news," + s.code
	var posts []models.Post
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(a.AttrOr("href", ""), marker) {
			return
		}
		if p, ok := s.parseBareAnchor(a, page); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

// titleBlockStrategy parses generic div.title blocks wrapping an anchor.
type titleBlockStrategy struct{ site }

func (titleBlockStrategy) Name() string { return "title-blocks" }

func (s titleBlockStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	var posts []models.Post
	doc.Find("div.title").Each(func(_ int, div *goquery.Selection) {
		if p, ok := s.parseBareAnchor(div.Find("a").First(), page); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

var titleClassPattern = regexp.MustCompile(`title|l3`)

// titleClassStrategy scans div/span elements whose class merely looks like a
// title container.
type titleClassStrategy struct{ site }

func (titleClassStrategy) Name() string { return "title-class-scan" }

func (s titleClassStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	var posts []models.Post
	doc.Find("div,span").Each(func(_ int, el *goquery.Selection) {
		if !titleClassPattern.MatchString(el.AttrOr("class", "")) {
			return
		}
		if p, ok := s.parseBareAnchor(el.Find("a").First(), page); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

var (
	listItemClassPattern = regexp.MustCompile(`list_item|post_item`)
	readClassPattern     = regexp.MustCompile(`read|click`)
	commentClassPattern  = regexp.MustCompile(`comment|reply`)
	authorClassPattern   = regexp.MustCompile(`author|user`)
	timeClassPattern     = regexp.MustCompile(`time|date`)
)

// listItemStrategy parses li rows from alternate list layouts, recovering
// engagement counts from loosely named span classes.
type listItemStrategy struct{ site }

func (listItemStrategy) Name() string { return "list-items" }

func (s listItemStrategy) Extract(doc *goquery.Document, page int) []models.Post {
	marker := "news," + s.code
	var posts []models.Post
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		if !listItemClassPattern.MatchString(item.AttrOr("class", "")) {
			return
		}
		var link *goquery.Selection
		item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.Contains(a.AttrOr("href", ""), marker) {
				link = a
				return false
			}
			return true
		})
		if link == nil {
			return
		}
		p, ok := s.parseBareAnchor(link, page)
		if !ok {
			return
		}

		p.ReadCount = ParseNumber(spanTextByClass(item, readClassPattern))
		p.CommentCount = ParseNumber(spanTextByClass(item, commentClassPattern))
		if author := strings.TrimSpace(spanTextByClass(item, authorClassPattern)); author != "" {
			p.Author = author
		}
		p.Time = strings.TrimSpace(spanTextByClass(item, timeClassPattern))
		posts = append(posts, p)
	})
	return posts
}

// spanTextByClass returns the text of the first span whose class attribute
// matches the pattern.
func spanTextByClass(sel *goquery.Selection, pattern *regexp.Regexp) string {
	var text string
	sel.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if pattern.MatchString(span.AttrOr("class", "")) {
			text = span.Text()
			return false
		}
		return true
	})
	return text
}

// parseArticleItem decodes one canonical row: l1=read, l2=comment,
// l3=title+link, l4=author, l5=time.
func (s site) parseArticleItem(item *goquery.Selection, page int) (models.Post, bool) {
	titleLink := item.Find("span.l3 a").First()
	if titleLink.Length() == 0 {
		return models.Post{}, false
	}
	title := strings.TrimSpace(titleLink.Text())
	if !validTitle(title) {
		return models.Post{}, false
	}

	author := strings.TrimSpace(item.Find("span.l4").First().Text())
	if author == "" {
		author = unknownAuthor
	}

	return models.Post{
		Title:        title,
		Link:         s.resolveLink(titleLink.AttrOr("href", "")),
		ReadCount:    ParseNumber(item.Find("span.l1").First().Text()),
		CommentCount: ParseNumber(item.Find("span.l2").First().Text()),
		Author:       author,
		Time:         strings.TrimSpace(item.Find("span.l5").First().Text()),
		Page:         page,
		CrawlTime:    s.now(),
	}, true
}

// parseBareAnchor builds a post from a lone anchor: title and link only,
// engagement unknown.
func (s site) parseBareAnchor(a *goquery.Selection, page int) (models.Post, bool) {
	if a == nil || a.Length() == 0 {
		return models.Post{}, false
	}
	title := strings.TrimSpace(a.Text())
	if !validTitle(title) {
		return models.Post{}, false
	}
	return models.Post{
		Title:     title,
		Link:      s.resolveLink(a.AttrOr("href", "")),
		Author:    unknownAuthor,
		Page:      page,
		CrawlTime: s.now(),
	}, true
}
