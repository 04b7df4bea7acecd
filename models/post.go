package models

import "time"

// Post is one forum listing entry. Posts are created by the extractor and
// immutable afterward.
type Post struct {
	Title        string    `yaml:"title" json:"title"`
	Link         string    `yaml:"link" json:"link"`
	ReadCount    int       `yaml:"read_count" json:"read_count"`
	CommentCount int       `yaml:"comment_count" json:"comment_count"`
	Author       string    `yaml:"author" json:"author"`
	Time         string    `yaml:"time" json:"time"` // raw source text, not parsed
	Page         int       `yaml:"page" json:"page"`
	CrawlTime    time.Time `yaml:"crawl_time" json:"crawl_time"`
}

// Engagement is the ranking key used for top-N selection and weighting.
func (p *Post) Engagement() int {
	return p.ReadCount + p.CommentCount
}

// Weight converts engagement into an analysis weight. Always >= 1 and
// monotonically non-decreasing in engagement.
func (p *Post) Weight() float64 {
	return float64(p.Engagement())/1000.0 + 1.0
}
