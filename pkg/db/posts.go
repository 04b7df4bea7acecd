package db

import (
	"fmt"
	"time"

	"github.com/wyhuang/guba-signal/models"
)

// InsertPosts stores a session's posts in one transaction. A title already
// present in the session is ignored rather than duplicated.
func (db *DB) InsertPosts(sessionID int64, posts []models.Post) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO posts
			(session_id, title, link, read_count, comment_count, author, post_time, page, crawl_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range posts {
		if _, err := stmt.Exec(sessionID, p.Title, p.Link, p.ReadCount, p.CommentCount,
			p.Author, p.Time, p.Page, p.CrawlTime.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert post %q: %w", p.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posts: %w", err)
	}
	return nil
}

// GetPosts retrieves a session's posts in insertion order
func (db *DB) GetPosts(sessionID int64) ([]models.Post, error) {
	rows, err := db.Query(`
		SELECT title, link, read_count, comment_count, author, post_time, page, crawl_time
		FROM posts
		WHERE session_id = ?
		ORDER BY post_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var crawlTime string
		if err := rows.Scan(&p.Title, &p.Link, &p.ReadCount, &p.CommentCount,
			&p.Author, &p.Time, &p.Page, &crawlTime); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, crawlTime); err == nil {
			p.CrawlTime = t
		}
		posts = append(posts, p)
	}

	return posts, nil
}
