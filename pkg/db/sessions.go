package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Session represents one crawl run of a stock's forum
type Session struct {
	SessionID    int64
	StockCode    string
	StartPage    int
	EndPage      int
	CreatedAt    time.Time
	PostCount    int
	PagesFetched int
	PagesFailed  int
}

// CreateSession records the start of a crawl run
func (db *DB) CreateSession(stockCode string, startPage, endPage int) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO crawl_sessions (stock_code, start_page, end_page)
		VALUES (?, ?, ?)
	`, stockCode, startPage, endPage)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session ID: %w", err)
	}
	return sessionID, nil
}

// FinishSession records the outcome counters for a crawl run
func (db *DB) FinishSession(sessionID int64, postCount, pagesFetched, pagesFailed int) error {
	_, err := db.Exec(`
		UPDATE crawl_sessions
		SET post_count = ?, pages_fetched = ?, pages_failed = ?
		WHERE session_id = ?
	`, postCount, pagesFetched, pagesFailed, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session stats: %w", err)
	}
	return nil
}

// GetSessionByID retrieves a session by its ID
func (db *DB) GetSessionByID(sessionID int64) (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT session_id, stock_code, start_page, end_page, created_at,
		       post_count, pages_fetched, pages_failed
		FROM crawl_sessions
		WHERE session_id = ?
	`, sessionID).Scan(
		&s.SessionID,
		&s.StockCode,
		&s.StartPage,
		&s.EndPage,
		&s.CreatedAt,
		&s.PostCount,
		&s.PagesFetched,
		&s.PagesFailed,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// LatestSession returns the most recent session for a stock, or nil when the
// stock has never been crawled
func (db *DB) LatestSession(stockCode string) (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT session_id, stock_code, start_page, end_page, created_at,
		       post_count, pages_fetched, pages_failed
		FROM crawl_sessions
		WHERE stock_code = ?
		ORDER BY created_at DESC, session_id DESC
		LIMIT 1
	`, stockCode).Scan(
		&s.SessionID,
		&s.StockCode,
		&s.StartPage,
		&s.EndPage,
		&s.CreatedAt,
		&s.PostCount,
		&s.PagesFetched,
		&s.PagesFailed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return &s, nil
}

// ListSessions retrieves sessions ordered by most recent first
func (db *DB) ListSessions(limit int) ([]Session, error) {
	query := `
		SELECT session_id, stock_code, start_page, end_page, created_at,
		       post_count, pages_fetched, pages_failed
		FROM crawl_sessions
		ORDER BY created_at DESC, session_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionID, &s.StockCode, &s.StartPage, &s.EndPage,
			&s.CreatedAt, &s.PostCount, &s.PagesFetched, &s.PagesFailed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}
