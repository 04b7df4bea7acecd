package db

import (
	"database/sql"
	"fmt"

	"github.com/wyhuang/guba-signal/models"
)

// GetAnalysis looks up a cached classification by content hash
func (db *DB) GetAnalysis(key string) (models.Analysis, bool, error) {
	var a models.Analysis
	var reason, urgency sql.NullString
	err := db.QueryRow(`
		SELECT sentiment, confidence, signal, reason, urgency
		FROM analysis_cache
		WHERE content_hash = ?
	`, key).Scan(&a.Sentiment, &a.Confidence, &a.Signal, &reason, &urgency)
	if err == sql.ErrNoRows {
		return models.Analysis{}, false, nil
	}
	if err != nil {
		return models.Analysis{}, false, fmt.Errorf("failed to get analysis: %w", err)
	}
	if reason.Valid {
		a.Reason = reason.String
	}
	if urgency.Valid {
		a.Urgency = models.Urgency(urgency.String)
	}
	return a, true, nil
}

// PutAnalysis stores a classification, replacing any previous entry for the
// same content hash
func (db *DB) PutAnalysis(key string, a models.Analysis) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO analysis_cache (content_hash, sentiment, confidence, signal, reason, urgency)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key, string(a.Sentiment), a.Confidence, string(a.Signal), a.Reason, string(a.Urgency))
	if err != nil {
		return fmt.Errorf("failed to put analysis: %w", err)
	}
	return nil
}

// PurgeAnalyses clears the classification cache and reports how many entries
// were removed
func (db *DB) PurgeAnalyses() (int64, error) {
	result, err := db.Exec("DELETE FROM analysis_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to purge analyses: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged analyses: %w", err)
	}
	return n, nil
}
