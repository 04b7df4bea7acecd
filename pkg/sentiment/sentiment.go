// Package sentiment scores post titles. Two interchangeable strategies sit
// behind one contract: a deterministic local lexicon that is always
// available, and a remote text-classification call that degrades to a
// neutral default when the service misbehaves. Neither strategy ever
// surfaces an error to the caller.
package sentiment

import (
	"context"
	"log/slog"

	"github.com/wyhuang/guba-signal/models"
)

// Classifier scores one post title. Implementations are total: every input
// maps to a well-formed Analysis.
type Classifier interface {
	Classify(ctx context.Context, title string) models.Analysis
}

// Store persists classification results across sessions, keyed by content
// hash. Implementations live in pkg/db.
type Store interface {
	GetAnalysis(key string) (models.Analysis, bool, error)
	PutAnalysis(key string, a models.Analysis) error
}

// NewClassifier picks the strategy the environment supports: remote when a
// credential is configured, lexicon otherwise.
func NewClassifier(env models.Env, store Store, logger *slog.Logger) Classifier {
	if env.APIKey == "" {
		logger.Info("no classification credential, using lexicon strategy")
		return NewLexicon()
	}
	return NewRemote(RemoteConfig{
		Endpoint: env.APIEndpoint,
		APIKey:   env.APIKey,
		Model:    env.Model,
	}, store, logger)
}
