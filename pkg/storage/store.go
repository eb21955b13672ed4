package storage

import (
	"context"
	"errors"

	"github.com/opscart/rule-score-analyzer/pkg/cache"
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// ErrNotFound is returned when a stored row does not exist
var ErrNotFound = errors.New("not found")

// Store defines the interface for persistent storage of baselines and
// analysis history
type Store interface {
	cache.BaselineStore

	SaveResult(ctx context.Context, result *models.AnalysisResult) (string, error)
	GetResult(ctx context.Context, id string) (*models.AnalysisResult, error)
	ListResults(ctx context.Context, ruleID string, limit int) ([]*models.AnalysisResult, error)

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}
