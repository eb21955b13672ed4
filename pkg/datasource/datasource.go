package datasource

import (
	"context"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// SampleSource defines the interface for collecting rule execution samples
type SampleSource interface {
	GetSamples(ctx context.Context, ruleID string, window time.Duration) ([]models.ExecutionSample, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

type Config struct {
	PrometheusURL string
	Timeout       time.Duration
	Step          time.Duration
}
