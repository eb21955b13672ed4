package datasource

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/sirupsen/logrus"
)

// Series queried per rule. Each is expected to carry a rule_id label.
const (
	SeriesExecutionTime = "rule_execution_time_ms"
	SeriesMemoryUsage   = "rule_memory_usage_mb"
	SeriesCPU           = "rule_cpu_percent"
	SeriesThroughput    = "rule_throughput"
	SeriesLatency       = "rule_latency_ms"
	SeriesSuccess       = "rule_execution_success"
)

// seriesFields maps each numeric series onto the sample field it fills
var seriesFields = []struct {
	name string
	set  func(*models.ExecutionSample, float64)
}{
	{SeriesExecutionTime, func(s *models.ExecutionSample, v float64) { s.ExecutionTimeMs = v }},
	{SeriesMemoryUsage, func(s *models.ExecutionSample, v float64) { s.MemoryUsageMb = v }},
	{SeriesCPU, func(s *models.ExecutionSample, v float64) { s.CPUPercent = v }},
	{SeriesThroughput, func(s *models.ExecutionSample, v float64) { s.Throughput = v }},
	{SeriesLatency, func(s *models.ExecutionSample, v float64) { s.LatencyMs = v }},
}

type PrometheusSource struct {
	client v1.API
	url    string
	step   time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewPrometheusSource(cfg Config, log logrus.FieldLogger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: cfg.PrometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	step := cfg.Step
	if step <= 0 {
		step = time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &PrometheusSource{
		client: v1.NewAPI(client),
		url:    cfg.PrometheusURL,
		step:   step,
		log:    log.WithField("component", "prometheus"),
		now:    time.Now,
	}, nil
}

// GetSamples range-queries every per-rule series over the window ending
// now and joins the points by timestamp. A point with no success value
// counts as a successful run; one with success < 0.5 as a failure.
func (p *PrometheusSource) GetSamples(ctx context.Context, ruleID string, window time.Duration) ([]models.ExecutionSample, error) {
	end := p.now()
	r := v1.Range{Start: end.Add(-window), End: end, Step: p.step}

	byTime := make(map[model.Time]*models.ExecutionSample)
	point := func(ts model.Time) *models.ExecutionSample {
		s, ok := byTime[ts]
		if !ok {
			s = &models.ExecutionSample{Status: models.StatusSuccess, Timestamp: ts.Time().UTC()}
			byTime[ts] = s
		}
		return s
	}

	for _, f := range seriesFields {
		matrix, err := p.queryRange(ctx, seriesQuery(f.name, ruleID), r)
		if err != nil {
			return nil, fmt.Errorf("%s query failed: %w", f.name, err)
		}
		for _, stream := range matrix {
			for _, v := range stream.Values {
				f.set(point(v.Timestamp), float64(v.Value))
			}
		}
	}

	success, err := p.queryRange(ctx, seriesQuery(SeriesSuccess, ruleID), r)
	if err != nil {
		// Status is optional; every run is treated as successful without it
		p.log.WithError(err).Warn("Success series unavailable")
	}
	for _, stream := range success {
		for _, v := range stream.Values {
			if float64(v.Value) < 0.5 {
				point(v.Timestamp).Status = models.StatusFailure
			}
		}
	}

	samples := make([]models.ExecutionSample, 0, len(byTime))
	for _, s := range byTime {
		samples = append(samples, *s)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	p.log.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"samples": len(samples),
	}).Debug("Loaded samples from Prometheus")
	return samples, nil
}

func (p *PrometheusSource) queryRange(ctx context.Context, query string, r v1.Range) (model.Matrix, error) {
	result, warnings, err := p.client.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		p.log.WithField("warnings", warnings).Warn("Prometheus returned warnings")
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for query: %s", result.Type(), query)
	}
	return matrix, nil
}

func seriesQuery(series, ruleID string) string {
	return fmt.Sprintf(`%s{rule_id=%q}`, series, ruleID)
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "vector(1)", p.now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
