package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
ruleId: rule-1
samples:
  - executionTimeMs: 300
    memoryUsageMb: 60
    status: FAILURE
    timestamp: 2026-01-01T00:10:00Z
  - executionTimeMs: 100
    memoryUsageMb: 40
    cpuPercent: 10
    throughput: 50
    latencyMs: 5
    status: SUCCESS
    timestamp: 2026-01-01T00:00:00Z
  - executionTimeMs: 200
    status: SUCCESS
    timestamp: 2026-01-01T00:05:00Z
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_GetSamples(t *testing.T) {
	src := NewFileSource(writeFile(t, sampleYAML))

	samples, err := src.GetSamples(context.Background(), "rule-1", 0)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, 100.0, samples[0].ExecutionTimeMs, "samples are ordered by timestamp")
	assert.Equal(t, 50.0, samples[0].Throughput)
	assert.Equal(t, 200.0, samples[1].ExecutionTimeMs)
	assert.Equal(t, models.StatusFailure, samples[2].Status)

	ruleID, err := src.RuleID()
	require.NoError(t, err)
	assert.Equal(t, "rule-1", ruleID)
}

func TestFileSource_Window(t *testing.T) {
	src := NewFileSource(writeFile(t, sampleYAML))

	samples, err := src.GetSamples(context.Background(), "rule-1", 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 200.0, samples[0].ExecutionTimeMs)
}

func TestFileSource_RuleMismatch(t *testing.T) {
	src := NewFileSource(writeFile(t, sampleYAML))

	_, err := src.GetSamples(context.Background(), "rule-2", 0)
	assert.Error(t, err)
}

func TestFileSource_BareList(t *testing.T) {
	src := NewFileSource(writeFile(t, `
- executionTimeMs: 120
  status: SUCCESS
  timestamp: 2026-01-01T00:00:00Z
`))

	samples, err := src.GetSamples(context.Background(), "any-rule", 0)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 120.0, samples[0].ExecutionTimeMs)
}

func TestFileSource_EmptyFile(t *testing.T) {
	src := NewFileSource(writeFile(t, ""))

	samples, err := src.GetSamples(context.Background(), "rule-1", 0)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestFileSource_Missing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.False(t, src.IsAvailable(context.Background()))
	_, err := src.GetSamples(context.Background(), "rule-1", 0)
	assert.Error(t, err)
}

func TestFileSource_StatusParsing(t *testing.T) {
	const content = `
- executionTimeMs: 100
  status: success
  timestamp: 2026-01-01T00:00:00Z
- executionTimeMs: 110
  status: Failure
  timestamp: 2026-01-01T00:01:00Z
- executionTimeMs: 120
  timestamp: 2026-01-01T00:02:00Z
- executionTimeMs: 130
  status: " SUCCESS "
  timestamp: 2026-01-01T00:03:00Z
`
	src := NewFileSource(writeFile(t, content))

	samples, err := src.GetSamples(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, models.StatusSuccess, samples[0].Status)
	assert.Equal(t, models.StatusFailure, samples[1].Status)
	assert.Equal(t, models.StatusSuccess, samples[2].Status, "missing status counts as success")
	assert.Equal(t, models.StatusSuccess, samples[3].Status)
	for _, s := range []int{0, 2, 3} {
		assert.True(t, samples[s].Succeeded())
	}
	assert.False(t, samples[1].Succeeded())
}

func TestFileSource_UnknownStatus(t *testing.T) {
	src := NewFileSource(writeFile(t, `
ruleId: rule-1
samples:
  - executionTimeMs: 100
    status: ok
    timestamp: 2026-01-01T00:00:00Z
`))

	_, err := src.GetSamples(context.Background(), "rule-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown execution status "ok"`)
}
