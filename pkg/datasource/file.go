package datasource

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"gopkg.in/yaml.v3"
)

// sampleDocument is the on-disk format read by FileSource. A bare list of
// samples is accepted as well.
type sampleDocument struct {
	RuleID  string                   `yaml:"ruleId"`
	Samples []models.ExecutionSample `yaml:"samples"`
}

// FileSource reads samples from a YAML or JSON file
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// GetSamples loads the file and returns its samples ordered by timestamp.
// A positive window keeps only samples within window of the newest one.
// A document that names a different rule is an error. Status is matched
// case-insensitively and a sample without one counts as a success, as it
// does for PrometheusSource; any other status value is a parse error.
func (f *FileSource) GetSamples(_ context.Context, ruleID string, window time.Duration) ([]models.ExecutionSample, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	doc, err := parseSamples(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	if doc.RuleID != "" && ruleID != "" && doc.RuleID != ruleID {
		return nil, fmt.Errorf("%s holds samples for rule %q, not %q", f.path, doc.RuleID, ruleID)
	}

	samples := doc.Samples
	for i := range samples {
		if samples[i].Status == "" {
			samples[i].Status = models.StatusSuccess
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	if window > 0 && len(samples) > 0 {
		cutoff := samples[len(samples)-1].Timestamp.Add(-window)
		start := sort.Search(len(samples), func(i int) bool {
			return !samples[i].Timestamp.Before(cutoff)
		})
		samples = samples[start:]
	}
	return samples, nil
}

// RuleID returns the rule named in the file, if any
func (f *FileSource) RuleID() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read samples: %w", err)
	}
	doc, err := parseSamples(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return doc.RuleID, nil
}

func parseSamples(data []byte) (sampleDocument, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return sampleDocument{}, err
	}

	var doc sampleDocument
	if len(node.Content) == 0 {
		return doc, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		err := node.Content[0].Decode(&doc.Samples)
		return doc, err
	}
	err := node.Content[0].Decode(&doc)
	return doc, err
}

func (f *FileSource) IsAvailable(_ context.Context) bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *FileSource) Name() string {
	return "File"
}
