package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the outcome of a single rule execution
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ParseStatus accepts SUCCESS or FAILURE in any case. An empty string
// parses to the empty Status so callers can apply their own default.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(StatusSuccess):
		return StatusSuccess, nil
	case string(StatusFailure):
		return StatusFailure, nil
	default:
		return "", fmt.Errorf("unknown execution status %q, want SUCCESS or FAILURE", s)
	}
}

func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = parsed
	return nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ExecutionSample represents one historical run of a rule
type ExecutionSample struct {
	ExecutionTimeMs float64   `json:"executionTimeMs" yaml:"executionTimeMs"`
	MemoryUsageMb   float64   `json:"memoryUsageMb" yaml:"memoryUsageMb"`
	CPUPercent      float64   `json:"cpuPercent" yaml:"cpuPercent"`
	Throughput      float64   `json:"throughput" yaml:"throughput"`
	LatencyMs       float64   `json:"latencyMs" yaml:"latencyMs"`
	Status          Status    `json:"status" yaml:"status"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
}

// Succeeded reports whether the run finished successfully
func (s ExecutionSample) Succeeded() bool {
	return s.Status == StatusSuccess
}
