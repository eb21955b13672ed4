package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 25))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: cfg.URL,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// migrate runs database migrations
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Get loads the baseline of ruleID
func (s *PostgresStore) Get(ctx context.Context, ruleID string) (*models.Baseline, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM baselines WHERE rule_id = $1`, ruleID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	b, err := decodeBaseline(data)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// PutIfAbsent inserts b unless a row for ruleID exists, then returns
// whichever baseline is stored
func (s *PostgresStore) PutIfAbsent(ctx context.Context, ruleID string, b *models.Baseline) (*models.Baseline, bool, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode baseline: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO baselines (rule_id, sample_count, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rule_id) DO NOTHING
	`, ruleID, b.SampleCount, data, b.CreatedAt)
	if err != nil {
		return nil, false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if inserted == 1 {
		return b, true, nil
	}

	stored, ok, err := s.Get(ctx, ruleID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// Deleted between the insert and the read
		return b, false, nil
	}
	return stored, false, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ruleID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM baselines WHERE rule_id = $1`, ruleID)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM baselines`)
	return err
}

// SaveResult stores an analysis and returns the row id. Saving the same
// analysis twice creates two history rows sharing a fingerprint.
func (s *PostgresStore) SaveResult(ctx context.Context, result *models.AnalysisResult) (string, error) {
	id := uuid.New().String()

	fingerprint, err := uuid.Parse(result.ID)
	if err != nil {
		return "", fmt.Errorf("invalid result id %q: %w", result.ID, err)
	}

	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return "", fmt.Errorf("failed to encode insights: %w", err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		INSERT INTO analysis_results (
			id, fingerprint, rule_id, score, grade, insights, result, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.db.ExecContext(ctx, query,
		id, fingerprint, result.RuleID, result.Score, string(result.Grade),
		insights, payload, result.Timestamp,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetResult retrieves a saved analysis by row id
func (s *PostgresStore) GetResult(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT result FROM analysis_results WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeResult(payload)
}

// ListResults retrieves the most recent analyses of a rule, newest first
func (s *PostgresStore) ListResults(ctx context.Context, ruleID string, limit int) ([]*models.AnalysisResult, error) {
	query := `
		SELECT result
		FROM analysis_results
		WHERE rule_id = $1
		ORDER BY analyzed_at DESC, saved_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, ruleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.AnalysisResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		r, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

func decodeBaseline(data []byte) (*models.Baseline, error) {
	var b models.Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode baseline: %w", err)
	}
	return &b, nil
}

func decodeResult(data []byte) (*models.AnalysisResult, error) {
	var r models.AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &r, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
