package schemacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartpilot/chartpilot/internal/models"
)

// PostgresStore persists analyses in a schema_analyses table so they
// survive restarts and are shared between instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_analyses (
			data_source_id TEXT PRIMARY KEY,
			schema_hash    TEXT NOT NULL,
			analysis       JSONB NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_analyses: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, dataSourceID string) (*Entry, error) {
	var hash string
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT schema_hash, analysis FROM schema_analyses WHERE data_source_id = $1`,
		dataSourceID,
	).Scan(&hash, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}

	var analysis models.SchemaAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		// A corrupt row is treated as a miss; the next save overwrites it.
		return nil, nil
	}
	return &Entry{Hash: hash, Analysis: analysis}, nil
}

func (s *PostgresStore) Save(ctx context.Context, dataSourceID, hash string, analysis models.SchemaAnalysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO schema_analyses (data_source_id, schema_hash, analysis, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (data_source_id)
		DO UPDATE SET schema_hash = EXCLUDED.schema_hash,
		              analysis = EXCLUDED.analysis,
		              updated_at = now()`,
		dataSourceID, hash, raw)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}
