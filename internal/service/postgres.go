package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresService implements SchemaProvider and QueryExecutor against a
// single Postgres database. Connection management (which DSN belongs to
// which data source) is the deployment's concern; one service instance is
// bound to one pool.
type PostgresService struct {
	pool *pgxpool.Pool
}

func NewPostgresService(ctx context.Context, dsn string) (*PostgresService, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresService{pool: pool}, nil
}

// Pool exposes the underlying pool so the schema-analysis cache can share
// the same database.
func (s *PostgresService) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresService) Close() { s.pool.Close() }

func (s *PostgresService) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Execute runs read-only SQL with :name parameters bound via pgx named
// arguments.
func (s *PostgresService) Execute(ctx context.Context, _ string, sql string, params map[string]interface{}) ([]map[string]interface{}, error) {
	args := pgx.NamedArgs{}
	for k, v := range params {
		args[k] = v
	}

	rows, err := s.pool.Query(ctx, rewriteColonParams(sql), args)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		m := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			m[f.Name] = values[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
