package service

import (
	"context"
	"fmt"

	"github.com/chartpilot/chartpilot/internal/models"
)

// GetSchema introspects all base tables in the public schema.
func (s *PostgresService) GetSchema(ctx context.Context, _ string) (*models.RawSchema, error) {
	schema := &models.RawSchema{}

	if err := s.pool.QueryRow(ctx, `SELECT current_database()`).Scan(&schema.Database); err != nil {
		return nil, fmt.Errorf("current database: %w", err)
	}

	primaryKeys, err := s.primaryKeys(ctx)
	if err != nil {
		return nil, err
	}
	foreignKeys, err := s.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable = 'YES'
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*models.SchemaTable)
	for rows.Next() {
		var table, column, dataType string
		var nullable bool
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		t, ok := byName[table]
		if !ok {
			schema.Tables = append(schema.Tables, models.SchemaTable{Name: table})
			t = &schema.Tables[len(schema.Tables)-1]
			byName[table] = t
		}
		t.Columns = append(t.Columns, models.SchemaColumn{
			Name:       column,
			Type:       dataType,
			Nullable:   nullable,
			PrimaryKey: primaryKeys[table][column],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	for i := range schema.Tables {
		schema.Tables[i].ForeignKeys = foreignKeys[schema.Tables[i].Name]
	}
	return schema, nil
}

func (s *PostgresService) primaryKeys(ctx context.Context) (map[string]map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'`)
	if err != nil {
		return nil, fmt.Errorf("introspect primary keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]bool)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		if out[table] == nil {
			out[table] = make(map[string]bool)
		}
		out[table][column] = true
	}
	return out, rows.Err()
}

func (s *PostgresService) foreignKeys(ctx context.Context) (map[string][]models.ForeignKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'`)
	if err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.ForeignKey)
	for rows.Next() {
		var table, column, refTable, refColumn string
		if err := rows.Scan(&table, &column, &refTable, &refColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		out[table] = append(out[table], models.ForeignKey{
			Columns:         []string{column},
			ReferredTable:   refTable,
			ReferredColumns: []string{refColumn},
		})
	}
	return out, rows.Err()
}
