package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
)

// MaxOptionsLimit is the hard ceiling on filter option rows, regardless of
// the caller-requested limit.
const MaxOptionsLimit = 500

// OptionsService fetches selectable values for select-type filters.
//
// Three modes, in priority order:
//  1. options_query - a custom SELECT returning value and label columns,
//     wrapped in a subquery for safe search and limit handling.
//  2. source_table + source_column - a simple SELECT DISTINCT with
//     whitelisted identifiers.
//  3. static options stored on the filter itself.
type OptionsService struct {
	exec      QueryExecutor
	validator *security.StatementValidator
	maxLimit  int
}

func NewOptionsService(exec QueryExecutor, validator *security.StatementValidator, maxLimit int) *OptionsService {
	if maxLimit <= 0 || maxLimit > MaxOptionsLimit {
		maxLimit = MaxOptionsLimit
	}
	return &OptionsService{exec: exec, validator: validator, maxLimit: maxLimit}
}

func (s *OptionsService) FilterOptions(ctx context.Context, dataSourceID string, filter models.FilterDef, search string, limit int) ([]models.FilterOption, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	if filter.OptionsQuery != nil && *filter.OptionsQuery != "" {
		return s.runOptionsQuery(ctx, dataSourceID, *filter.OptionsQuery, search, limit)
	}
	if filter.SourceTable != nil && filter.SourceColumn != nil {
		return s.runSimpleDistinct(ctx, dataSourceID, *filter.SourceTable, *filter.SourceColumn, search, limit)
	}
	return staticOptions(filter.Options, search, limit), nil
}

// runOptionsQuery validates, wraps and executes a custom options query:
//
//	SELECT _opts.value, _opts.label FROM (<inner>) AS _opts
//	[WHERE _opts.label LIKE :search] ORDER BY _opts.label LIMIT :limit
func (s *OptionsService) runOptionsQuery(ctx context.Context, dataSourceID, optionsQuery, search string, limit int) ([]models.FilterOption, error) {
	if err := s.validator.Validate(optionsQuery); err != nil {
		return nil, fmt.Errorf("options query rejected: %w", err)
	}
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(optionsQuery), ";"))

	params := map[string]interface{}{"limit": limit}
	where := ""
	if search != "" {
		where = "WHERE _opts.label LIKE :search "
		params["search"] = "%" + search + "%"
	}
	sql := fmt.Sprintf(
		"SELECT _opts.value, _opts.label FROM (%s) AS _opts %sORDER BY _opts.label LIMIT :limit",
		inner, where)

	rows, err := s.exec.Execute(ctx, dataSourceID, sql, params)
	if err != nil {
		return nil, fmt.Errorf("options query: %w", err)
	}
	return rowsToOptions(rows), nil
}

func (s *OptionsService) runSimpleDistinct(ctx context.Context, dataSourceID, table, column, search string, limit int) ([]models.FilterOption, error) {
	if err := s.validator.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateIdentifier(column); err != nil {
		return nil, err
	}

	params := map[string]interface{}{"limit": limit}
	where := ""
	if search != "" {
		where = fmt.Sprintf(`WHERE CAST("%s" AS TEXT) LIKE :search `, column)
		params["search"] = "%" + search + "%"
	}
	sql := fmt.Sprintf(
		`SELECT DISTINCT "%s" AS value, "%s" AS label FROM "%s" %sORDER BY label LIMIT :limit`,
		column, column, table, where)

	rows, err := s.exec.Execute(ctx, dataSourceID, sql, params)
	if err != nil {
		return nil, fmt.Errorf("distinct options: %w", err)
	}
	return rowsToOptions(rows), nil
}

func staticOptions(options []models.FilterOption, search string, limit int) []models.FilterOption {
	out := options
	if search != "" {
		term := strings.ToLower(search)
		out = nil
		for _, o := range options {
			if strings.Contains(strings.ToLower(o.Label), term) {
				out = append(out, o)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func rowsToOptions(rows []map[string]interface{}) []models.FilterOption {
	out := make([]models.FilterOption, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.FilterOption{
			Value: fmt.Sprintf("%v", row["value"]),
			Label: fmt.Sprintf("%v", row["label"]),
		})
	}
	return out
}
