package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/query"
)

// FilterBuilder designs filter definitions for a query template, then
// validates them against the template's placeholders and the schema
// analysis. Validation never fails the step: invalid filters are dropped
// or cleaned, and each repair produces a user-visible warning.
type FilterBuilder struct {
	client llm.CompletionClient
	opts   Options
}

func NewFilterBuilder(client llm.CompletionClient, opts Options) *FilterBuilder {
	return &FilterBuilder{client: client, opts: opts.withDefaults(0.3)}
}

// Build generates filters for queryTemplate. The template may be the one
// just generated in this run or the widget's existing one.
func (b *FilterBuilder) Build(ctx context.Context, bc BuildContext, queryTemplate string) models.FilterResult {
	msgs := []llm.Message{{Role: models.RoleSystem, Content: filterPrompt}}

	if queryTemplate != "" {
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Query template:\n" + queryTemplate,
		})
	}
	if bc.Analysis != nil {
		raw, _ := json.MarshalIndent(bc.Analysis, "", "  ")
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Schema analysis:\n" + string(raw),
		})
	}
	if bc.Widget != nil && len(bc.Widget.Filters) > 0 {
		raw, _ := json.Marshal(bc.Widget.Filters)
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Current filters:\n" + string(raw),
		})
	}
	msgs = append(msgs, userMessage(bc.Summary, bc.UserMessage))

	res, ok := callCompletion(ctx, b.client, "filter_builder", msgs, b.opts)
	if !ok {
		return models.FilterResult{}
	}

	result := models.FilterResult{
		Explanation: llm.Str(res, "explanation", ""),
		Warnings:    llm.StrList(res, "warnings"),
	}
	filters := decodeFilters(res)

	if queryTemplate != "" {
		valid, warnings := validateFilters(filters, queryTemplate, bc.Analysis)
		result.Filters = valid
		result.Warnings = append(result.Warnings, warnings...)
	} else {
		result.Filters = filters
	}
	return result
}

func decodeFilters(res map[string]interface{}) []models.FilterDef {
	var filters []models.FilterDef
	for i, item := range llm.List(res, "filters") {
		f, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		def := models.FilterDef{
			ParamName:    llm.Str(f, "param_name", ""),
			Label:        llm.Str(f, "label", ""),
			FilterType:   llm.Str(f, "filter_type", models.FilterTypeText),
			SourceTable:  llm.StrPtr(f, "source_table"),
			SourceColumn: llm.StrPtr(f, "source_column"),
			OptionsQuery: llm.StrPtr(f, "options_query"),
			DefaultValue: llm.StrPtr(f, "default_value"),
			Config:       llm.Map(f, "config"),
			SortOrder:    i,
		}
		if def.Label == "" {
			def.Label = def.ParamName
		}
		filters = append(filters, def)
	}
	return filters
}

// validateFilters enforces the filter invariants:
//
//  1. Every non-date_range filter's param must occur as :param in the raw
//     template text (conditional blocks included); date_range needs at
//     least one of :param_start / :param_end. Violations drop the filter.
//  2. A source_table absent from the schema analysis is cleared along
//     with its source_column.
func validateFilters(filters []models.FilterDef, queryTemplate string, analysis *models.SchemaAnalysis) ([]models.FilterDef, []string) {
	allParams := make(map[string]bool)
	for _, p := range query.ExtractParams(queryTemplate) {
		allParams[p] = true
	}
	knownTables := analysis.KnownTables()

	var valid []models.FilterDef
	var warnings []string

	for _, f := range filters {
		if f.FilterType == models.FilterTypeDateRange {
			if !allParams[f.ParamName+"_start"] && !allParams[f.ParamName+"_end"] {
				warnings = append(warnings, fmt.Sprintf(
					"Filter %q (date_range) has no matching :%s_start / :%s_end in the query - removed.",
					f.ParamName, f.ParamName, f.ParamName))
				continue
			}
		} else if f.ParamName != "" && !allParams[f.ParamName] {
			warnings = append(warnings, fmt.Sprintf(
				"Filter %q has no matching :%s in the query - removed.", f.ParamName, f.ParamName))
			continue
		}

		if f.SourceTable != nil && knownTables != nil && !knownTables[*f.SourceTable] {
			warnings = append(warnings, fmt.Sprintf(
				"Filter %q: source_table %q not found - cleared.", f.ParamName, *f.SourceTable))
			f.SourceTable = nil
			f.SourceColumn = nil
		}

		valid = append(valid, f)
	}
	return valid, warnings
}
