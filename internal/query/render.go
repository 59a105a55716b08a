// Package query renders conditional SQL templates.
//
// A template is SQL text with {% if flag %} ... {% endif %} blocks and
// :name value placeholders. Rendering evaluates the blocks against a
// boolean-only view of the caller's parameters, so a filter clause is
// included only when the user actually supplied a value:
//
//	SELECT category, SUM(amount) AS total
//	FROM orders
//	WHERE 1=1
//	{% if date_start %} AND created_at >= :date_start {% endif %}
//	{% if status %} AND status = :status {% endif %}
//	GROUP BY category
//
// The evaluator is a closed grammar over named boolean flags: parameter
// values are never interpolated into the template and can never be
// evaluated as template expressions, only their truthiness can.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrRender marks a malformed template. Callers distinguish it from a
// statement-safety rejection on the rendered SQL.
var ErrRender = errors.New("template render failed")

var (
	placeholderRe = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)`)
	blankLineRe   = regexp.MustCompile(`\n\s*\n`)
	conditionalRe = regexp.MustCompile(`\{[%{#]`)
)

// Render evaluates a conditional SQL template against the caller's raw
// parameter values and returns the final SQL plus the parameters that must
// be bound to it.
//
// Only placeholders surviving in the rendered SQL are kept; their values
// are numerically coerced (int, then float, else unchanged). For templates
// with no conditional syntax at all, placeholders the caller did not
// supply are bound to nil so execution does not fail on an unbound name.
func Render(templateStr string, params map[string]interface{}) (string, map[string]interface{}, error) {
	normalized := normalizeDelimiters(templateStr)

	// Boolean-only evaluation context: raw values never reach the
	// template engine.
	flags := make(map[string]bool, len(params))
	for k, v := range params {
		flags[k] = truthy(v)
	}

	nodes, err := parse(normalized)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var sb strings.Builder
	evalNodes(&sb, nodes, flags)
	sql := sb.String()

	sql = blankLineRe.ReplaceAllString(sql, "\n")
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSpace(strings.TrimSuffix(sql, ";"))

	used := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(sql, -1) {
		used[m[1]] = true
	}

	bound := make(map[string]interface{})
	for k, v := range params {
		if used[k] {
			bound[k] = coerceNumeric(v)
		}
	}

	// Legacy plain-SQL templates use the `(:p IS NULL OR ...)` pattern and
	// need every referenced placeholder bound.
	if !HasConditionalSyntax(normalized) {
		for name := range used {
			if _, ok := bound[name]; !ok {
				bound[name] = nil
			}
		}
	}

	return sql, bound, nil
}

// HasConditionalSyntax reports whether a template contains any template
// control syntax.
func HasConditionalSyntax(templateStr string) bool {
	return conditionalRe.MatchString(templateStr)
}

// ExtractParams returns every :name placeholder in the raw template text,
// including those inside conditional blocks. Filter validation relies on
// this scanning the full text regardless of block evaluation.
func ExtractParams(templateStr string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(templateStr, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// normalizeDelimiters collapses double-escaped block delimiters some models
// emit ({%% if x %%} becomes {% if x %}).
func normalizeDelimiters(s string) string {
	s = strings.ReplaceAll(s, "{%%", "{%")
	s = strings.ReplaceAll(s, "%%}", "%}")
	return s
}

// truthy mirrors the truthiness rules callers expect from query-string
// parameters: empty strings, zero numbers, nil and false are all false.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// coerceNumeric converts numeric-looking strings to int or float so SQL
// clauses like LIMIT receive real numbers. Non-strings pass through.
func coerceNumeric(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return v
}
