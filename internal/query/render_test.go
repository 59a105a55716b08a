package query_test

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/chartpilot/chartpilot/internal/query"
)

const ordersTemplate = `SELECT category, SUM(amount) AS total
FROM orders
WHERE 1=1
{% if date_start %} AND created_at >= :date_start {% endif %}
{% if status %} AND status = :status {% endif %}
GROUP BY category;`

func TestRenderOmitsUnsuppliedClauses(t *testing.T) {
	sql, bound, err := query.Render(ordersTemplate, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if strings.Contains(sql, ":date_start") || strings.Contains(sql, ":status") {
		t.Errorf("unsupplied clauses should be omitted, got:\n%s", sql)
	}
	if len(bound) != 0 {
		t.Errorf("no params should be bound, got %v", bound)
	}
	if strings.HasSuffix(sql, ";") {
		t.Errorf("trailing semicolon should be stripped, got:\n%s", sql)
	}
	if strings.Contains(sql, "\n\n") {
		t.Errorf("blank lines should be collapsed, got:\n%s", sql)
	}
}

func TestRenderIncludesSuppliedClause(t *testing.T) {
	sql, bound, err := query.Render(ordersTemplate, map[string]interface{}{
		"status": "active",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(sql, "AND status = :status") {
		t.Errorf("supplied clause missing from:\n%s", sql)
	}
	if strings.Contains(sql, ":date_start") {
		t.Errorf("unsupplied clause present in:\n%s", sql)
	}
	if got := bound["status"]; got != "active" {
		t.Errorf("bound[status] = %v, want active", got)
	}
	if _, ok := bound["date_start"]; ok {
		t.Error("date_start should not be bound")
	}
}

// Every bound parameter must correspond to a placeholder surviving in the
// rendered SQL, and vice versa for supplied ones.
func TestRenderBoundParamsMatchPlaceholders(t *testing.T) {
	params := map[string]interface{}{
		"date_start": "2024-01-01",
		"status":     "",      // falsy: clause omitted
		"unrelated":  "value", // no placeholder at all
	}
	sql, bound, err := query.Render(ordersTemplate, params)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := map[string]interface{}{"date_start": "2024-01-01"}
	if !reflect.DeepEqual(bound, want) {
		t.Errorf("bound = %v, want %v", bound, want)
	}
	if !strings.Contains(sql, ":date_start") {
		t.Errorf("date_start clause missing from:\n%s", sql)
	}
}

func TestRenderIdempotentForSameParams(t *testing.T) {
	params := map[string]interface{}{"status": "shipped"}
	first, _, err := query.Render(ordersTemplate, params)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, _, err := query.Render(ordersTemplate, params)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first != second {
		t.Errorf("renders differ:\n%s\n----\n%s", first, second)
	}
}

func TestRenderNumericCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{"int string", "42", 42},
		{"float string", "3.5", 3.5},
		{"plain string", "active", "active"},
		{"already int", 7, 7},
		{"negative int string", "-12", -12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := `SELECT * FROM t WHERE 1=1 {% if v %} AND c = :v {% endif %}`
			_, bound, err := query.Render(tmpl, map[string]interface{}{"v": tt.value})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !reflect.DeepEqual(bound["v"], tt.want) {
				t.Errorf("bound[v] = %#v, want %#v", bound["v"], tt.want)
			}
		})
	}
}

func TestRenderLegacyTemplateBindsNil(t *testing.T) {
	// No conditional syntax: every referenced placeholder must be bound,
	// missing ones as nil.
	tmpl := `SELECT * FROM orders WHERE (:status IS NULL OR status = :status) AND (:region IS NULL OR region = :region)`
	_, bound, err := query.Render(tmpl, map[string]interface{}{"status": "open"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := bound["status"]; got != "open" {
		t.Errorf("bound[status] = %v, want open", got)
	}
	v, ok := bound["region"]
	if !ok {
		t.Fatal("region should be bound for a non-conditional template")
	}
	if v != nil {
		t.Errorf("bound[region] = %v, want nil", v)
	}
}

func TestRenderConditionalTemplateDoesNotBindNil(t *testing.T) {
	_, bound, err := query.Render(ordersTemplate, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, ok := bound["status"]; ok {
		t.Error("conditional templates must not nil-bind omitted placeholders")
	}
}

func TestRenderNormalizesDoubledDelimiters(t *testing.T) {
	tmpl := `SELECT * FROM t WHERE 1=1 {%% if x %%} AND c = :x {%% endif %%}`
	sql, _, err := query.Render(tmpl, map[string]interface{}{"x": "1"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sql, "AND c = :x") {
		t.Errorf("doubled delimiters not normalized, got:\n%s", sql)
	}
}

func TestRenderElifElse(t *testing.T) {
	tmpl := `SELECT * FROM t WHERE 1=1
{% if a %} AND x = :a {% elif b %} AND y = :b {% else %} AND z = 0 {% endif %}`

	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{"first branch", map[string]interface{}{"a": "1", "b": "1"}, "AND x = :a"},
		{"elif branch", map[string]interface{}{"b": "1"}, "AND y = :b"},
		{"else branch", map[string]interface{}{}, "AND z = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := query.Render(tmpl, tt.params)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.Contains(sql, tt.want) {
				t.Errorf("want %q in:\n%s", tt.want, sql)
			}
		})
	}
}

func TestRenderNestedConditions(t *testing.T) {
	tmpl := `SELECT * FROM t WHERE 1=1
{% if a %} AND x = :a {% if b %} AND y = :b {% endif %}{% endif %}`
	sql, _, err := query.Render(tmpl, map[string]interface{}{"a": "1", "b": "2"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sql, "AND x = :a") || !strings.Contains(sql, "AND y = :b") {
		t.Errorf("nested blocks not rendered:\n%s", sql)
	}
}

func TestRenderBooleanExpressions(t *testing.T) {
	tests := []struct {
		name    string
		cond    string
		flags   map[string]interface{}
		include bool
	}{
		{"and true", "a and b", map[string]interface{}{"a": "1", "b": "1"}, true},
		{"and false", "a and b", map[string]interface{}{"a": "1"}, false},
		{"or", "a or b", map[string]interface{}{"b": "1"}, true},
		{"not", "not a", map[string]interface{}{}, true},
		{"parens", "(a or b) and c", map[string]interface{}{"b": "1", "c": "1"}, true},
		{"literal true", "true", map[string]interface{}{}, true},
		{"unknown flag", "missing", map[string]interface{}{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := `X {% if ` + tt.cond + ` %}INCLUDED{% endif %} Y`
			sql, _, err := query.Render(tmpl, tt.flags)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := strings.Contains(sql, "INCLUDED"); got != tt.include {
				t.Errorf("condition %q included=%v, want %v", tt.cond, got, tt.include)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{"missing endif", `{% if a %} x`},
		{"stray endif", `x {% endif %}`},
		{"unknown tag", `{% for x in y %} x {% endfor %}`},
		{"interpolation", `SELECT {{ col }} FROM t`},
		{"unterminated tag", `{% if a `},
		{"degenerate tag", `{%}`},
		{"degenerate escaped tag", `SELECT 1 {%%}`},
		{"empty tag", `{% %}`},
		{"degenerate comment", `{#}`},
		{"function call in condition", `{% if a() %} x {% endif %}`},
		{"comparison in condition", `{% if a == b %} x {% endif %}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := query.Render(tt.tmpl, nil)
			if err == nil {
				t.Fatalf("expected error for %q", tt.tmpl)
			}
			if !errors.Is(err, query.ErrRender) {
				t.Errorf("error should wrap ErrRender, got %v", err)
			}
		})
	}
}

func TestRenderStripsComments(t *testing.T) {
	tmpl := `SELECT 1 {# internal note #} FROM t`
	sql, _, err := query.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(sql, "internal note") {
		t.Errorf("comment not stripped:\n%s", sql)
	}
}

func TestExtractParams(t *testing.T) {
	params := query.ExtractParams(ordersTemplate)
	sort.Strings(params)
	want := []string{"date_start", "status"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("ExtractParams = %v, want %v", params, want)
	}
}

func TestExtractParamsIncludesConditionalBodies(t *testing.T) {
	// Placeholders inside blocks count even when the block would not
	// render.
	params := query.ExtractParams(`{% if never %} :hidden {% endif %}`)
	if !reflect.DeepEqual(params, []string{"hidden"}) {
		t.Errorf("ExtractParams = %v, want [hidden]", params)
	}
}

func TestHasConditionalSyntax(t *testing.T) {
	tests := []struct {
		tmpl string
		want bool
	}{
		{`SELECT * FROM t`, false},
		{`SELECT * FROM t WHERE a = :a`, false},
		{`{% if a %} x {% endif %}`, true},
		{`{# comment #}`, true},
		{`{{ bad }}`, true},
	}
	for _, tt := range tests {
		if got := query.HasConditionalSyntax(tt.tmpl); got != tt.want {
			t.Errorf("HasConditionalSyntax(%q) = %v, want %v", tt.tmpl, got, tt.want)
		}
	}
}
