package llm

// Decode-with-defaults helpers for loosely-structured model output. Every
// agent parses its completion result through these instead of trusting
// field presence or types.

// Str returns m[key] as a string, or def when absent or mistyped.
func Str(m map[string]interface{}, key, def string) string {
	if m == nil {
		return def
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// Bool returns m[key] as a bool, or def when absent or mistyped.
func Bool(m map[string]interface{}, key string, def bool) bool {
	if m == nil {
		return def
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

// Map returns m[key] as an object, or nil.
func Map(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// List returns m[key] as a list, or nil.
func List(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

// StrList returns m[key] as a list of strings, skipping non-string items.
func StrList(m map[string]interface{}, key string) []string {
	var out []string
	for _, item := range List(m, key) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StrPtr returns m[key] as a *string, or nil when absent, null, or empty.
func StrPtr(m map[string]interface{}, key string) *string {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}
