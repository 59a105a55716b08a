package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeStatement marks SQL rejected by the deny-list. Distinct from a
// template render failure so callers can tell unsafe SQL apart from a
// broken template.
var ErrUnsafeStatement = errors.New("statement contains disallowed SQL")

// Keywords that must never appear in executable SQL, matched as whole
// words so identifiers like created_at or updated_count pass.
var denyListRe = regexp.MustCompile(
	`(?i)\b(DROP|DELETE|TRUNCATE|UPDATE|INSERT|ALTER|CREATE|` +
		`REPLACE|GRANT|REVOKE|EXEC|EXECUTE|CALL|LOAD|INTO\s+OUTFILE)\b`,
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StatementValidator rejects mutating, DDL and administrative SQL. It runs
// on every rendered query before execution and on any user-supplied
// options query before it is wrapped.
type StatementValidator struct{}

func NewStatementValidator() *StatementValidator {
	return &StatementValidator{}
}

// Validate returns ErrUnsafeStatement when the SQL contains a deny-listed
// keyword as a whole word, case-insensitively.
func (v *StatementValidator) Validate(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return fmt.Errorf("%w: empty statement", ErrUnsafeStatement)
	}
	if m := denyListRe.FindString(sql); m != "" {
		return fmt.Errorf("%w: %s", ErrUnsafeStatement, strings.ToUpper(m))
	}
	return nil
}

// ValidateIdentifier whitelists table and column names used in simple
// DISTINCT lookups; anything that is not a bare identifier is rejected.
func (v *StatementValidator) ValidateIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: invalid identifier %q", ErrUnsafeStatement, name)
	}
	return nil
}
