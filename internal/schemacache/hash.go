// Package schemacache stores one semantic schema analysis per data source,
// keyed by a content hash of the raw schema. A changed schema changes the
// hash and forces regeneration; an unchanged schema never costs a second
// completion call.
package schemacache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/chartpilot/chartpilot/internal/models"
)

// Hash returns a deterministic digest of a raw schema. Tables, columns and
// foreign keys are sorted before serialization, so the digest does not
// depend on the provider's iteration order.
func Hash(schema *models.RawSchema) string {
	canonical := canonicalize(schema)
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func canonicalize(schema *models.RawSchema) models.RawSchema {
	out := models.RawSchema{Database: schema.Database}
	out.Tables = make([]models.SchemaTable, len(schema.Tables))
	for i, t := range schema.Tables {
		cols := make([]models.SchemaColumn, len(t.Columns))
		copy(cols, t.Columns)
		sort.Slice(cols, func(a, b int) bool { return cols[a].Name < cols[b].Name })

		fks := make([]models.ForeignKey, len(t.ForeignKeys))
		for j, fk := range t.ForeignKeys {
			c := append([]string(nil), fk.Columns...)
			rc := append([]string(nil), fk.ReferredColumns...)
			sort.Strings(c)
			sort.Strings(rc)
			fks[j] = models.ForeignKey{Columns: c, ReferredTable: fk.ReferredTable, ReferredColumns: rc}
		}
		sort.Slice(fks, func(a, b int) bool { return fkSortKey(fks[a]) < fkSortKey(fks[b]) })

		out.Tables[i] = models.SchemaTable{Name: t.Name, Columns: cols, ForeignKeys: fks}
	}
	sort.Slice(out.Tables, func(a, b int) bool { return out.Tables[a].Name < out.Tables[b].Name })
	return out
}

// fkSortKey gives foreign keys a total ordering so tables that declare the
// same set of keys in a different order hash identically.
func fkSortKey(fk models.ForeignKey) string {
	return fk.ReferredTable + "\x00" + strings.Join(fk.Columns, ",") + "\x00" + strings.Join(fk.ReferredColumns, ",")
}
