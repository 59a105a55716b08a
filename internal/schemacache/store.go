package schemacache

import (
	"context"

	"github.com/chartpilot/chartpilot/internal/models"
)

// Entry is one cached analysis with the hash of the schema it was built
// from.
type Entry struct {
	Hash     string
	Analysis models.SchemaAnalysis
}

// Store persists at most one analysis per data-source identity. Load
// returns (nil, nil) when no entry exists. Save is a full replacement;
// concurrent writers race harmlessly because each write carries a freshly
// computed hash (last writer wins).
type Store interface {
	Load(ctx context.Context, dataSourceID string) (*Entry, error)
	Save(ctx context.Context, dataSourceID, hash string, analysis models.SchemaAnalysis) error
}
