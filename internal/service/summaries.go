package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SummaryRepo persists per-widget conversation summaries so a later
// request can resume a compressed conversation.
type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

func (r *SummaryRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS widget_summaries (
			widget_id  TEXT PRIMARY KEY,
			summary    TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure widget_summaries: %w", err)
	}
	return nil
}

func (r *SummaryRepo) SaveSummary(ctx context.Context, widgetID, summary string) error {
	if widgetID == "" {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO widget_summaries (widget_id, summary, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (widget_id)
		DO UPDATE SET summary = EXCLUDED.summary, updated_at = now()`,
		widgetID, summary)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}
