package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

type DispatchEventRepositoryInterface interface {
	Record(ctx context.Context, ev *model.DispatchEvent) error
	MarkArchived(ctx context.Context, id string, at time.Time) error
}

// DispatchEventRepository keeps the history of accepted provider dispatches.
type DispatchEventRepository struct {
	DB *sqlx.DB
}

// Record inserts the event once; replays of the same id are ignored.
func (r *DispatchEventRepository) Record(ctx context.Context, ev *model.DispatchEvent) error {
	query := `
        INSERT INTO dispatch_events
        (id, campaign_id, template_name, media, based_on, recipient_count, provider_status, created_at)
        VALUES (:id, :campaign_id, :template_name, :media, :based_on, :recipient_count, :provider_status, :created_at)
        ON CONFLICT (id) DO NOTHING
    `
	if _, err := r.DB.NamedExecContext(ctx, query, ev); err != nil {
		return fmt.Errorf("record dispatch %s: %w", ev.ID, err)
	}
	return nil
}

func (r *DispatchEventRepository) MarkArchived(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE dispatch_events SET archived_at = $1 WHERE id = $2`
	if _, err := r.DB.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("mark dispatch %s archived: %w", id, err)
	}
	return nil
}
