package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Upsert(ctx context.Context, t *model.TemplateDetail) error
	GetByName(ctx context.Context, name string) (*model.TemplateDetail, error)
}

type TemplateRepository struct {
	DB *sqlx.DB
}

// Upsert inserts a template row or replaces the stored one with the same name.
func (r *TemplateRepository) Upsert(ctx context.Context, t *model.TemplateDetail) error {
	query := `
        INSERT INTO template_details (template_name, file_url, file_hvalue, template_type, media_type, uploaded_at)
        VALUES (:template_name, :file_url, :file_hvalue, :template_type, :media_type, NOW())
        ON CONFLICT (template_name) DO UPDATE SET
            file_url = EXCLUDED.file_url,
            file_hvalue = EXCLUDED.file_hvalue,
            template_type = EXCLUDED.template_type,
            media_type = EXCLUDED.media_type,
            uploaded_at = EXCLUDED.uploaded_at
    `
	return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, t); err != nil {
			return fmt.Errorf("upsert template %s: %w", t.TemplateName, err)
		}
		return nil
	})
}

func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*model.TemplateDetail, error) {
	query := `
        SELECT template_name, file_url, file_hvalue, template_type, media_type, uploaded_at
        FROM template_details
        WHERE template_name = $1
    `
	var t model.TemplateDetail
	if err := r.DB.GetContext(ctx, &t, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewTemplateNotFound(name)
		}
		return nil, fmt.Errorf("get template %s: %w", name, err)
	}
	return &t, nil
}
