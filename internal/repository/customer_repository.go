package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by service
type ContactRepositoryInterface interface {
	ListByCampaign(ctx context.Context, campaignID int) ([]model.Contact, error)
}

// ContactRepository reads the contact sheets uploaded against campaigns.
type ContactRepository struct {
	DB *sqlx.DB
}

// ListByCampaign fetches a campaign's uploaded contacts in upload order.
func (r *ContactRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.Contact, error) {
	query := `
        SELECT id, campaign_id, name, mobile_no, email_id
        FROM campaign_uploads
        WHERE campaign_id = $1
        ORDER BY id
    `
	contacts := []model.Contact{}
	if err := r.DB.SelectContext(ctx, &contacts, query, campaignID); err != nil {
		return nil, fmt.Errorf("list contacts for campaign %d: %w", campaignID, err)
	}
	return contacts, nil
}
