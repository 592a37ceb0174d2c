package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

type OptionsRepositoryInterface interface {
	DistinctScores(ctx context.Context, column string) ([]int64, error)
	DistinctSegments(ctx context.Context) ([]string, error)
	GeoRows(ctx context.Context) ([]model.GeoRow, error)
	BrandNodes(ctx context.Context) ([]model.BrandNode, error)
}

// OptionsRepository reads the distinct values offered by the campaign form.
type OptionsRepository struct {
	DB *sqlx.DB
}

var scoreColumns = map[string]bool{"r_score": true, "f_score": true, "m_score": true}

// DistinctScores lists one of r_score, f_score or m_score.
func (r *OptionsRepository) DistinctScores(ctx context.Context, column string) ([]int64, error) {
	if !scoreColumns[column] {
		return nil, fmt.Errorf("unknown score column %q", column)
	}
	query := fmt.Sprintf("SELECT DISTINCT %[1]s FROM crm_analysis WHERE %[1]s IS NOT NULL ORDER BY %[1]s", column)
	scores := []int64{}
	if err := r.DB.SelectContext(ctx, &scores, query); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return scores, nil
}

func (r *OptionsRepository) DistinctSegments(ctx context.Context) ([]string, error) {
	query := `
        SELECT DISTINCT segment_map
        FROM crm_analysis
        WHERE segment_map IS NOT NULL AND segment_map <> ''
        ORDER BY segment_map
    `
	segments := []string{}
	if err := r.DB.SelectContext(ctx, &segments, query); err != nil {
		return nil, fmt.Errorf("distinct segments: %w", err)
	}
	return segments, nil
}

func (r *OptionsRepository) GeoRows(ctx context.Context) ([]model.GeoRow, error) {
	query := `
        SELECT DISTINCT last_in_store_name AS branch, last_in_store_city AS city, last_in_store_state AS state
        FROM crm_analysis
        WHERE last_in_store_name IS NOT NULL
        ORDER BY 1, 2, 3
    `
	rows := []model.GeoRow{}
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("distinct branches: %w", err)
	}
	return rows, nil
}

func (r *OptionsRepository) BrandNodes(ctx context.Context) ([]model.BrandNode, error) {
	query := `
        SELECT DISTINCT brand, section, product, model, item
        FROM campaign_brand_filters
        ORDER BY 1, 2, 3, 4, 5
    `
	nodes := []model.BrandNode{}
	if err := r.DB.SelectContext(ctx, &nodes, query); err != nil {
		return nil, fmt.Errorf("brand hierarchy: %w", err)
	}
	return nodes, nil
}
