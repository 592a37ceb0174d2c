package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/jmoiron/sqlx"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(ctx context.Context, c *model.Campaign) error
    Update(ctx context.Context, c *model.Campaign) error
    Delete(ctx context.Context, id int) error
    GetByID(ctx context.Context, id int) (*model.Campaign, error)
    ListCampaigns(ctx context.Context, offset, limit int) ([]*model.Campaign, int, error)
    ListForRun(ctx context.Context, from, to *time.Time) ([]*model.Campaign, error)
}

type CampaignRepository struct {
    DB *sqlx.DB
}

// filterColumns are every persisted campaign column that an update replaces.
var filterColumns = []string{
    "name", "start_date", "end_date", "based_on",
    "recency_op", "recency_min", "recency_max",
    "frequency_op", "frequency_min", "frequency_max",
    "monetary_op", "monetary_min", "monetary_max",
    "r_score", "f_score", "m_score", "rfm_segments",
    "branch", "city", "state",
    "birthday_start", "birthday_end", "anniversary_start", "anniversary_end",
    "purchase_type", "purchase_brand", "section", "product", "model", "item",
    "value_threshold",
}

var (
    selectCampaign = "SELECT id, " + strings.Join(filterColumns, ", ") + ", created_at, updated_at FROM campaigns"

    insertCampaign = "INSERT INTO campaigns (" + strings.Join(filterColumns, ", ") + ", created_at) VALUES (:" +
        strings.Join(filterColumns, ", :") + ", :created_at) RETURNING id"

    updateCampaign = func() string {
        sets := make([]string, len(filterColumns))
        for i, col := range filterColumns {
            sets[i] = col + " = :" + col
        }
        return "UPDATE campaigns SET " + strings.Join(sets, ", ") + ", updated_at = :updated_at WHERE id = :id"
    }()
)

// withTx runs fn in a transaction and rolls back on any error.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
    tx, err := db.BeginTxx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    if err := fn(tx); err != nil {
        _ = tx.Rollback()
        return err
    }
    return tx.Commit()
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
    c.CreatedAt = time.Now()
    return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
        stmt, err := tx.PrepareNamedContext(ctx, insertCampaign)
        if err != nil {
            return fmt.Errorf("prepare insert: %w", err)
        }
        defer stmt.Close()
        if err := stmt.GetContext(ctx, &c.ID, c); err != nil {
            return fmt.Errorf("insert campaign: %w", err)
        }
        return nil
    })
}

// Update replaces every filter column of an existing campaign.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
    now := time.Now()
    c.UpdatedAt = &now
    return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
        res, err := tx.NamedExecContext(ctx, updateCampaign, c)
        if err != nil {
            return fmt.Errorf("update campaign: %w", err)
        }
        if n, _ := res.RowsAffected(); n == 0 {
            return appErrors.NewCampaignNotFound(c.ID)
        }
        return nil
    })
}

func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
    return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
        res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
        if err != nil {
            return fmt.Errorf("delete campaign: %w", err)
        }
        if n, _ := res.RowsAffected(); n == 0 {
            return appErrors.NewCampaignNotFound(id)
        }
        return nil
    })
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
    var c model.Campaign
    err := r.DB.GetContext(ctx, &c, selectCampaign+" WHERE id = $1", id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, fmt.Errorf("get campaign %d: %w", id, err)
    }
    return &c, nil
}

// ListCampaigns returns one page, newest first, and the total number of campaigns.
func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    if err := r.DB.SelectContext(ctx, &campaigns, selectCampaign+" ORDER BY id DESC LIMIT $1 OFFSET $2", limit, offset); err != nil {
        return nil, 0, fmt.Errorf("list campaigns: %w", err)
    }

    var total int
    if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`); err != nil {
        return nil, 0, fmt.Errorf("count campaigns: %w", err)
    }
    return campaigns, total, nil
}

// ListForRun filters by start_date >= from and end_date <= to. With neither bound
// it returns the campaigns active today.
func (r *CampaignRepository) ListForRun(ctx context.Context, from, to *time.Time) ([]*model.Campaign, error) {
    q, args := runListQuery(from, to)
    campaigns := []*model.Campaign{}
    if err := r.DB.SelectContext(ctx, &campaigns, q, args...); err != nil {
        return nil, fmt.Errorf("list run campaigns: %w", err)
    }
    return campaigns, nil
}

func runListQuery(from, to *time.Time) (string, []any) {
    if from == nil && to == nil {
        return selectCampaign + " WHERE start_date <= CURRENT_DATE AND end_date >= CURRENT_DATE ORDER BY start_date DESC, id DESC", nil
    }

    var conds []string
    var args []any
    if from != nil {
        args = append(args, *from)
        conds = append(conds, fmt.Sprintf("start_date >= $%d", len(args)))
    }
    if to != nil {
        args = append(args, *to)
        conds = append(conds, fmt.Sprintf("end_date <= $%d", len(args)))
    }
    return selectCampaign + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY start_date DESC, id DESC", args
}
