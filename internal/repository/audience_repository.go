package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/unclebandit/crm-campaign-backend/internal/audience"
	"github.com/unclebandit/crm-campaign-backend/internal/export"
)

// AudienceRepositoryInterface runs queries built by the audience package.
type AudienceRepositoryInterface interface {
	Open(ctx context.Context, q audience.Query) (export.Cursor, error)
	Count(ctx context.Context, q audience.Query) (int64, error)
	Numbers(ctx context.Context, q audience.Query) ([]string, error)
}

type AudienceRepository struct {
	DB *sqlx.DB
}

// Open starts a forward-only cursor. The caller must Close it.
func (r *AudienceRepository) Open(ctx context.Context, q audience.Query) (export.Cursor, error) {
	rows, err := r.DB.QueryxContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query audience: %w", err)
	}
	return &rowsCursor{rows: rows}, nil
}

func (r *AudienceRepository) Count(ctx context.Context, q audience.Query) (int64, error) {
	var n int64
	if err := r.DB.GetContext(ctx, &n, q.SQL, q.Args...); err != nil {
		return 0, fmt.Errorf("count audience: %w", err)
	}
	return n, nil
}

// Numbers returns the first column (mobile_no) of every row.
func (r *AudienceRepository) Numbers(ctx context.Context, q audience.Query) ([]string, error) {
	cur, err := r.Open(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var numbers []string
	for cur.Next() {
		row, err := cur.Values()
		if err != nil {
			return nil, err
		}
		if len(row) > 0 && row[0] != "" {
			numbers = append(numbers, row[0])
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate audience: %w", err)
	}
	return numbers, nil
}

// rowsCursor adapts sqlx.Rows to export.Cursor, rendering every value as text.
type rowsCursor struct {
	rows *sqlx.Rows
}

func (c *rowsCursor) Columns() ([]string, error) { return c.rows.Columns() }

func (c *rowsCursor) Next() bool { return c.rows.Next() }

func (c *rowsCursor) Err() error { return c.rows.Err() }

func (c *rowsCursor) Close() error { return c.rows.Close() }

func (c *rowsCursor) Values() ([]string, error) {
	vals, err := c.rows.SliceScan()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = text(v)
	}
	return out, nil
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}
