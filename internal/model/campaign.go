// internal/model/campaign.go
package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Campaign is a named, persisted audience filter. It is the source of truth for a
// scheduled audience; updates replace every filter column.
type Campaign struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	BasedOn   *string   `db:"based_on" json:"based_on"`

	RecencyOp    *string          `db:"recency_op" json:"recency_op"`
	RecencyMin   *int64           `db:"recency_min" json:"recency_min"`
	RecencyMax   *int64           `db:"recency_max" json:"recency_max"`
	FrequencyOp  *string          `db:"frequency_op" json:"frequency_op"`
	FrequencyMin *int64           `db:"frequency_min" json:"frequency_min"`
	FrequencyMax *int64           `db:"frequency_max" json:"frequency_max"`
	MonetaryOp   *string          `db:"monetary_op" json:"monetary_op"`
	MonetaryMin  *decimal.Decimal `db:"monetary_min" json:"monetary_min"`
	MonetaryMax  *decimal.Decimal `db:"monetary_max" json:"monetary_max"`

	RScore      pq.Int64Array  `db:"r_score" json:"r_score"`
	FScore      pq.Int64Array  `db:"f_score" json:"f_score"`
	MScore      pq.Int64Array  `db:"m_score" json:"m_score"`
	RFMSegments pq.StringArray `db:"rfm_segments" json:"rfm_segments"`

	Branch pq.StringArray `db:"branch" json:"branch"`
	City   pq.StringArray `db:"city" json:"city"`
	State  pq.StringArray `db:"state" json:"state"`

	BirthdayStart    *time.Time `db:"birthday_start" json:"birthday_start"`
	BirthdayEnd      *time.Time `db:"birthday_end" json:"birthday_end"`
	AnniversaryStart *time.Time `db:"anniversary_start" json:"anniversary_start"`
	AnniversaryEnd   *time.Time `db:"anniversary_end" json:"anniversary_end"`

	PurchaseType   *string          `db:"purchase_type" json:"purchase_type"`
	PurchaseBrand  pq.StringArray   `db:"purchase_brand" json:"purchase_brand"`
	Section        pq.StringArray   `db:"section" json:"section"`
	Product        pq.StringArray   `db:"product" json:"product"`
	Model          pq.StringArray   `db:"model" json:"model"`
	Item           pq.StringArray   `db:"item" json:"item"`
	ValueThreshold *decimal.Decimal `db:"value_threshold" json:"value_threshold"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// SegmentLabel is the first configured RFM segment, or "-".
func (c *Campaign) SegmentLabel() string {
	if len(c.RFMSegments) > 0 && c.RFMSegments[0] != "" {
		return c.RFMSegments[0]
	}
	return "-"
}

// BrandLabel is the first configured purchase brand, or "-".
func (c *Campaign) BrandLabel() string {
	if len(c.PurchaseBrand) > 0 && c.PurchaseBrand[0] != "" {
		return c.PurchaseBrand[0]
	}
	return "-"
}

// RunDetails is a campaign plus the audience-size preview shown before dispatch.
type RunDetails struct {
	Campaign
	RFMSegmentLabel  string `json:"rfm_segment_label"`
	BrandLabel       string `json:"brand_label"`
	ShortlistedCount int64  `json:"shortlisted_count"`
}
