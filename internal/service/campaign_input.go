package service

import (
    "strings"
    "time"

    "github.com/lib/pq"
    "github.com/shopspring/decimal"

    appErrors "github.com/unclebandit/crm-campaign-backend/internal/errors"
    "github.com/unclebandit/crm-campaign-backend/internal/filter"
    "github.com/unclebandit/crm-campaign-backend/internal/model"
)

// CampaignInput is the create/update body. Dates travel as YYYY-MM-DD.
type CampaignInput struct {
    Name      string      `json:"name"`
    StartDate filter.Date `json:"start_date"`
    EndDate   filter.Date `json:"end_date"`
    BasedOn   *string     `json:"based_on"`

    RecencyOp    *string          `json:"recency_op"`
    RecencyMin   *int64           `json:"recency_min"`
    RecencyMax   *int64           `json:"recency_max"`
    FrequencyOp  *string          `json:"frequency_op"`
    FrequencyMin *int64           `json:"frequency_min"`
    FrequencyMax *int64           `json:"frequency_max"`
    MonetaryOp   *string          `json:"monetary_op"`
    MonetaryMin  *decimal.Decimal `json:"monetary_min"`
    MonetaryMax  *decimal.Decimal `json:"monetary_max"`

    RScore      []int64          `json:"r_score"`
    FScore      []int64          `json:"f_score"`
    MScore      []int64          `json:"m_score"`
    RFMSegments filter.StringSet `json:"rfm_segments"`

    Branch filter.StringSet `json:"branch"`
    City   filter.StringSet `json:"city"`
    State  filter.StringSet `json:"state"`

    BirthdayStart    *filter.Date `json:"birthday_start"`
    BirthdayEnd      *filter.Date `json:"birthday_end"`
    AnniversaryStart *filter.Date `json:"anniversary_start"`
    AnniversaryEnd   *filter.Date `json:"anniversary_end"`

    PurchaseType   *string          `json:"purchase_type"`
    PurchaseBrand  filter.StringSet `json:"purchase_brand"`
    Section        filter.StringSet `json:"section"`
    Product        filter.StringSet `json:"product"`
    Model          filter.StringSet `json:"model"`
    Item           filter.StringSet `json:"item"`
    ValueThreshold *decimal.Decimal `json:"value_threshold"`
}

func (in CampaignInput) Validate() error {
    if strings.TrimSpace(in.Name) == "" {
        return appErrors.NewValidation("name is required")
    }
    if in.StartDate.IsZero() || in.EndDate.IsZero() {
        return appErrors.NewValidation("start_date and end_date are required")
    }
    if in.EndDate.Before(in.StartDate.Time) {
        return appErrors.NewValidation("end_date must not be before start_date")
    }
    return nil
}

// ToModel maps the body onto a campaign row.
func (in CampaignInput) ToModel() *model.Campaign {
    return &model.Campaign{
        Name:      strings.TrimSpace(in.Name),
        StartDate: in.StartDate.Time,
        EndDate:   in.EndDate.Time,
        BasedOn:   in.BasedOn,

        RecencyOp:    in.RecencyOp,
        RecencyMin:   in.RecencyMin,
        RecencyMax:   in.RecencyMax,
        FrequencyOp:  in.FrequencyOp,
        FrequencyMin: in.FrequencyMin,
        FrequencyMax: in.FrequencyMax,
        MonetaryOp:   in.MonetaryOp,
        MonetaryMin:  in.MonetaryMin,
        MonetaryMax:  in.MonetaryMax,

        RScore:      pq.Int64Array(in.RScore),
        FScore:      pq.Int64Array(in.FScore),
        MScore:      pq.Int64Array(in.MScore),
        RFMSegments: pq.StringArray(in.RFMSegments),

        Branch: pq.StringArray(in.Branch),
        City:   pq.StringArray(in.City),
        State:  pq.StringArray(in.State),

        BirthdayStart:    dayPtr(in.BirthdayStart),
        BirthdayEnd:      dayPtr(in.BirthdayEnd),
        AnniversaryStart: dayPtr(in.AnniversaryStart),
        AnniversaryEnd:   dayPtr(in.AnniversaryEnd),

        PurchaseType:   in.PurchaseType,
        PurchaseBrand:  pq.StringArray(in.PurchaseBrand),
        Section:        pq.StringArray(in.Section),
        Product:        pq.StringArray(in.Product),
        Model:          pq.StringArray(in.Model),
        Item:           pq.StringArray(in.Item),
        ValueThreshold: in.ValueThreshold,
    }
}

func dayPtr(d *filter.Date) *time.Time {
    if d == nil || d.IsZero() {
        return nil
    }
    t := d.Time
    return &t
}
