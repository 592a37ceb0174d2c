// Package filter holds the audience criteria an operator sends or a campaign stores.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

// Criteria is a sparse audience filter. Every field is optional and an absent
// field never produces a constraint.
type Criteria struct {
	// sales namespace
	Brand          StringSet            `json:"purchase_brand"`
	Section        StringSet            `json:"section"`
	Product        StringSet            `json:"product"`
	Model          StringSet            `json:"model"`
	Item           StringSet            `json:"item"`
	ValueThreshold Opt[decimal.Decimal] `json:"value_threshold"`

	// analysis namespace
	Branch  StringSet `json:"branch"`
	City    StringSet `json:"city"`
	State   StringSet `json:"state"`
	Segment StringSet `json:"rfm_segments"`
	RScore  []int64   `json:"r_score"`
	FScore  []int64   `json:"f_score"`
	MScore  []int64   `json:"m_score"`

	RecencyOp    Opt[string]          `json:"recency_op"`
	RecencyMin   Opt[int64]           `json:"recency_min"`
	RecencyMax   Opt[int64]           `json:"recency_max"`
	FrequencyOp  Opt[string]          `json:"frequency_op"`
	FrequencyMin Opt[int64]           `json:"frequency_min"`
	FrequencyMax Opt[int64]           `json:"frequency_max"`
	MonetaryOp   Opt[string]          `json:"monetary_op"`
	MonetaryMin  Opt[decimal.Decimal] `json:"monetary_min"`
	MonetaryMax  Opt[decimal.Decimal] `json:"monetary_max"`

	BirthdayStart    Opt[Date] `json:"birthday_start"`
	BirthdayEnd      Opt[Date] `json:"birthday_end"`
	AnniversaryStart Opt[Date] `json:"anniversary_start"`
	AnniversaryEnd   Opt[Date] `json:"anniversary_end"`
}

// legacyCriteria carries the field names of the older number-download request.
type legacyCriteria struct {
	PurchaseBrand  StringSet            `json:"purchaseBrand"`
	Brand          StringSet            `json:"brand"`
	ValueThreshold Opt[decimal.Decimal] `json:"valueThreshold"`
	RFMSegment     StringSet            `json:"rfmSegment"`
	RScore         []int64              `json:"rScore"`
	FScore         []int64              `json:"fScore"`
	MScore         []int64              `json:"mScore"`
	RecencyOp      Opt[string]          `json:"recencyOp"`
	RecencyMin     Opt[int64]           `json:"recencyMin"`
	RecencyMax     Opt[int64]           `json:"recencyMax"`
	FrequencyOp    Opt[string]          `json:"frequencyOp"`
	FrequencyMin   Opt[int64]           `json:"frequencyMin"`
	FrequencyMax   Opt[int64]           `json:"frequencyMax"`
	MonetaryOp     Opt[string]          `json:"monetaryOp"`
	MonetaryMin    Opt[decimal.Decimal] `json:"monetaryMin"`
	MonetaryMax    Opt[decimal.Decimal] `json:"monetaryMax"`
}

func (c *Criteria) UnmarshalJSON(b []byte) error {
	type plain Criteria
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var l legacyCriteria
	if err := json.Unmarshal(b, &l); err != nil {
		return err
	}
	*c = Criteria(p)
	c.mergeLegacy(l)
	return nil
}

func (c *Criteria) mergeLegacy(l legacyCriteria) {
	c.Brand = firstSet(c.Brand, l.PurchaseBrand, l.Brand)
	c.Segment = firstSet(c.Segment, l.RFMSegment)
	if len(c.RScore) == 0 {
		c.RScore = l.RScore
	}
	if len(c.FScore) == 0 {
		c.FScore = l.FScore
	}
	if len(c.MScore) == 0 {
		c.MScore = l.MScore
	}
	c.ValueThreshold = or(c.ValueThreshold, l.ValueThreshold)
	c.RecencyOp = or(c.RecencyOp, l.RecencyOp)
	c.RecencyMin = or(c.RecencyMin, l.RecencyMin)
	c.RecencyMax = or(c.RecencyMax, l.RecencyMax)
	c.FrequencyOp = or(c.FrequencyOp, l.FrequencyOp)
	c.FrequencyMin = or(c.FrequencyMin, l.FrequencyMin)
	c.FrequencyMax = or(c.FrequencyMax, l.FrequencyMax)
	c.MonetaryOp = or(c.MonetaryOp, l.MonetaryOp)
	c.MonetaryMin = or(c.MonetaryMin, l.MonetaryMin)
	c.MonetaryMax = or(c.MonetaryMax, l.MonetaryMax)
}

func firstSet(sets ...StringSet) StringSet {
	for _, s := range sets {
		if len(s) > 0 {
			return s
		}
	}
	return nil
}

func or[T any](a, b Opt[T]) Opt[T] {
	if a.IsSet() {
		return a
	}
	return b
}

// Normalize trims operator tokens and drops blank set entries and blank dates.
func (c *Criteria) Normalize() {
	for _, s := range []*StringSet{&c.Brand, &c.Section, &c.Product, &c.Model, &c.Item, &c.Branch, &c.City, &c.State, &c.Segment} {
		*s = compact(*s)
	}
	for _, op := range []*Opt[string]{&c.RecencyOp, &c.FrequencyOp, &c.MonetaryOp} {
		if v, ok := op.Get(); ok {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				*op = None[string]()
			} else {
				*op = Some(v)
			}
		}
	}
	for _, d := range []*Opt[Date]{&c.BirthdayStart, &c.BirthdayEnd, &c.AnniversaryStart, &c.AnniversaryEnd} {
		if v, ok := d.Get(); ok && v.IsZero() {
			*d = None[Date]()
		}
	}
}

func compact(in StringSet) StringSet {
	if len(in) == 0 {
		return nil
	}
	out := make(StringSet, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Decode reads criteria from a JSON body. An empty body means no criteria.
func Decode(r io.Reader) (Criteria, error) {
	var c Criteria
	if err := json.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Criteria{}, fmt.Errorf("decode criteria: %w", err)
	}
	c.Normalize()
	return c, nil
}

// FromCampaign derives criteria from a stored campaign row.
func FromCampaign(camp *model.Campaign) Criteria {
	c := Criteria{
		Brand:          StringSet(camp.PurchaseBrand),
		Section:        StringSet(camp.Section),
		Product:        StringSet(camp.Product),
		Model:          StringSet(camp.Model),
		Item:           StringSet(camp.Item),
		ValueThreshold: FromPtr(camp.ValueThreshold),

		Branch:  StringSet(camp.Branch),
		City:    StringSet(camp.City),
		State:   StringSet(camp.State),
		Segment: StringSet(camp.RFMSegments),
		RScore:  []int64(camp.RScore),
		FScore:  []int64(camp.FScore),
		MScore:  []int64(camp.MScore),

		RecencyOp:    FromPtr(camp.RecencyOp),
		RecencyMin:   FromPtr(camp.RecencyMin),
		RecencyMax:   FromPtr(camp.RecencyMax),
		FrequencyOp:  FromPtr(camp.FrequencyOp),
		FrequencyMin: FromPtr(camp.FrequencyMin),
		FrequencyMax: FromPtr(camp.FrequencyMax),
		MonetaryOp:   FromPtr(camp.MonetaryOp),
		MonetaryMin:  FromPtr(camp.MonetaryMin),
		MonetaryMax:  FromPtr(camp.MonetaryMax),
	}
	if camp.BirthdayStart != nil {
		c.BirthdayStart = Some(NewDate(*camp.BirthdayStart))
	}
	if camp.BirthdayEnd != nil {
		c.BirthdayEnd = Some(NewDate(*camp.BirthdayEnd))
	}
	if camp.AnniversaryStart != nil {
		c.AnniversaryStart = Some(NewDate(*camp.AnniversaryStart))
	}
	if camp.AnniversaryEnd != nil {
		c.AnniversaryEnd = Some(NewDate(*camp.AnniversaryEnd))
	}
	c.Normalize()
	return c
}
