// Package audience turns sparse criteria into parameterised SQL over the sales
// ledger (crm_sales, alias s) and the per-customer analysis table (crm_analysis, alias a).
package audience

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/crm-campaign-backend/internal/filter"
)

// Namespace says which table a predicate constrains.
type Namespace int

const (
	Sales Namespace = iota
	Analysis
)

// Predicate is one SQL condition with its own named parameters.
type Predicate struct {
	Namespace Namespace
	SQL       string
	Params    map[string]any
}

// Clauses groups compiled predicates by namespace, in rule order.
type Clauses struct {
	Sales    []Predicate
	Analysis []Predicate
}

func (c Clauses) HasSales() bool { return len(c.Sales) > 0 }

func (c Clauses) HasAnalysis() bool { return len(c.Analysis) > 0 }

// All returns sales predicates followed by analysis predicates.
func (c Clauses) All() []Predicate {
	out := make([]Predicate, 0, len(c.Sales)+len(c.Analysis))
	out = append(out, c.Sales...)
	return append(out, c.Analysis...)
}

type rule struct {
	ns    Namespace
	build func(c *filter.Criteria) (Predicate, bool)
}

// rangeOps maps accepted operator tokens to SQL. "between" is handled apart
// because it needs both bounds.
var rangeOps = map[string]string{
	"=":  "=",
	">=": ">=",
	"<=": "<=",
}

// rules is evaluated top to bottom, so parameter order in generated SQL is stable.
var rules = []rule{
	inSet(Sales, "s.brand", "brand", func(c *filter.Criteria) []string { return c.Brand }),
	inSet(Sales, "s.section", "section", func(c *filter.Criteria) []string { return c.Section }),
	inSet(Sales, "s.product", "product", func(c *filter.Criteria) []string { return c.Product }),
	inSet(Sales, "s.modelno", "model", func(c *filter.Criteria) []string { return c.Model }),
	inSet(Sales, "s.item_code", "item", func(c *filter.Criteria) []string { return c.Item }),
	atLeast(Sales, "s.total_sales", "val_threshold", func(c *filter.Criteria) filter.Opt[decimal.Decimal] { return c.ValueThreshold }),

	inSet(Analysis, "a.last_in_store_name", "branch", func(c *filter.Criteria) []string { return c.Branch }),
	inSet(Analysis, "a.last_in_store_city", "city", func(c *filter.Criteria) []string { return c.City }),
	inSet(Analysis, "a.last_in_store_state", "state", func(c *filter.Criteria) []string { return c.State }),
	inSet(Analysis, "a.segment_map", "segment", func(c *filter.Criteria) []string { return c.Segment }),
	inSet(Analysis, "a.r_score", "r_score", func(c *filter.Criteria) []int64 { return c.RScore }),
	inSet(Analysis, "a.f_score", "f_score", func(c *filter.Criteria) []int64 { return c.FScore }),
	inSet(Analysis, "a.m_score", "m_score", func(c *filter.Criteria) []int64 { return c.MScore }),

	inRange(Analysis, "a.days", "r", func(c *filter.Criteria) (filter.Opt[string], filter.Opt[int64], filter.Opt[int64]) {
		return c.RecencyOp, c.RecencyMin, c.RecencyMax
	}),
	inRange(Analysis, "a.f_value", "f", func(c *filter.Criteria) (filter.Opt[string], filter.Opt[int64], filter.Opt[int64]) {
		return c.FrequencyOp, c.FrequencyMin, c.FrequencyMax
	}),
	inRange(Analysis, "a.m_value", "m", func(c *filter.Criteria) (filter.Opt[string], filter.Opt[decimal.Decimal], filter.Opt[decimal.Decimal]) {
		return c.MonetaryOp, c.MonetaryMin, c.MonetaryMax
	}),

	within(Analysis, "a.dob", "bday", func(c *filter.Criteria) (filter.Opt[filter.Date], filter.Opt[filter.Date]) {
		return c.BirthdayStart, c.BirthdayEnd
	}),
	within(Analysis, "a.anniv_dt", "anniv", func(c *filter.Criteria) (filter.Opt[filter.Date], filter.Opt[filter.Date]) {
		return c.AnniversaryStart, c.AnniversaryEnd
	}),
}

func inSet[T any](ns Namespace, column, param string, get func(*filter.Criteria) []T) rule {
	return rule{ns: ns, build: func(c *filter.Criteria) (Predicate, bool) {
		vals := get(c)
		if len(vals) == 0 {
			return Predicate{}, false
		}
		return Predicate{
			Namespace: ns,
			SQL:       fmt.Sprintf("%s IN (:%s)", column, param),
			Params:    map[string]any{param: vals},
		}, true
	}}
}

func atLeast[T any](ns Namespace, column, param string, get func(*filter.Criteria) filter.Opt[T]) rule {
	return rule{ns: ns, build: func(c *filter.Criteria) (Predicate, bool) {
		v, ok := get(c).Get()
		if !ok {
			return Predicate{}, false
		}
		return Predicate{
			Namespace: ns,
			SQL:       fmt.Sprintf("%s >= :%s", column, param),
			Params:    map[string]any{param: v},
		}, true
	}}
}

// inRange needs an operator and a minimum. "between" also needs a maximum and is
// dropped without one; unknown operators are dropped too.
func inRange[T any](ns Namespace, column, prefix string, get func(*filter.Criteria) (filter.Opt[string], filter.Opt[T], filter.Opt[T])) rule {
	return rule{ns: ns, build: func(c *filter.Criteria) (Predicate, bool) {
		op, lower, upper := get(c)
		opv, ok := op.Get()
		if !ok {
			return Predicate{}, false
		}
		lo, ok := lower.Get()
		if !ok {
			return Predicate{}, false
		}
		minParam, maxParam := prefix+"_min", prefix+"_max"
		if opv == "between" {
			hi, ok := upper.Get()
			if !ok {
				return Predicate{}, false
			}
			return Predicate{
				Namespace: ns,
				SQL:       fmt.Sprintf("%s BETWEEN :%s AND :%s", column, minParam, maxParam),
				Params:    map[string]any{minParam: lo, maxParam: hi},
			}, true
		}
		sqlOp, ok := rangeOps[opv]
		if !ok {
			return Predicate{}, false
		}
		return Predicate{
			Namespace: ns,
			SQL:       fmt.Sprintf("%s %s :%s", column, sqlOp, minParam),
			Params:    map[string]any{minParam: lo},
		}, true
	}}
}

// within needs both ends of the window.
func within(ns Namespace, column, prefix string, get func(*filter.Criteria) (filter.Opt[filter.Date], filter.Opt[filter.Date])) rule {
	return rule{ns: ns, build: func(c *filter.Criteria) (Predicate, bool) {
		start, end := get(c)
		from, ok := start.Get()
		if !ok {
			return Predicate{}, false
		}
		to, ok := end.Get()
		if !ok {
			return Predicate{}, false
		}
		startParam, endParam := prefix+"_start", prefix+"_end"
		return Predicate{
			Namespace: ns,
			SQL:       fmt.Sprintf("%s BETWEEN :%s AND :%s", column, startParam, endParam),
			Params:    map[string]any{startParam: from, endParam: to},
		}, true
	}}
}

// Compile evaluates every rule against c. Rules that do not apply contribute nothing.
func Compile(c filter.Criteria) Clauses {
	var out Clauses
	for _, r := range rules {
		p, ok := r.build(&c)
		if !ok {
			continue
		}
		switch r.ns {
		case Sales:
			out.Sales = append(out.Sales, p)
		default:
			out.Analysis = append(out.Analysis, p)
		}
	}
	return out
}
