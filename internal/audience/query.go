package audience

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crm-campaign-backend/internal/filter"
)

// Shape is the table layout a query reads from.
type Shape int

const (
	AnalysisOnly Shape = iota
	SalesOnly
	Joined
)

func (s Shape) String() string {
	switch s {
	case SalesOnly:
		return "sales"
	case Joined:
		return "joined"
	default:
		return "analysis"
	}
}

// Shape picks the layout: both namespaces join, sales alone never touches the
// analysis table, and anything else (no filters included) reads analysis.
func (c Clauses) Shape() Shape {
	switch {
	case c.HasSales() && c.HasAnalysis():
		return Joined
	case c.HasSales():
		return SalesOnly
	default:
		return AnalysisOnly
	}
}

// Run count modes for the campaign run preview.
const (
	CountFull        = "full"
	CountBrandWindow = "brand_window"
)

// Query is ready to hand to sqlx: SQL uses $n placeholders.
type Query struct {
	Shape Shape
	SQL   string
	Args  []any
}

const (
	selectJoined   = "SELECT DISTINCT s.cust_mobileno AS mobile_no, a.customer_name, a.segment_map"
	selectSales    = "SELECT DISTINCT s.cust_mobileno AS mobile_no"
	selectAnalysis = "SELECT DISTINCT a.cust_mobileno AS mobile_no, a.customer_name, a.segment_map"

	fromJoined   = " FROM crm_sales s JOIN crm_analysis a ON s.cust_mobileno = a.cust_mobileno"
	fromSales    = " FROM crm_sales s"
	fromAnalysis = " FROM crm_analysis a"

	// window restricts sales rows to the campaign's own date range.
	fromWindow = " FROM crm_sales s" +
		" JOIN (SELECT start_date, end_date FROM campaigns WHERE id = :campaign_id) c" +
		" ON s.invoice_date BETWEEN c.start_date AND c.end_date" +
		" JOIN crm_analysis a ON s.cust_mobileno = a.cust_mobileno"

	countDistinct = "SELECT COUNT(DISTINCT a.cust_mobileno) AS count"
	orderByMobile = " ORDER BY mobile_no"
)

// Resolve builds the audience listing for ad-hoc criteria.
func Resolve(c Clauses) (Query, error) {
	switch shape := c.Shape(); shape {
	case Joined:
		return build(shape, selectJoined+fromJoined, c.All(), nil, orderByMobile)
	case SalesOnly:
		return build(shape, selectSales+fromSales, c.Sales, nil, orderByMobile)
	default:
		return build(shape, selectAnalysis+fromAnalysis, c.Analysis, nil, orderByMobile)
	}
}

// ResolveInWindow builds a stored campaign's audience: sales inside the campaign
// dates, always joined with analysis.
func ResolveInWindow(c Clauses, campaignID int) (Query, error) {
	return build(Joined, selectJoined+fromWindow, c.All(), map[string]any{"campaign_id": campaignID}, orderByMobile)
}

// CountShortlisted counts distinct customers matching c over the sales/analysis join.
func CountShortlisted(c Clauses) (Query, error) {
	return build(Joined, countDistinct+fromJoined, c.All(), nil, "")
}

// CountTotal counts every customer present in both tables.
func CountTotal() (Query, error) {
	return build(Joined, countDistinct+fromJoined, nil, nil, "")
}

// CountForCampaign counts a campaign's shortlisted customers inside its window.
// CountBrandWindow keeps only the brand constraint; any other mode applies every
// compiled predicate.
func CountForCampaign(crit filter.Criteria, campaignID int, mode string) (Query, error) {
	if mode == CountBrandWindow {
		crit = filter.Criteria{Brand: crit.Brand}
	}
	c := Compile(crit)
	return build(Joined, countDistinct+fromWindow, c.All(), map[string]any{"campaign_id": campaignID}, "")
}

func build(shape Shape, head string, preds []Predicate, extra map[string]any, tail string) (Query, error) {
	params := make(map[string]any, len(extra)+len(preds))
	for k, v := range extra {
		params[k] = v
	}

	var sb strings.Builder
	sb.WriteString(head)
	for i, p := range preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.SQL)
		for k, v := range p.Params {
			params[k] = v
		}
	}
	sb.WriteString(tail)

	q, args, err := sqlx.Named(sb.String(), params)
	if err != nil {
		return Query{}, fmt.Errorf("bind audience query: %w", err)
	}
	q, args, err = sqlx.In(q, args...)
	if err != nil {
		return Query{}, fmt.Errorf("expand audience query: %w", err)
	}
	return Query{Shape: shape, SQL: sqlx.Rebind(sqlx.DOLLAR, q), Args: args}, nil
}
