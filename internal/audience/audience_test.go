package audience_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/crm-campaign-backend/internal/audience"
	"github.com/unclebandit/crm-campaign-backend/internal/filter"
)

func TestResolve_NoFiltersReadsAnalysisWithoutWhere(t *testing.T) {
	q, err := audience.Resolve(audience.Compile(filter.Criteria{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT DISTINCT a.cust_mobileno AS mobile_no, a.customer_name, a.segment_map FROM crm_analysis a ORDER BY mobile_no"
	if q.SQL != want {
		t.Errorf("expected %q, got %q", want, q.SQL)
	}
	if q.Shape != audience.AnalysisOnly {
		t.Errorf("expected analysis shape, got %s", q.Shape)
	}
	if len(q.Args) != 0 {
		t.Errorf("expected no args, got %v", q.Args)
	}
}

func TestResolve_SalesOnlyNeverJoinsAnalysis(t *testing.T) {
	crit := filter.Criteria{
		Brand:      filter.StringSet{"Samsung", "LG"},
		RecencyOp:  filter.Some("between"),
		RecencyMin: filter.Some(int64(10)),
	}

	q, err := audience.Resolve(audience.Compile(crit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT DISTINCT s.cust_mobileno AS mobile_no FROM crm_sales s WHERE s.brand IN ($1, $2) ORDER BY mobile_no"
	if q.SQL != want {
		t.Errorf("expected %q, got %q", want, q.SQL)
	}
	if strings.Contains(q.SQL, "crm_analysis") {
		t.Error("sales-only query must not reference crm_analysis")
	}
	if len(q.Args) != 2 || q.Args[0] != "Samsung" || q.Args[1] != "LG" {
		t.Errorf("unexpected args %v", q.Args)
	}
}

func TestResolve_BothNamespacesJoinDistinct(t *testing.T) {
	crit := filter.Criteria{
		Brand:   filter.StringSet{"Sony"},
		Segment: filter.StringSet{"Champions"},
		RScore:  []int64{4, 5},
	}

	q, err := audience.Resolve(audience.Compile(crit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Shape != audience.Joined {
		t.Errorf("expected joined shape, got %s", q.Shape)
	}
	for _, frag := range []string{
		"SELECT DISTINCT s.cust_mobileno AS mobile_no",
		"JOIN crm_analysis a ON s.cust_mobileno = a.cust_mobileno",
		"WHERE s.brand IN ($1) AND a.segment_map IN ($2) AND a.r_score IN ($3, $4)",
	} {
		if !strings.Contains(q.SQL, frag) {
			t.Errorf("expected %q in %q", frag, q.SQL)
		}
	}
	if len(q.Args) != 4 {
		t.Errorf("expected 4 args, got %v", q.Args)
	}
}

func TestCompile_RangeRules(t *testing.T) {
	cases := []struct {
		name string
		crit filter.Criteria
		want string
	}{
		{
			name: "between with both bounds",
			crit: filter.Criteria{RecencyOp: filter.Some("between"), RecencyMin: filter.Some(int64(30)), RecencyMax: filter.Some(int64(90))},
			want: "a.days BETWEEN :r_min AND :r_max",
		},
		{
			name: "greater or equal",
			crit: filter.Criteria{FrequencyOp: filter.Some(">="), FrequencyMin: filter.Some(int64(3))},
			want: "a.f_value >= :f_min",
		},
		{
			name: "monetary equality",
			crit: filter.Criteria{MonetaryOp: filter.Some("="), MonetaryMin: filter.Some(decimal.NewFromInt(5000))},
			want: "a.m_value = :m_min",
		},
		{
			name: "between without max is dropped",
			crit: filter.Criteria{RecencyOp: filter.Some("between"), RecencyMin: filter.Some(int64(30))},
		},
		{
			name: "unknown operator is dropped",
			crit: filter.Criteria{RecencyOp: filter.Some("~"), RecencyMin: filter.Some(int64(30))},
		},
		{
			name: "operator without min is dropped",
			crit: filter.Criteria{FrequencyOp: filter.Some("<=")},
		},
	}

	for _, tc := range cases {
		c := audience.Compile(tc.crit)
		if c.HasSales() {
			t.Errorf("%s: range rules must not produce sales predicates", tc.name)
		}
		if tc.want == "" {
			if c.HasAnalysis() {
				t.Errorf("%s: expected no predicate, got %v", tc.name, c.Analysis)
			}
			continue
		}
		if len(c.Analysis) != 1 || c.Analysis[0].SQL != tc.want {
			t.Errorf("%s: expected %q, got %v", tc.name, tc.want, c.Analysis)
		}
	}
}

func TestCompile_DateWindowNeedsBothEnds(t *testing.T) {
	start := filter.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end := filter.NewDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	half := audience.Compile(filter.Criteria{BirthdayStart: filter.Some(start)})
	if half.HasAnalysis() {
		t.Errorf("expected half-open birthday window to be dropped, got %v", half.Analysis)
	}

	full := audience.Compile(filter.Criteria{AnniversaryStart: filter.Some(start), AnniversaryEnd: filter.Some(end)})
	if len(full.Analysis) != 1 || full.Analysis[0].SQL != "a.anniv_dt BETWEEN :anniv_start AND :anniv_end" {
		t.Fatalf("unexpected predicates %v", full.Analysis)
	}

	q, err := audience.Resolve(full)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Args) != 2 {
		t.Fatalf("expected 2 args, got %v", q.Args)
	}
}

func TestCompile_ValueThresholdIsSalesSide(t *testing.T) {
	c := audience.Compile(filter.Criteria{ValueThreshold: filter.Some(decimal.NewFromInt(0))})
	if len(c.Sales) != 1 || c.Sales[0].SQL != "s.total_sales >= :val_threshold" {
		t.Errorf("expected zero threshold to still apply, got %v", c.Sales)
	}
}

func TestResolveInWindow_BindsCampaignFirst(t *testing.T) {
	q, err := audience.ResolveInWindow(audience.Compile(filter.Criteria{Brand: filter.StringSet{"Whirlpool"}}), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, frag := range []string{
		"(SELECT start_date, end_date FROM campaigns WHERE id = $1) c",
		"s.invoice_date BETWEEN c.start_date AND c.end_date",
		"JOIN crm_analysis a",
		"WHERE s.brand IN ($2)",
	} {
		if !strings.Contains(q.SQL, frag) {
			t.Errorf("expected %q in %q", frag, q.SQL)
		}
	}
	if len(q.Args) != 2 || q.Args[0] != 9 || q.Args[1] != "Whirlpool" {
		t.Errorf("unexpected args %v", q.Args)
	}
}

func TestCountForCampaign_Modes(t *testing.T) {
	crit := filter.Criteria{
		Brand:   filter.StringSet{"Voltas"},
		Segment: filter.StringSet{"At Risk"},
	}

	full, err := audience.CountForCampaign(crit, 3, audience.CountFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(full.SQL, "a.segment_map IN ($3)") {
		t.Errorf("full mode should apply every predicate: %q", full.SQL)
	}

	legacy, err := audience.CountForCampaign(crit, 3, audience.CountBrandWindow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(legacy.SQL, "segment_map IN") {
		t.Errorf("brand_window mode should only keep the brand: %q", legacy.SQL)
	}
	if !strings.HasPrefix(legacy.SQL, "SELECT COUNT(DISTINCT a.cust_mobileno)") {
		t.Errorf("unexpected count query %q", legacy.SQL)
	}
}

func TestCountTotal_HasNoWhere(t *testing.T) {
	q, err := audience.CountTotal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(q.SQL, "WHERE") {
		t.Errorf("total count must be unfiltered: %q", q.SQL)
	}
}
