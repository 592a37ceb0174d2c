package repository

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunListQuery_DefaultsToActiveToday(t *testing.T) {
	q, args := runListQuery(nil, nil)
	if !strings.Contains(q, "start_date <= CURRENT_DATE AND end_date >= CURRENT_DATE") {
		t.Errorf("unexpected query %q", q)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestRunListQuery_Bounds(t *testing.T) {
	from := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)

	q, args := runListQuery(&from, &to)
	if !strings.Contains(q, "WHERE start_date >= $1 AND end_date <= $2") {
		t.Errorf("unexpected query %q", q)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}

	q, args = runListQuery(nil, &to)
	if !strings.Contains(q, "WHERE end_date <= $1") || len(args) != 1 {
		t.Errorf("unexpected query %q %v", q, args)
	}
}

func TestUpdateCampaignReplacesEveryFilterColumn(t *testing.T) {
	for _, col := range filterColumns {
		if !strings.Contains(updateCampaign, col+" = :"+col) {
			t.Errorf("update does not set %s", col)
		}
	}
	if !strings.HasSuffix(updateCampaign, "WHERE id = :id") {
		t.Errorf("unexpected update %q", updateCampaign)
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{[]byte("9876543210"), "9876543210"},
		{int64(42), "42"},
		{float64(1500.5), "1500.5"},
		{time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), "1990-05-17"},
	}
	for _, tc := range cases {
		if got := text(tc.in); got != tc.want {
			t.Errorf("text(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestDistinctScores_RejectsUnknownColumn(t *testing.T) {
	repo := &OptionsRepository{}
	for _, col := range []string{"segment_map", "r_score; DROP TABLE crm_analysis", ""} {
		if _, err := repo.DistinctScores(context.Background(), col); err == nil {
			t.Errorf("expected %q to be rejected", col)
		}
	}
}
