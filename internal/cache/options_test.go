package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/unclebandit/crm-campaign-backend/internal/cache"
	"github.com/unclebandit/crm-campaign-backend/internal/model"
)

func newCache(t *testing.T, ttl time.Duration) (*cache.OptionsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	oc, err := cache.NewOptionsCache(mr.Addr(), ttl)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { oc.Close() })
	return oc, mr
}

func TestOptionsCache_MissThenRoundTrip(t *testing.T) {
	oc, _ := newCache(t, 5*time.Minute)
	ctx := context.Background()

	if _, ok, err := oc.Get(ctx); err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}

	opts := &model.CampaignOptions{
		RScores:       []int64{1, 2, 3, 4, 5},
		RFMSegments:   []string{"Champions", "At Risk"},
		Branches:      []string{"Koramangala"},
		BranchCityMap: map[string][]string{"Koramangala": {"Bengaluru"}},
	}
	if err := oc.Set(ctx, opts); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := oc.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if len(got.RScores) != 5 || got.RFMSegments[1] != "At Risk" || got.BranchCityMap["Koramangala"][0] != "Bengaluru" {
		t.Errorf("unexpected options %+v", got)
	}
}

func TestOptionsCache_Expires(t *testing.T) {
	oc, mr := newCache(t, time.Minute)
	ctx := context.Background()

	if err := oc.Set(ctx, &model.CampaignOptions{Brands: []string{"Whirlpool"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, ok, err := oc.Get(ctx); err != nil || ok {
		t.Errorf("expected expiry, got ok=%v err=%v", ok, err)
	}
}

func TestOptionsCache_Invalidate(t *testing.T) {
	oc, _ := newCache(t, time.Minute)
	ctx := context.Background()

	if err := oc.Set(ctx, &model.CampaignOptions{Brands: []string{"Whirlpool"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := oc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := oc.Get(ctx); ok {
		t.Error("expected a miss after invalidate")
	}
}

func TestOptionsCache_CorruptEntry(t *testing.T) {
	oc, mr := newCache(t, time.Minute)
	mr.Set("campaign:options", "not json")

	if _, ok, err := oc.Get(context.Background()); err == nil || ok {
		t.Errorf("expected a decode error, got ok=%v err=%v", ok, err)
	}
}
