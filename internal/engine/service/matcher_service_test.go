package service

import (
	"context"
	"testing"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"go.uber.org/zap"
)

func TestBuildVendorIndex(t *testing.T) {
	vendors := []entity.Vendor{
		{
			ID:   "v-001",
			Name: "Orchard Weaving Co",
			Aliases: []entity.VendorAlias{
				{VendorID: "v-001", Alias: "Orchard Weaving"},
				{VendorID: "v-001", Alias: "  ORCHARD WVG CO  "},
			},
		},
		{ID: "v-002", Name: "Lantern Textiles"},
	}

	index := buildVendorIndex(vendors)

	cases := map[string]string{
		"orchard weaving co": "v-001",
		"orchard weaving":    "v-001",
		"orchard wvg co":     "v-001",
		"lantern textiles":   "v-002",
	}
	for name, want := range cases {
		if got := index[name]; got != want {
			t.Errorf("index[%q] = %q, want %q", name, got, want)
		}
	}
	if _, ok := index["unknown mills"]; ok {
		t.Error("unexpected entry for unknown vendor")
	}
}

func TestComputeVariance(t *testing.T) {
	cases := []struct {
		projQty   int
		projValue int64
		actQty    int
		actValue  int64
		wantQty   int
		wantValue int64
		wantPct   int
	}{
		// Over-order: 100 projected, 120 actual.
		{100, 1000_00, 120, 1300_00, 20, 300_00, 20},
		{100, 1000_00, 80, 700_00, -20, -300_00, -20},
		{3, 30_00, 4, 40_00, 1, 10_00, 33},
		// Zero projected quantity never faults.
		{0, 0, 50, 500_00, 50, 500_00, 0},
	}
	for _, tc := range cases {
		qty, value, pct := computeVariance(tc.projQty, tc.projValue, tc.actQty, tc.actValue)
		if qty != tc.wantQty || value != tc.wantValue || pct != tc.wantPct {
			t.Errorf("computeVariance(%d, %d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				tc.projQty, tc.projValue, tc.actQty, tc.actValue,
				qty, value, pct, tc.wantQty, tc.wantValue, tc.wantPct)
		}
	}
}

func TestApplyMatchAndClearRoundTrip(t *testing.T) {
	now := day(2026, time.March, 15)
	p := entity.ActiveProjection{
		ID:             "proj-001",
		VendorID:       "v-001",
		SKU:            "ABC123",
		TargetYear:     2025,
		TargetMonth:    6,
		ProjectedQty:   100,
		ProjectedValue: 1000_00,
		MatchStatus:    entity.MatchStatusUnmatched,
	}

	applyMatch(&p, "PO-2204", 120, 1300_00, now)

	if p.MatchStatus != entity.MatchStatusMatched {
		t.Fatalf("status = %s", p.MatchStatus)
	}
	if *p.MatchedPONumber != "PO-2204" || *p.QtyVariance != 20 || *p.VariancePct != 20 {
		t.Fatalf("match fields = %v %v %v", *p.MatchedPONumber, *p.QtyVariance, *p.VariancePct)
	}

	// Matching twice with the same inputs rewrites identical derived fields.
	applyMatch(&p, "PO-2204", 120, 1300_00, now)
	if *p.QtyVariance != 20 || *p.ValueVariance != 300_00 || *p.VariancePct != 20 {
		t.Fatalf("second apply changed variance: %v %v %v", *p.QtyVariance, *p.ValueVariance, *p.VariancePct)
	}
}

func TestMatchOneMTOCollectionNeverFallsBackToSKU(t *testing.T) {
	svc := NewMatcherService(policy.Default(), &repository.Repositories{}, zap.NewNop())

	ship := day(2026, time.February, 10)
	order := ImportedOrder{
		PONumber:           "PO-7001",
		VendorName:         "Orchard Weaving Co",
		SKU:                "ABC123",
		OrderQty:           50,
		ProgramDescription: "MTO RIVERDALE FEB 2026",
		OriginalShipDate:   &ship,
	}
	vendorIndex := map[string]string{"orchard weaving co": "v-001"}

	// A SKU projection exists for the same vendor and month, but the order
	// names a collection, so it must not consume it.
	regular := map[string]*entity.ActiveProjection{
		lookupKey("v-001", 2026, 2, "ABC123"): {ID: "p-sku", ProjectedQty: 50},
	}
	mto := map[string]*entity.ActiveProjection{}

	outcome := svc.matchOne(context.Background(), order, vendorIndex, regular, mto, time.Now())
	if outcome.Matched {
		t.Fatalf("MTO order matched a SKU projection: %+v", outcome)
	}
	if outcome.SkipReason != SkipNoProjection || outcome.Collection != "riverdale" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(regular) != 1 {
		t.Fatal("SKU projection must stay available for a regular order")
	}
}

func TestLookupKeyCaseInsensitive(t *testing.T) {
	if lookupKey("v-001", 2025, 6, "ABC123") != lookupKey("v-001", 2025, 6, "abc123") {
		t.Fatal("lookup key should be case-insensitive on the term")
	}
	if lookupKey("v-001", 2025, 6, "abc123") == lookupKey("v-001", 2025, 7, "abc123") {
		t.Fatal("lookup key must separate months")
	}
}

func TestFilterDueProjections(t *testing.T) {
	now := day(2026, time.March, 15)
	projections := []entity.ActiveProjection{
		{ID: "p-overdue", TargetYear: 2026, TargetMonth: 2},   // month start past
		{ID: "p-soon", TargetYear: 2026, TargetMonth: 4},      // within 90 days
		{ID: "p-far", TargetYear: 2026, TargetMonth: 12},      // beyond horizon
		{ID: "p-mto", TargetYear: 2026, TargetMonth: 2, IsMTO: true}, // MTO excluded
	}

	due := filterDueProjections(projections, 90, now)

	if len(due) != 2 {
		t.Fatalf("due = %d entries, want 2", len(due))
	}
	// Most urgent first.
	if due[0].Projection.ID != "p-overdue" || !due[0].Overdue {
		t.Errorf("first entry = %s overdue=%v", due[0].Projection.ID, due[0].Overdue)
	}
	if due[1].Projection.ID != "p-soon" || due[1].Overdue {
		t.Errorf("second entry = %s overdue=%v", due[1].Projection.ID, due[1].Overdue)
	}
}
