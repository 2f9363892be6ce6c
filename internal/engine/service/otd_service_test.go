package service

import (
	"testing"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

var otdNow = day(2026, time.March, 15)

func TestRoundPct(t *testing.T) {
	cases := []struct {
		num, den int64
		want     float64
	}{
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 1, 100},
		{0, 5, 0},
		{7, 0, 0}, // zero denominator never faults
	}
	for _, tc := range cases {
		if got := roundPct(tc.num, tc.den); got != tc.want {
			t.Errorf("roundPct(%d, %d) = %v, want %v", tc.num, tc.den, got, tc.want)
		}
	}
}

func TestClassifyTrueOTD(t *testing.T) {
	// Shipped orders follow the externally-set shipment status.
	shippedOnTime := otdOrder{
		EarliestDelivery: dayPtr(2026, time.February, 1),
		ShipmentStatus:   entity.ShipmentStatusOnTime,
	}
	if got := classifyOTD(shippedOnTime, VariantTrue, nil, otdNow); got != otdShippedOnTime {
		t.Errorf("shipped on-time order classified %v", got)
	}

	shippedLate := otdOrder{
		EarliestDelivery: dayPtr(2026, time.February, 1),
		ShipmentStatus:   entity.ShipmentStatusLate,
	}
	if got := classifyOTD(shippedLate, VariantTrue, nil, otdNow); got != otdShippedLate {
		t.Errorf("shipped late order classified %v", got)
	}

	// Past cancel date, open, no delivery: overdue unshipped.
	overdue := otdOrder{
		Status:            entity.POStatusOpen,
		RevisedCancelDate: dayPtr(2026, time.March, 1),
	}
	if got := classifyOTD(overdue, VariantTrue, nil, otdNow); got != otdOverdue {
		t.Errorf("overdue unshipped order classified %v", got)
	}

	// Cancelled orders are never overdue backlog.
	cancelled := overdue
	cancelled.Status = entity.POStatusCancelled
	if got := classifyOTD(cancelled, VariantTrue, nil, otdNow); got != otdSkip {
		t.Errorf("cancelled order classified %v", got)
	}
}

func TestClassifyRevisedOTD(t *testing.T) {
	// Delivery on the revised cancel date is on time.
	onTime := otdOrder{
		EarliestDelivery:   dayPtr(2026, time.January, 10),
		RevisedCancelDate:  dayPtr(2026, time.January, 10),
		OriginalCancelDate: dayPtr(2025, time.December, 1),
	}
	if got := classifyOTD(onTime, VariantRevised, nil, otdNow); got != otdShippedOnTime {
		t.Errorf("on-time revised order classified %v", got)
	}

	late := otdOrder{
		EarliestDelivery:  dayPtr(2026, time.January, 11),
		RevisedCancelDate: dayPtr(2026, time.January, 10),
	}
	if got := classifyOTD(late, VariantRevised, nil, otdNow); got != otdShippedLate {
		t.Errorf("late revised order classified %v", got)
	}

	// Revised cancel date defaults to the original when absent.
	fallback := otdOrder{
		EarliestDelivery:   dayPtr(2026, time.January, 5),
		OriginalCancelDate: dayPtr(2026, time.January, 10),
	}
	if got := classifyOTD(fallback, VariantRevised, nil, otdNow); got != otdShippedOnTime {
		t.Errorf("fallback cancel-date order classified %v", got)
	}

	// Shipped but no cancel date on record: excluded from this formula.
	noCancel := otdOrder{EarliestDelivery: dayPtr(2026, time.January, 5)}
	if got := classifyOTD(noCancel, VariantRevised, nil, otdNow); got != otdSkip {
		t.Errorf("order without cancel date classified %v", got)
	}
}

func TestClassifyOriginalOTDExcusals(t *testing.T) {
	base := otdOrder{
		EarliestDelivery:   dayPtr(2026, time.February, 1),
		OriginalCancelDate: dayPtr(2026, time.January, 10),
	}

	// Late against the original date with a vendor-caused revision: late.
	vendorCaused := base
	vendorCaused.RevisedCause = entity.RevisedCauseVendor
	if got := classifyOTD(vendorCaused, VariantOriginal, nil, otdNow); got != otdShippedLate {
		t.Errorf("vendor-caused revision classified %v", got)
	}

	// Client- or forwarder-caused revisions are excused.
	for _, cause := range []string{entity.RevisedCauseClient, entity.RevisedCauseForwarder} {
		excusedOrder := base
		excusedOrder.RevisedCause = cause
		if got := classifyOTD(excusedOrder, VariantOriginal, nil, otdNow); got != otdShippedOnTime {
			t.Errorf("%s-caused revision classified %v", cause, got)
		}
	}

	// Caller-supplied excused late-cause codes are treated as on time.
	excusedCause := base
	excusedCause.LateCause = "port_congestion"
	excused := excusedSet([]string{"Port_Congestion"})
	if got := classifyOTD(excusedCause, VariantOriginal, excused, otdNow); got != otdShippedOnTime {
		t.Errorf("excused late cause classified %v", got)
	}
	if got := classifyOTD(excusedCause, VariantOriginal, nil, otdNow); got != otdShippedLate {
		t.Errorf("unexcused late cause classified %v", got)
	}

	// Stored codes with stray whitespace still match their excusal.
	paddedCause := base
	paddedCause.LateCause = " Port_Congestion "
	if got := classifyOTD(paddedCause, VariantOriginal, excused, otdNow); got != otdShippedOnTime {
		t.Errorf("padded late cause classified %v", got)
	}
}

func TestComputeOTDDenominators(t *testing.T) {
	rows := []otdOrder{
		{ // shipped on time
			EarliestDelivery: dayPtr(2026, time.January, 5),
			ShipmentStatus:   entity.ShipmentStatusOnTime,
			ShippedValue:     100_00,
			TotalValue:       120_00,
		},
		{ // shipped late
			EarliestDelivery: dayPtr(2026, time.February, 20),
			ShipmentStatus:   entity.ShipmentStatusLate,
			ShippedValue:     50_00,
			TotalValue:       50_00,
		},
		{ // overdue unshipped: contributes total value
			Status:            entity.POStatusOpen,
			RevisedCancelDate: dayPtr(2026, time.February, 1),
			TotalValue:        30_00,
		},
	}

	result := computeOTD(rows, VariantTrue, nil, otdNow)

	if result.ShippedCount != 2 || result.OverdueCount != 1 {
		t.Fatalf("counts = shipped %d overdue %d", result.ShippedCount, result.OverdueCount)
	}
	// Denominator is exactly shipped + overdue; no order lands in both.
	if result.CountPct != 33.3 {
		t.Errorf("CountPct = %v, want 33.3", result.CountPct)
	}
	if result.OnTimeValue != 100_00 || result.ShippedValue != 150_00 || result.OverdueValue != 30_00 {
		t.Errorf("values = %d/%d/%d", result.OnTimeValue, result.ShippedValue, result.OverdueValue)
	}
	if result.ValuePct != 55.6 { // 10000 / 18000
		t.Errorf("ValuePct = %v, want 55.6", result.ValuePct)
	}
}

func TestComputeOTDEmptyScope(t *testing.T) {
	result := computeOTD(nil, VariantRevised, nil, otdNow)
	if result.CountPct != 0 || result.ValuePct != 0 {
		t.Fatalf("empty scope should yield zero percentages, got %v/%v", result.CountPct, result.ValuePct)
	}
}

func TestComputeMonthlyOTD(t *testing.T) {
	rows := []otdOrder{
		{EarliestDelivery: dayPtr(2025, time.November, 1), RevisedCancelDate: dayPtr(2025, time.December, 5), ShipmentStatus: entity.ShipmentStatusOnTime},
		{EarliestDelivery: dayPtr(2026, time.January, 20), RevisedCancelDate: dayPtr(2026, time.January, 15), ShipmentStatus: entity.ShipmentStatusLate},
		{EarliestDelivery: dayPtr(2026, time.January, 2), RevisedCancelDate: dayPtr(2026, time.January, 15), ShipmentStatus: entity.ShipmentStatusOnTime},
		// Before the minimum report year: known-incomplete, excluded.
		{EarliestDelivery: dayPtr(2017, time.March, 1), RevisedCancelDate: dayPtr(2017, time.March, 10), ShipmentStatus: entity.ShipmentStatusOnTime},
		// No cancel date at all: excluded from bucketing.
		{EarliestDelivery: dayPtr(2026, time.February, 1), ShipmentStatus: entity.ShipmentStatusOnTime},
	}

	series := computeMonthlyOTD(rows, VariantTrue, nil, 2019, otdNow)

	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Year != 2025 || series[0].Month != 12 {
		t.Errorf("first bucket %d-%d", series[0].Year, series[0].Month)
	}
	if series[1].Year != 2026 || series[1].Month != 1 {
		t.Errorf("second bucket %d-%d", series[1].Year, series[1].Month)
	}
	if series[1].ShippedCount != 2 || series[1].OnTimeCount != 1 {
		t.Errorf("january bucket = %d on time of %d", series[1].OnTimeCount, series[1].ShippedCount)
	}
}

func TestWidenRange(t *testing.T) {
	svc := NewOTDService(policy.Default(), nil, nil, nil, zap.NewNop())

	start := day(2025, time.June, 1)
	f := svc.widenRange(Filter{StartDate: &start}, otdNow)
	if !f.StartDate.Equal(day(2024, time.January, 1)) {
		t.Errorf("widened start = %v", f.StartDate)
	}

	// Never below the minimum report year.
	early := day(2019, time.May, 1)
	f = svc.widenRange(Filter{StartDate: &early}, otdNow)
	if !f.StartDate.Equal(day(2019, time.January, 1)) {
		t.Errorf("floored start = %v", f.StartDate)
	}

	// Missing end defaults to the end of the current month.
	if f.EndDate == nil || !f.EndDate.Equal(day(2026, time.March, 31)) {
		t.Errorf("defaulted end = %v", f.EndDate)
	}
}
