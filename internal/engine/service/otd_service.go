package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Variant names one of the three OTD formulas. The formulas encode different
// business definitions and are never unified; stakeholders compare specific
// named variants over time.
type Variant string

const (
	VariantTrue     Variant = "true"
	VariantRevised  Variant = "revised"
	VariantOriginal Variant = "original"
)

// ParseVariant maps a query value onto a variant, defaulting to True.
func ParseVariant(s string) Variant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revised":
		return VariantRevised
	case "original":
		return VariantOriginal
	default:
		return VariantTrue
	}
}

// Filter scopes an OTD or risk query. Zero fields are ignored.
type Filter struct {
	Merchandiser         string     `json:"merchandiser"`
	MerchandisingManager string     `json:"merchandising_manager"`
	Vendor               string     `json:"vendor"`
	Client               string     `json:"client"`
	Brand                string     `json:"brand"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
}

// OTDResult one aggregate on-time-delivery measurement.
type OTDResult struct {
	OnTimeCount  int `json:"on_time_count"`
	ShippedCount int `json:"shipped_count"`
	OverdueCount int `json:"overdue_count"`

	// Cents. Shipped orders contribute shipped value, overdue-unshipped
	// orders contribute total order value.
	OnTimeValue  int64 `json:"on_time_value"`
	ShippedValue int64 `json:"shipped_value"`
	OverdueValue int64 `json:"overdue_value"`

	// Percentages rounded to one decimal place; 0 on a zero denominator.
	CountPct float64 `json:"count_pct"`
	ValuePct float64 `json:"value_pct"`
}

// MonthlyOTD one month bucket of a series.
type MonthlyOTD struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	OTDResult
}

// otdOrder is the per-PO row the classifier works on: header fields plus the
// shipment aggregate.
type otdOrder struct {
	PONumber           string
	TotalValue         int64
	ShippedValue       int64
	Status             string
	ShipmentStatus     string
	OriginalCancelDate *time.Time
	RevisedCancelDate  *time.Time
	RevisedCause       string
	LateCause          string
	EarliestDelivery   *time.Time
}

func (o otdOrder) effectiveCancelDate() *time.Time {
	if o.RevisedCancelDate != nil {
		return o.RevisedCancelDate
	}
	return o.OriginalCancelDate
}

// otdCategory is the per-variant classification of one order.
type otdCategory int

const (
	otdSkip otdCategory = iota
	otdShippedOnTime
	otdShippedLate
	otdOverdue
)

// OTDService computes the three on-time-delivery formulas. Read-only with
// respect to the store.
type OTDService struct {
	pol      policy.Policy
	poRepo   *repository.PORepository
	shipRepo *repository.ShipmentRepository
	cache    *redis.Client
	logger   *zap.Logger
}

const otdCacheTTL = 5 * time.Minute

func NewOTDService(pol policy.Policy, poRepo *repository.PORepository, shipRepo *repository.ShipmentRepository, cache *redis.Client, logger *zap.Logger) *OTDService {
	return &OTDService{
		pol:      pol,
		poRepo:   poRepo,
		shipRepo: shipRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Summary computes one aggregate OTD measurement for the filter scope.
func (s *OTDService) Summary(ctx context.Context, f Filter, variant Variant, excusedReasons []string) (*OTDResult, error) {
	rows, err := s.loadOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	result := computeOTD(rows, variant, excusedSet(excusedReasons), time.Now())
	return &result, nil
}

// MonthlySeries computes month-bucketed OTD for charting. The range is
// widened to cover the full immediately preceding year for year-over-year
// comparison, floored at the minimum report year.
func (s *OTDService) MonthlySeries(ctx context.Context, f Filter, variant Variant, excusedReasons []string) ([]MonthlyOTD, error) {
	widened := s.widenRange(f, time.Now())

	key := s.seriesCacheKey(widened, variant, excusedReasons)
	if cached := s.cachedSeries(ctx, key); cached != nil {
		return cached, nil
	}

	rows, err := s.loadOrders(ctx, widened)
	if err != nil {
		return nil, err
	}
	series := computeMonthlyOTD(rows, variant, excusedSet(excusedReasons), s.pol.MinReportYear, time.Now())

	s.storeSeries(ctx, key, series)
	return series, nil
}

// widenRange extends the start of the range to January 1st of the year
// before the requested start year, never earlier than the minimum report
// year. A missing start falls back to the minimum report year.
func (s *OTDService) widenRange(f Filter, now time.Time) Filter {
	startYear := s.pol.MinReportYear
	if f.StartDate != nil && f.StartDate.Year()-1 > s.pol.MinReportYear {
		startYear = f.StartDate.Year() - 1
	}
	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	f.StartDate = &start

	if f.EndDate == nil {
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
		f.EndDate = &end
	}
	return f
}

func (s *OTDService) loadOrders(ctx context.Context, f Filter) ([]otdOrder, error) {
	orders, err := s.poRepo.FindForMetrics(ctx, s.metricFilter(f))
	if err != nil {
		return nil, fmt.Errorf("load orders for metrics: %w", err)
	}

	poNumbers := make([]string, 0, len(orders))
	for _, po := range orders {
		poNumbers = append(poNumbers, po.PONumber)
	}
	aggs, err := s.shipRepo.AggregateByPO(ctx, poNumbers)
	if err != nil {
		return nil, fmt.Errorf("aggregate shipments: %w", err)
	}

	rows := make([]otdOrder, 0, len(orders))
	for _, po := range orders {
		row := otdOrder{
			PONumber:           po.PONumber,
			TotalValue:         po.TotalValue,
			Status:             po.Status,
			ShipmentStatus:     po.ShipmentStatus,
			OriginalCancelDate: po.OriginalCancelDate,
			RevisedCancelDate:  po.RevisedCancelDate,
			RevisedCause:       po.RevisedCause,
			LateCause:          po.LateCause,
		}
		if agg, ok := aggs[po.PONumber]; ok {
			row.EarliestDelivery = agg.EarliestDelivery
			row.ShippedValue = agg.ShippedValue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *OTDService) metricFilter(f Filter) repository.MetricFilter {
	return repository.MetricFilter{
		Merchandiser:            f.Merchandiser,
		MerchandisingManager:    f.MerchandisingManager,
		Vendor:                  f.Vendor,
		Client:                  f.Client,
		Brand:                   f.Brand,
		StartDate:               f.StartDate,
		EndDate:                 f.EndDate,
		ExcludedProgramPrefixes: s.pol.ExcludedProgramPrefixes,
		FranchisePOPrefix:       s.pol.FranchisePOPrefix,
	}
}

// === cache ===

func (s *OTDService) seriesCacheKey(f Filter, variant Variant, excused []string) string {
	sorted := append([]string(nil), excused...)
	sort.Strings(sorted)
	raw, _ := json.Marshal(struct {
		Filter  Filter
		Variant Variant
		Excused []string
	}{f, variant, sorted})
	sum := sha1.Sum(raw)
	return "otd:monthly:" + hex.EncodeToString(sum[:])
}

func (s *OTDService) cachedSeries(ctx context.Context, key string) []MonthlyOTD {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("otd cache read failed", zap.Error(err))
		}
		return nil
	}
	var series []MonthlyOTD
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil
	}
	return series
}

func (s *OTDService) storeSeries(ctx context.Context, key string, series []MonthlyOTD) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, otdCacheTTL).Err(); err != nil {
		s.logger.Debug("otd cache write failed", zap.Error(err))
	}
}

// === pure calculation ===

func excusedSet(reasons []string) map[string]bool {
	set := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			set[r] = true
		}
	}
	return set
}

// dateOnly truncates to calendar-day granularity; all date comparisons in
// the engine happen at day resolution.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func onOrBefore(a, b time.Time) bool {
	return !dateOnly(a).After(dateOnly(b))
}

func pastDay(t, now time.Time) bool {
	return dateOnly(t).Before(dateOnly(now))
}

// isOverdueUnshipped: the effective cancel date is past, the order is not in
// a terminal state, and no shipment row carries a delivery date.
func isOverdueUnshipped(o otdOrder, now time.Time) bool {
	if o.EarliestDelivery != nil {
		return false
	}
	switch o.Status {
	case entity.POStatusShipped, entity.POStatusClosed, entity.POStatusCancelled:
		return false
	}
	cancel := o.effectiveCancelDate()
	return cancel != nil && pastDay(*cancel, now)
}

// classifyOTD applies one named formula to one order. An order is never both
// shipped and overdue for the same variant: shipped-ness (any delivery date)
// decides which side of the denominator it lands on.
func classifyOTD(o otdOrder, variant Variant, excused map[string]bool, now time.Time) otdCategory {
	shipped := o.EarliestDelivery != nil

	switch variant {
	case VariantTrue:
		// On-time flag is owned by the logistics subsystem.
		if shipped {
			if o.ShipmentStatus == entity.ShipmentStatusOnTime {
				return otdShippedOnTime
			}
			return otdShippedLate
		}
		if isOverdueUnshipped(o, now) {
			return otdOverdue
		}
		return otdSkip

	case VariantRevised:
		if shipped {
			cancel := o.effectiveCancelDate()
			if cancel == nil {
				return otdSkip
			}
			if onOrBefore(*o.EarliestDelivery, *cancel) {
				return otdShippedOnTime
			}
			return otdShippedLate
		}
		if isOverdueUnshipped(o, now) {
			return otdOverdue
		}
		return otdSkip

	case VariantOriginal:
		if shipped {
			if o.OriginalCancelDate == nil {
				return otdSkip
			}
			if onOrBefore(*o.EarliestDelivery, *o.OriginalCancelDate) {
				return otdShippedOnTime
			}
			// The vendor is not penalized for revisions outside its
			// control, nor for late causes the caller excuses.
			if o.RevisedCause == entity.RevisedCauseClient || o.RevisedCause == entity.RevisedCauseForwarder {
				return otdShippedOnTime
			}
			if excused[strings.ToLower(strings.TrimSpace(o.LateCause))] {
				return otdShippedOnTime
			}
			return otdShippedLate
		}
		if isOverdueUnshipped(o, now) {
			return otdOverdue
		}
		return otdSkip
	}
	return otdSkip
}

// computeOTD folds classified orders into one aggregate result.
func computeOTD(rows []otdOrder, variant Variant, excused map[string]bool, now time.Time) OTDResult {
	var result OTDResult
	for _, o := range rows {
		switch classifyOTD(o, variant, excused, now) {
		case otdShippedOnTime:
			result.OnTimeCount++
			result.ShippedCount++
			result.OnTimeValue += o.ShippedValue
			result.ShippedValue += o.ShippedValue
		case otdShippedLate:
			result.ShippedCount++
			result.ShippedValue += o.ShippedValue
		case otdOverdue:
			result.OverdueCount++
			result.OverdueValue += o.TotalValue
		}
	}
	result.CountPct = roundPct(int64(result.OnTimeCount), int64(result.ShippedCount+result.OverdueCount))
	result.ValuePct = roundPct(result.OnTimeValue, result.ShippedValue+result.OverdueValue)
	return result
}

// computeMonthlyOTD buckets orders by the month of their effective cancel
// date and computes the aggregate per bucket, ascending (year, month).
// Orders before the minimum report year are excluded as known-incomplete.
func computeMonthlyOTD(rows []otdOrder, variant Variant, excused map[string]bool, minYear int, now time.Time) []MonthlyOTD {
	buckets := make(map[[2]int][]otdOrder)
	for _, o := range rows {
		cancel := o.effectiveCancelDate()
		if cancel == nil || cancel.Year() < minYear {
			continue
		}
		key := [2]int{cancel.Year(), int(cancel.Month())}
		buckets[key] = append(buckets[key], o)
	}

	keys := make([][2]int, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	series := make([]MonthlyOTD, 0, len(keys))
	for _, key := range keys {
		series = append(series, MonthlyOTD{
			Year:      key[0],
			Month:     key[1],
			OTDResult: computeOTD(buckets[key], variant, excused, now),
		})
	}
	return series
}

// roundPct returns numerator/denominator as a percentage rounded to one
// decimal place. A zero denominator yields 0, never a division fault.
func roundPct(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(numerator).
		Div(decimal.NewFromInt(denominator)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		Float64()
	return pct
}
