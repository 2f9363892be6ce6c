package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportedOrder one freshly imported order record, as handed over by the
// import pipeline.
type ImportedOrder struct {
	PONumber           string     `json:"po_number" binding:"required"`
	VendorName         string     `json:"vendor_name" binding:"required"`
	SKU                string     `json:"sku"`
	OrderQty           int        `json:"order_qty"`
	TotalValue         int64      `json:"total_value"` // cents
	OrderDate          *time.Time `json:"order_date"`
	OriginalShipDate   *time.Time `json:"original_ship_date"`
	ProgramDescription string     `json:"program_description"`
}

// Skip reasons reported per order.
const (
	SkipUnresolvedVendor = "unresolved_vendor"
	SkipNoShipDate       = "no_ship_date"
	SkipNoMatchKey       = "no_match_key"
	SkipNoProjection     = "no_projection"
)

// MatchOutcome result of matching one imported order.
type MatchOutcome struct {
	PONumber     string `json:"po_number"`
	Matched      bool   `json:"matched"`
	ProjectionID string `json:"projection_id,omitempty"`
	MTO          bool   `json:"mto,omitempty"`
	Collection   string `json:"collection,omitempty"`
	SkipReason   string `json:"skip_reason,omitempty"`
	VariancePct  int    `json:"variance_pct,omitempty"`
	Significant  bool   `json:"significant,omitempty"`
}

// MatchReport batch matching summary.
type MatchReport struct {
	Total                int            `json:"total"`
	Matched              int            `json:"matched"`
	Skipped              int            `json:"skipped"`
	SignificantVariances int            `json:"significant_variances"`
	Outcomes             []MatchOutcome `json:"outcomes"`
}

// DueProjection one unmatched projection approaching (or past) its target
// month.
type DueProjection struct {
	Projection entity.ActiveProjection `json:"projection"`
	Overdue    bool                    `json:"overdue"`
	DaysUntil  int                     `json:"days_until"`
}

// MatcherService reconciles demand projections against imported orders.
type MatcherService struct {
	pol            policy.Policy
	projectionRepo *repository.ProjectionRepository
	vendorRepo     *repository.VendorRepository
	poRepo         *repository.PORepository
	logger         *zap.Logger
}

func NewMatcherService(pol policy.Policy, repos *repository.Repositories, logger *zap.Logger) *MatcherService {
	return &MatcherService{
		pol:            pol,
		projectionRepo: repos.Projection,
		vendorRepo:     repos.Vendor,
		poRepo:         repos.PO,
		logger:         logger,
	}
}

// lookupKey keys the projection partition maps.
func lookupKey(vendorID string, year, month int, term string) string {
	return fmt.Sprintf("%s|%d|%02d|%s", vendorID, year, month, strings.ToLower(term))
}

// buildVendorIndex maps trimmed, lower-cased vendor names and aliases onto
// canonical vendor IDs.
func buildVendorIndex(vendors []entity.Vendor) map[string]string {
	index := make(map[string]string)
	for _, v := range vendors {
		name := strings.ToLower(strings.TrimSpace(v.Name))
		if name != "" {
			index[name] = v.ID
		}
		for _, alias := range v.Aliases {
			a := strings.ToLower(strings.TrimSpace(alias.Alias))
			if a != "" {
				index[a] = v.ID
			}
		}
	}
	return index
}

// MatchBatch reconciles a batch of freshly imported orders against the
// unmatched projections. Each projection matches at most once per run; an
// order whose vendor cannot be resolved is skipped, never an error. Updates
// are single-row writes: if the batch is interrupted, applied matches stand
// and the batch is safe to re-run.
func (s *MatcherService) MatchBatch(ctx context.Context, orders []ImportedOrder) (*MatchReport, error) {
	vendors, err := s.vendorRepo.FindAllWithAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	vendorIndex := buildVendorIndex(vendors)

	unmatched, err := s.projectionRepo.FindUnmatched(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unmatched projections: %w", err)
	}

	regular := make(map[string]*entity.ActiveProjection)
	mto := make(map[string]*entity.ActiveProjection)
	for i := range unmatched {
		p := &unmatched[i]
		if p.IsMTO {
			if p.Collection != "" {
				mto[lookupKey(p.VendorID, p.TargetYear, p.TargetMonth, p.Collection)] = p
			}
		} else if p.SKU != "" {
			regular[lookupKey(p.VendorID, p.TargetYear, p.TargetMonth, p.SKU)] = p
		}
	}

	report := &MatchReport{Total: len(orders)}
	now := time.Now()

	for _, order := range orders {
		outcome := s.matchOne(ctx, order, vendorIndex, regular, mto, now)
		if outcome.Matched {
			report.Matched++
			if outcome.Significant {
				report.SignificantVariances++
			}
		} else {
			report.Skipped++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.logger.Info("projection match batch finished",
		zap.Int("total", report.Total),
		zap.Int("matched", report.Matched),
		zap.Int("skipped", report.Skipped),
		zap.Int("significant_variances", report.SignificantVariances),
	)
	return report, nil
}

func (s *MatcherService) matchOne(
	ctx context.Context,
	order ImportedOrder,
	vendorIndex map[string]string,
	regular, mto map[string]*entity.ActiveProjection,
	now time.Time,
) MatchOutcome {
	outcome := MatchOutcome{PONumber: order.PONumber}

	vendorID, ok := vendorIndex[strings.ToLower(strings.TrimSpace(order.VendorName))]
	if !ok {
		outcome.SkipReason = SkipUnresolvedVendor
		s.logger.Info("projection match skipped, vendor unresolved",
			zap.String("po_number", order.PONumber),
			zap.String("vendor_name", order.VendorName),
		)
		return outcome
	}
	if order.OriginalShipDate == nil {
		outcome.SkipReason = SkipNoShipDate
		return outcome
	}

	year := order.OriginalShipDate.Year()
	month := int(order.OriginalShipDate.Month())

	var projection *entity.ActiveProjection
	var key string
	var fromMTO bool

	if IsMTOProgram(order.ProgramDescription) {
		if collection := ExtractCollection(order.ProgramDescription, s.pol.KnownCollections); collection != "" {
			// A named collection commits the order to MTO matching; a miss
			// here is a skip, never a SKU match.
			outcome.Collection = collection
			key = lookupKey(vendorID, year, month, collection)
			if p, hit := mto[key]; hit {
				projection, fromMTO = p, true
			} else {
				outcome.SkipReason = SkipNoProjection
				return outcome
			}
		}
	}
	// MTO without an extractable collection falls through to SKU matching.
	if projection == nil && order.SKU != "" {
		key = lookupKey(vendorID, year, month, order.SKU)
		if p, hit := regular[key]; hit {
			projection = p
		}
	}

	if projection == nil {
		if order.SKU == "" && outcome.Collection == "" {
			outcome.SkipReason = SkipNoMatchKey
		} else {
			outcome.SkipReason = SkipNoProjection
		}
		return outcome
	}

	applyMatch(projection, order.PONumber, order.OrderQty, order.TotalValue, now)
	if err := s.projectionRepo.Update(ctx, projection); err != nil {
		s.logger.Error("projection match write failed",
			zap.String("projection_id", projection.ID),
			zap.String("po_number", order.PONumber),
			zap.Error(err),
		)
		outcome.SkipReason = "write_failed"
		return outcome
	}

	// One match per projection per run.
	if fromMTO {
		delete(mto, key)
	} else {
		delete(regular, key)
	}

	outcome.Matched = true
	outcome.MTO = fromMTO
	outcome.ProjectionID = projection.ID
	outcome.VariancePct = *projection.VariancePct
	outcome.Significant = s.isSignificant(*projection.VariancePct)
	return outcome
}

func (s *MatcherService) isSignificant(variancePct int) bool {
	if variancePct < 0 {
		variancePct = -variancePct
	}
	return variancePct > s.pol.SignificantVariancePct
}

// applyMatch sets the projection's match fields and derived variance.
func applyMatch(p *entity.ActiveProjection, poNumber string, actualQty int, actualValue int64, now time.Time) {
	qtyVar, valueVar, pct := computeVariance(p.ProjectedQty, p.ProjectedValue, actualQty, actualValue)

	p.MatchStatus = entity.MatchStatusMatched
	p.MatchedPONumber = &poNumber
	p.MatchedAt = &now
	p.ActualQty = &actualQty
	p.ActualValue = &actualValue
	p.QtyVariance = &qtyVar
	p.ValueVariance = &valueVar
	p.VariancePct = &pct
}

// computeVariance derives quantity/value variance and the rounded variance
// percentage. A zero projected quantity yields 0 percent, never a division
// fault.
func computeVariance(projectedQty int, projectedValue int64, actualQty int, actualValue int64) (qtyVariance int, valueVariance int64, variancePct int) {
	qtyVariance = actualQty - projectedQty
	valueVariance = actualValue - projectedValue
	if projectedQty == 0 {
		return qtyVariance, valueVariance, 0
	}
	pct := decimal.NewFromInt(int64(qtyVariance)).
		Div(decimal.NewFromInt(int64(projectedQty))).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return qtyVariance, valueVariance, int(pct.IntPart())
}

// ForceMatch manually matches a projection to a named order, recomputing
// variance exactly as batch matching does. Idempotent: re-matching to the
// same order rewrites identical derived fields.
func (s *MatcherService) ForceMatch(ctx context.Context, projectionID, poNumber string) (*entity.ActiveProjection, error) {
	projection, err := s.projectionRepo.FindByID(ctx, projectionID)
	if err != nil {
		return nil, err
	}
	po, err := s.poRepo.FindByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}

	applyMatch(projection, po.PONumber, po.OrderQty, po.TotalValue, time.Now())
	if err := s.projectionRepo.Update(ctx, projection); err != nil {
		return nil, fmt.Errorf("write match: %w", err)
	}
	return projection, nil
}

// Unmatch clears all match fields and returns the projection to unmatched.
// Safe to call on an already-unmatched record.
func (s *MatcherService) Unmatch(ctx context.Context, projectionID string) (*entity.ActiveProjection, error) {
	projection, err := s.projectionRepo.FindByID(ctx, projectionID)
	if err != nil {
		return nil, err
	}
	if projection.MatchStatus == entity.MatchStatusUnmatched {
		return projection, nil
	}

	projection.MatchStatus = entity.MatchStatusUnmatched
	projection.MatchedPONumber = nil
	projection.MatchedAt = nil
	projection.ActualQty = nil
	projection.ActualValue = nil
	projection.QtyVariance = nil
	projection.ValueVariance = nil
	projection.VariancePct = nil

	if err := s.projectionRepo.Update(ctx, projection); err != nil {
		return nil, fmt.Errorf("write unmatch: %w", err)
	}
	return projection, nil
}

// WriteOff expires an unmatched projection that will never be fulfilled.
// Safe to call on an already-expired record.
func (s *MatcherService) WriteOff(ctx context.Context, projectionID string) (*entity.ActiveProjection, error) {
	projection, err := s.projectionRepo.FindByID(ctx, projectionID)
	if err != nil {
		return nil, err
	}
	switch projection.MatchStatus {
	case entity.MatchStatusExpired:
		return projection, nil
	case entity.MatchStatusMatched:
		return nil, fmt.Errorf("projection %s is matched; unmatch before writing off", projectionID)
	}

	projection.MatchStatus = entity.MatchStatusExpired
	if err := s.projectionRepo.Update(ctx, projection); err != nil {
		return nil, fmt.Errorf("write off: %w", err)
	}
	return projection, nil
}

// DueProjections returns unmatched, non-MTO projections whose target month
// starts within thresholdDays of today (overdue when already past), most
// urgent first. thresholdDays <= 0 uses the policy default.
func (s *MatcherService) DueProjections(ctx context.Context, thresholdDays int) ([]DueProjection, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.pol.ProjectionDueThreshold
	}
	unmatched, err := s.projectionRepo.FindUnmatched(ctx)
	if err != nil {
		return nil, err
	}
	return filterDueProjections(unmatched, thresholdDays, time.Now()), nil
}

func filterDueProjections(projections []entity.ActiveProjection, thresholdDays int, now time.Time) []DueProjection {
	horizon := dateOnly(now).AddDate(0, 0, thresholdDays)

	var due []DueProjection
	for _, p := range projections {
		if p.IsMTO {
			continue
		}
		start := p.TargetMonthStart()
		if start.After(horizon) {
			continue
		}
		due = append(due, DueProjection{
			Projection: p,
			Overdue:    pastDay(start, now),
			DaysUntil:  daysUntil(start, now),
		})
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].DaysUntil < due[j].DaysUntil
	})
	return due
}
