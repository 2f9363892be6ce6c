package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"go.uber.org/zap"
)

// RiskState classification of one order at one point in time. Late and
// at-risk are mutually exclusive by construction.
type RiskState string

const (
	RiskStateOK     RiskState = "ok"
	RiskStateAtRisk RiskState = "at_risk"
	RiskStateLate   RiskState = "late"
)

// RiskAssessment classification plus the criteria that fired.
type RiskAssessment struct {
	State   RiskState `json:"state"`
	Reasons []string  `json:"reasons,omitempty"`
}

// AtRiskPO one at-risk order in a list response.
type AtRiskPO struct {
	PONumber     string     `json:"po_number"`
	VendorName   string     `json:"vendor_name"`
	Client       string     `json:"client"`
	Merchandiser string     `json:"merchandiser"`
	HandOverDate *time.Time `json:"hand_over_date"`
	Reasons      []string   `json:"reasons"`
}

// RiskService evaluates lateness risk. Read-only with respect to the store.
type RiskService struct {
	pol            policy.Policy
	poRepo         *repository.PORepository
	shipRepo       *repository.ShipmentRepository
	inspectionRepo *repository.InspectionRepository
	complianceRepo *repository.ComplianceRepository
	logger         *zap.Logger
}

func NewRiskService(pol policy.Policy, repos *repository.Repositories, logger *zap.Logger) *RiskService {
	return &RiskService{
		pol:            pol,
		poRepo:         repos.PO,
		shipRepo:       repos.Shipment,
		inspectionRepo: repos.Inspection,
		complianceRepo: repos.Compliance,
		logger:         logger,
	}
}

// AssessPO classifies a single order by number.
func (s *RiskService) AssessPO(ctx context.Context, poNumber string) (*RiskAssessment, error) {
	po, err := s.poRepo.FindByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}

	inspections, err := s.inspectionRepo.FindByPO(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	hasDelivery, err := s.shipRepo.HasDelivery(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	hasPassingQA := false
	if po.SKU != "" {
		records, err := s.complianceRepo.FindBySKU(ctx, po.SKU)
		if err != nil {
			return nil, err
		}
		for i := range records {
			if records[i].IsPassing() {
				hasPassingQA = true
				break
			}
		}
	}

	assessment := s.Classify(po, inspections, hasPassingQA, hasDelivery, time.Now())
	return &assessment, nil
}

// ListAtRisk returns the at-risk orders in the filter scope with the
// criteria that fired for each. Metric-excluded orders never appear.
func (s *RiskService) ListAtRisk(ctx context.Context, f Filter) ([]AtRiskPO, error) {
	mf := repository.MetricFilter{
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
	orders, err := s.poRepo.FindForMetrics(ctx, mf)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	poNumbers := make([]string, 0, len(orders))
	skus := make([]string, 0, len(orders))
	for _, po := range orders {
		poNumbers = append(poNumbers, po.PONumber)
		if po.SKU != "" {
			skus = append(skus, po.SKU)
		}
	}

	inspectionsByPO, err := s.inspectionRepo.FindByPOs(ctx, poNumbers)
	if err != nil {
		return nil, fmt.Errorf("load inspections: %w", err)
	}
	shipAggs, err := s.shipRepo.AggregateByPO(ctx, poNumbers)
	if err != nil {
		return nil, fmt.Errorf("aggregate shipments: %w", err)
	}
	passingSKUs, err := s.complianceRepo.PassingSKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("load compliance: %w", err)
	}

	now := time.Now()
	var atRisk []AtRiskPO
	for i := range orders {
		po := &orders[i]
		agg, hasAgg := shipAggs[po.PONumber]
		hasDelivery := hasAgg && agg.EarliestDelivery != nil

		assessment := s.Classify(po, inspectionsByPO[po.PONumber], passingSKUs[po.SKU], hasDelivery, now)
		if assessment.State != RiskStateAtRisk {
			continue
		}
		atRisk = append(atRisk, AtRiskPO{
			PONumber:     po.PONumber,
			VendorName:   po.VendorName,
			Client:       po.Client,
			Merchandiser: po.Merchandiser,
			HandOverDate: po.HandOverDate(),
			Reasons:      assessment.Reasons,
		})
	}
	return atRisk, nil
}

// Classify evaluates one order against the four risk criteria. An order
// already past its cancel date is Late, never At-Risk.
func (s *RiskService) Classify(po *entity.PurchaseOrder, inspections []entity.Inspection, hasPassingQA, hasDelivery bool, now time.Time) RiskAssessment {
	if po.IsTerminal() || hasDelivery {
		return RiskAssessment{State: RiskStateOK}
	}

	if cancel := po.EffectiveCancelDate(); cancel != nil && pastDay(*cancel, now) {
		return RiskAssessment{State: RiskStateLate}
	}

	var reasons []string

	if hasFailedInspection(inspections, entity.InspectionTypeFinal) {
		reasons = append(reasons, "final inspection failed")
	}

	// The remaining criteria key off the hand-over date; without one the
	// order is excluded from those rules.
	if hod := po.HandOverDate(); hod != nil {
		days := daysUntil(*hod, now)

		if days <= s.pol.InlineInspectionWindow && !hasInspection(inspections, entity.InspectionTypeInline) {
			reasons = append(reasons, fmt.Sprintf("inline inspection not booked within %d days of hand-over", s.pol.InlineInspectionWindow))
		}
		if days <= s.pol.FinalInspectionWindow && !hasInspection(inspections, entity.InspectionTypeFinal) {
			reasons = append(reasons, fmt.Sprintf("final inspection not booked within %d days of hand-over", s.pol.FinalInspectionWindow))
		}
		if days <= s.pol.QATestWindow && !hasPassingQA {
			reasons = append(reasons, fmt.Sprintf("no passing quality test within %d days of hand-over", s.pol.QATestWindow))
		}
	}

	if len(reasons) == 0 {
		return RiskAssessment{State: RiskStateOK}
	}
	return RiskAssessment{State: RiskStateAtRisk, Reasons: reasons}
}

// MissingInspections reports which inspection types are still unbooked
// inside their risk windows, for the to-do surface.
func (s *RiskService) MissingInspections(po *entity.PurchaseOrder, inspections []entity.Inspection, now time.Time) []string {
	hod := po.HandOverDate()
	if hod == nil || po.IsTerminal() {
		return nil
	}
	days := daysUntil(*hod, now)

	var missing []string
	if days <= s.pol.InlineInspectionWindow && !hasInspection(inspections, entity.InspectionTypeInline) {
		missing = append(missing, entity.InspectionTypeInline)
	}
	if days <= s.pol.FinalInspectionWindow && !hasInspection(inspections, entity.InspectionTypeFinal) {
		missing = append(missing, entity.InspectionTypeFinal)
	}
	return missing
}

// MissingInspectionsForPO is the store-backed variant of MissingInspections.
func (s *RiskService) MissingInspectionsForPO(ctx context.Context, poNumber string) ([]string, error) {
	po, err := s.poRepo.FindByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	inspections, err := s.inspectionRepo.FindByPO(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	return s.MissingInspections(po, inspections, time.Now()), nil
}

func hasInspection(inspections []entity.Inspection, inspectionType string) bool {
	for _, i := range inspections {
		if i.Type == inspectionType {
			return true
		}
	}
	return false
}

func hasFailedInspection(inspections []entity.Inspection, inspectionType string) bool {
	for _, i := range inspections {
		if i.Type == inspectionType && i.Result == entity.InspectionResultFailed {
			return true
		}
	}
	return false
}

// daysUntil counts whole calendar days from now to t; negative when past.
func daysUntil(t, now time.Time) int {
	return int(dateOnly(t).Sub(dateOnly(now)).Hours() / 24)
}
