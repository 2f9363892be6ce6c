package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"go.uber.org/zap"
)

// ShipmentRecord one imported shipment row.
type ShipmentRecord struct {
	PONumber                string     `json:"po_number" binding:"required"`
	CargoReadyDate          *time.Time `json:"cargo_ready_date"`
	DeliveredToConsolidator *time.Time `json:"delivered_to_consolidator"`
	PTSStatus               string     `json:"pts_status"`
	ShippedValue            int64      `json:"shipped_value"` // cents
}

// ProjectionRecord one imported demand projection. MTO projections are
// recognized from the program description, the same way order matching does.
type ProjectionRecord struct {
	VendorName         string `json:"vendor_name" binding:"required"`
	SKU                string `json:"sku"`
	ProgramDescription string `json:"program_description"`
	TargetYear         int    `json:"target_year" binding:"required"`
	TargetMonth        int    `json:"target_month" binding:"required"`
	ProjectedQty       int    `json:"projected_qty"`
	ProjectedValue     int64  `json:"projected_value"` // cents
}

// ImportResult counts for one import batch.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportService persists bulk feeds from the upstream order system. Writes
// are chunked; a partially applied batch is safe to re-run.
type ImportService struct {
	pol            policy.Policy
	poRepo         *repository.PORepository
	shipRepo       *repository.ShipmentRepository
	projectionRepo *repository.ProjectionRepository
	vendorRepo     *repository.VendorRepository
	logger         *zap.Logger
}

func NewImportService(pol policy.Policy, repos *repository.Repositories, logger *zap.Logger) *ImportService {
	return &ImportService{
		pol:            pol,
		poRepo:         repos.PO,
		shipRepo:       repos.Shipment,
		projectionRepo: repos.Projection,
		vendorRepo:     repos.Vendor,
		logger:         logger,
	}
}

// ImportOrders stores imported order headers. Vendor names are resolved
// against the alias index where possible; an unresolved name keeps the raw
// spelling with a nil vendor ID until reconciled.
func (s *ImportService) ImportOrders(ctx context.Context, orders []ImportedOrder) (*ImportResult, error) {
	vendorIndex, err := s.loadVendorIndex(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.PurchaseOrder, 0, len(orders))
	for _, order := range orders {
		row := entity.PurchaseOrder{
			ID:                 uuid.New().String()[:32],
			PONumber:           order.PONumber,
			VendorName:         order.VendorName,
			SKU:                order.SKU,
			ProgramDescription: order.ProgramDescription,
			OrderQty:           order.OrderQty,
			TotalValue:         order.TotalValue,
			OrderDate:          order.OrderDate,
			OriginalShipDate:   order.OriginalShipDate,
			Status:             entity.POStatusOpen,
			ShipmentStatus:     entity.ShipmentStatusPending,
		}
		if vendorID, ok := vendorIndex[strings.ToLower(strings.TrimSpace(order.VendorName))]; ok {
			row.VendorID = &vendorID
		}
		rows = append(rows, row)
	}

	if err := s.poRepo.BulkCreate(ctx, rows, s.pol.BulkChunkSize); err != nil {
		return nil, fmt.Errorf("store orders: %w", err)
	}
	s.logger.Info("order import finished", zap.Int("imported", len(rows)))
	return &ImportResult{Imported: len(rows)}, nil
}

// ImportShipments stores imported shipment rows. A missing PTS status
// defaults to pending.
func (s *ImportService) ImportShipments(ctx context.Context, records []ShipmentRecord) (*ImportResult, error) {
	rows := make([]entity.Shipment, 0, len(records))
	for _, record := range records {
		status := record.PTSStatus
		switch status {
		case entity.PTSStatusPending, entity.PTSStatusBooked, entity.PTSStatusConfirmed:
		default:
			status = entity.PTSStatusPending
		}
		rows = append(rows, entity.Shipment{
			ID:                      uuid.New().String()[:32],
			PONumber:                record.PONumber,
			CargoReadyDate:          record.CargoReadyDate,
			DeliveredToConsolidator: record.DeliveredToConsolidator,
			PTSStatus:               status,
			ShippedValue:            record.ShippedValue,
		})
	}

	if err := s.shipRepo.BulkCreate(ctx, rows, s.pol.BulkChunkSize); err != nil {
		return nil, fmt.Errorf("store shipments: %w", err)
	}
	s.logger.Info("shipment import finished", zap.Int("imported", len(rows)))
	return &ImportResult{Imported: len(rows)}, nil
}

// ImportProjections stores imported demand projections. A record needs a
// resolvable vendor and a match key (SKU, or a collection extracted from an
// MTO program description); anything else is a logged skip.
func (s *ImportService) ImportProjections(ctx context.Context, records []ProjectionRecord) (*ImportResult, error) {
	vendorIndex, err := s.loadVendorIndex(ctx)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	rows := make([]entity.ActiveProjection, 0, len(records))
	for _, record := range records {
		vendorID, ok := vendorIndex[strings.ToLower(strings.TrimSpace(record.VendorName))]
		if !ok {
			result.Skipped++
			s.logger.Info("projection import skipped, vendor unresolved",
				zap.String("vendor_name", record.VendorName),
			)
			continue
		}

		row := entity.ActiveProjection{
			ID:             uuid.New().String()[:32],
			VendorID:       vendorID,
			SKU:            record.SKU,
			TargetYear:     record.TargetYear,
			TargetMonth:    record.TargetMonth,
			ProjectedQty:   record.ProjectedQty,
			ProjectedValue: record.ProjectedValue,
			MatchStatus:    entity.MatchStatusUnmatched,
		}
		if IsMTOProgram(record.ProgramDescription) {
			row.IsMTO = true
			row.Collection = ExtractCollection(record.ProgramDescription, s.pol.KnownCollections)
		}
		if row.SKU == "" && row.Collection == "" {
			result.Skipped++
			s.logger.Info("projection import skipped, no match key",
				zap.String("vendor_name", record.VendorName),
				zap.String("program_description", record.ProgramDescription),
			)
			continue
		}
		rows = append(rows, row)
	}

	if err := s.projectionRepo.BulkCreate(ctx, rows, s.pol.BulkChunkSize); err != nil {
		return nil, fmt.Errorf("store projections: %w", err)
	}
	result.Imported = len(rows)
	s.logger.Info("projection import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *ImportService) loadVendorIndex(ctx context.Context) (map[string]string, error) {
	vendors, err := s.vendorRepo.FindAllWithAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	return buildVendorIndex(vendors), nil
}
