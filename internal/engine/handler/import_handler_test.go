package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/hemline/merchtrack/internal/engine/service"
	"github.com/hemline/merchtrack/internal/engine/testutil"
	"go.uber.org/zap"
)

func setupImportTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	services := service.NewServices(policy.Default(), repos, nil, zap.NewNop())
	h := NewImportHandler(services.Import)

	router := testutil.SetupRouter()
	api := router.Group("/api/v1")
	api.POST("/import/orders", h.Orders)
	api.POST("/import/shipments", h.Shipments)
	api.POST("/import/projections", h.Projections)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedImportTestVendor(t *testing.T, env *testutil.TestEnv) {
	t.Helper()

	vendors := repository.NewVendorRepository(env.DB)
	if err := vendors.Create(context.Background(), &entity.Vendor{
		ID:   "vendor-imp-001",
		Code: "ORCH",
		Name: "Orchard Weaving Co",
	}); err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	if err := vendors.AddAlias(context.Background(), &entity.VendorAlias{
		ID:       "alias-imp-001",
		VendorID: "vendor-imp-001",
		Alias:    "Orchard Weaving Company Ltd",
	}); err != nil {
		t.Fatalf("Failed to seed vendor alias: %v", err)
	}
}

// TestImportOrders aliased vendor names resolve to the canonical vendor;
// an unknown name keeps the raw spelling with no vendor ID.
func TestImportOrders(t *testing.T) {
	env := setupImportTest(t)
	seedImportTestVendor(t, env)

	body := map[string]interface{}{
		"orders": []map[string]interface{}{
			{
				"po_number":   "PO-3001",
				"vendor_name": "Orchard Weaving Company Ltd",
				"sku":         "ABC123",
				"order_qty":   120,
				"total_value": 1200_00,
			},
			{
				"po_number":   "PO-3002",
				"vendor_name": "Nobody Mills",
				"sku":         "DEF456",
				"order_qty":   40,
				"total_value": 400_00,
			},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/import/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if int(data["imported"].(float64)) != 2 {
		t.Fatalf("expected 2 imported, got %v", data["imported"])
	}

	var resolved entity.PurchaseOrder
	if err := env.DB.Where("po_number = ?", "PO-3001").First(&resolved).Error; err != nil {
		t.Fatalf("Failed to load PO-3001: %v", err)
	}
	if resolved.VendorID == nil || *resolved.VendorID != "vendor-imp-001" {
		t.Errorf("expected PO-3001 resolved to vendor-imp-001, got %v", resolved.VendorID)
	}
	if resolved.Status != entity.POStatusOpen {
		t.Errorf("expected new order open, got %q", resolved.Status)
	}

	var unresolved entity.PurchaseOrder
	if err := env.DB.Where("po_number = ?", "PO-3002").First(&unresolved).Error; err != nil {
		t.Fatalf("Failed to load PO-3002: %v", err)
	}
	if unresolved.VendorID != nil {
		t.Errorf("expected PO-3002 unresolved, got vendor %q", *unresolved.VendorID)
	}
}

// TestImportShipments an empty PTS status defaults to pending.
func TestImportShipments(t *testing.T) {
	env := setupImportTest(t)

	body := map[string]interface{}{
		"shipments": []map[string]interface{}{
			{"po_number": "PO-3001", "pts_status": "booked", "shipped_value": 600_00},
			{"po_number": "PO-3001", "shipped_value": 600_00},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/import/shipments", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var rows []entity.Shipment
	if err := env.DB.Where("po_number = ?", "PO-3001").Order("pts_status").Find(&rows).Error; err != nil {
		t.Fatalf("Failed to load shipments: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(rows))
	}
	if rows[0].PTSStatus != entity.PTSStatusBooked {
		t.Errorf("expected booked, got %q", rows[0].PTSStatus)
	}
	if rows[1].PTSStatus != entity.PTSStatusPending {
		t.Errorf("expected missing status to default to pending, got %q", rows[1].PTSStatus)
	}
}

// TestImportProjections MTO programs get a collection key, unresolved vendors
// and keyless records are skipped.
func TestImportProjections(t *testing.T) {
	env := setupImportTest(t)
	seedImportTestVendor(t, env)

	body := map[string]interface{}{
		"projections": []map[string]interface{}{
			{
				"vendor_name":   "Orchard Weaving Co",
				"sku":           "ABC123",
				"target_year":   2026,
				"target_month":  4,
				"projected_qty": 100,
			},
			{
				"vendor_name":         "Orchard Weaving Company Ltd",
				"program_description": "MTO HOXTON THROW",
				"target_year":         2026,
				"target_month":        4,
				"projected_qty":       60,
			},
			{
				"vendor_name":   "Nobody Mills",
				"sku":           "DEF456",
				"target_year":   2026,
				"target_month":  4,
				"projected_qty": 10,
			},
			{
				"vendor_name":   "Orchard Weaving Co",
				"target_year":   2026,
				"target_month":  4,
				"projected_qty": 10,
			},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/import/projections", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if int(data["imported"].(float64)) != 2 {
		t.Errorf("expected 2 imported, got %v", data["imported"])
	}
	if int(data["skipped"].(float64)) != 2 {
		t.Errorf("expected 2 skipped, got %v", data["skipped"])
	}

	var mto entity.ActiveProjection
	if err := env.DB.Where("is_mto = ?", true).First(&mto).Error; err != nil {
		t.Fatalf("Failed to load MTO projection: %v", err)
	}
	if mto.Collection != "hoxton" {
		t.Errorf("expected collection hoxton, got %q", mto.Collection)
	}
	if mto.VendorID != "vendor-imp-001" {
		t.Errorf("expected alias resolved to vendor-imp-001, got %q", mto.VendorID)
	}
	if mto.MatchStatus != entity.MatchStatusUnmatched {
		t.Errorf("expected unmatched, got %q", mto.MatchStatus)
	}
}
