package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/service"
)

// ImportHandler bulk feed endpoints
type ImportHandler struct {
	svc *service.ImportService
}

func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// Orders store a batch of imported order headers
// POST /api/v1/import/orders
func (h *ImportHandler) Orders(c *gin.Context) {
	var req struct {
		Orders []service.ImportedOrder `json:"orders" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	result, err := h.svc.ImportOrders(c.Request.Context(), req.Orders)
	if err != nil {
		FailFrom(c, err, "import orders")
		return
	}
	Created(c, result)
}

// Shipments store a batch of imported shipment rows
// POST /api/v1/import/shipments
func (h *ImportHandler) Shipments(c *gin.Context) {
	var req struct {
		Shipments []service.ShipmentRecord `json:"shipments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	result, err := h.svc.ImportShipments(c.Request.Context(), req.Shipments)
	if err != nil {
		FailFrom(c, err, "import shipments")
		return
	}
	Created(c, result)
}

// Projections store a batch of imported demand projections
// POST /api/v1/import/projections
func (h *ImportHandler) Projections(c *gin.Context) {
	var req struct {
		Projections []service.ProjectionRecord `json:"projections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	result, err := h.svc.ImportProjections(c.Request.Context(), req.Projections)
	if err != nil {
		FailFrom(c, err, "import projections")
		return
	}
	Created(c, result)
}
