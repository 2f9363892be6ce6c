package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/service"
)

// RiskHandler at-risk classification endpoints
type RiskHandler struct {
	svc *service.RiskService
}

func NewRiskHandler(svc *service.RiskService) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// ListAtRisk at-risk orders in scope with reasons
// GET /api/v1/pos/at-risk?vendor=&client=&brand=&merchandiser=&manager=&start=&end=
func (h *RiskHandler) ListAtRisk(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		BadRequest(c, "invalid date filter: "+err.Error())
		return
	}

	items, err := h.svc.ListAtRisk(c.Request.Context(), filter)
	if err != nil {
		FailFrom(c, err, "list at-risk orders")
		return
	}
	Success(c, items)
}

// Assess single-order risk classification
// GET /api/v1/pos/:poNumber/risk
func (h *RiskHandler) Assess(c *gin.Context) {
	poNumber := c.Param("poNumber")

	assessment, err := h.svc.AssessPO(c.Request.Context(), poNumber)
	if err != nil {
		FailFrom(c, err, "assess order "+poNumber)
		return
	}
	Success(c, assessment)
}

// MissingInspections unbooked inspection types inside their windows
// GET /api/v1/pos/:poNumber/missing-inspections
func (h *RiskHandler) MissingInspections(c *gin.Context) {
	poNumber := c.Param("poNumber")

	missing, err := h.svc.MissingInspectionsForPO(c.Request.Context(), poNumber)
	if err != nil {
		FailFrom(c, err, "missing inspections for "+poNumber)
		return
	}
	Success(c, gin.H{"po_number": poNumber, "missing": missing})
}
