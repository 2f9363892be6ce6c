package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/service"
)

// ProjectionHandler projection matching endpoints
type ProjectionHandler struct {
	svc *service.MatcherService
}

func NewProjectionHandler(svc *service.MatcherService) *ProjectionHandler {
	return &ProjectionHandler{svc: svc}
}

// MatchBatch reconcile freshly imported orders against unmatched projections
// POST /api/v1/projections/match
func (h *ProjectionHandler) MatchBatch(c *gin.Context) {
	var req struct {
		Orders []service.ImportedOrder `json:"orders" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	report, err := h.svc.MatchBatch(c.Request.Context(), req.Orders)
	if err != nil {
		FailFrom(c, err, "match batch")
		return
	}
	Success(c, report)
}

// ForceMatch manually match a projection to a named order
// POST /api/v1/projections/:id/match
func (h *ProjectionHandler) ForceMatch(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		PONumber string `json:"po_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	projection, err := h.svc.ForceMatch(c.Request.Context(), id, req.PONumber)
	if err != nil {
		FailFrom(c, err, "match projection "+id)
		return
	}
	Success(c, projection)
}

// Unmatch return a projection to unmatched
// POST /api/v1/projections/:id/unmatch
func (h *ProjectionHandler) Unmatch(c *gin.Context) {
	id := c.Param("id")

	projection, err := h.svc.Unmatch(c.Request.Context(), id)
	if err != nil {
		FailFrom(c, err, "unmatch projection "+id)
		return
	}
	Success(c, projection)
}

// WriteOff expire an unmatched projection
// POST /api/v1/projections/:id/write-off
func (h *ProjectionHandler) WriteOff(c *gin.Context) {
	id := c.Param("id")

	projection, err := h.svc.WriteOff(c.Request.Context(), id)
	if err != nil {
		FailFrom(c, err, "write off projection "+id)
		return
	}
	Success(c, projection)
}

// Due unmatched projections approaching or past their target month
// GET /api/v1/projections/due?threshold_days=90
func (h *ProjectionHandler) Due(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			BadRequest(c, "threshold_days must be a non-negative integer")
			return
		}
		threshold = v
	}

	due, err := h.svc.DueProjections(c.Request.Context(), threshold)
	if err != nil {
		FailFrom(c, err, "list due projections")
		return
	}
	Success(c, due)
}
