package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/service"
)

// TaskHandler PO task endpoints
type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Generate regenerate the auto-derived checklist for one PO
// POST /api/v1/pos/:poNumber/tasks/generate
func (h *TaskHandler) Generate(c *gin.Context) {
	poNumber := c.Param("poNumber")

	tasks, err := h.svc.Generate(c.Request.Context(), poNumber)
	if err != nil {
		FailFrom(c, err, "generate tasks for "+poNumber)
		return
	}
	Success(c, tasks)
}

// GenerateBatch regenerate for many POs, reporting per-PO counts
// POST /api/v1/tasks/generate-batch
func (h *TaskHandler) GenerateBatch(c *gin.Context) {
	var req struct {
		PONumbers []string `json:"po_numbers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	Success(c, h.svc.GenerateBatch(c.Request.Context(), req.PONumbers))
}

// ListByPO a PO's tasks, open first
// GET /api/v1/pos/:poNumber/tasks
func (h *TaskHandler) ListByPO(c *gin.Context) {
	poNumber := c.Param("poNumber")

	tasks, err := h.svc.ListByPO(c.Request.Context(), poNumber)
	if err != nil {
		FailFrom(c, err, "list tasks for "+poNumber)
		return
	}
	Success(c, tasks)
}

// CreateManual record a manually raised task
// POST /api/v1/tasks
func (h *TaskHandler) CreateManual(c *gin.Context) {
	var req service.CreateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid payload: "+err.Error())
		return
	}

	task, err := h.svc.CreateManual(c.Request.Context(), &req)
	if err != nil {
		FailFrom(c, err, "create task")
		return
	}
	Created(c, task)
}

// Complete mark a task done, recording who completed it
// PUT /api/v1/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		CompletedBy string `json:"completed_by"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid payload: "+err.Error())
			return
		}
	}

	task, err := h.svc.Complete(c.Request.Context(), id, req.CompletedBy)
	if err != nil {
		FailFrom(c, err, "complete task "+id)
		return
	}
	Success(c, task)
}

// Reopen reverse a completion
// PUT /api/v1/tasks/:id/reopen
func (h *TaskHandler) Reopen(c *gin.Context) {
	id := c.Param("id")

	task, err := h.svc.Reopen(c.Request.Context(), id)
	if err != nil {
		FailFrom(c, err, "reopen task "+id)
		return
	}
	Success(c, task)
}
