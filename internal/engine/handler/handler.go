package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"github.com/hemline/merchtrack/internal/engine/service"
)

// Handlers engine handler set
type Handlers struct {
	OTD        *OTDHandler
	Risk       *RiskHandler
	Projection *ProjectionHandler
	Task       *TaskHandler
	Import     *ImportHandler
}

// NewHandlers creates the engine handler set.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		OTD:        NewOTDHandler(svc.OTD),
		Risk:       NewRiskHandler(svc.Risk),
		Projection: NewProjectionHandler(svc.Matcher),
		Task:       NewTaskHandler(svc.Task),
		Import:     NewImportHandler(svc.Import),
	}
}

// === response helpers ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// FailFrom maps service errors onto the response envelope.
func FailFrom(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		NotFound(c, message+": not found")
		return
	}
	InternalError(c, message+": "+err.Error())
}

// parseFilter reads the shared metric filter from query parameters. Dates
// are calendar days (2006-01-02).
func parseFilter(c *gin.Context) (service.Filter, error) {
	f := service.Filter{
		Merchandiser:         c.Query("merchandiser"),
		MerchandisingManager: c.Query("manager"),
		Vendor:               c.Query("vendor"),
		Client:               c.Query("client"),
		Brand:                c.Query("brand"),
	}

	if start := c.Query("start"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return f, err
		}
		f.StartDate = &t
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return f, err
		}
		f.EndDate = &t
	}
	return f, nil
}

// parseExcused reads the caller-supplied excused late-cause codes.
func parseExcused(c *gin.Context) []string {
	raw := c.Query("excused")
	if raw == "" {
		return nil
	}
	var reasons []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}
	return reasons
}
