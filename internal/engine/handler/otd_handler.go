package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hemline/merchtrack/internal/engine/service"
	"github.com/xuri/excelize/v2"
)

// OTDHandler on-time-delivery endpoints
type OTDHandler struct {
	svc *service.OTDService
}

func NewOTDHandler(svc *service.OTDService) *OTDHandler {
	return &OTDHandler{svc: svc}
}

// Summary aggregate OTD for a scope
// GET /api/v1/otd/summary?variant=true|revised|original&vendor=&client=&brand=&merchandiser=&manager=&start=&end=&excused=
func (h *OTDHandler) Summary(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		BadRequest(c, "invalid date filter: "+err.Error())
		return
	}
	variant := service.ParseVariant(c.Query("variant"))

	result, err := h.svc.Summary(c.Request.Context(), filter, variant, parseExcused(c))
	if err != nil {
		FailFrom(c, err, "compute OTD summary")
		return
	}
	Success(c, result)
}

// Monthly month-bucketed OTD series for charting
// GET /api/v1/otd/monthly?variant=...
func (h *OTDHandler) Monthly(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		BadRequest(c, "invalid date filter: "+err.Error())
		return
	}
	variant := service.ParseVariant(c.Query("variant"))

	series, err := h.svc.MonthlySeries(c.Request.Context(), filter, variant, parseExcused(c))
	if err != nil {
		FailFrom(c, err, "compute OTD series")
		return
	}
	Success(c, series)
}

// ExportMonthly monthly OTD series as an xlsx workbook
// GET /api/v1/otd/monthly/export?variant=...
func (h *OTDHandler) ExportMonthly(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		BadRequest(c, "invalid date filter: "+err.Error())
		return
	}
	variant := service.ParseVariant(c.Query("variant"))

	series, err := h.svc.MonthlySeries(c.Request.Context(), filter, variant, parseExcused(c))
	if err != nil {
		FailFrom(c, err, "compute OTD series")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "OTD"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"Year", "Month", "On-Time", "Shipped", "Overdue", "OTD %", "On-Time Value", "Shipped Value", "Overdue Value", "OTD % (Value)"}
	for i, hv := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hv)
	}
	for row, m := range series {
		values := []interface{}{
			m.Year, m.Month,
			m.OnTimeCount, m.ShippedCount, m.OverdueCount, m.CountPct,
			m.OnTimeValue, m.ShippedValue, m.OverdueValue, m.ValuePct,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="otd-%s.xlsx"`, variant))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
