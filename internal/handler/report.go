package handler

import (
	"net/http"

	"family-portal/internal/finance"
	"family-portal/internal/util"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the read-only aggregation endpoints and exports.
type ReportHandler struct {
	Svc *finance.Service
}

func NewReportHandler(svc *finance.Service) *ReportHandler {
	return &ReportHandler{Svc: svc}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	summary, err := h.Svc.GetSummary(actor, intQuery(c, "year", 0), adminUserFilter(c, actor))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":             summary.Year,
		"months":           summary.Months,
		"is_admin":         actor.IsAdmin,
		"filtered_user_id": summary.FilteredUserID,
	})
}

func (h *ReportHandler) Budgets(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	lines, err := h.Svc.GetBudgets(actor, adminUserFilter(c, actor))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": lines})
}

// Overview materializes due recurring entries, snapshots the visible
// accounts, then returns the dashboard aggregates.
func (h *ReportHandler) Overview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	h.Svc.MaterializeDue(actor)
	if err := h.Svc.SnapshotAll(actor); err != nil {
		writeFinanceError(c, err)
		return
	}
	overview, err := h.Svc.GetOverview(actor)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *ReportHandler) Cashflow(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	h.Svc.MaterializeDue(actor)
	flow, err := h.Svc.GetCashflow(actor, intQuery(c, "days", 90))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (h *ReportHandler) Projection(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	projection, err := h.Svc.GetProjection(actor, intQuery(c, "days", 30))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

func (h *ReportHandler) exportFilter(c *gin.Context, actor finance.Actor) finance.ExportFilter {
	return finance.ExportFilter{
		Kind:   c.Query("kind"),
		Year:   intQuery(c, "year", 0),
		Month:  intQuery(c, "month", 0),
		UserID: adminUserFilter(c, actor),
	}
}

func (h *ReportHandler) ExportCSV(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="finanzen_export.csv"`)
	if err := h.Svc.ExportCSV(actor, h.exportFilter(c, actor), c.Writer); err != nil {
		writeFinanceError(c, err)
	}
}

func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	file, err := h.Svc.ExportXLSX(actor, h.exportFilter(c, actor))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="finanzen_export.xlsx"`)
	if err := file.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to write spreadsheet")
	}
}
