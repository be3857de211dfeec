package handlers

import (
	"fmt"
	"net/http"

	"qc-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	responder
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService, log logrus.FieldLogger, development bool) *ReportHandler {
	return &ReportHandler{
		responder: responder{log: log.WithField("handler", "reports"), development: development},
		reports:   reports,
	}
}

// RegisterRoutes mounts the report routes. GET /:id takes a task id while
// /:id/download takes a report id.
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/qc-reports")
	reports.GET("", h.ListReports)
	reports.POST("", h.CreateReport)
	reports.GET("/:id", h.GetReportsForTask)
	reports.GET("/:id/download", h.DownloadReport)
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	views, err := h.reports.ListReports(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req services.CreateReportInput
	if !h.bindJSON(c, &req) {
		return
	}
	report, err := h.reports.CreateReport(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) GetReportsForTask(c *gin.Context) {
	reports, err := h.reports.GetReportsForTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) DownloadReport(c *gin.Context) {
	rendered, err := h.reports.RenderReportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	c.Data(http.StatusOK, "application/pdf", rendered.Content)
}
