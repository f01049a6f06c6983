package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/middleware"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// AnalyticsHandler exposes timetable utilization and conflict reporting.
type AnalyticsHandler struct {
	reporter *service.AnalyticsReporter
	metrics  *service.MetricsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(reporter *service.AnalyticsReporter, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{reporter: reporter, metrics: metrics}
}

// Report godoc
// @Summary Get utilization and conflict report for a timetable version
// @Tags Analytics
// @Produce json
// @Param version_id query int false "Version ID (defaults to the latest)"
// @Success 200 {object} response.Envelope
// @Router /analytics [get]
func (h *AnalyticsHandler) Report(c *gin.Context) {
	if h.reporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	versionID, err := parseOptionalVersionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, err := h.reporter.Report(c.Request.Context(), versionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, nil, meta)
}

// ExportPDF godoc
// @Summary Export the analytics report as a PDF document
// @Tags Analytics
// @Produce application/pdf
// @Param version_id query int false "Version ID (defaults to the latest)"
// @Success 200 {file} file
// @Router /analytics/export/pdf [get]
func (h *AnalyticsHandler) ExportPDF(c *gin.Context) {
	if h.reporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	versionID, err := parseOptionalVersionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reporter.Report(c.Request.Context(), versionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.reporter.ExportPDF(report)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=analytics-report.pdf")
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportCSV godoc
// @Summary Export the analytics report as CSV
// @Tags Analytics
// @Produce text/csv
// @Param version_id query int false "Version ID (defaults to the latest)"
// @Success 200 {file} file
// @Router /analytics/export/csv [get]
func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	if h.reporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	versionID, err := parseOptionalVersionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reporter.Report(c.Request.Context(), versionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.reporter.ExportCSV(report)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=analytics-report.csv")
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportArchive godoc
// @Summary Persist the analytics report and return a signed download URL
// @Tags Analytics
// @Produce json
// @Param version_id query int false "Version ID (defaults to the latest)"
// @Param format query string true "pdf or csv"
// @Success 200 {object} response.Envelope
// @Router /analytics/export/archive [post]
func (h *AnalyticsHandler) ExportArchive(c *gin.Context) {
	if h.reporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	versionID, err := parseOptionalVersionID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.Query("format")
	result, err := h.reporter.ArchiveExport(c.Request.Context(), versionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, nil)
}

// DownloadArchive godoc
// @Summary Download a previously archived export by signed token
// @Tags Analytics
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /analytics/export/archive/{token} [get]
func (h *AnalyticsHandler) DownloadArchive(c *gin.Context) {
	if h.reporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	file, err := h.reporter.OpenArchived(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	c.Header("Content-Disposition", "attachment")
	http.ServeContent(c.Writer, c.Request, file.Name(), time.Time{}, file)
}

// System godoc
// @Summary Get process-level instrumentation metrics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	start := time.Now()
	var snapshot models.AnalyticsSystemMetrics
	if h.metrics != nil {
		snapshot = h.metrics.Snapshot()
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, snapshot, nil, meta)
}

func parseOptionalVersionID(c *gin.Context) (int64, error) {
	raw := c.Query("version_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidationUnprocessable, "invalid version_id parameter")
	}
	return id, nil
}
