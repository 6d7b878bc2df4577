package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/export"
	"sitebooks/internal/middleware"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type reportFunc func(ctx context.Context, groupBy string, f repository.Filter) (service.StatusReport, error)

// StatusHandler serves the client and contractor payment-status reports.
type StatusHandler struct {
	statusService service.StatusService
}

func NewStatusHandler(statusService service.StatusService) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

func (h *StatusHandler) RegisterRoutes(api *gin.RouterGroup) {
	client := api.Group("/client-payment-status")
	{
		client.GET("", h.GetClientStatus)
		client.GET("/export", h.ExportClientStatus)
	}
	contractor := api.Group("/contractor-payment-status")
	{
		contractor.GET("", h.GetContractorStatus)
		contractor.GET("/export", h.ExportContractorStatus)
	}
}

// GetClientStatus reports billed, received and outstanding amounts per bill or
// per job. Totals always equal the sum of the returned rows.
// @Summary      Client payment status
// @Tags         payment-status
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query     string  false  "bill (default) or job"
// @Param        job_id      query     string  false  "Filter by job"
// @Param        client_id   query     string  false  "Filter by client"
// @Param        company_id  query     string  false  "Filter by company"
// @Param        from        query     string  false  "Bill date from (YYYY-MM-DD)"
// @Param        to          query     string  false  "Bill date to (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=service.StatusReport}
// @Failure      400  {object}  response.Response
// @Router       /api/client-payment-status [get]
func (h *StatusHandler) GetClientStatus(c *gin.Context) {
	h.report(c, h.statusService.ClientStatus)
}

// GetContractorStatus
// @Summary      Contractor payment status
// @Tags         payment-status
// @Security     BearerAuth
// @Produce      json
// @Param        group_by       query     string  false  "bill (default), job or contractor"
// @Param        job_id         query     string  false  "Filter by job"
// @Param        contractor_id  query     string  false  "Filter by contractor or supplier"
// @Param        from           query     string  false  "Bill date from"
// @Param        to             query     string  false  "Bill date to"
// @Success      200  {object}  response.Response{data=service.StatusReport}
// @Failure      400  {object}  response.Response
// @Router       /api/contractor-payment-status [get]
func (h *StatusHandler) GetContractorStatus(c *gin.Context) {
	h.report(c, h.statusService.ContractorStatus)
}

// ExportClientStatus
// @Summary      Export client payment status
// @Tags         payment-status
// @Security     BearerAuth
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format    query  string  false  "csv (default) or xlsx"
// @Param        group_by  query  string  false  "bill (default) or job"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Router       /api/client-payment-status/export [get]
func (h *StatusHandler) ExportClientStatus(c *gin.Context) {
	h.export(c, "client-payment-status", h.statusService.ClientStatus)
}

// @Summary      Export contractor payment status
// @Tags         payment-status
// @Security     BearerAuth
// @Param        format    query  string  false  "csv (default) or xlsx"
// @Param        group_by  query  string  false  "bill (default), job or contractor"
// @Success      200  {file}    file
// @Router       /api/contractor-payment-status/export [get]
func (h *StatusHandler) ExportContractorStatus(c *gin.Context) {
	h.export(c, "contractor-payment-status", h.statusService.ContractorStatus)
}

func (h *StatusHandler) report(c *gin.Context, build reportFunc) {
	report, ok := h.build(c, build)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

func (h *StatusHandler) export(c *gin.Context, name string, build reportFunc) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		middleware.Fail(c, apperror.Validation("%s", err.Error()))
		return
	}
	report, ok := h.build(c, build)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report.Table()); err != nil {
		middleware.Fail(c, apperror.Internal(err))
		return
	}

	filename := format.Filename(fmt.Sprintf("%s-%s", name, time.Now().Format("20060102")))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *StatusHandler) build(c *gin.Context, build reportFunc) (service.StatusReport, bool) {
	f, err := parseFilter(c)
	if err != nil {
		middleware.Fail(c, err)
		return service.StatusReport{}, false
	}
	report, err := build(c.Request.Context(), c.Query("group_by"), f)
	if err != nil {
		middleware.Fail(c, err)
		return service.StatusReport{}, false
	}
	return report, true
}

// PreviewHandler serves POST /api/ledger/preview.
type PreviewHandler struct {
	previewService service.PreviewService
}

func NewPreviewHandler(previewService service.PreviewService) *PreviewHandler {
	return &PreviewHandler{previewService: previewService}
}

func (h *PreviewHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/ledger/preview", h.Preview)
}

// Preview computes bill total, deductions and net amount for a form that has
// not been saved yet, and checks a refund against the stored refunds of its
// expense. Nothing is written.
// @Summary      Preview ledger figures
// @Tags         ledger
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PreviewRequest  true  "Unsaved form values"
// @Success      200      {object}  response.Response{data=service.PreviewResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/ledger/preview [post]
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req service.PreviewRequest
	if !bind(c, &req) {
		return
	}
	preview, err := h.previewService.Preview(c.Request.Context(), req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}
