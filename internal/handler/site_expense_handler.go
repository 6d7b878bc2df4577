package handler

import (
	"net/http"

	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type SiteExpenseHandler struct {
	resource[service.CreateSiteExpenseRequest, service.UpdateSiteExpenseRequest, service.SiteExpenseResponse]
	expenses service.SiteExpenseService
}

func NewSiteExpenseHandler(svc service.SiteExpenseService) *SiteExpenseHandler {
	return &SiteExpenseHandler{
		resource: resource[service.CreateSiteExpenseRequest, service.UpdateSiteExpenseRequest, service.SiteExpenseResponse]{svc: svc},
		expenses: svc,
	}
}

func (h *SiteExpenseHandler) RegisterRoutes(api *gin.RouterGroup) {
	expenses := api.Group("/site-expenses")
	{
		expenses.GET("/summary", h.GetSummary)
		expenses.GET("", h.ListSiteExpenses)
		expenses.GET("/:id", h.get)
		expenses.POST("", h.CreateSiteExpense)
		expenses.PUT("/:id", h.UpdateSiteExpense)
		expenses.DELETE("/:id", managerOnly, h.delete)
	}
}

// ListSiteExpenses returns expenses with their refund total and net expense
// @Summary      List site expenses
// @Tags         site-expenses
// @Security     BearerAuth
// @Produce      json
// @Param        job_id     query  string  false  "Filter by job"
// @Param        client_id  query  string  false  "Filter by client"
// @Param        from       query  string  false  "Payment date from"
// @Param        to         query  string  false  "Payment date to"
// @Param        search     query  string  false  "Search paid to, site or description"
// @Success      200  {object}  response.Response{data=[]service.SiteExpenseResponse}
// @Router       /api/site-expenses [get]
func (h *SiteExpenseHandler) ListSiteExpenses(c *gin.Context) { h.list(c) }

// CreateSiteExpense
// @Summary      Create site expense
// @Tags         site-expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSiteExpenseRequest  true  "Expense payload"
// @Success      201      {object}  response.Response{data=service.SiteExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/site-expenses [post]
func (h *SiteExpenseHandler) CreateSiteExpense(c *gin.Context) { h.create(c) }

// UpdateSiteExpense rejects an amount below the refunds already recorded.
// @Summary      Update site expense
// @Tags         site-expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Expense ID"
// @Param        payload  body      service.UpdateSiteExpenseRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.SiteExpenseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/site-expenses/{id} [put]
func (h *SiteExpenseHandler) UpdateSiteExpense(c *gin.Context) { h.update(c) }

// GetSummary totals expenses and refunds per job
// @Summary      Site expense summary
// @Tags         site-expenses
// @Security     BearerAuth
// @Produce      json
// @Param        job_id     query     string  false  "Filter by job"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        from       query     string  false  "Payment date from"
// @Param        to         query     string  false  "Payment date to"
// @Success      200        {object}  response.Response{data=service.ExpenseSummary}
// @Failure      400        {object}  response.Response
// @Router       /api/site-expenses/summary [get]
func (h *SiteExpenseHandler) GetSummary(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	summary, err := h.expenses.Summary(c.Request.Context(), f)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

type SiteExpenseRefundHandler struct {
	resource[service.CreateSiteExpenseRefundRequest, service.UpdateSiteExpenseRefundRequest, service.SiteExpenseRefundResponse]
}

func NewSiteExpenseRefundHandler(svc service.SiteExpenseRefundService) *SiteExpenseRefundHandler {
	return &SiteExpenseRefundHandler{resource: resource[service.CreateSiteExpenseRefundRequest, service.UpdateSiteExpenseRefundRequest, service.SiteExpenseRefundResponse]{svc: svc}}
}

func (h *SiteExpenseRefundHandler) RegisterRoutes(api *gin.RouterGroup) {
	refunds := api.Group("/site-expense-refunds")
	{
		refunds.GET("", h.list)
		refunds.GET("/:id", h.get)
		refunds.POST("", h.CreateRefund)
		refunds.PUT("/:id", h.UpdateRefund)
		refunds.DELETE("/:id", managerOnly, h.delete)
	}
}

// CreateRefund records a partial return against a site expense. Refunds of an
// expense may add up to its amount but never more.
// @Summary      Create site expense refund
// @Tags         site-expense-refunds
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSiteExpenseRefundRequest  true  "Refund payload"
// @Success      201      {object}  response.Response{data=service.SiteExpenseRefundResponse}
// @Failure      400      {object}  response.Response  "Refund exceeds remaining expense amount"
// @Router       /api/site-expense-refunds [post]
func (h *SiteExpenseRefundHandler) CreateRefund(c *gin.Context) { h.create(c) }

// UpdateRefund checks the limit without counting the refund's current amount.
// @Summary      Update site expense refund
// @Tags         site-expense-refunds
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                  true  "Refund ID"
// @Param        payload  body      service.UpdateSiteExpenseRefundRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.SiteExpenseRefundResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/site-expense-refunds/{id} [put]
func (h *SiteExpenseRefundHandler) UpdateRefund(c *gin.Context) { h.update(c) }

// EnquiryHandler serves /api/site-expense-enquiries. Lists accept status.
type EnquiryHandler struct {
	resource[service.CreateEnquiryRequest, service.UpdateEnquiryRequest, service.EnquiryResponse]
}

func NewEnquiryHandler(svc service.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{resource: resource[service.CreateEnquiryRequest, service.UpdateEnquiryRequest, service.EnquiryResponse]{svc: svc}}
}

func (h *EnquiryHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/site-expense-enquiries"))
}
