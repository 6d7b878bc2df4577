package handler

import (
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientBillHandler struct {
	resource[service.CreateClientBillRequest, service.UpdateClientBillRequest, service.ClientBillResponse]
}

func NewClientBillHandler(svc service.ClientBillService) *ClientBillHandler {
	return &ClientBillHandler{resource: resource[service.CreateClientBillRequest, service.UpdateClientBillRequest, service.ClientBillResponse]{svc: svc}}
}

func (h *ClientBillHandler) RegisterRoutes(api *gin.RouterGroup) {
	bills := api.Group("/client-bills")
	{
		bills.GET("", h.ListClientBills)
		bills.GET("/:id", h.GetClientBill)
		bills.POST("", h.CreateClientBill)
		bills.PUT("/:id", h.UpdateClientBill)
		bills.DELETE("/:id", managerOnly, h.DeleteClientBill)
	}
}

// ListClientBills returns client bills with their derived amount
// @Summary      List client bills
// @Tags         client-bills
// @Security     BearerAuth
// @Produce      json
// @Param        job_id      query     string  false  "Filter by job"
// @Param        client_id   query     string  false  "Filter by client"
// @Param        company_id  query     string  false  "Filter by company"
// @Param        from        query     string  false  "Bill date from (YYYY-MM-DD)"
// @Param        to          query     string  false  "Bill date to (YYYY-MM-DD)"
// @Param        search      query     string  false  "Search by bill number"
// @Param        page        query     int     false  "Page number (default: 1)"
// @Param        limit       query     string  false  "Items per page (default: 20) or all"
// @Success      200  {object}  response.Response{data=[]service.ClientBillResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/client-bills [get]
func (h *ClientBillHandler) ListClientBills(c *gin.Context) { h.list(c) }

// GetClientBill
// @Summary      Get client bill
// @Tags         client-bills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client bill ID"
// @Success      200  {object}  response.Response{data=service.ClientBillResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/client-bills/{id} [get]
func (h *ClientBillHandler) GetClientBill(c *gin.Context) { h.get(c) }

// CreateClientBill records a bill raised to the client of a job. The amount is
// always computed from base amount and GST.
// @Summary      Create client bill
// @Tags         client-bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClientBillRequest  true  "Client bill payload"
// @Success      201      {object}  response.Response{data=service.ClientBillResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/client-bills [post]
func (h *ClientBillHandler) CreateClientBill(c *gin.Context) { h.create(c) }

// UpdateClientBill
// @Summary      Update client bill
// @Tags         client-bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Client bill ID"
// @Param        payload  body      service.UpdateClientBillRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ClientBillResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/client-bills/{id} [put]
func (h *ClientBillHandler) UpdateClientBill(c *gin.Context) { h.update(c) }

// DeleteClientBill fails while receipts still reference the bill
// @Summary      Delete client bill
// @Tags         client-bills
// @Security     BearerAuth
// @Param        id   path  string  true  "Client bill ID"
// @Success      204
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/client-bills/{id} [delete]
func (h *ClientBillHandler) DeleteClientBill(c *gin.Context) { h.delete(c) }

type PaymentReceiptHandler struct {
	resource[service.CreatePaymentReceiptRequest, service.UpdatePaymentReceiptRequest, service.PaymentReceiptResponse]
}

func NewPaymentReceiptHandler(svc service.PaymentReceiptService) *PaymentReceiptHandler {
	return &PaymentReceiptHandler{resource: resource[service.CreatePaymentReceiptRequest, service.UpdatePaymentReceiptRequest, service.PaymentReceiptResponse]{svc: svc}}
}

func (h *PaymentReceiptHandler) RegisterRoutes(api *gin.RouterGroup) {
	receipts := api.Group("/payment-receipts")
	{
		receipts.GET("", h.ListPaymentReceipts)
		receipts.GET("/:id", h.GetPaymentReceipt)
		receipts.POST("", h.CreatePaymentReceipt)
		receipts.PUT("/:id", h.UpdatePaymentReceipt)
		receipts.DELETE("/:id", managerOnly, h.DeletePaymentReceipt)
	}
}

// ListPaymentReceipts
// @Summary      List payment receipts
// @Tags         payment-receipts
// @Security     BearerAuth
// @Produce      json
// @Param        job_id     query  string  false  "Filter by job"
// @Param        client_id  query  string  false  "Filter by client"
// @Param        from       query  string  false  "Receipt date from"
// @Param        to         query  string  false  "Receipt date to"
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  string  false  "Items per page or all"
// @Success      200  {object}  response.Response{data=[]service.PaymentReceiptResponse}
// @Router       /api/payment-receipts [get]
func (h *PaymentReceiptHandler) ListPaymentReceipts(c *gin.Context) { h.list(c) }

// @Summary      Get payment receipt
// @Tags         payment-receipts
// @Security     BearerAuth
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response{data=service.PaymentReceiptResponse}
// @Router       /api/payment-receipts/{id} [get]
func (h *PaymentReceiptHandler) GetPaymentReceipt(c *gin.Context) { h.get(c) }

// CreatePaymentReceipt records money received from a client. A bill_no that
// matches a bill of the job links the receipt to that bill; deductions are
// stored with it in one transaction.
// @Summary      Create payment receipt
// @Tags         payment-receipts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentReceiptRequest  true  "Receipt with deductions"
// @Success      201      {object}  response.Response{data=service.PaymentReceiptResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payment-receipts [post]
func (h *PaymentReceiptHandler) CreatePaymentReceipt(c *gin.Context) { h.create(c) }

// UpdatePaymentReceipt replaces the deduction list when one is sent.
// @Summary      Update payment receipt
// @Tags         payment-receipts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Receipt ID"
// @Param        payload  body      service.UpdatePaymentReceiptRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.PaymentReceiptResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payment-receipts/{id} [put]
func (h *PaymentReceiptHandler) UpdatePaymentReceipt(c *gin.Context) { h.update(c) }

// @Summary      Delete payment receipt
// @Tags         payment-receipts
// @Security     BearerAuth
// @Param        id  path  string  true  "Receipt ID"
// @Success      204
// @Router       /api/payment-receipts/{id} [delete]
func (h *PaymentReceiptHandler) DeletePaymentReceipt(c *gin.Context) { h.delete(c) }

type ContractorBillHandler struct {
	resource[service.CreateContractorBillRequest, service.UpdateContractorBillRequest, service.ContractorBillResponse]
}

func NewContractorBillHandler(svc service.ContractorBillService) *ContractorBillHandler {
	return &ContractorBillHandler{resource: resource[service.CreateContractorBillRequest, service.UpdateContractorBillRequest, service.ContractorBillResponse]{svc: svc}}
}

func (h *ContractorBillHandler) RegisterRoutes(api *gin.RouterGroup) {
	bills := api.Group("/contractor-bills")
	{
		bills.GET("", h.ListContractorBills)
		bills.GET("/:id", h.GetContractorBill)
		bills.POST("", h.CreateContractorBill)
		bills.PUT("/:id", h.UpdateContractorBill)
		bills.DELETE("/:id", managerOnly, h.DeleteContractorBill)
	}
}

// ListContractorBills
// @Summary      List contractor bills
// @Tags         contractor-bills
// @Security     BearerAuth
// @Produce      json
// @Param        job_id         query  string  false  "Filter by job"
// @Param        contractor_id  query  string  false  "Filter by contractor or supplier"
// @Param        from           query  string  false  "Bill date from"
// @Param        to             query  string  false  "Bill date to"
// @Param        search         query  string  false  "Search by bill number"
// @Success      200  {object}  response.Response{data=[]service.ContractorBillResponse}
// @Router       /api/contractor-bills [get]
func (h *ContractorBillHandler) ListContractorBills(c *gin.Context) { h.list(c) }

func (h *ContractorBillHandler) GetContractorBill(c *gin.Context) { h.get(c) }

// CreateContractorBill
// @Summary      Create contractor bill
// @Tags         contractor-bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateContractorBillRequest  true  "Contractor bill payload"
// @Success      201      {object}  response.Response{data=service.ContractorBillResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/contractor-bills [post]
func (h *ContractorBillHandler) CreateContractorBill(c *gin.Context) { h.create(c) }

func (h *ContractorBillHandler) UpdateContractorBill(c *gin.Context) { h.update(c) }

func (h *ContractorBillHandler) DeleteContractorBill(c *gin.Context) { h.delete(c) }

type ContractorPaymentHandler struct {
	resource[service.CreateContractorPaymentRequest, service.UpdateContractorPaymentRequest, service.ContractorPaymentResponse]
}

func NewContractorPaymentHandler(svc service.ContractorPaymentService) *ContractorPaymentHandler {
	return &ContractorPaymentHandler{resource: resource[service.CreateContractorPaymentRequest, service.UpdateContractorPaymentRequest, service.ContractorPaymentResponse]{svc: svc}}
}

func (h *ContractorPaymentHandler) RegisterRoutes(api *gin.RouterGroup) {
	payments := api.Group("/contractor-payments")
	{
		payments.GET("", h.ListContractorPayments)
		payments.GET("/:id", h.GetContractorPayment)
		payments.POST("", h.CreateContractorPayment)
		payments.PUT("/:id", h.UpdateContractorPayment)
		payments.DELETE("/:id", managerOnly, h.DeleteContractorPayment)
	}
}

// @Summary      List contractor payments
// @Tags         contractor-payments
// @Security     BearerAuth
// @Produce      json
// @Param        job_id         query  string  false  "Filter by job"
// @Param        contractor_id  query  string  false  "Filter by contractor or supplier"
// @Success      200  {object}  response.Response{data=[]service.ContractorPaymentResponse}
// @Router       /api/contractor-payments [get]
func (h *ContractorPaymentHandler) ListContractorPayments(c *gin.Context) { h.list(c) }

func (h *ContractorPaymentHandler) GetContractorPayment(c *gin.Context) { h.get(c) }

// CreateContractorPayment pays against a contractor bill. Job and contractor
// are taken from the bill.
// @Summary      Create contractor payment
// @Tags         contractor-payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateContractorPaymentRequest  true  "Payment with deductions"
// @Success      201      {object}  response.Response{data=service.ContractorPaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/contractor-payments [post]
func (h *ContractorPaymentHandler) CreateContractorPayment(c *gin.Context) { h.create(c) }

func (h *ContractorPaymentHandler) UpdateContractorPayment(c *gin.Context) { h.update(c) }

func (h *ContractorPaymentHandler) DeleteContractorPayment(c *gin.Context) { h.delete(c) }
