package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/middleware"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/model"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/service"
)

// InvoiceHandler handles HTTP requests for the invoice ledger
type InvoiceHandler struct {
	ledger service.LedgerService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(ledger service.LedgerService) *InvoiceHandler {
	return &InvoiceHandler{ledger: ledger}
}

// RegisterRoutes registers the handler's routes with the given router. Every
// route requires an authenticated user.
func (h *InvoiceHandler) RegisterRoutes(router gin.IRouter, authMiddleware gin.HandlerFunc) {
	invoices := router.Group("/v1/invoices")
	invoices.Use(authMiddleware)
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/overdue", h.GetOverdueInvoices)
		invoices.GET("/summary", h.GetSummary)
		invoices.GET("/:invoiceId", h.GetInvoice)
		invoices.PUT("/:invoiceId", h.UpdateInvoice)
		invoices.DELETE("/:invoiceId", h.DeleteInvoice)
		invoices.POST("/:invoiceId/cancel", h.CancelInvoice)
		invoices.POST("/:invoiceId/payments", h.RecordPayment)
	}
}

// CreateInvoice handles a request to create an invoice
// @Summary Create an invoice
// @Description Prices the line items, computes the totals and assigns the next invoice number for the bill date. An initial payment may be recorded in the same call.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body model.CreateInvoiceRequest true "Invoice to create"
// @Success 201 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid request"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Customer or catalog item not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.ledger.CreateInvoice(c.Request.Context(), middleware.ActorFromContext(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, model.NewInvoiceResponse(invoice))
}

// GetInvoice handles a request to fetch one invoice
// @Summary Get an invoice
// @Description Returns the invoice with its line items, payments and current payment status
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path int true "Invoice ID"
// @Success 200 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid ID"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := getIDParam(c, "invoiceId")
	if err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.ledger.GetInvoice(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, model.NewInvoiceResponse(invoice))
}

// ListInvoices handles a request to list invoices
// @Summary List invoices
// @Description Paginated invoice list, newest bill date first. payment_status filters on the displayed status, so "overdue" is accepted.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches invoice number or customer name"
// @Param payment_status query string false "unpaid, partially_paid, fully_paid or overdue"
// @Param customer_id query int false "Customer ID"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} model.InvoicesListResponse
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Router /v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var query model.ListInvoicesQuery
	if err := bindQuery(c, &query); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.ledger.ListInvoices(c.Request.Context(), middleware.ActorFromContext(c), query.ToFilter())
	if err != nil {
		respondError(c, err)
		return
	}

	var resp model.InvoicesListResponse
	resp.Data = model.NewInvoiceResponses(page.Data)
	resp.Pagination.FromDomain(page.Pagination)
	respondOK(c, resp)
}

// UpdateInvoice handles a request to replace an invoice's contents
// @Summary Update an invoice
// @Description Replaces the customer, dates, percentages and line items and recomputes the totals. Only invoices without payments can be edited.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path int true "Invoice ID"
// @Param invoice body model.UpdateInvoiceRequest true "New invoice contents"
// @Success 200 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid request"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Failure 409 {object} model.ErrorResponse "Invoice can no longer be edited"
// @Router /v1/invoices/{invoiceId} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, err := getIDParam(c, "invoiceId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req model.UpdateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.ledger.UpdateInvoice(c.Request.Context(), middleware.ActorFromContext(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, model.NewInvoiceResponse(invoice))
}

// CancelInvoice handles a request to cancel an invoice
// @Summary Cancel an invoice
// @Description Marks the invoice cancelled. Recorded payments are kept and further payments are refused.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path int true "Invoice ID"
// @Param request body model.CancelInvoiceRequest true "Cancellation reason"
// @Success 200 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid request"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Failure 409 {object} model.ErrorResponse "Invoice already cancelled"
// @Router /v1/invoices/{invoiceId}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, err := getIDParam(c, "invoiceId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req model.CancelInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.ledger.CancelInvoice(c.Request.Context(), middleware.ActorFromContext(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, model.NewInvoiceResponse(invoice))
}

// DeleteInvoice handles a request to delete an invoice
// @Summary Delete an invoice
// @Description Removes an invoice and its line items. Invoices with payments cannot be deleted.
// @Tags invoices
// @Security BearerAuth
// @Param invoiceId path int true "Invoice ID"
// @Success 204 "Invoice deleted"
// @Failure 400 {object} model.ErrorResponse "Invalid ID"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Failure 409 {object} model.ErrorResponse "Invoice has payments"
// @Router /v1/invoices/{invoiceId} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := getIDParam(c, "invoiceId")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.ledger.DeleteInvoice(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}

	respondNoContent(c)
}

// RecordPayment handles a request to record a payment against an invoice
// @Summary Record a payment
// @Description Applies a payment to the invoice balance. Payments above the outstanding balance are refused.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path int true "Invoice ID"
// @Param payment body model.RecordPaymentRequest true "Payment"
// @Success 201 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid payment"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Failure 409 {object} model.ErrorResponse "Invoice cancelled or already fully paid"
// @Router /v1/invoices/{invoiceId}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, err := getIDParam(c, "invoiceId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req model.RecordPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.ledger.RecordPayment(c.Request.Context(), middleware.ActorFromContext(c), id, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, model.NewInvoiceResponse(invoice))
}

// GetOverdueInvoices handles a request to list overdue invoices
// @Summary List overdue invoices
// @Description Invoices past their due date with a balance left, oldest due date first
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.OverdueInvoicesResponse
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Router /v1/invoices/overdue [get]
func (h *InvoiceHandler) GetOverdueInvoices(c *gin.Context) {
	invoices, err := h.ledger.GetOverdueInvoices(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, model.OverdueInvoicesResponse{
		Data:  model.NewInvoiceResponses(invoices),
		Count: len(invoices),
	})
}

// GetSummary handles a request for the billing dashboard figures
// @Summary Invoice summary
// @Description Totals billed, collected and outstanding with invoice counts per payment status. Cancelled invoices are excluded.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SummaryResponse
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Router /v1/invoices/summary [get]
func (h *InvoiceHandler) GetSummary(c *gin.Context) {
	summary, err := h.ledger.GetSummary(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var resp model.SummaryResponse
	resp.FromDomain(summary)
	respondOK(c, resp)
}
