package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
)

// PaymentHandler handles payment recording and queries
type PaymentHandler struct {
	BaseHandler
	ledger *ledgerapp.PaymentLedger
	query  *ledgerapp.QueryService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(ledger *ledgerapp.PaymentLedger, query *ledgerapp.QueryService) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, query: query}
}

// Record godoc
// @ID           recordPayment
// @Summary      Record a payment
// @Description  Store a payment and apply it to the tenant's bill for the month. Without a bill the payment is kept unapplied and the response carries an ORPHAN_PAYMENT warning. Send Idempotency-Key to make retries safe.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header   string                          false  "Client key for safe retries"
// @Param        request          body     ledgerapp.RecordPaymentRequest  true   "Payment"
// @Success      201 {object} APIResponse[ledgerapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req ledgerapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.ledger.RecordPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        search          query    string  false  "Transaction ID or notes contains"
// @Param        tenant_id       query    string  false  "Tenant ID"  format(uuid)
// @Param        bill_id         query    string  false  "Bill ID"    format(uuid)
// @Param        billing_month   query    string  false  "Billing month (YYYY-MM)"
// @Param        status          query    string  false  "Payment status"  Enums(applied, unapplied)
// @Param        payment_method  query    string  false  "Payment method"  Enums(cash, upi, bank_transfer, card, cheque)
// @Param        page            query    int     false  "Page number"  default(1)
// @Param        page_size       query    int     false  "Page size"    default(20)
// @Param        order_by        query    string  false  "Sort column"  default(created_at)
// @Param        order_dir       query    string  false  "Sort direction"  Enums(asc, desc)
// @Success      200 {object} APIResponse[[]ledgerapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter ledgerapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	payments, total, err := h.query.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get payment by ID
// @Tags         payments
// @Produce      json
// @Param        id   path     string  true  "Payment ID"  format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "payment")
	if !ok {
		return
	}
	payment, err := h.query.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Update godoc
// @ID           updatePayment
// @Summary      Edit a payment
// @Description  Change amount, method, transaction ID or notes. An amount change moves the linked bill by the difference.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path     string                          true  "Payment ID"  format(uuid)
// @Param        request  body     ledgerapp.UpdatePaymentRequest  true  "Fields to change"
// @Success      200 {object} APIResponse[ledgerapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "payment")
	if !ok {
		return
	}
	var req ledgerapp.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.ledger.UpdatePayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @ID           deletePayment
// @Summary      Delete a payment
// @Description  Remove a payment and take its amount back off the linked bill
// @Tags         payments
// @Produce      json
// @Param        id   path     string  true  "Payment ID"  format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.PaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "payment")
	if !ok {
		return
	}
	result, err := h.ledger.DeletePayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
