package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
)

// BillHandler handles bill generation, queries and administrative passes
type BillHandler struct {
	BaseHandler
	generator   *ledgerapp.BillGenerator
	query       *ledgerapp.QueryService
	maintenance *ledgerapp.MaintenanceService
	now         func() time.Time
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(generator *ledgerapp.BillGenerator, query *ledgerapp.QueryService, maintenance *ledgerapp.MaintenanceService) *BillHandler {
	return &BillHandler{
		generator:   generator,
		query:       query,
		maintenance: maintenance,
		now:         time.Now,
	}
}

// ClearMonthQuery selects the month to clear
type ClearMonthQuery struct {
	BillingMonth string `form:"billing_month" binding:"required,billing_month"`
}

// OverdueSweepQuery sets the evaluation date of a sweep
type OverdueSweepQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// Generate godoc
// @ID           generateBills
// @Summary      Generate monthly bills
// @Description  Create one bill per active tenant for the month, splitting each room's electricity equally. Rooms already billed, or without a reading, are skipped and reported.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        request  body     ledgerapp.GenerateBillsRequest  true  "Generation parameters"
// @Success      200 {object} APIResponse[ledgerapp.GenerationReport]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /bills/generate [post]
func (h *BillHandler) Generate(c *gin.Context) {
	var req ledgerapp.GenerateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	report, err := h.generator.GenerateBills(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// List godoc
// @ID           listBills
// @Summary      List bills
// @Tags         bills
// @Produce      json
// @Param        search         query    string  false  "Tenant name or room contains"
// @Param        tenant_id      query    string  false  "Tenant ID"  format(uuid)
// @Param        billing_month  query    string  false  "Billing month (YYYY-MM)"
// @Param        status         query    string  false  "Bill status"  Enums(pending, partial, paid, overdue)
// @Param        room_number    query    string  false  "Room number"
// @Param        page           query    int     false  "Page number"  default(1)
// @Param        page_size      query    int     false  "Page size"    default(20)
// @Param        order_by       query    string  false  "Sort column"  default(created_at)
// @Param        order_dir      query    string  false  "Sort direction"  Enums(asc, desc)
// @Success      200 {object} APIResponse[[]ledgerapp.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	var filter ledgerapp.BillListFilter
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

	bills, total, err := h.query.ListBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bills, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getBillById
// @Summary      Get bill with its payments
// @Tags         bills
// @Produce      json
// @Param        id   path     string  true  "Bill ID"  format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.BillDetailResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /bills/{id} [get]
func (h *BillHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "bill")
	if !ok {
		return
	}
	bill, err := h.query.GetBill(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// ClearMonth godoc
// @ID           clearBillingMonth
// @Summary      Delete all bills of a month
// @Description  Administrative reset. Payments applied to the deleted bills are kept as unapplied; meter readings are not rolled back.
// @Tags         bills
// @Produce      json
// @Param        billing_month  query    string  true  "Billing month (YYYY-MM)"
// @Success      200 {object} APIResponse[ledgerapp.ClearMonthResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /bills [delete]
func (h *BillHandler) ClearMonth(c *gin.Context) {
	var q ClearMonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.maintenance.ClearMonth(c.Request.Context(), q.BillingMonth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// OverdueSweep godoc
// @ID           sweepOverdueBills
// @Summary      Flag overdue bills now
// @Description  Mark pending and partial bills whose due date is before as_of (default today) as overdue
// @Tags         bills
// @Produce      json
// @Param        as_of  query    string  false  "Evaluation date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[ledgerapp.OverdueSweepResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /bills/overdue-sweep [post]
func (h *BillHandler) OverdueSweep(c *gin.Context) {
	var q OverdueSweepQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	asOf := h.now()
	if q.AsOf != "" {
		// Layout already checked by the binding
		asOf, _ = time.Parse(time.DateOnly, q.AsOf)
	}

	marked, err := h.maintenance.Sweep(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledgerapp.OverdueSweepResponse{
		AsOf:        asOf.Format(time.DateOnly),
		BillsMarked: marked,
	})
}
