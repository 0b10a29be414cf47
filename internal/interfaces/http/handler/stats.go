package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
)

// StatsHandler serves aggregate billing figures
type StatsHandler struct {
	BaseHandler
	query *ledgerapp.QueryService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(query *ledgerapp.QueryService) *StatsHandler {
	return &StatsHandler{query: query}
}

// StatsQuery optionally narrows the stats to one month
type StatsQuery struct {
	BillingMonth string `form:"billing_month" binding:"omitempty,billing_month"`
}

// Get godoc
// @ID           getBillingStats
// @Summary      Billing statistics
// @Description  Totals billed and collected, outstanding amounts by status, collection per payment method and per month
// @Tags         stats
// @Produce      json
// @Param        billing_month  query    string  false  "Billing month (YYYY-MM)"
// @Success      200 {object} APIResponse[ledgerapp.StatsResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /billing/stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	var q StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	stats, err := h.query.Stats(c.Request.Context(), q.BillingMonth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
