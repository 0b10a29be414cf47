package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pgledger/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of the ledger API
type Handlers struct {
	System  *handler.SystemHandler
	Tenant  *handler.TenantHandler
	Bill    *handler.BillHandler
	Payment *handler.PaymentHandler
	Stats   *handler.StatsHandler
}

// LedgerRoutes builds the route groups of the ledger API. idempotency guards
// payment creation and may be nil.
func LedgerRoutes(h Handlers, idempotency gin.HandlerFunc) []RouteRegistrar {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)

	tenants := NewDomainGroup("tenants", "/tenants")
	tenants.GET("", h.Tenant.List)
	tenants.POST("", h.Tenant.Register)
	tenants.GET("/:id", h.Tenant.GetByID)
	tenants.PUT("/:id/room", h.Tenant.MoveRoom)
	tenants.PUT("/:id/status", h.Tenant.ChangeStatus)
	tenants.PUT("/:id/deposit", h.Tenant.UpdateDeposit)

	electricity := NewDomainGroup("electricity", "/electricity")
	electricity.PUT("/readings", h.Tenant.UpdateReadings)

	bills := NewDomainGroup("bills", "/bills")
	bills.POST("/generate", h.Bill.Generate)
	bills.POST("/overdue-sweep", h.Bill.OverdueSweep)
	bills.GET("", h.Bill.List)
	bills.DELETE("", h.Bill.ClearMonth)
	bills.GET("/:id", h.Bill.GetByID)

	recordPayment := []gin.HandlerFunc{h.Payment.Record}
	if idempotency != nil {
		recordPayment = append([]gin.HandlerFunc{idempotency}, recordPayment...)
	}
	payments := NewDomainGroup("payments", "/payments")
	payments.POST("", recordPayment...)
	payments.GET("", h.Payment.List)
	payments.GET("/:id", h.Payment.GetByID)
	payments.PUT("/:id", h.Payment.Update)
	payments.DELETE("/:id", h.Payment.Delete)

	billing := NewDomainGroup("billing", "/billing")
	billing.GET("/stats", h.Stats.Get)

	return []RouteRegistrar{system, tenants, electricity, bills, payments, billing}
}
