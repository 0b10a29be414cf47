package router

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pgledger/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
)

func TestLedgerRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	noop := func(c *gin.Context) { c.Status(http.StatusTeapot) }
	for _, registrar := range LedgerRoutes(Handlers{
		System:  &handler.SystemHandler{},
		Tenant:  &handler.TenantHandler{},
		Bill:    &handler.BillHandler{},
		Payment: &handler.PaymentHandler{},
		Stats:   &handler.StatsHandler{},
	}, noop) {
		r.Register(registrar)
	}
	r.Setup()

	registered := map[string]int{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path]++
	}

	want := []string{
		"GET /api/v1/health",
		"GET /api/v1/system/info",
		"GET /api/v1/tenants",
		"POST /api/v1/tenants",
		"GET /api/v1/tenants/:id",
		"PUT /api/v1/tenants/:id/room",
		"PUT /api/v1/tenants/:id/status",
		"PUT /api/v1/tenants/:id/deposit",
		"PUT /api/v1/electricity/readings",
		"POST /api/v1/bills/generate",
		"POST /api/v1/bills/overdue-sweep",
		"GET /api/v1/bills",
		"DELETE /api/v1/bills",
		"GET /api/v1/bills/:id",
		"POST /api/v1/payments",
		"GET /api/v1/payments",
		"GET /api/v1/payments/:id",
		"PUT /api/v1/payments/:id",
		"DELETE /api/v1/payments/:id",
		"GET /api/v1/billing/stats",
	}
	for _, route := range want {
		assert.Equal(t, 1, registered[route], route)
	}
	assert.Len(t, engine.Routes(), len(want))
}
