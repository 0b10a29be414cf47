package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pgledger/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func reply(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, name)
	}
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter_DefaultsToV1(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(NewDomainGroup("billing", "/billing").GET("/stats", reply("stats"))).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/billing/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stats", w.Body.String())
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).
		Register(NewDomainGroup("billing", "/billing").GET("/stats", reply("stats"))).
		Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v2/billing/stats").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/billing/stats").Code)
}

func TestDomainGroup_DispatchesByMethod(t *testing.T) {
	engine := gin.New()
	bills := NewDomainGroup("bills", "/bills").
		GET("", reply("list")).
		POST("/generate", reply("generate")).
		DELETE("", reply("clear"))
	payments := NewDomainGroup("payments", "/payments").
		PUT("/:id", reply("update")).
		DELETE("/:id", reply("delete"))
	electricity := NewDomainGroup("electricity", "/electricity").
		PUT("/readings", reply("readings"))
	NewRouter(engine).Register(bills).Register(payments).Register(electricity).Setup()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/bills", "list"},
		{http.MethodPost, "/api/v1/bills/generate", "generate"},
		{http.MethodDelete, "/api/v1/bills", "clear"},
		{http.MethodPut, "/api/v1/payments/7b0c", "update"},
		{http.MethodDelete, "/api/v1/payments/7b0c", "delete"},
		{http.MethodPut, "/api/v1/electricity/readings", "readings"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/bills/generate/extra").Code)
}

func TestDomainGroup_MiddlewareScopedToGroup(t *testing.T) {
	engine := gin.New()
	guarded := NewDomainGroup("payments", "/payments").
		Use(func(c *gin.Context) {
			c.Header("X-Guard", "payments")
			c.Next()
		}).
		POST("", reply("record"))
	open := NewDomainGroup("bills", "/bills").GET("", reply("list"))
	NewRouter(engine).Register(guarded).Register(open).Setup()

	w := serve(engine, http.MethodPost, "/api/v1/payments")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payments", w.Header().Get("X-Guard"))

	w = serve(engine, http.MethodGet, "/api/v1/bills")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Guard"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	tenants := NewDomainGroup("tenants", "/tenants").GET("", reply("list"))
	tenants.Group("tenant-room", "/:id").PUT("/room", reply("move"))
	NewRouter(engine).Register(tenants).Setup()

	assert.Equal(t, "tenants", tenants.Name())
	assert.Equal(t, "/tenants", tenants.Prefix())
	assert.Equal(t, "list", serve(engine, http.MethodGet, "/api/v1/tenants").Body.String())
	assert.Equal(t, "move", serve(engine, http.MethodPut, "/api/v1/tenants/42/room").Body.String())
}

func TestLedgerRoutes_IdempotencyRunsBeforeRecord(t *testing.T) {
	engine := gin.New()
	var order []string
	guard := func(c *gin.Context) {
		order = append(order, "idempotency")
		c.AbortWithStatus(http.StatusConflict)
	}
	r := NewRouter(engine)
	for _, registrar := range LedgerRoutes(Handlers{
		System:  &handler.SystemHandler{},
		Tenant:  &handler.TenantHandler{},
		Bill:    &handler.BillHandler{},
		Payment: &handler.PaymentHandler{},
		Stats:   &handler.StatsHandler{},
	}, guard) {
		r.Register(registrar)
	}
	r.Setup()

	w := serve(engine, http.MethodPost, "/api/v1/payments")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []string{"idempotency"}, order)

	for _, route := range engine.Routes() {
		if route.Method == http.MethodPut && route.Path == "/api/v1/payments/:id" {
			return
		}
	}
	t.Fatal("payment update route not registered")
}

func TestLedgerRoutes_WithoutIdempotency(t *testing.T) {
	registrars := LedgerRoutes(Handlers{
		System:  &handler.SystemHandler{},
		Tenant:  &handler.TenantHandler{},
		Bill:    &handler.BillHandler{},
		Payment: &handler.PaymentHandler{},
		Stats:   &handler.StatsHandler{},
	}, nil)

	names := make([]string, 0, len(registrars))
	for _, registrar := range registrars {
		group, ok := registrar.(*DomainGroup)
		require.True(t, ok)
		names = append(names, group.Name())
	}
	assert.Equal(t, []string{"system", "tenants", "electricity", "bills", "payments", "billing"}, names)

	engine := gin.New()
	r := NewRouter(engine)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	for _, route := range engine.Routes() {
		if route.Method == http.MethodPost && route.Path == "/api/v1/payments" {
			assert.Contains(t, route.Handler, "PaymentHandler")
		}
	}
}
