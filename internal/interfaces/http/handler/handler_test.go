package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
	residencyapp "github.com/pgledger/backend/internal/application/residency"
	"github.com/pgledger/backend/internal/infrastructure/cache"
	"github.com/pgledger/backend/internal/infrastructure/persistence"
	"github.com/pgledger/backend/internal/infrastructure/persistence/models"
	"github.com/pgledger/backend/internal/interfaces/http/dto"
	"github.com/pgledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// newTestServer wires the real services over an in-memory SQLite database
// and mounts the handlers the way the router does
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.TenantModel{}, &models.BillModel{}, &models.PaymentModel{}))
	require.NoError(t, middleware.SetupValidator())

	tenantRepo := persistence.NewGormTenantRepository(db)
	billRepo := persistence.NewGormBillRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	tx := persistence.NewGormTransactionManager(db)
	locker := cache.NewInMemoryLocker(3 * time.Second)
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	query := ledgerapp.NewQueryService(billRepo, paymentRepo)
	tenants := NewTenantHandler(residencyapp.NewTenantService(tenantRepo, tx))
	bills := NewBillHandler(
		ledgerapp.NewBillGenerator(tenantRepo, billRepo, tx, locker, ledgerapp.DefaultGeneratorConfig()),
		query,
		ledgerapp.NewMaintenanceService(billRepo, paymentRepo, tx, locker, time.Second),
	)
	payments := NewPaymentHandler(
		ledgerapp.NewPaymentLedger(tenantRepo, billRepo, paymentRepo, tx, locker, time.Second),
		query,
	)
	stats := NewStatsHandler(query)
	system := NewSystemHandler("pg-ledger", pingFunc(func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	}))

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.GET("/health", system.Health)
	api.GET("/tenants", tenants.List)
	api.POST("/tenants", tenants.Register)
	api.GET("/tenants/:id", tenants.GetByID)
	api.PUT("/tenants/:id/room", tenants.MoveRoom)
	api.PUT("/tenants/:id/status", tenants.ChangeStatus)
	api.PUT("/tenants/:id/deposit", tenants.UpdateDeposit)
	api.PUT("/electricity/readings", tenants.UpdateReadings)
	api.POST("/bills/generate", bills.Generate)
	api.POST("/bills/overdue-sweep", bills.OverdueSweep)
	api.GET("/bills", bills.List)
	api.DELETE("/bills", bills.ClearMonth)
	api.GET("/bills/:id", bills.GetByID)
	api.POST("/payments", middleware.Idempotency(idempotency, time.Hour), payments.Record)
	api.GET("/payments", payments.List)
	api.GET("/payments/:id", payments.GetByID)
	api.PUT("/payments/:id", payments.Update)
	api.DELETE("/payments/:id", payments.Delete)
	api.GET("/billing/stats", stats.Get)

	return &testServer{engine: engine, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decode reads a success envelope into T
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// decodeError reads an error envelope
func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func (s *testServer) register(t *testing.T, name, room string, rent, joining int64) residencyapp.TenantResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/tenants", residencyapp.RegisterTenantRequest{
		Name:                      name,
		RoomNumber:                room,
		MonthlyRent:               rent,
		ElectricityJoiningReading: joining,
		JoiningDate:               "2024-02-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[residencyapp.TenantResponse](t, w).Data
}
