package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pgledger/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateRequest struct {
	BillingMonth string `json:"billing_month" binding:"required,billing_month"`
	DueDays      int    `json:"due_days" binding:"gte=0"`
}

func validationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestSetupValidator_BillingMonth(t *testing.T) {
	router := validationRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"valid month", `{"billing_month":"2024-03"}`, http.StatusOK, nil},
		{"missing month", `{}`, http.StatusBadRequest, []string{"billing_month"}},
		{"month 13", `{"billing_month":"2024-13"}`, http.StatusBadRequest, []string{"billing_month"}},
		{"wrong layout", `{"billing_month":"03-2024"}`, http.StatusBadRequest, []string{"billing_month"}},
		{"two failures", `{"billing_month":"2024-3","due_days":-1}`, http.StatusBadRequest, []string{"billing_month", "due_days"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantFields == nil {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)

			var fields []string
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestFormatValidationErrors_MalformedJSON(t *testing.T) {
	router := validationRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"billing_month":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
	assert.True(t, strings.HasPrefix(resp.Error.Message, "Invalid request body"))
}

func TestGetValidationMessage(t *testing.T) {
	type messages struct {
		Month  string           `json:"month" binding:"billing_month"`
		Date   string           `json:"date" binding:"datetime=2006-01-02"`
		Method string           `json:"method" binding:"oneof=cash upi"`
		Rooms  map[string]int64 `json:"rooms" binding:"min=1"`
		Amount int64            `json:"amount" binding:"gt=0"`
	}
	router := gin.New()
	require.NoError(t, SetupValidator())
	router.POST("/test", func(c *gin.Context) {
		var req messages
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	body := `{"month":"2024/03","date":"03-01-2024","method":"cheque","rooms":{},"amount":0}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)

	got := map[string]string{}
	for _, d := range resp.Error.Details {
		got[d.Field] = d.Message
	}
	assert.Equal(t, "Must be a billing month in YYYY-MM format", got["month"])
	assert.Equal(t, "Must be a date in YYYY-MM-DD format", got["date"])
	assert.Equal(t, "Must be one of: cash upi", got["method"])
	assert.Equal(t, "Must contain at least 1 entries", got["rooms"])
	assert.Equal(t, "Must be greater than 0", got["amount"])
}
