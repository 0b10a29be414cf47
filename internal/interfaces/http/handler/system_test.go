package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("pg-ledger", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("pg-ledger", nil)
	c, w := newTestContext(http.MethodGet, "/system/info")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[SystemInfoResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "pg-ledger", resp.Data.Name)
	assert.Equal(t, Version, resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
	assert.NotEmpty(t, resp.Data.Uptime)
}

func TestSystemHandler_HealthPingsDatabase(t *testing.T) {
	pinged := false
	h := NewSystemHandler("pg-ledger", pingFunc(func(ctx context.Context) error {
		pinged = true
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}))
	c, w := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.True(t, pinged)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[HealthResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.Time)
}
