package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   int
		health   string
		database string
	}{
		{"no database", nil, http.StatusOK, "ok", "skipped"},
		{"database up", pingerFunc(func(context.Context) error { return nil }), http.StatusOK, "ok", "ok"},
		{"database down", pingerFunc(func(context.Context) error { return errors.New("refused") }), http.StatusServiceUnavailable, "degraded", "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("voucherdesk", "1.2.3", tt.db, nil)
			r := gin.New()
			r.GET("/health", h.Health)

			w := do(r, http.MethodGet, "/health", nil)
			require.Equal(t, tt.status, w.Code)

			data := decodeData[HealthResponse](t, w)
			assert.Equal(t, tt.health, data.Status)
			assert.Equal(t, tt.database, data.Database)
			assert.Equal(t, "voucherdesk", data.Name)
			assert.Equal(t, "1.2.3", data.Version)
			assert.NotEmpty(t, data.GoVersion)
		})
	}
}
