package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/carecheckout/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareCarriesCorrelation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	var seenTenant string
	r.POST("/payments/product/sub", func(c *gin.Context) {
		seenTenant = obscontext.TenantIDFromContext(c.Request.Context())
		c.Set("order_number", "ORD-1")
		c.Status(http.StatusTooManyRequests)
	})

	req := httptest.NewRequest(http.MethodPost, "/payments/product/sub", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "tenant-1", seenTenant)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "ORD-1", entry.ContextMap()["order_number"])
	assert.Equal(t, "tenant-1", entry.ContextMap()["tenant_id"])
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/payments/product/sub", 502, "processor_error"))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/payments/webhooks/:provider", 400, "validation_error"))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/payments/product/sub", 400, "validation_error"))
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/metrics", 200, ""))
}
