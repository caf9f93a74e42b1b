package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request with otelgin. Health checks are
// not traced.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	opts = append([]otelgin.Option{
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return c.FullPath() != "/health"
		}),
	}, opts...)
	return otelgin.Middleware(serviceName, opts...)
}

// SpanEnricher copies request, user and company ids onto the server span once
// the handler chain has run, and marks 5xx answers as errors
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		for key, attr := range map[string]string{
			logger.GinRequestIDKey: "request_id",
			logger.GinUserIDKey:    "user_id",
			logger.GinCompanyIDKey: "company_id",
		} {
			if v := c.GetString(key); v != "" {
				span.SetAttributes(attribute.String(attr, v))
			}
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(c.Writer.Status()))
		}
	}
}
