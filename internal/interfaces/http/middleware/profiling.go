package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/infrastructure/telemetry"
)

// Profiling runs the rest of the chain under pprof labels so CPU samples can
// be sliced by endpoint and company. It sits in front of RequireCompany, so
// the company comes from the header and is only used when it parses.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}

		var company string
		if id, err := uuid.Parse(strings.TrimSpace(c.GetHeader(HeaderCompanyID))); err == nil {
			company = id.String()
		}
		labels := telemetry.RequestLabels(route, c.Request.Method, company)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
