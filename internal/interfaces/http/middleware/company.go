package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appTenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
)

// CompanySelector checks that a principal may act inside a company
type CompanySelector interface {
	SelectCompany(ctx context.Context, actor identity.Principal, companyID uuid.UUID) (*appTenancy.CompanyDTO, error)
}

// RequireCompany resolves the active company from X-Company-ID. It must run
// after Authenticate.
func RequireCompany(selector CompanySelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		raw := strings.TrimSpace(c.GetHeader(HeaderCompanyID))
		if raw == "" {
			abortWithError(c, shared.ErrNoActiveCompany)
			return
		}
		companyID, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid X-Company-ID header")
			return
		}

		if _, err := selector.SelectCompany(c.Request.Context(), principal, companyID); err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(logger.GinCompanyIDKey, companyID.String())
		c.Request = c.Request.WithContext(logger.WithCompanyID(c.Request.Context(), companyID.String()))
		c.Next()
	}
}

// GetCompanyID returns the company resolved by RequireCompany
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(logger.GinCompanyIDKey))
	return id, err == nil
}

// SetCompanyID stores id as the active company. Handler tests use it in
// place of RequireCompany.
func SetCompanyID(c *gin.Context, id uuid.UUID) {
	c.Set(logger.GinCompanyIDKey, id.String())
}
