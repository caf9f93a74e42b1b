package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/infrastructure/auth"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	principalKey = "principal"
	bearerPrefix = "Bearer "
)

// TokenVerifier turns a bearer token into the user it names
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// PrincipalResolver loads the current state of an authenticated user
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (identity.Principal, error)
}

// Authenticate requires a valid bearer token. The token only names the user;
// superuser status and the active flag come from the user directory so a
// revoked account stops working before its token expires.
func Authenticate(tokens TokenVerifier, principals PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) || strings.TrimSpace(header[len(bearerPrefix):]) == "" {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		userID, err := tokens.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			logger.GetGinLogger(c).Debug("rejected bearer token", zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		principal, err := principals.ResolvePrincipal(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set(logger.GinUserIDKey, principal.UserID.String())
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), principal.UserID.String()))
		c.Next()
	}
}

// GetPrincipal returns the caller set by Authenticate
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok && !p.IsZero()
}

// SetPrincipal stores p as the caller. Handler tests use it in place of
// Authenticate.
func SetPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(principalKey, p)
	c.Set(logger.GinUserIDKey, p.UserID.String())
}
