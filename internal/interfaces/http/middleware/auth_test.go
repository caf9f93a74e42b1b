package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appTenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/infrastructure/auth"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
)

type stubDirectory map[uuid.UUID]identity.Principal

func (d stubDirectory) ResolvePrincipal(_ context.Context, id uuid.UUID) (identity.Principal, error) {
	p, ok := d[id]
	if !ok {
		return identity.Principal{}, shared.NewPermissionDenied("Unknown user.")
	}
	return p, nil
}

type stubCompanies struct {
	allowed map[uuid.UUID]bool
}

func (s stubCompanies) SelectCompany(_ context.Context, _ identity.Principal, id uuid.UUID) (*appTenancy.CompanyDTO, error) {
	if !s.allowed[id] {
		return nil, shared.NewPermissionDenied("You do not have access to this company.")
	}
	return &appTenancy.CompanyDTO{ID: id}, nil
}

func newJWT() *auth.TokenVerifier {
	return auth.NewTokenVerifier(config.JWTConfig{
		Secret:                "test-secret-with-enough-length-0123456789",
		Issuer:                "voucherdesk-test",
		AccessTokenExpiration: time.Hour,
	})
}

func authEngine(jwt *auth.TokenVerifier, dir stubDirectory, companies stubCompanies) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Authenticate(jwt, dir))
	r.GET("/me", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.Username)
	})
	r.GET("/scoped", RequireCompany(companies), func(c *gin.Context) {
		id, ok := GetCompanyID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func bearer(t *testing.T, jwt *auth.TokenVerifier, id uuid.UUID) string {
	t.Helper()
	token, _, err := jwt.Issue(id, "meera")
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticate(t *testing.T) {
	jwt := newJWT()
	known := uuid.New()
	dir := stubDirectory{known: {UserID: known, Username: "meera"}}
	r := authEngine(jwt, dir, stubCompanies{})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown user", bearer(t, jwt, uuid.New()), http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, jwt, known))
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "meera", w.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenVerifier(config.JWTConfig{
			Secret:                "test-secret-with-enough-length-0123456789",
			Issuer:                "voucherdesk-test",
			AccessTokenExpiration: -time.Minute,
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, expired, known))
		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, decodeError(t, w).Code)
	})
}

func TestRequireCompany(t *testing.T) {
	jwt := newJWT()
	user := uuid.New()
	allowed := uuid.New()
	r := authEngine(jwt, stubDirectory{user: {UserID: user, Username: "meera"}},
		stubCompanies{allowed: map[uuid.UUID]bool{allowed: true}})

	tests := []struct {
		name       string
		company    string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusForbidden, dto.ErrCodeNoCompany},
		{"malformed header", "lakeview", http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"not a member", uuid.NewString(), http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
			req.Header.Set("Authorization", bearer(t, jwt, user))
			if tt.company != "" {
				req.Header.Set(HeaderCompanyID, tt.company)
			}
			w := serve(r, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}

	t.Run("member", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
		req.Header.Set("Authorization", bearer(t, jwt, user))
		req.Header.Set(HeaderCompanyID, allowed.String())
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, allowed.String(), w.Body.String())
	})
}
