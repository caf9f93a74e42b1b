package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
)

func companyRoutes(h *CompanyHandler) func(g *gin.RouterGroup) {
	return func(g *gin.RouterGroup) {
		g.GET("/companies", h.List)
		g.GET("/companies/mine", h.Mine)
		g.POST("/companies", h.Create)
		g.PUT("/companies/:id", h.Update)
		g.DELETE("/companies/:id", h.Delete)
		g.POST("/companies/:id/toggle", h.Toggle)
	}
}

func TestCompanyHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	h := NewCompanyHandler(env.companies)
	clerk := env.member("clerk", tenancy.GroupAccountants, nil)

	tests := []struct {
		name   string
		actor  identity.Principal
		body   map[string]any
		status int
		code   string
	}{
		{"superuser creates", env.root, map[string]any{"name": "Lakeside Banquets", "email": "hello@lakeside.in"}, http.StatusCreated, ""},
		{"duplicate name", env.root, map[string]any{"name": "Acme Hospitality"}, http.StatusConflict, dto.ErrCodeConflict},
		{"missing name", env.root, map[string]any{"email": "a@b.in"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad email", env.root, map[string]any{"name": "X", "email": "nope"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"not a superuser", clerk, map[string]any{"name": "Clerk Co"}, http.StatusForbidden, dto.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.engine(tt.actor, companyRoutes(h))
			w := do(r, http.MethodPost, "/api/v1/companies", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
				return
			}
			c := decodeData[apptenancy.CompanyDTO](t, w)
			assert.Equal(t, tt.body["name"], c.Name)
			assert.True(t, c.IsActive)
		})
	}
}

func TestCompanyHandler_MineToggleDelete(t *testing.T) {
	env := newTestEnv(t)
	h := NewCompanyHandler(env.companies)
	clerk := env.member("clerk", tenancy.GroupAccountants, nil)

	w := do(env.engine(clerk, companyRoutes(h)), http.MethodGet, "/api/v1/companies/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decodeData[[]apptenancy.CompanyDTO](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, env.company.ID, mine[0].ID)

	// listing every company is for superusers
	w = do(env.engine(clerk, companyRoutes(h)), http.MethodGet, "/api/v1/companies", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	root := env.engine(env.root, companyRoutes(h))
	w = do(root, http.MethodPost, "/api/v1/companies/"+env.company.ID.String()+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[apptenancy.CompanyDTO](t, w).IsActive)

	w = do(env.engine(clerk, companyRoutes(h)), http.MethodGet, "/api/v1/companies/mine", nil)
	assert.Empty(t, decodeData[[]apptenancy.CompanyDTO](t, w))

	w = do(root, http.MethodPut, "/api/v1/companies/"+env.company.ID.String(), map[string]any{"name": "Acme Renamed", "gst_no": "29ABCDE1234F1Z5"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme Renamed", decodeData[apptenancy.CompanyDTO](t, w).Name)

	w = do(root, http.MethodDelete, "/api/v1/companies/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(root, http.MethodDelete, "/api/v1/companies/"+env.company.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(root, http.MethodGet, "/api/v1/companies", nil)
	assert.Empty(t, decodeData[[]apptenancy.CompanyDTO](t, w))
}

func TestUserHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewUserHandler(env.users)
	routes := func(g *gin.RouterGroup) {
		g.GET("/users", h.List)
		g.POST("/users", h.Create)
	}
	r := env.engine(env.root, routes)

	w := do(r, http.MethodPost, "/api/v1/users", map[string]any{"username": "meera", "email": "meera@acme.in"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "meera", decodeData[appidentity.UserDTO](t, w).Username)

	w = do(r, http.MethodPost, "/api/v1/users", map[string]any{"username": "meera"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/users", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/users?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env2 := decode[[]appidentity.UserDTO](t, w)
	assert.Len(t, env2.Data, 1)
	require.NotNil(t, env2.Meta)
	assert.EqualValues(t, 2, env2.Meta.Total)
	assert.Equal(t, 2, env2.Meta.TotalPages)

	clerk := env.newUser("clerk")
	w = do(env.engine(clerk, routes), http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMembershipHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewMembershipHandler(env.memberships)
	r := env.engine(env.root, func(g *gin.RouterGroup) {
		g.GET("/memberships", h.List)
		g.POST("/memberships", h.Create)
		g.PUT("/memberships/:id", h.Update)
		g.DELETE("/memberships/:id", h.Delete)
	})
	user := env.newUser("ravi")

	w := do(r, http.MethodPost, "/api/v1/memberships", map[string]any{
		"user_id":    user.UserID.String(),
		"company_id": env.company.ID.String(),
		"group":      "Accountants",
		"mobile":     "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decodeData[apptenancy.MembershipDTO](t, w)
	assert.Equal(t, tenancy.GroupAccountants, m.Group)

	w = do(r, http.MethodPost, "/api/v1/memberships", map[string]any{
		"user_id":    user.UserID.String(),
		"company_id": env.company.ID.String(),
		"group":      "Accountants",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/memberships", map[string]any{
		"user_id":    user.UserID.String(),
		"company_id": env.company.ID.String(),
		"group":      "Chefs",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mobile := "9000000000"
	w = do(r, http.MethodPut, "/api/v1/memberships/"+m.ID.String(), map[string]any{"mobile": mobile})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, mobile, decodeData[apptenancy.MembershipDTO](t, w).Mobile)

	w = do(r, http.MethodGet, "/api/v1/memberships?company_id="+env.company.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]apptenancy.MembershipDTO](t, w), 1)

	w = do(r, http.MethodGet, "/api/v1/memberships", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/memberships/"+m.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/v1/memberships?company_id="+env.company.ID.String(), nil)
	list := decodeData[[]apptenancy.MembershipDTO](t, w)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
}

func TestDesignationHandler_Chain(t *testing.T) {
	env := newTestEnv(t)
	h := NewDesignationHandler(env.designations, env.vouchers)
	routes := func(g *gin.RouterGroup) {
		g.GET("/designations", h.List)
		g.POST("/designations", h.Create)
		g.GET("/approval-chain", h.GetChain)
		g.PUT("/approval-chain", h.ReplaceChain)
	}
	r := env.engine(env.root, routes)

	var ids []string
	for _, name := range []string{"Manager", "Director"} {
		w := do(r, http.MethodPost, "/api/v1/designations", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decodeData[apptenancy.DesignationDTO](t, w).ID.String())
	}

	w := do(r, http.MethodGet, "/api/v1/designations", nil)
	assert.Len(t, decodeData[[]apptenancy.DesignationDTO](t, w), 2)

	w = do(r, http.MethodPut, "/api/v1/approval-chain", map[string]any{"levels": []map[string]any{
		{"designation_id": ids[1], "is_active": true},
		{"designation_id": ids[0], "is_active": false},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decodeData[appvoucherChainResult](t, w).Levels)

	w = do(r, http.MethodGet, "/api/v1/approval-chain", nil)
	levels := decodeData[[]apptenancy.ApprovalLevelDTO](t, w)
	require.Len(t, levels, 2)
	assert.Equal(t, "Director", levels[0].DesignationName)
	assert.True(t, levels[0].IsActive)
	assert.Equal(t, "Manager", levels[1].DesignationName)
	assert.False(t, levels[1].IsActive)

	w = do(r, http.MethodPut, "/api/v1/approval-chain", map[string]any{"levels": []map[string]any{
		{"designation_id": "nope"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	clerk := env.member("clerk", tenancy.GroupAccountants, nil)
	w = do(env.engine(clerk, routes), http.MethodPut, "/api/v1/approval-chain", map[string]any{"levels": []map[string]any{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// appvoucherChainResult mirrors the chain replacement body
type appvoucherChainResult struct {
	Levels      int `json:"levels"`
	Recomputed  int `json:"recomputed"`
	NewApproved int `json:"new_approved"`
}

func TestAccountHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewAccountHandler(env.accounts)
	routes := func(g *gin.RouterGroup) {
		g.GET("/accounts", h.ListActive)
		g.GET("/accounts/all", h.ListAll)
		g.POST("/accounts", h.Create)
		g.POST("/accounts/:id/toggle", h.Toggle)
		g.DELETE("/accounts/:id", h.Delete)
	}
	r := env.engine(env.root, routes)

	w := do(r, http.MethodPost, "/api/v1/accounts", map[string]any{"bank_name": "HDFC", "account_number": "50100012345678"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	acct := decodeData[apptenancy.BankAccountDTO](t, w)
	assert.True(t, acct.IsActive)

	w = do(r, http.MethodPost, "/api/v1/accounts/"+acct.ID.String()+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	clerk := env.member("clerk", tenancy.GroupAccountants, nil)
	w = do(env.engine(clerk, routes), http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]apptenancy.BankAccountDTO](t, w))

	w = do(r, http.MethodGet, "/api/v1/accounts/all", nil)
	assert.Len(t, decodeData[[]apptenancy.BankAccountDTO](t, w), 1)

	w = do(r, http.MethodDelete, "/api/v1/accounts/"+acct.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodPost, "/api/v1/accounts", map[string]any{"bank_name": "HDFC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewOrganizationHandler(env.organization)
	routes := func(g *gin.RouterGroup) {
		g.GET("/settings/organization", h.Get)
		g.PUT("/settings/organization", h.Update)
	}
	r := env.engine(env.root, routes)

	w := do(r, http.MethodGet, "/api/v1/settings/organization", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[apptenancy.OrganizationProfileDTO](t, w).Name)

	w = do(r, http.MethodPut, "/api/v1/settings/organization", map[string]any{"name": "Acme Group", "pan_no": "ABCDE1234F"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/settings/organization", nil)
	profile := decodeData[apptenancy.OrganizationProfileDTO](t, w)
	assert.Equal(t, "Acme Group", profile.Name)
	assert.Equal(t, "ABCDE1234F", profile.PANNo)

	clerk := env.newUser("clerk")
	w = do(env.engine(clerk, routes), http.MethodPut, "/api/v1/settings/organization", map[string]any{"name": "Hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPermissionHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewPermissionHandler(env.permissions)
	routes := func(g *gin.RouterGroup) {
		g.GET("/permissions", h.List)
		g.PUT("/permissions/bulk", h.BulkUpdate)
		g.GET("/permissions/:userId", h.Get)
		g.PUT("/permissions/:userId", h.Update)
	}
	r := env.engine(env.root, routes)
	clerk := env.member("clerk", tenancy.GroupAccountants, nil)
	other := env.member("other", tenancy.GroupAccountants, nil)

	w := do(r, http.MethodGet, "/api/v1/permissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rights := decodeData[[]appidentity.UserRightsDTO](t, w)
	require.Len(t, rights, 2)
	assert.True(t, rights[0].Permissions[identity.CapCreateVoucher])
	assert.False(t, rights[0].Permissions[identity.CapEditVoucher])

	w = do(r, http.MethodPut, "/api/v1/permissions/"+clerk.UserID.String(), map[string]any{
		"permissions": map[string]bool{"can_edit_voucher": true, "can_create_voucher": false},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	perm := decodeData[appidentity.PermissionDTO](t, w)
	assert.True(t, perm.Permissions[identity.CapEditVoucher])
	assert.False(t, perm.Permissions[identity.CapCreateVoucher])

	w = do(r, http.MethodPut, "/api/v1/permissions/bulk", map[string]any{"users": []map[string]any{
		{"user_id": clerk.UserID.String(), "permissions": map[string]bool{"can_delete_function": true}},
		{"user_id": other.UserID.String(), "permissions": map[string]bool{"can_delete_function": true}},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decodeData[BulkUpdateResponse](t, w).Updated)

	// members read their own rights only
	self := env.engine(clerk, routes)
	w = do(self, http.MethodGet, "/api/v1/permissions/"+clerk.UserID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[appidentity.PermissionDTO](t, w).Permissions[identity.CapDeleteFunction])

	w = do(self, http.MethodGet, "/api/v1/permissions/"+other.UserID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(self, http.MethodPut, "/api/v1/permissions/"+clerk.UserID.String(), map[string]any{
		"permissions": map[string]bool{"can_edit_voucher": true},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
