package handler

import (
	"github.com/gin-gonic/gin"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
)

// OrganizationHandler serves the one-row organization profile
type OrganizationHandler struct {
	BaseHandler
	organization *apptenancy.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(organization *apptenancy.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organization: organization}
}

// Get returns the profile, empty if never saved
func (h *OrganizationHandler) Get(c *gin.Context) {
	profile, err := h.organization.GetOrganizationProfile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Update upserts the profile
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req CompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	profile, err := h.organization.UpdateOrganizationProfile(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}
