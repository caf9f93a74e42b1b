package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/interfaces/http/middleware"
)

// MembershipHandler handles user-company assignments
type MembershipHandler struct {
	BaseHandler
	memberships *apptenancy.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(memberships *apptenancy.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// CreateMembershipRequest is the body of POST /memberships
type CreateMembershipRequest struct {
	UserID        string `json:"user_id" binding:"required,uuid"`
	CompanyID     string `json:"company_id" binding:"required,uuid"`
	Group         string `json:"group" binding:"required,oneof='Admin Staff' Accountants"`
	DesignationID string `json:"designation_id" binding:"omitempty,uuid"`
	Mobile        string `json:"mobile" binding:"max=20"`
}

// UpdateMembershipRequest is the body of PUT /memberships/:id. Absent fields
// stay unchanged.
type UpdateMembershipRequest struct {
	Group         *string `json:"group" binding:"omitempty,oneof='Admin Staff' Accountants"`
	DesignationID *string `json:"designation_id" binding:"omitempty,uuid"`
	Mobile        *string `json:"mobile" binding:"omitempty,max=20"`
	IsActive      *bool   `json:"is_active"`
}

// List returns the memberships of ?company_id, or of the X-Company-ID
// header when the query is absent
func (h *MembershipHandler) List(c *gin.Context) {
	raw := c.Query("company_id")
	if raw == "" {
		raw = c.GetHeader(middleware.HeaderCompanyID)
	}
	companyID, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "company_id is required")
		return
	}
	memberships, err := h.memberships.ListMemberships(c.Request.Context(), principal(c), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, memberships)
}

// Create assigns a user to a company
func (h *MembershipHandler) Create(c *gin.Context) {
	var req CreateMembershipRequest
	if !h.BindJSON(c, &req) {
		return
	}
	designationID, _ := parseOptionalUUID(req.DesignationID)
	m, err := h.memberships.CreateMembership(c.Request.Context(), principal(c), apptenancy.CreateMembershipInput{
		UserID:        uuid.MustParse(req.UserID),
		CompanyID:     uuid.MustParse(req.CompanyID),
		Group:         tenancy.RoleGroup(req.Group),
		DesignationID: designationID,
		Mobile:        req.Mobile,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// Update changes group, designation, mobile or active flag
func (h *MembershipHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateMembershipRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := apptenancy.UpdateMembershipInput{Mobile: req.Mobile, IsActive: req.IsActive}
	if req.Group != nil {
		g := tenancy.RoleGroup(*req.Group)
		input.Group = &g
	}
	if req.DesignationID != nil {
		input.DesignationID, _ = parseOptionalUUID(*req.DesignationID)
	}

	m, err := h.memberships.UpdateMembership(c.Request.Context(), principal(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Delete deactivates a membership
func (h *MembershipHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.memberships.DeactivateMembership(c.Request.Context(), principal(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
