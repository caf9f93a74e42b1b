package handler

import (
	"github.com/gin-gonic/gin"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
)

// CompanyHandler handles company management endpoints
type CompanyHandler struct {
	BaseHandler
	companies *apptenancy.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companies *apptenancy.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// CompanyRequest is the body of company create and update. The organization
// profile uses the same shape.
type CompanyRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	GSTNo   string `json:"gst_no" binding:"max=15"`
	PANNo   string `json:"pan_no" binding:"max=10"`
	Address string `json:"address"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"max=20"`
}

func (r CompanyRequest) input() apptenancy.CompanyInput {
	return apptenancy.CompanyInput{
		Name:    r.Name,
		GSTNo:   r.GSTNo,
		PANNo:   r.PANNo,
		Address: r.Address,
		Email:   r.Email,
		Phone:   r.Phone,
	}
}

// List returns every company (superusers only)
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companies.ListCompanies(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, companies)
}

// Mine returns the active companies the caller may switch to
func (h *CompanyHandler) Mine(c *gin.Context) {
	companies, err := h.companies.ListMyCompanies(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, companies)
}

// Create creates a company and seeds its approval chain
func (h *CompanyHandler) Create(c *gin.Context) {
	var req CompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, err := h.companies.CreateCompany(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, company)
}

// Update replaces a company's profile
func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req CompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	company, err := h.companies.UpdateCompany(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}

// Toggle flips a company's active flag
func (h *CompanyHandler) Toggle(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	company, err := h.companies.ToggleCompanyActive(c.Request.Context(), principal(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}

// Delete removes a company that has no vouchers
func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.companies.DeleteCompany(c.Request.Context(), principal(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
