package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	appvoucher "github.com/voucherdesk/backend/internal/application/voucher"
)

// DesignationHandler serves designations and the approval chain of the
// active company
type DesignationHandler struct {
	BaseHandler
	designations *apptenancy.DesignationService
	vouchers     *appvoucher.Service
}

// NewDesignationHandler creates a new DesignationHandler
func NewDesignationHandler(designations *apptenancy.DesignationService, vouchers *appvoucher.Service) *DesignationHandler {
	return &DesignationHandler{designations: designations, vouchers: vouchers}
}

// CreateDesignationRequest is the body of POST /designations
type CreateDesignationRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// ChainLevelRequest is one position of PUT /approval-chain
type ChainLevelRequest struct {
	DesignationID string `json:"designation_id" binding:"required,uuid"`
	IsActive      bool   `json:"is_active"`
}

// ReplaceChainRequest is the body of PUT /approval-chain. Order is the
// position in Levels.
type ReplaceChainRequest struct {
	Levels []ChainLevelRequest `json:"levels" binding:"dive"`
}

// List returns the designations of the active company
func (h *DesignationHandler) List(c *gin.Context) {
	designations, err := h.designations.ListDesignations(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, designations)
}

// Create adds a designation to the active company
func (h *DesignationHandler) Create(c *gin.Context) {
	var req CreateDesignationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	d, err := h.designations.CreateDesignation(c.Request.Context(), principal(c), companyID(c), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, d)
}

// GetChain returns the approval chain in order
func (h *DesignationHandler) GetChain(c *gin.Context) {
	levels, err := h.designations.ListApprovalLevels(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, levels)
}

// ReplaceChain swaps the whole approval chain and recomputes pending vouchers
func (h *DesignationHandler) ReplaceChain(c *gin.Context) {
	var req ReplaceChainRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entries := make([]appvoucher.ChainLevelInput, 0, len(req.Levels))
	for _, l := range req.Levels {
		entries = append(entries, appvoucher.ChainLevelInput{
			DesignationID: uuid.MustParse(l.DesignationID),
			IsActive:      l.IsActive,
		})
	}
	result, err := h.vouchers.ReplaceApprovalChain(c.Request.Context(), principal(c), companyID(c), entries)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
