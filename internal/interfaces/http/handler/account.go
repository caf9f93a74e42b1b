package handler

import (
	"github.com/gin-gonic/gin"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
)

// AccountHandler handles the bank accounts of the active company
type AccountHandler struct {
	BaseHandler
	accounts *apptenancy.BankAccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *apptenancy.BankAccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required,max=100"`
	AccountNumber string `json:"account_number" binding:"required,max=50"`
}

// ListActive returns the accounts vouchers may reference
func (h *AccountHandler) ListActive(c *gin.Context) {
	accounts, err := h.accounts.ListActiveAccounts(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// ListAll returns active and inactive accounts
func (h *AccountHandler) ListAll(c *gin.Context) {
	accounts, err := h.accounts.ListAllAccounts(c.Request.Context(), principal(c), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Create adds an account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	account, err := h.accounts.CreateAccount(c.Request.Context(), principal(c), companyID(c), req.BankName, req.AccountNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Toggle flips an account's active flag
func (h *AccountHandler) Toggle(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.ToggleAccount(c.Request.Context(), principal(c), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete removes an account no voucher references
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteAccount(c.Request.Context(), principal(c), companyID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
