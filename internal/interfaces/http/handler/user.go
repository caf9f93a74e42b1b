package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// UserHandler handles the user directory endpoints
type UserHandler struct {
	BaseHandler
	users *appidentity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *appidentity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=150"`
	Email       string `json:"email" binding:"omitempty,email"`
	IsSuperuser bool   `json:"is_superuser"`
}

// List pages through the directory. Supports page, page_size and search.
func (h *UserHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = size
	filter.Search = c.Query("search")

	result, err := h.users.ListUsers(c.Request.Context(), principal(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, result)
}

// Create adds a user to the directory
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), principal(c), appidentity.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}
