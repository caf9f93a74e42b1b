package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// PermissionHandler serves the user rights screen of the active company
type PermissionHandler struct {
	BaseHandler
	permissions *appidentity.PermissionService
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(permissions *appidentity.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

// UpdatePermissionsRequest is the body of PUT /permissions/:userId
type UpdatePermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" binding:"required"`
}

// BulkPermissionEntry is one user of PUT /permissions/bulk
type BulkPermissionEntry struct {
	UserID      string          `json:"user_id" binding:"required,uuid"`
	Permissions map[string]bool `json:"permissions" binding:"required"`
}

// BulkUpdatePermissionsRequest is the body of PUT /permissions/bulk
type BulkUpdatePermissionsRequest struct {
	Users []BulkPermissionEntry `json:"users" binding:"required,min=1,dive"`
}

// BulkUpdateResponse reports how many users were updated
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

func toFlags(in map[string]bool) map[identity.Capability]bool {
	out := make(map[identity.Capability]bool, len(in))
	for k, v := range in {
		out[identity.Capability(k)] = v
	}
	return out
}

// List returns every active member with their grants
func (h *PermissionHandler) List(c *gin.Context) {
	rights, err := h.permissions.ListUserRights(c.Request.Context(), principal(c), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rights)
}

// Get returns one user's grants. Users may read their own; superusers may
// read anyone's.
func (h *PermissionHandler) Get(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	p := principal(c)
	if !p.IsSuperuser && p.UserID != userID {
		h.HandleError(c, shared.NewPermissionDenied("You can only view your own permissions."))
		return
	}
	perm, err := h.permissions.GetOrDefaultPermissions(c.Request.Context(), userID, companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appidentity.ToPermissionDTO(perm))
}

// Update sets one user's grants
func (h *PermissionHandler) Update(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	var req UpdatePermissionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	perm, err := h.permissions.UpdatePermissions(c.Request.Context(), principal(c), companyID(c), appidentity.PermissionUpdate{
		UserID: userID,
		Flags:  toFlags(req.Permissions),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, perm)
}

// BulkUpdate sets the grants of several users in one transaction
func (h *PermissionHandler) BulkUpdate(c *gin.Context) {
	var req BulkUpdatePermissionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	updates := make([]appidentity.PermissionUpdate, 0, len(req.Users))
	for _, u := range req.Users {
		updates = append(updates, appidentity.PermissionUpdate{
			UserID: uuid.MustParse(u.UserID),
			Flags:  toFlags(u.Permissions),
		})
	}
	n, err := h.permissions.BulkUpdatePermissions(c.Request.Context(), principal(c), companyID(c), updates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BulkUpdateResponse{Updated: n})
}
