// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
)

// UserAdminHandler handles staff user management
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(adminService *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{adminService: adminService}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	res, err := h.adminService.GetUsers(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Users retrieved successfully", res)
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", res)
}

// UpdateUserStatus handles PATCH /admin/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req user.BlockRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.adminService.SetBlocked(c.Request.Context(), adminID, id, *req.Blocked)
	if err != nil {
		fail(c, err)
		return
	}
	message := "User unblocked successfully"
	if u.IsBlocked {
		message = "User blocked successfully"
	}
	respond(c, http.StatusOK, message, u)
}

// ExportUsers handles GET /admin/users/export?format=csv|json. Other query
// keys filter the exported users the same way as GetUsers.
func (h *UserAdminHandler) ExportUsers(c *gin.Context) {
	values := c.Request.URL.Query()
	format := values.Get("format")
	values.Del("format")
	if format == "" {
		format = "csv"
	}

	data, filename, err := h.adminService.ExportUsers(c.Request.Context(), values, format)
	if err != nil {
		fail(c, err)
		return
	}

	contentType := "text/csv"
	if format == "json" {
		contentType = "application/json"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}
