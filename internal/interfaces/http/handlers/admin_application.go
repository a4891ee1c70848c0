// internal/interfaces/http/handlers/admin_application.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/admin"
)

// AdminApplicationHandler lets superadmins decide role applications
type AdminApplicationHandler struct {
	applications *admin.Service
}

// NewAdminApplicationHandler creates a new admin application handler
func NewAdminApplicationHandler(applications *admin.Service) *AdminApplicationHandler {
	return &AdminApplicationHandler{applications: applications}
}

// GetApplications handles GET /admin/applications
func (h *AdminApplicationHandler) GetApplications(c *gin.Context) {
	res, err := h.applications.GetApplications(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Applications retrieved successfully", res)
}

// GetArchivedApplications handles GET /admin/applications/archive
func (h *AdminApplicationHandler) GetArchivedApplications(c *gin.Context) {
	res, err := h.applications.GetArchivedApplications(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Archived applications retrieved successfully", res)
}

// DecideApplication handles PATCH /admin/applications/:id
func (h *AdminApplicationHandler) DecideApplication(c *gin.Context) {
	deciderID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req admin.DecideRequest
	if !bindJSON(c, &req) {
		return
	}

	archived, err := h.applications.Decide(c.Request.Context(), deciderID, id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Application "+req.Status, archived)
}
