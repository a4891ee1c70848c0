// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/admin"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
)

// UserProfileHandler handles the signed-in user's own account
type UserProfileHandler struct {
	userService  *user.Service
	applications *admin.Service
}

// NewUserProfileHandler creates a new user profile handler
func NewUserProfileHandler(userService *user.Service, applications *admin.Service) *UserProfileHandler {
	return &UserProfileHandler{userService: userService, applications: applications}
}

// GetProfile handles GET /users/me
func (h *UserProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully", u)
}

// UpdateProfile handles PUT /users/me
func (h *UserProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req user.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", u)
}

// ChangePassword handles PUT /users/me/password
func (h *UserProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req user.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Password changed successfully", nil)
}

// ChangeEmail handles PUT /users/me/email. The new address must be
// verified before the next sign-in.
func (h *UserProfileHandler) ChangeEmail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req user.EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ChangeEmail(c.Request.Context(), userID, req.Email); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Email changed, check your inbox for the verification code", nil)
}

// ApplyForRole handles POST /users/me/admin-application
func (h *UserProfileHandler) ApplyForRole(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req admin.ApplyRequest
	if !bindJSON(c, &req) {
		return
	}

	application, err := h.applications.Apply(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Application submitted successfully", application)
}
