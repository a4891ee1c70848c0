// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
)

// UserAddressHandler handles the signed-in user's saved addresses
type UserAddressHandler struct {
	addressService *user.AddressService
}

// NewUserAddressHandler creates a new user address handler
func NewUserAddressHandler(addressService *user.AddressService) *UserAddressHandler {
	return &UserAddressHandler{addressService: addressService}
}

// GetAddresses handles GET /users/me/addresses
func (h *UserAddressHandler) GetAddresses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addresses, err := h.addressService.GetUserAddresses(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Addresses retrieved successfully", addresses)
}

// GetAddress handles GET /users/me/addresses/:id
func (h *UserAddressHandler) GetAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	address, err := h.addressService.GetAddress(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Address retrieved successfully", address)
}

// CreateAddress handles POST /users/me/addresses
func (h *UserAddressHandler) CreateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req user.CreateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.CreateAddress(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Address created successfully", address)
}

// UpdateAddress handles PUT /users/me/addresses/:id
func (h *UserAddressHandler) UpdateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req user.UpdateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.UpdateAddress(c.Request.Context(), userID, id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Address updated successfully", address)
}

// DeleteAddress handles DELETE /users/me/addresses/:id
func (h *UserAddressHandler) DeleteAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.addressService.DeleteAddress(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// SetDefaultAddress handles PUT /users/me/addresses/:id/default
func (h *UserAddressHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.addressService.SetDefaultAddress(c.Request.Context(), userID, id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Default address updated successfully", nil)
}
