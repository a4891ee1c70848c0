// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
)

// AuthHandler handles sign-up, sign-in and password recovery
type AuthHandler struct {
	userService *user.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *user.Service) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req user.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.userService.SignUp(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Account created, check your email for the verification code", u)
}

// VerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req user.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.VerifyEmail(c.Request.Context(), &req); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Email verified successfully", nil)
}

// ResendOTP handles POST /auth/resend-otp
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req user.EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ResendOTP(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Verification code sent", nil)
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req user.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.userService.SignIn(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Signed in successfully", res)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Token refreshed successfully", res)
}

// ForgotPassword handles POST /auth/forgot-password. The answer is the same
// whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req user.EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "If the account exists, a reset code has been sent", nil)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), &req); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Password reset successfully", nil)
}
