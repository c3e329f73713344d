package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fields := h.validator.ValidateStruct(req); fields != nil {
		return response.ValidationError(c, fields)
	}

	// Find user by email
	var user model.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		h.bruteForceProtection.RecordFailedAttempt(c)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.bruteForceProtection.RecordFailedAttempt(c)
		return response.Unauthorized(c, "Invalid email or password")
	}

	// Clear failed attempts on successful login
	h.bruteForceProtection.RecordSuccessfulAttempt(c)

	res, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, res)
}
