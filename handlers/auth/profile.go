package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/middleware"
	"github.com/sahilchouksey/coursehub-api/utils/response"
	"github.com/sahilchouksey/coursehub-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	return response.Success(c, toUserResponse(user))
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if fields := h.validator.ValidateStruct(req); fields != nil {
		return response.ValidationError(c, fields)
	}

	db := h.db.WithContext(c.UserContext())

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	// Only name is editable; the processor customer reference is left alone
	if err := db.Model(&user).Update("name", req.Name).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}
	user.Name = req.Name

	return response.Success(c, toUserResponse(&user))
}
