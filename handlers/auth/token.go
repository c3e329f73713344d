package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/coursehub-api/model"
	authutil "github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/sahilchouksey/coursehub-api/utils/middleware"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

const revokeReasonRefresh = "token_refresh"

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken rotates a refresh token into a new token pair
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	ctx := c.UserContext()

	isRevoked, err := h.blacklistService.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	// Load user to get current token version
	var user model.User
	if err := h.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	res, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	// The old refresh token expires naturally if this fails
	if err := h.blacklistService.RevokeToken(ctx, claims.ID, user.ID, expiryOf(claims), revokeReasonRefresh); err != nil {
		log.Warnw("failed to revoke rotated refresh token", "user_id", user.ID, "error", err)
	}

	return response.Success(c, fiber.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires_in":    res.ExpiresIn,
	})
}

// Logout revokes the access token used for this request
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.BadRequest(c, "No token ID found")
	}

	if err := h.blacklistService.RevokeToken(c.UserContext(), claims.ID, user.ID, expiryOf(claims), authutil.RevokeReasonLogout); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}

// LogoutAll invalidates every token issued to the user
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.blacklistService.RevokeAllUserTokens(c.UserContext(), userID); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Logged out from all sessions", nil)
}

func expiryOf(claims *authutil.Claims) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(24 * time.Hour)
}
