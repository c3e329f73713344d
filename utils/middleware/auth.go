package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/sahilchouksey/coursehub-api/utils/response"
	"gorm.io/gorm"
)

// Locals keys set by the auth middleware
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserRole  = "user_role"
	LocalUser      = "user"
	LocalClaims    = "claims"
	LocalTokenJTI  = "token_jti"
)

// authFailure carries the status and message for a rejected token
type authFailure struct {
	status  int
	message string
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authenticate validates the bearer token and loads its user
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, *authFailure) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Missing authorization token"}
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid authorization format"}
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has expired"}
		}
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid token"}
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid token type"}
	}

	isRevoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return nil, nil, &authFailure{fiber.StatusInternalServerError, "Failed to check token status"}
	}
	if isRevoked {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has been revoked"}
	}

	var user model.User
	if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &authFailure{fiber.StatusUnauthorized, "User not found"}
		}
		return nil, nil, &authFailure{fiber.StatusInternalServerError, "Failed to load user"}
	}

	// Logout-all bumps the version
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has been invalidated"}
	}

	return claims, &user, nil
}

func storeIdentity(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalUserEmail, user.Email)
	c.Locals(LocalUserRole, user.Role)
	c.Locals(LocalClaims, claims)
	c.Locals(LocalUser, user)
	c.Locals(LocalTokenJTI, claims.ID)
}

func (f *authFailure) respond(c *fiber.Ctx) error {
	if f.status == fiber.StatusInternalServerError {
		return response.InternalServerError(c, f.message)
	}
	return response.Unauthorized(c, f.message)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.authenticate(c)
		if failure != nil {
			return failure.respond(c)
		}
		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, user, failure := m.authenticate(c); failure == nil {
			storeIdentity(c, claims, user)
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given roles. Must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin validates the token inline and checks for admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.authenticate(c)
		if failure != nil {
			return failure.respond(c)
		}
		// The stored role wins over the token's claim
		if user.Role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	r, ok := c.Locals(LocalUserRole).(string)
	return r, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(LocalUser).(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*auth.Claims)
	return claims, ok
}
