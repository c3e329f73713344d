package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/auth"
	"github.com/sahilchouksey/coursehub-api/utils/middleware"
	"github.com/sahilchouksey/coursehub-api/utils/response"
	"gorm.io/gorm"
)

var sortableUserColumns = map[string]bool{
	"created_at": true,
	"email":      true,
	"name":       true,
}

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// ResetPasswordRequest represents the request for admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func validRole(role string) bool {
	switch role {
	case model.RoleStudent, model.RoleInstructor, model.RoleAdmin:
		return true
	}
	return false
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	page, limit := response.PageParams(c)

	// Only whitelisted columns reach ORDER BY
	if !sortableUserColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" {
		req.SortDir = "desc"
	}

	query := db.WithContext(c.UserContext()).Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	if err := query.
		Offset((page - 1) * limit).
		Limit(limit).
		Order(req.Sort + " " + req.SortDir).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(page, limit, total))
}

// GetUser retrieves a user with their enrollments
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.WithContext(c.UserContext()).
		Preload("Enrollments.Course").
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	counts := map[model.EnrollmentStatus]int{}
	for _, e := range user.Enrollments {
		counts[e.Status]++
	}

	return response.SuccessWithMessage(c, "User retrieved successfully", fiber.Map{
		"user":              user,
		"enrollment_counts": counts,
	})
}

// UpdateUser updates a user's name or role
// PUT /admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}
	db = db.WithContext(c.UserContext())

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	updates := make(map[string]interface{})
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Role != "" {
		if !validRole(req.Role) {
			return response.BadRequest(c, "Invalid role")
		}
		if admin, ok := middleware.GetUser(c); ok && admin.ID == user.ID && req.Role != model.RoleAdmin {
			return response.BadRequest(c, "Cannot demote your own account")
		}
		updates["role"] = req.Role
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	if err := db.First(&user, userID).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.SuccessWithMessage(c, "User updated successfully", fiber.Map{
		"user": user,
	})
}

// ResetUserPassword allows admin to reset a user's password
// POST /admin/users/:id/reset-password
func ResetUserPassword(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}
	db = db.WithContext(c.UserContext())

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	// Bumping the token version invalidates every session the user has
	res := db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": gorm.Expr("token_version + ?", 1),
	})
	if res.Error != nil {
		return response.InternalServerError(c, "Failed to update password")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "User not found")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", fiber.Map{
		"user_id": userID,
		"message": "All user sessions have been invalidated",
	})
}

// GetUserStats retrieves user and enrollment totals
// GET /admin/users/stats
func GetUserStats(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}
	db = db.WithContext(c.UserContext())

	type roleCount struct {
		Role  string `json:"role"`
		Count int64  `json:"count"`
	}
	type statusCount struct {
		Status model.EnrollmentStatus `json:"status"`
		Count  int64                  `json:"count"`
	}

	var roles []roleCount
	if err := db.Model(&model.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return response.InternalServerError(c, "Failed to load user statistics")
	}

	var statuses []statusCount
	if err := db.Model(&model.Enrollment{}).Select("status, COUNT(*) AS count").Group("status").Scan(&statuses).Error; err != nil {
		return response.InternalServerError(c, "Failed to load enrollment statistics")
	}

	var withCustomer int64
	if err := db.Model(&model.User{}).Where("stripe_customer_id IS NOT NULL AND stripe_customer_id <> ''").Count(&withCustomer).Error; err != nil {
		return response.InternalServerError(c, "Failed to load user statistics")
	}

	return response.SuccessWithMessage(c, "User statistics retrieved successfully", fiber.Map{
		"users_by_role":         roles,
		"enrollments_by_status": statuses,
		"users_with_customer":   withCustomer,
	})
}
