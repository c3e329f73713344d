package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/response"
	"gorm.io/gorm"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	page, limit := response.PageParams(c)

	query := db.WithContext(c.UserContext()).Model(&model.AdminAuditLog{})

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if adminIDStr := c.Query("admin_id"); adminIDStr != "" {
		if adminID, err := strconv.ParseUint(adminIDStr, 10, 32); err == nil {
			query = query.Where("admin_id = ?", adminID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	if err := query.
		Preload("Admin", func(db *gorm.DB) *gorm.DB { return db.Select("id", "email", "name", "role") }).
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /admin/audit/:id
func GetAuditLog(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	logID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := db.WithContext(c.UserContext()).Preload("Admin").First(&entry, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", entry)
}
