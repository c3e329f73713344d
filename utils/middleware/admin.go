package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/coursehub-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records admin actions after the handler ran. Must run after RequireAdmin.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok {
			return c.Next() // Continue without logging if user not found
		}

		// Parse resource ID from params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture request body for POST/PUT
		var newValue datatypes.JSON
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			newValue = redactBody(c.Body())
		}

		// Execute the actual handler
		err := c.Next()

		// fiber.Ctx is recycled after the handler returns, so copy everything now
		auditLog := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    newValue,
			StatusCode:  c.Response().StatusCode(),
			IPAddress:   c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			Description: c.Method() + " " + c.Path(),
		}
		if dbErr := db.WithContext(c.UserContext()).Create(&auditLog).Error; dbErr != nil {
			log.Errorw("failed to write admin audit log", "action", action, "admin_id", admin.ID, "error", dbErr)
		}

		return err
	}
}

// redactBody keeps a JSON object body for the audit trail, minus secrets
func redactBody(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	for k := range fields {
		if strings.Contains(strings.ToLower(k), "password") {
			fields[k] = "[redacted]"
		}
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}
