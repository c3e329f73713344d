package admin

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

// EnrollmentManager is the admin view of the enrollment service
type EnrollmentManager interface {
	ListEnrollments(ctx context.Context, filter services.EnrollmentFilter) ([]model.Enrollment, int64, error)
	CancelEnrollment(ctx context.Context, enrollmentID uint) (*model.Enrollment, error)
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*services.ReconcileResult, error)
}

// ListEnrollments retrieves enrollments with pagination and filters
// GET /admin/enrollments
func ListEnrollments(c *fiber.Ctx, enrollments EnrollmentManager) error {
	page, limit := response.PageParams(c)

	filter := services.EnrollmentFilter{
		Status: model.EnrollmentStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return response.BadRequest(c, "Invalid status filter")
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid user_id")
		}
		filter.UserID = uint(id)
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid course_id")
		}
		filter.CourseID = uint(id)
	}

	list, total, err := enrollments.ListEnrollments(c.UserContext(), filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Paginated(c, list, response.CalculatePagination(page, limit, total))
}

// CancelEnrollment moves an enrollment to cancelled
// POST /admin/enrollments/:id/cancel
func CancelEnrollment(c *fiber.Ctx, enrollments EnrollmentManager) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid enrollment ID")
	}

	enrollment, err := enrollments.CancelEnrollment(c.UserContext(), uint(id))
	if errors.Is(err, services.ErrEnrollmentNotFound) {
		return response.NotFound(c, "Enrollment not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to cancel enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment cancelled", enrollment)
}

// ReconcileEnrollments runs one reconciliation pass on demand
// POST /admin/enrollments/reconcile
func ReconcileEnrollments(c *fiber.Ctx, enrollments EnrollmentManager) error {
	olderThan := time.Duration(c.QueryInt("older_than_minutes", 10)) * time.Minute
	if olderThan < 0 {
		return response.BadRequest(c, "Invalid older_than_minutes")
	}

	result, err := enrollments.ReconcilePending(c.UserContext(), olderThan, c.QueryInt("limit", 200))
	if err != nil {
		return response.InternalServerError(c, "Reconciliation failed")
	}

	return response.Success(c, result)
}
