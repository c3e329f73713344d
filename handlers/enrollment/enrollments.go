package enrollment

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services"
	"github.com/sahilchouksey/coursehub-api/utils/middleware"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

// Enroller is the part of the enrollment service the handler needs
type Enroller interface {
	RequestEnrollment(ctx context.Context, principal services.Principal, courseID uint) (*services.EnrollmentResult, error)
	GetUserEnrollment(ctx context.Context, userID, courseID uint) (*model.Enrollment, error)
	ListUserEnrollments(ctx context.Context, userID uint, status model.EnrollmentStatus) ([]model.Enrollment, error)
}

// EnrollmentHandler handles student-facing enrollment requests
type EnrollmentHandler struct {
	enrollments Enroller
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments Enroller) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// EnrollResponse is the JSON body of a successful enroll call
type EnrollResponse struct {
	Outcome     services.EnrollmentOutcome `json:"outcome"`
	RedirectURL string                     `json:"redirect_url,omitempty"`
	Enrollment  *model.Enrollment          `json:"enrollment,omitempty"`
}

// Enroll handles POST /api/v1/courses/:id/enroll.
// With ?redirect=true a created checkout answers 303 See Other instead of JSON.
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	principal := services.Principal{UserID: user.ID, Email: user.Email, Name: user.Name}
	result, err := h.enrollments.RequestEnrollment(c.UserContext(), principal, uint(courseID))
	if err != nil {
		return enrollmentError(c, err)
	}

	if result.Outcome == services.OutcomeCheckoutCreated && c.QueryBool("redirect") {
		return c.Redirect(result.RedirectURL, fiber.StatusSeeOther)
	}

	return response.Success(c, EnrollResponse{
		Outcome:     result.Outcome,
		RedirectURL: result.RedirectURL,
		Enrollment:  result.Enrollment,
	})
}

// enrollmentError maps an enrollment failure kind onto an HTTP status
func enrollmentError(c *fiber.Ctx, err error) error {
	var enrollErr *services.EnrollmentError
	if !errors.As(err, &enrollErr) {
		return response.InternalServerError(c, "Something went wrong. Please try again.")
	}

	switch enrollErr.Kind {
	case services.ErrKindRateLimited:
		return response.TooManyRequests(c, enrollErr.Message, enrollErr.RetryAfter)
	case services.ErrKindCourseNotFound:
		return response.NotFound(c, enrollErr.Message)
	case services.ErrKindPricingNotConfigured:
		return response.Error(c, fiber.StatusConflict, enrollErr.Message, string(enrollErr.Kind))
	case services.ErrKindPaymentSystem:
		return response.Error(c, fiber.StatusServiceUnavailable, enrollErr.Message, string(enrollErr.Kind))
	default:
		return response.Error(c, fiber.StatusInternalServerError, enrollErr.Message, string(services.ErrKindUnknown))
	}
}

// ListMyEnrollments handles GET /api/v1/enrollments?status=
func (h *EnrollmentHandler) ListMyEnrollments(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	status := model.EnrollmentStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return response.BadRequest(c, "Invalid status filter")
	}

	enrollments, err := h.enrollments.ListUserEnrollments(c.UserContext(), userID, status)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// GetMyEnrollment handles GET /api/v1/enrollments/courses/:id
func (h *EnrollmentHandler) GetMyEnrollment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	enrollment, err := h.enrollments.GetUserEnrollment(c.UserContext(), userID, uint(courseID))
	if errors.Is(err, services.ErrEnrollmentNotFound) {
		return response.NotFound(c, "Not enrolled in this course")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	return response.Success(c, enrollment)
}
