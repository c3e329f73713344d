package course

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/utils/response"
	"github.com/sahilchouksey/coursehub-api/utils/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title         string  `json:"title" validate:"required,min=3,max=255"`
	Slug          string  `json:"slug" validate:"required,max=255,slug"`
	Description   string  `json:"description" validate:"omitempty,max=5000"`
	Price         string  `json:"price" validate:"required,price"`
	Currency      string  `json:"currency" validate:"omitempty,currency"`
	IsPublished   bool    `json:"is_published"`
	StripePriceID *string `json:"stripe_price_id" validate:"omitempty,max=100"`
	InstructorID  *uint   `json:"instructor_id" validate:"omitempty,min=1"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=3,max=255"`
	Slug          *string `json:"slug" validate:"omitempty,max=255,slug"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	Price         *string `json:"price" validate:"omitempty,price"`
	Currency      *string `json:"currency" validate:"omitempty,currency"`
	IsPublished   *bool   `json:"is_published"`
	StripePriceID *string `json:"stripe_price_id" validate:"omitempty,max=100"`
}

// ListCourses handles GET /api/v1/courses (published only)
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	return h.list(c, true)
}

// ListAllCourses handles GET /api/v1/admin/courses
func (h *CourseHandler) ListAllCourses(c *fiber.Ctx) error {
	return h.list(c, false)
}

func (h *CourseHandler) list(c *fiber.Ctx, publishedOnly bool) error {
	page, limit := response.PageParams(c)
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	query := h.db.WithContext(c.UserContext()).Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	var courses []model.Course
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	if err := h.db.WithContext(c.UserContext()).
		Where("is_published = ?", true).
		First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/admin/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := h.validator.ValidateStruct(req); fields != nil {
		return response.ValidationError(c, fields)
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	course := model.Course{
		Title:         validation.SanitizeString(req.Title),
		Slug:          req.Slug,
		Description:   validation.SanitizeString(req.Description),
		Price:         decimal.RequireFromString(req.Price),
		Currency:      currency,
		IsPublished:   req.IsPublished,
		StripePriceID: normalizeRef(req.StripePriceID),
		InstructorID:  req.InstructorID,
	}

	if err := h.db.WithContext(c.UserContext()).Create(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Course with this slug already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if fields := h.validator.ValidateStruct(req); fields != nil {
		return response.ValidationError(c, fields)
	}

	db := h.db.WithContext(c.UserContext())

	var course model.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Price changes only affect future enrollment attempts; pending rows pick
	// up the current price on their next attempt.
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = validation.SanitizeString(*req.Title)
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = validation.SanitizeString(*req.Description)
	}
	if req.Price != nil {
		updates["price"] = decimal.RequireFromString(*req.Price)
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if req.StripePriceID != nil {
		updates["stripe_price_id"] = normalizeRef(req.StripePriceID)
	}

	if len(updates) == 0 {
		return response.BadRequest(c, "No fields to update")
	}

	if err := db.Model(&course).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Course with this slug already exists")
		}
		return response.InternalServerError(c, "Failed to update course")
	}

	if err := db.First(&course, id).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/admin/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid course ID")
	}

	db := h.db.WithContext(c.UserContext())

	var course model.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var activeCount int64
	if err := db.Model(&model.Enrollment{}).
		Where("course_id = ? AND status = ?", id, model.EnrollmentStatusActive).
		Count(&activeCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check course dependencies")
	}
	if activeCount > 0 {
		return response.Conflict(c, "Cannot delete a course with active enrollments; unpublish it instead")
	}

	// Soft delete
	if err := db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}

// normalizeRef turns "" into nil so that HasPriceReference stays meaningful
func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}
