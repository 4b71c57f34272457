package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"time"

	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/domain/entity"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CourseHandler holds dependencies for catalog handlers, both the public
// surface and the policy-guarded management surface.
type CourseHandler struct {
	uc     usecase.CourseUsecase
	logger *slog.Logger
}

// NewCourseHandler is the constructor for CourseHandler, injected by Fx.
func NewCourseHandler(uc usecase.CourseUsecase, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		uc:     uc,
		logger: logger,
	}
}

type courseRequest struct {
	Slug         string      `json:"slug" validate:"required,max=160"`
	Title        string      `json:"title" validate:"required,max=200"`
	Description  string      `json:"description"`
	PriceUSD     int64       `json:"priceUsd" validate:"min=0"`
	PriceEGP     int64       `json:"priceEgp" validate:"min=0"`
	IsPublished  bool        `json:"isPublished"`
	Position     int         `json:"position"`
	InstructorID uuid.UUID   `json:"instructorId"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	BrochurePath string      `json:"brochurePath"`
	CategoryIDs  []uuid.UUID `json:"categoryIds"`
}

type reorderItem struct {
	CourseID uuid.UUID `json:"courseId" validate:"required"`
	Position int       `json:"position"`
}

type reorderRequest struct {
	Items []reorderItem `json:"items" validate:"required,min=1,dive"`
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
}

type courseResponse struct {
	ID           uuid.UUID           `json:"id"`
	Slug         string              `json:"slug"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	PriceUSD     int64               `json:"priceUsd"`
	PriceEGP     int64               `json:"priceEgp"`
	IsPublished  bool                `json:"isPublished"`
	Position     int                 `json:"position"`
	InstructorID uuid.UUID           `json:"instructorId,omitempty"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty"`
	HasBrochure  bool                `json:"hasBrochure"`
	Categories   []*categoryResponse `json:"categories,omitempty"`
	CreatedAt    string              `json:"createdAt,omitempty"`
}

func toCategoryResponse(category *entity.Category) *categoryResponse {
	return &categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
	}
}

func toCourseResponse(course *entity.Course) *courseResponse {
	categories := make([]*categoryResponse, 0, len(course.Categories))
	for _, category := range course.Categories {
		categories = append(categories, toCategoryResponse(category))
	}

	return &courseResponse{
		ID:           course.ID,
		Slug:         course.Slug,
		Title:        course.Title,
		Description:  course.Description,
		PriceUSD:     course.PriceUSD,
		PriceEGP:     course.PriceEGP,
		IsPublished:  course.IsPublished,
		Position:     course.Position,
		InstructorID: course.InstructorID,
		ThumbnailURL: course.ThumbnailURL,
		HasBrochure:  course.BrochurePath != "",
		Categories:   categories,
		CreatedAt:    course.CreatedAt.Format(time.RFC3339),
	}
}

func toCourseResponses(courses []*entity.Course) []*courseResponse {
	result := make([]*courseResponse, 0, len(courses))
	for _, course := range courses {
		result = append(result, toCourseResponse(course))
	}

	return result
}

// ListPublished returns the public catalog.
func (h *CourseHandler) ListPublished(c echo.Context) error {
	courses, err := h.uc.ListPublished(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCourseResponses(courses), "")
}

// GetBySlug returns one published course.
func (h *CourseHandler) GetBySlug(c echo.Context) error {
	course, err := h.uc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCourseResponse(course), "")
}

// ShareQR streams a PNG QR code linking to the course page.
func (h *CourseHandler) ShareQR(c echo.Context) error {
	png, err := h.uc.ShareQR(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// BrochureFile streams the brochure PDF as a download.
func (h *CourseHandler) BrochureFile(c echo.Context) error {
	brochure, err := h.uc.Brochure(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Attachment(brochure.Path, brochure.FileName)
}

// BrochureView streams the brochure PDF inline for browser viewing.
func (h *CourseHandler) BrochureView(c echo.Context) error {
	brochure, err := h.uc.Brochure(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Inline(brochure.Path, brochure.FileName)
}

type brochureDataResponse struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"` // Base64-encoded file content.
}

// BrochureData returns the brochure PDF base64-encoded inside the JSON
// envelope, for clients that cannot follow file downloads.
func (h *CourseHandler) BrochureData(c echo.Context) error {
	brochure, err := h.uc.Brochure(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	content, err := os.ReadFile(brochure.Path)
	if err != nil {
		h.logger.Warn("Brochure file unreadable",
			slog.String("path", brochure.Path), slog.Any("error", err))

		return response.NotFound(c, "BROCHURE_MISSING", "Brochure file is unavailable")
	}

	return response.Success(c, http.StatusOK, &brochureDataResponse{
		FileName:    brochure.FileName,
		ContentType: "application/pdf",
		Data:        base64.StdEncoding.EncodeToString(content),
	}, "")
}

// ListAll returns every course for the management surface.
func (h *CourseHandler) ListAll(c echo.Context) error {
	courses, err := h.uc.ListAll(c.Request().Context(), middleware.UserRole(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCourseResponses(courses), "")
}

// Create adds a course to the catalog.
func (h *CourseHandler) Create(c echo.Context) error {
	input, err := h.bindCourse(c)
	if err != nil {
		return err
	}

	course, err := h.uc.CreateCourse(c.Request().Context(), middleware.UserRole(c), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toCourseResponse(course), "Course created")
}

// Update replaces a course's attributes.
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid course id")
	}

	input, err := h.bindCourse(c)
	if err != nil {
		return err
	}

	course, err := h.uc.UpdateCourse(c.Request().Context(), middleware.UserRole(c), id, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCourseResponse(course), "Course updated")
}

// Delete removes a course.
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid course id")
	}

	if err := h.uc.DeleteCourse(c.Request().Context(), middleware.UserRole(c), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Course deleted")
}

// Reorder applies a bulk catalog reordering.
func (h *CourseHandler) Reorder(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reorder input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	positions := make([]entity.CoursePosition, 0, len(req.Items))
	for _, item := range req.Items {
		positions = append(positions, entity.CoursePosition{
			CourseID: item.CourseID,
			Position: item.Position,
		})
	}

	if err := h.uc.Reorder(c.Request().Context(), middleware.UserRole(c), positions); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Catalog reordered")
}

func (h *CourseHandler) bindCourse(c echo.Context) (*usecase.CourseInput, error) {
	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return nil, response.BindingError(c, "INVALID_INPUT", "Invalid course input")
	}
	if err := c.Validate(&req); err != nil {
		return nil, errors.WithStack(err)
	}

	return &usecase.CourseInput{
		Slug:         req.Slug,
		Title:        req.Title,
		Description:  req.Description,
		PriceUSD:     req.PriceUSD,
		PriceEGP:     req.PriceEGP,
		IsPublished:  req.IsPublished,
		Position:     req.Position,
		InstructorID: req.InstructorID,
		ThumbnailURL: req.ThumbnailURL,
		BrochurePath: req.BrochurePath,
		CategoryIDs:  req.CategoryIDs,
	}, nil
}
