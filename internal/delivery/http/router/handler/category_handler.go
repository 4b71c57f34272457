package handler

import (
	"log/slog"
	"net/http"

	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CategoryHandler holds dependencies for category handlers.
type CategoryHandler struct {
	uc     usecase.CourseUsecase
	logger *slog.Logger
}

// NewCategoryHandler is the constructor for CategoryHandler, injected by Fx.
func NewCategoryHandler(uc usecase.CourseUsecase, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: logger,
	}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"required,max=160"`
	Description string `json:"description"`
}

// List returns all categories.
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	result := make([]*categoryResponse, 0, len(categories))
	for _, category := range categories {
		result = append(result, toCategoryResponse(category))
	}

	return response.Success(c, http.StatusOK, result, "")
}

// Create adds a category.
func (h *CategoryHandler) Create(c echo.Context) error {
	input, err := h.bindCategory(c)
	if err != nil {
		return err
	}

	category, err := h.uc.CreateCategory(c.Request().Context(), middleware.UserRole(c), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toCategoryResponse(category), "Category created")
}

// Update replaces a category's attributes.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid category id")
	}

	input, err := h.bindCategory(c)
	if err != nil {
		return err
	}

	category, err := h.uc.UpdateCategory(c.Request().Context(), middleware.UserRole(c), id, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toCategoryResponse(category), "Category updated")
}

// Delete removes a category and its course links.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid category id")
	}

	if err := h.uc.DeleteCategory(c.Request().Context(), middleware.UserRole(c), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Category deleted")
}

func (h *CategoryHandler) bindCategory(c echo.Context) (*usecase.CategoryInput, error) {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return nil, response.BindingError(c, "INVALID_INPUT", "Invalid category input")
	}
	if err := c.Validate(&req); err != nil {
		return nil, errors.WithStack(err)
	}

	return &usecase.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}, nil
}
