package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/domain/entity"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ManagementHandler holds dependencies for the administrative handlers.
type ManagementHandler struct {
	uc     usecase.ManagementUsecase
	logger *slog.Logger
}

// NewManagementHandler is the constructor for ManagementHandler, injected by Fx.
func NewManagementHandler(uc usecase.ManagementUsecase, logger *slog.Logger) *ManagementHandler {
	return &ManagementHandler{
		uc:     uc,
		logger: logger,
	}
}

type updateRoleRequest struct {
	Role entity.Role `json:"role" validate:"required"`
}

type grantEnrollmentRequest struct {
	UserID   uuid.UUID `json:"userId" validate:"required"`
	CourseID uuid.UUID `json:"courseId" validate:"required"`
}

type userListResponse struct {
	Users   []*userResponse `json:"users"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"perPage"`
}

// ListUsers returns one page of the user directory.
func (h *ManagementHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("perPage"))

	output, err := h.uc.ListUsers(c.Request().Context(), &usecase.ListUsersInput{
		ActorRole: middleware.UserRole(c),
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	users := make([]*userResponse, 0, len(output.Users))
	for _, user := range output.Users {
		users = append(users, toUserResponse(user))
	}

	return response.Success(c, http.StatusOK, &userListResponse{
		Users:   users,
		Total:   output.Total,
		Page:    output.Page,
		PerPage: output.PerPage,
	}, "")
}

// UpdateUserRole changes a user's role.
func (h *ManagementHandler) UpdateUserRole(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid user id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid role input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.uc.UpdateUserRole(c.Request().Context(), middleware.UserRole(c), userID, req.Role)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "Role updated")
}

// DeactivateUser blocks a user from authenticating.
func (h *ManagementHandler) DeactivateUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid user id")
	}

	if err := h.uc.DeactivateUser(c.Request().Context(), middleware.UserRole(c), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "User deactivated")
}

// DeleteUser removes an account.
func (h *ManagementHandler) DeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid user id")
	}

	if err := h.uc.DeleteUser(c.Request().Context(), middleware.UserRole(c), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "User deleted")
}

type grantedEnrollmentResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	CourseID   uuid.UUID `json:"courseId"`
	EnrollType string    `json:"enrollType"`
	GrantedAt  string    `json:"grantedAt"`
}

// GrantEnrollment manually enrolls a user into a course.
func (h *ManagementHandler) GrantEnrollment(c echo.Context) error {
	var req grantEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid enrollment input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	enrollment, err := h.uc.GrantEnrollment(c.Request().Context(), &usecase.GrantEnrollmentInput{
		ActorRole: middleware.UserRole(c),
		UserID:    req.UserID,
		CourseID:  req.CourseID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, &grantedEnrollmentResponse{
		ID:         enrollment.ID,
		UserID:     enrollment.UserID,
		CourseID:   enrollment.CourseID,
		EnrollType: string(enrollment.EnrollType),
		GrantedAt:  enrollment.CreatedAt.Format(time.RFC3339),
	}, "Enrollment granted")
}

// RevokeEnrollment removes an enrollment.
func (h *ManagementHandler) RevokeEnrollment(c echo.Context) error {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid enrollment id")
	}

	if err := h.uc.RevokeEnrollment(c.Request().Context(), middleware.UserRole(c), enrollmentID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Enrollment revoked")
}
