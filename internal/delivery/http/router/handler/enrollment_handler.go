package handler

import (
	"log/slog"
	"net/http"
	"time"

	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// EnrollmentHandler holds dependencies for the learner enrollment handlers.
type EnrollmentHandler struct {
	uc     usecase.EnrollmentUsecase
	logger *slog.Logger
}

// NewEnrollmentHandler is the constructor for EnrollmentHandler, injected by Fx.
func NewEnrollmentHandler(uc usecase.EnrollmentUsecase, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		uc:     uc,
		logger: logger,
	}
}

type myEnrollmentResponse struct {
	ID         uuid.UUID       `json:"id"`
	EnrollType string          `json:"enrollType"`
	EnrolledAt string          `json:"enrolledAt"`
	Course     *courseResponse `json:"course"`
}

func toMyEnrollmentResponse(item *usecase.MyEnrollment) *myEnrollmentResponse {
	return &myEnrollmentResponse{
		ID:         item.Enrollment.ID,
		EnrollType: string(item.Enrollment.EnrollType),
		EnrolledAt: item.Enrollment.CreatedAt.Format(time.RFC3339),
		Course:     toCourseResponse(item.Course),
	}
}

// ListMy returns the caller's active enrollments with their courses.
func (h *EnrollmentHandler) ListMy(c echo.Context) error {
	items, err := h.uc.ListMy(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return errors.WithStack(err)
	}

	result := make([]*myEnrollmentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toMyEnrollmentResponse(item))
	}

	return response.Success(c, http.StatusOK, result, "")
}
