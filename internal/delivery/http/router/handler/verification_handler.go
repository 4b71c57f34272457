package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"coursehub/config"
	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// VerificationHandler holds dependencies for email verification handlers.
type VerificationHandler struct {
	uc       usecase.VerificationUsecase
	frontend *config.FrontendConfig
	logger   *slog.Logger
}

// NewVerificationHandler is the constructor for VerificationHandler, injected by Fx.
func NewVerificationHandler(uc usecase.VerificationUsecase, cfg *config.Config, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{
		uc:       uc,
		frontend: cfg.Frontend,
		logger:   logger,
	}
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// Request issues a fresh verification token for the authenticated user.
// Resend shares this handler; the throttle lives in the use case.
func (h *VerificationHandler) Request(c echo.Context) error {
	if err := h.uc.RequestVerification(c.Request().Context(), middleware.UserID(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Verification email sent")
}

// Verify consumes a verification token presented by the client app.
func (h *VerificationHandler) Verify(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Email verified")
}

// Confirm consumes a token from a mail link click and redirects the browser
// to the frontend result page instead of rendering JSON.
func (h *VerificationHandler) Confirm(c echo.Context) error {
	status := "success"
	if err := h.uc.VerifyEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		status = "invalid"
	}

	return c.Redirect(http.StatusFound, h.resultURL(status))
}

func (h *VerificationHandler) resultURL(status string) string {
	base := ""
	verifyPath := "/verify-email"
	if h.frontend != nil {
		base = strings.TrimSuffix(h.frontend.BaseURL, "/")
		if h.frontend.VerifyPath != "" {
			verifyPath = h.frontend.VerifyPath
		}
	}

	return base + verifyPath + "?status=" + url.QueryEscape(status)
}
