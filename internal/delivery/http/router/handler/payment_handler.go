package handler

import (
	"io"
	"log/slog"
	"net/http"

	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/response"
	"coursehub/internal/domain/entity"
	"coursehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PaymentHandler holds dependencies for checkout and reconciliation handlers.
type PaymentHandler struct {
	uc     usecase.PaymentUsecase
	logger *slog.Logger
}

// NewPaymentHandler is the constructor for PaymentHandler, injected by Fx.
func NewPaymentHandler(uc usecase.PaymentUsecase, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		uc:     uc,
		logger: logger,
	}
}

type checkoutRequest struct {
	CourseID uuid.UUID `json:"courseId" validate:"required"`
}

type checkoutResponse struct {
	PaymentID   uuid.UUID `json:"paymentId"`
	Provider    string    `json:"provider"`
	RedirectURL string    `json:"redirectUrl"`
}

// Checkout opens a hosted checkout for the authenticated user.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid checkout input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Checkout(c.Request().Context(), &usecase.CheckoutInput{
		UserID:   middleware.UserID(c),
		CourseID: req.CourseID,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, &checkoutResponse{
		PaymentID:   output.PaymentID,
		Provider:    string(output.Provider),
		RedirectURL: output.RedirectURL,
	}, "Checkout created")
}

// StripeWebhook receives Stripe event deliveries.
func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	return h.handleWebhook(c, entity.ProviderStripe)
}

// PaymobWebhook receives Paymob transaction callbacks.
func (h *PaymentHandler) PaymobWebhook(c echo.Context) error {
	return h.handleWebhook(c, entity.ProviderPaymob)
}

func (h *PaymentHandler) handleWebhook(c echo.Context, provider entity.PaymentProvider) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Unreadable webhook payload")
	}

	query := make(map[string]string)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), provider, payload, c.Request().Header, query); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"received": true}, "")
}

type verifyPaymentResponse struct {
	Status       string     `json:"status"`
	EnrollmentID *uuid.UUID `json:"enrollmentId,omitempty"`
}

// Verify reconciles a payment for the buyer returning from checkout.
// Identify the payment with ?paymentId= or the provider's ?orderId=.
func (h *PaymentHandler) Verify(c echo.Context) error {
	input := &usecase.VerifyPaymentInput{
		UserID:          middleware.UserID(c),
		ProviderOrderID: c.QueryParam("orderId"),
	}
	if raw := c.QueryParam("paymentId"); raw != "" {
		paymentID, err := uuid.Parse(raw)
		if err != nil {
			return response.BindingError(c, "INVALID_INPUT", "Invalid payment id")
		}
		input.PaymentID = paymentID
	}

	output, err := h.uc.VerifyPayment(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	result := &verifyPaymentResponse{Status: string(output.Status)}
	if output.Enrollment != nil {
		result.EnrollmentID = &output.Enrollment.ID
	}

	return response.Success(c, http.StatusOK, result, "")
}
