// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"coursehub/internal/delivery/http/middleware"
	"coursehub/internal/delivery/http/router/handler"
	"coursehub/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	VerificationHandler *handler.VerificationHandler
	CourseHandler       *handler.CourseHandler
	CategoryHandler     *handler.CategoryHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	ManagementHandler   *handler.ManagementHandler
	PaymentHandler      *handler.PaymentHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	verificationHandler *handler.VerificationHandler
	courseHandler       *handler.CourseHandler
	categoryHandler     *handler.CategoryHandler
	enrollmentHandler   *handler.EnrollmentHandler
	managementHandler   *handler.ManagementHandler
	paymentHandler      *handler.PaymentHandler
	authMiddleware      *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		verificationHandler: params.VerificationHandler,
		courseHandler:       params.CourseHandler,
		categoryHandler:     params.CategoryHandler,
		enrollmentHandler:   params.EnrollmentHandler,
		managementHandler:   params.ManagementHandler,
		paymentHandler:      params.PaymentHandler,
		authMiddleware:      params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.Refresh)
	}

	// Auth routes that require a live session
	authedGroup := e.Group("/auth")
	authedGroup.Use(r.authMiddleware.Authenticate)
	{
		authedGroup.POST("/logout", r.authHandler.Logout)
		authedGroup.POST("/logout-all", r.authHandler.LogoutAllDevices)
		authedGroup.GET("/me", r.authHandler.Me)
		authedGroup.GET("/sessions", r.authHandler.GetSessions)
		authedGroup.DELETE("/sessions/:id", r.authHandler.RevokeSession)
	}

	// Email verification; the confirm link is clicked from a mail, the rest
	// requires the account to be logged in.
	verifyGroup := e.Group("/email-verification")
	{
		verifyGroup.POST("/verify", r.verificationHandler.Verify)
		verifyGroup.GET("/confirm", r.verificationHandler.Confirm)
	}
	verifyAuthedGroup := e.Group("/email-verification")
	verifyAuthedGroup.Use(r.authMiddleware.Authenticate)
	{
		verifyAuthedGroup.POST("/request", r.verificationHandler.Request)
		verifyAuthedGroup.POST("/resend", r.verificationHandler.Request)
	}

	// Public catalog
	courseGroup := e.Group("/courses")
	{
		courseGroup.GET("", r.courseHandler.ListPublished)
		courseGroup.GET("/:slug", r.courseHandler.GetBySlug)
		courseGroup.GET("/:slug/qr", r.courseHandler.ShareQR)
		courseGroup.GET("/:slug/brochure/file", r.courseHandler.BrochureFile)
		courseGroup.GET("/:slug/brochure/data", r.courseHandler.BrochureData)
		courseGroup.GET("/:slug/brochure/view", r.courseHandler.BrochureView)
	}
	e.GET("/categories", r.categoryHandler.List)

	// Catalog management, restricted to staff roles. The use cases apply
	// the capability policy on top of this coarse gate.
	staffRoles := []entity.Role{entity.RoleAdmin, entity.RoleManager}
	courseAdminGroup := e.Group("/courses")
	courseAdminGroup.Use(r.authMiddleware.Authenticate)
	courseAdminGroup.Use(r.authMiddleware.RequireRole(staffRoles...))
	{
		courseAdminGroup.GET("/all/list", r.courseHandler.ListAll)
		courseAdminGroup.POST("", r.courseHandler.Create)
		courseAdminGroup.PUT("/:id", r.courseHandler.Update)
		courseAdminGroup.DELETE("/:id", r.courseHandler.Delete)
		courseAdminGroup.PUT("/reorder/bulk", r.courseHandler.Reorder)
	}
	categoryAdminGroup := e.Group("/categories")
	categoryAdminGroup.Use(r.authMiddleware.Authenticate)
	categoryAdminGroup.Use(r.authMiddleware.RequireRole(staffRoles...))
	{
		categoryAdminGroup.POST("", r.categoryHandler.Create)
		categoryAdminGroup.PUT("/:id", r.categoryHandler.Update)
		categoryAdminGroup.DELETE("/:id", r.categoryHandler.Delete)
	}

	// Learner enrollments
	enrollmentGroup := e.Group("/enrollments")
	enrollmentGroup.Use(r.authMiddleware.Authenticate)
	{
		enrollmentGroup.GET("/my", r.enrollmentHandler.ListMy)
	}

	// Management surface
	managementGroup := e.Group("/management")
	managementGroup.Use(r.authMiddleware.Authenticate)
	managementGroup.Use(r.authMiddleware.RequireRole(staffRoles...))
	{
		managementGroup.GET("/users", r.managementHandler.ListUsers)
		managementGroup.PATCH("/users/:id/role", r.managementHandler.UpdateUserRole)
		managementGroup.PATCH("/users/:id/deactivate", r.managementHandler.DeactivateUser)
		managementGroup.DELETE("/users/:id", r.managementHandler.DeleteUser)
		managementGroup.POST("/enrollments", r.managementHandler.GrantEnrollment)
		managementGroup.DELETE("/enrollments/:id", r.managementHandler.RevokeEnrollment)
	}

	// Payments; webhooks authenticate through provider signatures, not sessions.
	paymentGroup := e.Group("/payments")
	{
		paymentGroup.POST("/webhook/stripe", r.paymentHandler.StripeWebhook)
		paymentGroup.POST("/webhook/paymob", r.paymentHandler.PaymobWebhook)
	}
	paymentAuthedGroup := e.Group("/payments")
	paymentAuthedGroup.Use(r.authMiddleware.Authenticate)
	{
		paymentAuthedGroup.POST("/checkout", r.paymentHandler.Checkout)
		paymentAuthedGroup.GET("/verify", r.paymentHandler.Verify)
	}
}
