package handlers

import (
	"log/slog"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Services bundles what the HTTP layer delegates to.
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Addresses *services.AddressService
	Carts     *services.CartService
	Checkout  *services.CheckoutService
	Orders    *services.OrderService
}

// RegisterRoutes mounts the /api/v1 surface on app.
func RegisterRoutes(app fiber.Router, svc Services, logger *slog.Logger) {
	validate := validator.New()
	auth := middleware.AuthRequired(svc.Auth, logger)

	apiV1 := app.Group("/api/v1")

	NewAuthHandler(svc.Auth, validate, logger).RegisterRoutes(apiV1)
	NewProductHandler(svc.Products, validate, logger).RegisterRoutes(apiV1, auth)

	// Everything below requires a token.
	protected := apiV1.Group("", auth)
	NewAddressHandler(svc.Addresses, validate, logger).RegisterRoutes(protected)
	NewCartHandler(svc.Carts, validate, logger).RegisterRoutes(protected)
	NewOrderHandler(svc.Checkout, svc.Orders, validate, logger).RegisterRoutes(protected)

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	NewAdminHandler(svc.Carts, svc.Orders, validate, logger).RegisterRoutes(admin)
}
