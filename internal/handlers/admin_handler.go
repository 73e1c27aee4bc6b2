package handlers

import (
	"log/slog"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the administrative reads and the order status update.
// Its routes must be mounted behind the admin role check.
type AdminHandler struct {
	carts    *services.CartService
	orders   *services.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(carts *services.CartService, orders *services.OrderService, validate *validator.Validate, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{carts: carts, orders: orders, validate: validate, logger: logger}
}

// RegisterRoutes registers the admin routes.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/carts", h.HandleListCarts)
	router.Get("/carts/:id", h.HandleGetCart)
	router.Get("/orders", h.HandleListOrders)
	router.Get("/orders/:id", h.HandleGetOrder)
	router.Put("/orders/:id/status", h.HandleUpdateOrderStatus)
	router.Get("/users/:userId/orders", h.HandleListUserOrders)
	router.Get("/analytics", h.HandleAnalytics)
}

// UpdateStatusRequest is the body of PUT /admin/orders/:id/status. The
// field must be present; its value is stored as given.
type UpdateStatusRequest struct {
	Status *string `json:"status" validate:"required"`
}

func (h *AdminHandler) HandleListCarts(c *fiber.Ctx) error {
	carts, err := h.carts.ListAllCarts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve carts", err)
	}
	return c.JSON(carts)
}

func (h *AdminHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.carts.GetCartByID(c.UserContext(), currentIdentity(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve cart", err)
	}
	return c.JSON(cart)
}

func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	page, err := h.orders.ListOrders(c.UserContext(), pageParams(c))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), c.Params("id"), *req.Status)
	if err != nil {
		return respondError(c, h.logger, "Could not update order status", err)
	}
	return c.JSON(order)
}

func (h *AdminHandler) HandleListUserOrders(c *fiber.Ctx) error {
	page, err := h.orders.ListOrdersByUserID(c.UserContext(), c.Params("userId"), pageParams(c))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) HandleAnalytics(c *fiber.Ctx) error {
	analytics, err := h.orders.Analytics(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not compute analytics", err)
	}
	return c.JSON(analytics)
}
