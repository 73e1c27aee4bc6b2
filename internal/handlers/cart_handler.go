package handlers

import (
	"log/slog"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, validate *validator.Validate, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: service, validate: validate, logger: logger}
}

// RegisterRoutes registers the cart routes on an authenticated router.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productId", h.HandleAdjustItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Post("/sync", h.HandleSyncCart)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

// AdjustItemRequest is the optional body of PUT /cart/items/:productId.
type AdjustItemRequest struct {
	Delta int `json:"delta"`
}

// HandleGetCart returns the caller's cart, creating it on first access.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetOrCreateCart(c.UserContext(), currentIdentity(c).UserID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve cart", err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	cart, err := h.service.AddItem(c.UserContext(), currentIdentity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, h.logger, "Could not add product to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleAdjustItem applies ?action=increase|decrease, or the delta from the body.
func (h *CartHandler) HandleAdjustItem(c *fiber.Ctx) error {
	var delta int
	switch c.Query("action") {
	case "increase":
		delta = 1
	case "decrease":
		delta = -1
	case "":
		var req AdjustItemRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		delta = req.Delta
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "action must be 'increase' or 'decrease'",
		})
	}

	cart, err := h.service.AdjustItem(c.UserContext(), currentIdentity(c).UserID, c.Params("productId"), delta)
	if err != nil {
		return respondError(c, h.logger, "Could not update cart item", err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(c.UserContext(), currentIdentity(c).UserID, c.Params("productId"))
	if err != nil {
		return respondError(c, h.logger, "Could not remove cart item", err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleSyncCart(c *fiber.Ctx) error {
	var lines []services.CartLineInput
	if err := c.BodyParser(&lines); err != nil {
		return badRequest(c, err)
	}
	for _, line := range lines {
		if err := h.validate.Struct(line); err != nil {
			return validationFailed(c, err)
		}
	}

	cart, err := h.service.SyncCart(c.UserContext(), currentIdentity(c).UserID, lines)
	if err != nil {
		return respondError(c, h.logger, "Could not sync cart", err)
	}
	return c.JSON(cart)
}
