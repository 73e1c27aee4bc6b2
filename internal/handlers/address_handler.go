package handlers

import (
	"log/slog"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the caller's shipping addresses.
type AddressHandler struct {
	service  *services.AddressService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService, validate *validator.Validate, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: service, validate: validate, logger: logger}
}

// RegisterRoutes registers the address routes on an authenticated router.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Post("/", h.HandleCreateAddress)
	addressRoutes.Get("/:id", h.HandleGetAddress)
}

func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(address); err != nil {
		return validationFailed(c, err)
	}
	if err := h.service.CreateAddress(c.UserContext(), currentIdentity(c), &address); err != nil {
		return respondError(c, h.logger, "Could not save address", err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

func (h *AddressHandler) HandleGetAddress(c *fiber.Ctx) error {
	address, err := h.service.GetAddress(c.UserContext(), currentIdentity(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve address", err)
	}
	return c.JSON(address)
}
