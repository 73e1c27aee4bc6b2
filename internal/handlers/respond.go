package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/pagination"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status matching its kind.
func respondError(c *fiber.Ctx, logger *slog.Logger, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindInvalid:
		status = fiber.StatusBadRequest
	}

	body := fiber.Map{"message": message, "error": err.Error()}
	if appErr, ok := apperr.As(err); ok {
		body["code"] = appErr.Code
	}

	if status == fiber.StatusInternalServerError {
		logger.Error(message, slog.String("path", c.Path()), slog.Any("error", err))
		// Driver details stay in the log.
		body["error"] = "internal error"
	} else {
		logger.Debug(message, slog.String("path", c.Path()), slog.Any("error", err))
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validationFailed reports every failing field of a validator error.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest(c, err)
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func currentIdentity(c *fiber.Ctx) models.Identity {
	identity, _ := middleware.CurrentIdentity(c)
	return identity
}

// pageParams reads pageNumber, pageSize, sortBy and sortOrder from the query.
func pageParams(c *fiber.Ctx) pagination.Params {
	return pagination.NewParams(
		c.QueryInt("pageNumber", pagination.DefaultPageNumber),
		c.QueryInt("pageSize", pagination.DefaultPageSize),
		c.Query("sortBy", "totalAmount"),
		c.Query("sortOrder", pagination.DefaultSortOrder),
	)
}
