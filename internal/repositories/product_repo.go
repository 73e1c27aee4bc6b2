package repositories

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// ProductRepository defines the interface for product data access.
// It is the catalog seen by the cart and checkout services.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// TryDecrementStock subtracts quantity from the product's stock in one
	// conditional statement. It returns false, leaving stock untouched, when
	// fewer than quantity units remain.
	TryDecrementStock(ctx context.Context, id string, quantity int) (bool, error)
}
