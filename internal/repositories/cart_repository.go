package repositories

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// CartRepository defines the interface for cart data access. Loaded carts
// always carry their items in insertion order.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// GetByUserIDForUpdate loads the cart and locks its row until the
	// surrounding transaction ends.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Cart, error)
	GetByID(ctx context.Context, cartID string) (*models.Cart, error)
	GetByIDForUpdate(ctx context.Context, cartID string) (*models.Cart, error)
	// GetOrCreate returns the user's cart, inserting an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	GetAll(ctx context.Context) ([]models.Cart, error)
	CartIDsWithProduct(ctx context.Context, productID string) ([]string, error)
	AddItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID string) error
	DeleteItems(ctx context.Context, cartID string) error
	UpdateTotal(ctx context.Context, cartID string, total float64) error
}
