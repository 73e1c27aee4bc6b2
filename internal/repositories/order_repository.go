package repositories

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/pagination"

	"gorm.io/gorm"
)

// OrderSortFields is the allow-list of sortable order fields.
var OrderSortFields = pagination.SortFields{
	"totalAmount": "total_amount",
	"orderId":     "id",
	"orderDate":   "order_date",
	"orderStatus": "status",
	"email":       "email",
}

// OrderFilter narrows an order listing. Zero values match everything.
type OrderFilter struct {
	Email string
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	// Create inserts the order's payment, the order row and its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, page pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	TotalRevenue(ctx context.Context) (float64, error)
	Count(ctx context.Context) (int64, error)
}
