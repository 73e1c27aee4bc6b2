package repositories

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *GORMOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &GORMOrderRepository{db: tx}
}

// Create writes payment, order and items explicitly instead of relying on
// association auto-save. When called inside an outer transaction the rows
// join it through a savepoint.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.Payment != nil {
			if order.Payment.ID == "" {
				order.Payment.ID = uuid.New().String()
			}
			if err := tx.Create(order.Payment).Error; err != nil {
				return apperr.Storage("failed to save payment", err)
			}
			order.PaymentID = order.Payment.ID
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return apperr.Storage("failed to save order", err)
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return apperr.Storage("failed to save order items", err)
		}
		return nil
	})
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.withDetails(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrOrderNotFound, "order with ID %s not found", id)
		}
		return nil, apperr.Storage("failed to get order", err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter, page pagination.Params) ([]models.Order, int64, error) {
	column, err := page.Resolve(OrderSortFields)
	if err != nil {
		return nil, 0, err
	}

	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if filter.Email != "" {
			q = q.Where("email = ?", filter.Email)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, apperr.Storage("failed to count orders", err)
	}

	q := r.withDetails(scoped()).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: !page.Ascending})
	if column != "id" {
		q = q.Order("id")
	}

	var orders []models.Order
	if err := q.Offset(page.Offset()).Limit(page.PageSize).Find(&orders).Error; err != nil {
		return nil, 0, apperr.Storage("failed to list orders", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperr.Storage("failed to update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrOrderNotFound, "order with ID %s not found for status update", id)
	}
	return nil
}

// TotalRevenue sums the frozen totals of every order; 0 when there are none.
func (r *GORMOrderRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	row := r.db.WithContext(ctx).Model(&models.Order{}).Select("COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return 0, apperr.Storage("failed to compute revenue", err)
	}
	return total, nil
}

func (r *GORMOrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, apperr.Storage("failed to count orders", err)
	}
	return n, nil
}

func (r *GORMOrderRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Payment").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") })
}
