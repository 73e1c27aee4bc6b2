package repositories

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *GORMCartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &GORMCartRepository{db: tx}
}

func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	return r.load(ctx, false, "user_id = ?", userID)
}

func (r *GORMCartRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Cart, error) {
	return r.load(ctx, true, "user_id = ?", userID)
}

func (r *GORMCartRepository) GetByID(ctx context.Context, cartID string) (*models.Cart, error) {
	return r.load(ctx, false, "id = ?", cartID)
}

func (r *GORMCartRepository) GetByIDForUpdate(ctx context.Context, cartID string) (*models.Cart, error) {
	return r.load(ctx, true, "id = ?", cartID)
}

func (r *GORMCartRepository) load(ctx context.Context, lock bool, query string, arg string) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	if lock {
		// sqlite has no row locks; its dialector drops the clause and
		// serializes writers instead.
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart models.Cart
	if err := db.Where(query, arg).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrCartNotFound, "cart not found")
		}
		return nil, apperr.Storage("failed to load cart", err)
	}
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Order("id").Find(&cart.Items).Error; err != nil {
		return nil, apperr.Storage("failed to load cart items", err)
	}
	return &cart, nil
}

// GetOrCreate relies on the unique user_id index: when two requests race to
// create the cart, the loser's insert is a no-op and both read the winner's row.
func (r *GORMCartRepository) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperr.ErrCartNotFound) {
		return nil, err
	}

	fresh := models.Cart{ID: uuid.New().String(), UserID: userID}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error
	if err != nil {
		return nil, apperr.Storage("failed to create cart", err)
	}
	return r.GetByUserID(ctx, userID)
}

func (r *GORMCartRepository) GetAll(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Order("created_at").Order("id").
		Find(&carts).Error
	if err != nil {
		return nil, apperr.Storage("failed to list carts", err)
	}
	return carts, nil
}

func (r *GORMCartRepository) CartIDsWithProduct(ctx context.Context, productID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("cart_id", &ids).Error
	if err != nil {
		return nil, apperr.Storage("failed to find carts holding product "+productID, err)
	}
	return ids, nil
}

func (r *GORMCartRepository) AddItem(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.New(apperr.ErrAlreadyInCart, "product %s is already in your cart", item.ProductID)
		}
		return apperr.Storage("failed to add cart item", err)
	}
	return nil
}

func (r *GORMCartRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		})
	if res.Error != nil {
		return apperr.Storage("failed to update cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrItemNotFound, "product %s is not in your cart", item.ProductID)
	}
	return nil
}

func (r *GORMCartRepository) DeleteItem(ctx context.Context, cartID, productID string) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return apperr.Storage("failed to remove cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrItemNotFound, "product %s is not in your cart", productID)
	}
	return nil
}

func (r *GORMCartRepository) DeleteItems(ctx context.Context, cartID string) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return apperr.Storage("failed to clear cart items", err)
	}
	return nil
}

func (r *GORMCartRepository) UpdateTotal(ctx context.Context, cartID string, total float64) error {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("total_price", total)
	if res.Error != nil {
		return apperr.Storage("failed to update cart total", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrCartNotFound, "cart %s not found", cartID)
	}
	return nil
}
