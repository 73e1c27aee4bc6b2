package repositories

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// WithTx returns a repository bound to tx.
func (r *GORMProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &GORMProductRepository{db: tx}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, apperr.Storage("failed to get all products", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.ErrProductNotFound, "product with ID %s not found", id)
		}
		return nil, apperr.Storage("failed to get product by ID "+id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return apperr.Storage("failed to create product", err)
	}
	return nil
}

// Update overwrites the catalog fields of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"stock":       product.Stock,
	})
	if res.Error != nil {
		return apperr.Storage("failed to update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrProductNotFound, "product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Storage("failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrProductNotFound, "product with ID %s not found for deletion", id)
	}
	return nil
}

// Count returns the number of products in the catalog.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, apperr.Storage("failed to count products", err)
	}
	return n, nil
}

// TryDecrementStock runs UPDATE ... SET stock = stock - n WHERE id = ? AND stock >= n.
// The check and the write are one statement, so concurrent callers cannot
// both take the last units.
func (r *GORMProductRepository) TryDecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, apperr.New(apperr.ErrInvalidQuantity, "cannot reserve %d units of product %s", quantity, id)
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, apperr.Storage("failed to decrement stock of product "+id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
