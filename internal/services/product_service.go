package services

import (
	"context"
	"log/slog"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"gorm.io/gorm"
)

// CatalogSync keeps open carts in line with catalog edits. Both methods run
// on the caller's transaction.
type CatalogSync interface {
	RefreshProductPrice(ctx context.Context, tx *gorm.DB, productID string, price float64) error
	RemoveProductFromCarts(ctx context.Context, tx *gorm.DB, productID string) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	tx     repositories.Transactor
	repo   repositories.ProductRepository
	carts  CatalogSync
	logger *slog.Logger
}

// NewProductService creates a new ProductService. carts may be nil, in which
// case catalog edits leave carts untouched.
func NewProductService(tx repositories.Transactor, repo repositories.ProductRepository, carts CatalogSync, logger *slog.Logger) *ProductService {
	return &ProductService{
		tx:     tx,
		repo:   repo,
		carts:  carts,
		logger: logger,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.repo.Create(ctx, product)
}

// UpdateProduct updates an existing product and moves every cart line holding
// it to the new price, all in one transaction.
//
// Carts are locked before the product row is written, the same order checkout
// takes its locks in. Carts are synced even when the price looks unchanged:
// the comparison is against an unlocked read and a concurrent edit may have
// moved the carts since.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	var oldPrice float64
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		products := s.repo.WithTx(tx)
		current, err := products.GetByID(ctx, product.ID)
		if err != nil {
			return err
		}
		oldPrice = current.Price

		if s.carts != nil {
			if err := s.carts.RefreshProductPrice(ctx, tx, product.ID, product.Price); err != nil {
				return err
			}
		}
		return products.Update(ctx, product)
	})
	if err != nil {
		return err
	}

	if oldPrice != product.Price {
		s.logger.Info("product price changed",
			slog.String("product_id", product.ID),
			slog.Float64("old_price", oldPrice),
			slog.Float64("new_price", product.Price))
	}
	return nil
}

// DeleteProduct removes the product from every cart and then from the
// catalog. Nothing changes when the product does not exist.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if s.carts != nil {
			if err := s.carts.RemoveProductFromCarts(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}
