package services

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"gorm.io/gorm"
)

// CartLineInput is one requested line of a cart sync.
type CartLineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CartService owns the users' shopping carts. Every mutation locks the
// cart row inside a transaction, so writes to one cart serialize while
// different carts proceed independently.
type CartService struct {
	tx       repositories.Transactor
	carts    repositories.CartRepository
	products repositories.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new CartService.
func NewCartService(tx repositories.Transactor, carts repositories.CartRepository, products repositories.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		tx:       tx,
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.carts.GetOrCreate(ctx, userID)
}

// GetCart returns the user's cart without creating it.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.carts.GetByUserID(ctx, userID)
}

// GetCartByID returns a cart to its owner or to an admin. Anyone else gets
// CartNotFound.
func (s *CartService) GetCartByID(ctx context.Context, identity models.Identity, cartID string) (*models.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.UserID != identity.UserID && !identity.IsAdmin() {
		return nil, apperr.New(apperr.ErrCartNotFound, "cart %s not found", cartID)
	}
	return cart, nil
}

// AddItem puts a new product line into the user's cart at the current
// catalog price.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.ErrInvalidQuantity, "quantity must be a positive integer, got %d", quantity)
	}
	if _, err := s.carts.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	var result *models.Cart
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		cart, err := carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, ok := cart.Item(productID); ok {
			return apperr.New(apperr.ErrAlreadyInCart, "product %s is already in your cart", productID)
		}

		product, err := s.products.WithTx(tx).GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := checkStock(product, quantity); err != nil {
			return err
		}

		line := &models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
		if err := carts.AddItem(ctx, line); err != nil {
			return err
		}
		if err := carts.UpdateTotal(ctx, cart.ID, roundMoney(cart.TotalPrice+line.Subtotal())); err != nil {
			return err
		}

		result, err = carts.GetByID(ctx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cart item added",
		slog.String("cart_id", result.ID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity))
	return result, nil
}

// AdjustItem changes the quantity of a line by delta. A line reaching zero is
// removed; any other resulting quantity must be covered by current stock,
// whichever way it moved. The line is re-priced at the current catalog price
// and the total moves by the difference between the new and old subtotals.
func (s *CartService) AdjustItem(ctx context.Context, userID, productID string, delta int) (*models.Cart, error) {
	if delta == 0 {
		return nil, apperr.New(apperr.ErrInvalidQuantity, "quantity change must not be zero")
	}

	var result *models.Cart
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		cart, err := carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		line, ok := cart.Item(productID)
		if !ok {
			return apperr.New(apperr.ErrItemNotFound, "product %s is not in your cart", productID)
		}

		newQty := line.Quantity + delta
		if newQty < 0 {
			return apperr.New(apperr.ErrNegativeQuantity, "quantity of product %s cannot drop below zero", productID)
		}

		total := cart.TotalPrice - line.Subtotal()
		if newQty == 0 {
			if err := carts.DeleteItem(ctx, cart.ID, productID); err != nil {
				return err
			}
		} else {
			product, err := s.products.WithTx(tx).GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if err := checkStock(product, newQty); err != nil {
				return err
			}
			updated := &models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  newQty,
				UnitPrice: product.Price,
			}
			if err := carts.UpdateItem(ctx, updated); err != nil {
				return err
			}
			total += updated.Subtotal()
		}

		if err := carts.UpdateTotal(ctx, cart.ID, roundMoney(total)); err != nil {
			return err
		}
		result, err = carts.GetByID(ctx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	var result *models.Cart
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		cart, err := carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		line, ok := cart.Item(productID)
		if !ok {
			return apperr.New(apperr.ErrItemNotFound, "product %s is not in your cart", productID)
		}
		if err := carts.DeleteItem(ctx, cart.ID, productID); err != nil {
			return err
		}
		if err := carts.UpdateTotal(ctx, cart.ID, roundMoney(cart.TotalPrice-line.Subtotal())); err != nil {
			return err
		}
		result, err = carts.GetByID(ctx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearCart empties a cart and zeroes its total. Clearing an empty cart is a no-op.
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	return s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		return clearCart(ctx, s.carts.WithTx(tx), cartID)
	})
}

func clearCart(ctx context.Context, carts repositories.CartRepository, cartID string) error {
	cart, err := carts.GetByIDForUpdate(ctx, cartID)
	if err != nil {
		return err
	}
	if err := carts.DeleteItems(ctx, cart.ID); err != nil {
		return err
	}
	return carts.UpdateTotal(ctx, cart.ID, 0)
}

// ListAllCarts returns every cart. An empty store is reported as
// NoCartsFound rather than an empty list.
func (s *CartService) ListAllCarts(ctx context.Context) ([]models.Cart, error) {
	carts, err := s.carts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, apperr.New(apperr.ErrNoCartsFound, "no shopping carts found")
	}
	return carts, nil
}

// SyncCart replaces every line of the user's cart with lines, priced at the
// current catalog prices. Used when a guest cart is merged after login.
func (s *CartService) SyncCart(ctx context.Context, userID string, lines []CartLineInput) (*models.Cart, error) {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.New(apperr.ErrInvalidQuantity, "quantity of product %s must be a positive integer, got %d", l.ProductID, l.Quantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, apperr.New(apperr.ErrAlreadyInCart, "product %s is listed more than once", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	if _, err := s.carts.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	var result *models.Cart
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		cart, err := carts.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := carts.DeleteItems(ctx, cart.ID); err != nil {
			return err
		}

		var total float64
		for _, l := range lines {
			product, err := products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if err := checkStock(product, l.Quantity); err != nil {
				return err
			}
			line := &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  l.Quantity,
				UnitPrice: product.Price,
			}
			if err := carts.AddItem(ctx, line); err != nil {
				return err
			}
			total += line.Subtotal()
		}

		if err := carts.UpdateTotal(ctx, cart.ID, roundMoney(total)); err != nil {
			return err
		}
		result, err = carts.GetByID(ctx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart synced", slog.String("cart_id", result.ID), slog.Int("lines", len(result.Items)))
	return result, nil
}

// RefreshProductPrice re-prices every cart line holding productID at price
// and shifts each cart's total by the change. It runs on tx, the caller's
// transaction, and locks the affected carts in ID order.
func (s *CartService) RefreshProductPrice(ctx context.Context, tx *gorm.DB, productID string, price float64) error {
	carts := s.carts.WithTx(tx)
	repriced := 0
	err := lockCartsWithProduct(ctx, carts, productID, func(cart *models.Cart, line *models.CartItem) error {
		if line.UnitPrice == price {
			return nil
		}
		total := cart.TotalPrice + (price-line.UnitPrice)*float64(line.Quantity)
		updated := &models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		}
		if err := carts.UpdateItem(ctx, updated); err != nil {
			return err
		}
		repriced++
		return carts.UpdateTotal(ctx, cart.ID, roundMoney(total))
	})
	if err != nil {
		return err
	}

	if repriced > 0 {
		s.logger.Info("carts repriced",
			slog.String("product_id", productID),
			slog.Float64("price", price),
			slog.Int("carts", repriced))
	}
	return nil
}

// RemoveProductFromCarts drops the productID line from every cart holding it
// and lowers each total by the line's subtotal. It runs on tx like
// RefreshProductPrice.
func (s *CartService) RemoveProductFromCarts(ctx context.Context, tx *gorm.DB, productID string) error {
	carts := s.carts.WithTx(tx)
	removed := 0
	err := lockCartsWithProduct(ctx, carts, productID, func(cart *models.Cart, line *models.CartItem) error {
		if err := carts.DeleteItem(ctx, cart.ID, productID); err != nil {
			return err
		}
		removed++
		return carts.UpdateTotal(ctx, cart.ID, roundMoney(cart.TotalPrice-line.Subtotal()))
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info("product removed from carts",
			slog.String("product_id", productID),
			slog.Int("carts", removed))
	}
	return nil
}

// lockCartsWithProduct locks each cart holding productID, in cart ID order,
// and hands its line to fn. Carts that lost the line since the lookup are skipped.
func lockCartsWithProduct(ctx context.Context, carts repositories.CartRepository, productID string, fn func(cart *models.Cart, line *models.CartItem) error) error {
	cartIDs, err := carts.CartIDsWithProduct(ctx, productID)
	if err != nil {
		return err
	}
	slices.Sort(cartIDs)

	for _, cartID := range cartIDs {
		cart, err := carts.GetByIDForUpdate(ctx, cartID)
		if err != nil {
			return err
		}
		line, ok := cart.Item(productID)
		if !ok {
			continue
		}
		if err := fn(cart, line); err != nil {
			return err
		}
	}
	return nil
}

func checkStock(product *models.Product, quantity int) error {
	if product.Stock == 0 {
		return apperr.New(apperr.ErrOutOfStock, "%s is currently unavailable", product.Name)
	}
	if quantity > product.Stock {
		return apperr.New(apperr.ErrInsufficientStock,
			"please make an order of %s less than or equal to %d", product.Name, product.Stock)
	}
	return nil
}

// roundMoney rounds to cents so repeated additions do not drift.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
