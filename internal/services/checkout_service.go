package services

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"gorm.io/gorm"
)

// PlaceOrderRequest carries the shipping address and the outcome the
// payment gateway reported to the client.
type PlaceOrderRequest struct {
	AddressID        string `json:"addressId" validate:"required"`
	PaymentMethod    string `json:"paymentMethod" validate:"required,min=4"`
	GatewayName      string `json:"pgName"`
	GatewayPaymentID string `json:"pgPaymentId"`
	GatewayStatus    string `json:"pgStatus"`
	GatewayMessage   string `json:"pgResponseMessage"`
}

// CheckoutService turns a user's cart into an order.
type CheckoutService struct {
	tx        repositories.Transactor
	carts     repositories.CartRepository
	products  repositories.ProductRepository
	addresses repositories.AddressRepository
	orders    repositories.OrderRepository
	events    *OrderEvents
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new CheckoutService. events may be nil.
func NewCheckoutService(
	tx repositories.Transactor,
	carts repositories.CartRepository,
	products repositories.ProductRepository,
	addresses repositories.AddressRepository,
	orders repositories.OrderRepository,
	events *OrderEvents,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		carts:     carts,
		products:  products,
		addresses: addresses,
		orders:    orders,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder validates the caller's cart against the catalog and, in one
// transaction, reserves stock, records the payment, writes the order and
// empties the cart. Either all of that is committed or none of it is.
//
// The order total is the cart total at commit time while each order line is
// charged the catalog price read inside the transaction. The two disagree
// when a price changed after the line was added; that case is logged.
func (s *CheckoutService) PlaceOrder(ctx context.Context, identity models.Identity, req PlaceOrderRequest) (*models.Order, error) {
	cart, err := s.carts.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	address, err := s.addresses.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != identity.UserID {
		return nil, apperr.New(apperr.ErrAddressNotFound, "address with ID %s not found", req.AddressID)
	}
	if len(cart.Items) == 0 {
		return nil, apperr.New(apperr.ErrEmptyCart, "your cart is empty")
	}
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, insufficientStock(product.Name, line.Quantity, product.Stock)
		}
	}

	var (
		order    *models.Order
		reserved int
	)
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		locked, err := carts.GetByIDForUpdate(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(locked.Items) == 0 {
			return apperr.New(apperr.ErrEmptyCart, "your cart is empty")
		}

		// Reserve in product ID order so that concurrent checkouts take the
		// product row locks in the same sequence.
		byProduct := slices.Clone(locked.Items)
		slices.SortFunc(byProduct, func(a, b models.CartItem) int {
			return strings.Compare(a.ProductID, b.ProductID)
		})
		prices := make(map[string]float64, len(byProduct))
		for _, line := range byProduct {
			ok, err := products.TryDecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			product, err := products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientStock(product.Name, line.Quantity, product.Stock)
			}
			reserved++
			prices[line.ProductID] = product.Price
		}

		items := make([]models.OrderItem, 0, len(locked.Items))
		var charged float64
		for _, line := range locked.Items {
			price := prices[line.ProductID]
			items = append(items, models.OrderItem{
				ProductID:        line.ProductID,
				Quantity:         line.Quantity,
				UnitPriceCharged: price,
			})
			charged += price * float64(line.Quantity)
		}

		if math.Abs(charged-locked.TotalPrice) >= 0.005 {
			s.logger.Warn("order total differs from charged line prices",
				slog.String("cart_id", locked.ID),
				slog.Float64("cart_total", locked.TotalPrice),
				slog.Float64("charged_total", roundMoney(charged)))
		}

		order = &models.Order{
			UserID:      identity.UserID,
			Email:       identity.Email,
			OrderDate:   s.now(),
			AddressID:   address.ID,
			TotalAmount: locked.TotalPrice,
			Status:      models.OrderStatusAccepted,
			Payment: &models.Payment{
				Method:           req.PaymentMethod,
				GatewayName:      req.GatewayName,
				GatewayPaymentID: req.GatewayPaymentID,
				GatewayStatus:    req.GatewayStatus,
				GatewayMessage:   req.GatewayMessage,
			},
			Items: items,
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		return clearCart(ctx, carts, locked.ID)
	})
	if err != nil {
		if reserved > 0 {
			s.logger.Warn("checkout rolled back, stock reservations released",
				slog.String("user_id", identity.UserID),
				slog.Int("reservations", reserved),
				slog.Any("error", err))
		}
		return nil, err
	}

	s.logger.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", identity.UserID),
		slog.Float64("total_amount", order.TotalAmount),
		slog.Int("lines", len(order.Items)))
	s.events.OrderPlaced(order)
	return order, nil
}

func insufficientStock(name string, requested, available int) error {
	return apperr.New(apperr.ErrInsufficientStock,
		"not enough stock for %s (requested %d, available %d)", name, requested, available)
}
