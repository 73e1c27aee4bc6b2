package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/testutil"
	"storefront/pkg/logging"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stack wires the real repositories over a private SQLite database.
type stack struct {
	db        *gorm.DB
	carts     *repositories.GORMCartRepository
	products  *repositories.GORMProductRepository
	orders    *repositories.GORMOrderRepository
	addresses *repositories.GORMAddressRepository
	cart      *services.CartService
	catalog   *services.ProductService
	checkout  *services.CheckoutService
}

func newStack(t *testing.T, events *services.OrderEvents) *stack {
	t.Helper()
	db := testutil.NewDB(t)
	s := &stack{
		db:        db,
		carts:     repositories.NewGORMCartRepository(db),
		products:  repositories.NewGORMProductRepository(db),
		orders:    repositories.NewGORMOrderRepository(db),
		addresses: repositories.NewGORMAddressRepository(db),
	}
	tx := repositories.NewGORMTransactor(db)
	s.cart = services.NewCartService(tx, s.carts, s.products, logging.Discard())
	s.catalog = services.NewProductService(tx, s.products, s.cart, logging.Discard())
	s.checkout = services.NewCheckoutService(tx, s.carts, s.products, s.addresses, s.orders, events, logging.Discard())
	return s
}

func (s *stack) address(t *testing.T, userID string) string {
	t.Helper()
	a := &models.Address{UserID: userID, Street: "12 Harbour Road", City: "Pune", Country: "India"}
	require.NoError(t, s.addresses.Create(context.Background(), a))
	return a.ID
}

func (s *stack) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

// requireConsistent asserts that the stored total equals the sum of line subtotals.
func requireConsistent(t *testing.T, cart *models.Cart) {
	t.Helper()
	require.InDelta(t, cart.ItemsTotal(), cart.TotalPrice, 1e-9)
}

func identity(userID string) models.Identity {
	return models.Identity{UserID: userID, Email: userID + "@example.com", Role: models.RoleUser}
}

func placeOrderRequest(addressID string) services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		AddressID:        addressID,
		PaymentMethod:    "card",
		GatewayName:      "stripe",
		GatewayPaymentID: "pi_123",
		GatewayStatus:    "succeeded",
		GatewayMessage:   "Payment successful",
	}
}
