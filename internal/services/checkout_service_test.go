package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/testutil"
	"storefront/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCheckout_WorkedExample(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	testutil.SeedProducts(t, s.db,
		models.Product{ID: "P101", Name: "Desk Lamp", Price: 20, Stock: 5},
		models.Product{ID: "P202", Name: "Coffee Mug", Price: 5.5, Stock: 3},
	)
	addressID := s.address(t, "user-1")

	_, err := s.cart.AddItem(ctx, "user-1", "P101", 2)
	require.NoError(t, err)
	cart, err := s.cart.AddItem(ctx, "user-1", "P202", 3)
	require.NoError(t, err)
	assert.InDelta(t, 56.5, cart.TotalPrice, 1e-9)

	cart, err = s.cart.AdjustItem(ctx, "user-1", "P101", -1)
	require.NoError(t, err)
	assert.InDelta(t, 36.5, cart.TotalPrice, 1e-9)

	order, err := s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.NoError(t, err)

	assert.InDelta(t, 36.5, order.TotalAmount, 1e-9)
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	assert.Equal(t, "user-1@example.com", order.Email)
	assert.Equal(t, addressID, order.AddressID)
	assert.Equal(t, 4, testutil.Stock(t, s.db, "P101"))
	assert.Equal(t, 0, testutil.Stock(t, s.db, "P202"))

	after, err := s.cart.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, after.Items)
	assert.Zero(t, after.TotalPrice)
}

func TestCheckout_RoundTripMatchesCartLines(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")

	_, err := s.cart.AddItem(ctx, "user-1", "P202", 1)
	require.NoError(t, err)
	cart, err := s.cart.AddItem(ctx, "user-1", "P101", 3)
	require.NoError(t, err)

	order, err := s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.NoError(t, err)

	stored, err := s.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, len(cart.Items))
	for i, line := range cart.Items {
		assert.Equal(t, line.ProductID, stored.Items[i].ProductID)
		assert.Equal(t, line.Quantity, stored.Items[i].Quantity)
		assert.Equal(t, line.UnitPrice, stored.Items[i].UnitPriceCharged)
	}
	require.NotNil(t, stored.Payment)
	assert.Equal(t, "card", stored.Payment.Method)
	assert.Equal(t, "stripe", stored.Payment.GatewayName)
	assert.Equal(t, "pi_123", stored.Payment.GatewayPaymentID)
	assert.Equal(t, "succeeded", stored.Payment.GatewayStatus)
	assert.Equal(t, "Payment successful", stored.Payment.GatewayMessage)

	body, err := json.Marshal(stored)
	require.NoError(t, err)
	var shape map[string]any
	require.NoError(t, json.Unmarshal(body, &shape))
	for _, key := range []string{"orderId", "email", "orderDate", "addressId", "totalAmount", "orderStatus", "payment", "items"} {
		assert.Contains(t, shape, key)
	}
	assert.NotContains(t, shape, "userId")
}

func TestCheckout_EmptyCartChangesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")

	_, err := s.cart.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.Zero(t, s.count(t, &models.Order{}))
	assert.Zero(t, s.count(t, &models.Payment{}))
	assert.Equal(t, 5, testutil.Stock(t, s.db, "P101"))
}

func TestCheckout_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")
	otherAddress := s.address(t, "user-2")

	_, err := s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	assert.ErrorIs(t, err, apperr.ErrCartNotFound)

	_, err = s.cart.AddItem(ctx, "user-1", "P202", 3)
	require.NoError(t, err)

	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest("missing"))
	assert.ErrorIs(t, err, apperr.ErrAddressNotFound)

	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(otherAddress))
	assert.ErrorIs(t, err, apperr.ErrAddressNotFound)

	// Someone else bought the mugs after they were added.
	require.NoError(t, s.db.Model(&models.Product{}).Where("id = ?", "P202").Update("stock", 2).Error)
	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Coffee Mug")

	assert.Zero(t, s.count(t, &models.Order{}))
	assert.Equal(t, 2, testutil.Stock(t, s.db, "P202"))
	cart, err := s.cart.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "a rejected checkout keeps the cart")
}

func TestCheckout_ConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	testutil.SeedProducts(t, s.db, models.Product{ID: "P101", Name: "Desk Lamp", Price: 20, Stock: 3})

	users := []string{"user-1", "user-2"}
	addresses := map[string]string{}
	for _, u := range users {
		addresses[u] = s.address(t, u)
		_, err := s.cart.AddItem(ctx, u, "P101", 2)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = s.checkout.PlaceOrder(ctx, identity(u), placeOrderRequest(addresses[u]))
		}(i, u)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, testutil.Stock(t, s.db, "P101"))
	assert.Equal(t, int64(1), s.count(t, &models.Order{}))
}

func TestCheckout_ConcurrentOrdersWithinStockAllSucceed(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	testutil.SeedProducts(t, s.db, models.Product{ID: "P101", Name: "Desk Lamp", Price: 20, Stock: 4})

	users := []string{"user-1", "user-2"}
	addresses := map[string]string{}
	for _, u := range users {
		addresses[u] = s.address(t, u)
		_, err := s.cart.AddItem(ctx, u, "P101", 2)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := s.checkout.PlaceOrder(ctx, identity(u), placeOrderRequest(addresses[u]))
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 0, testutil.Stock(t, s.db, "P101"))
	assert.Equal(t, int64(2), s.count(t, &models.Order{}))
}

func TestCheckout_CartsListingProductsInOppositeOrder(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	testutil.SeedProducts(t, s.db,
		models.Product{ID: "P101", Name: "Desk Lamp", Price: 20, Stock: 2},
		models.Product{ID: "P202", Name: "Coffee Mug", Price: 5.5, Stock: 2},
	)

	lines := map[string][]string{
		"user-1": {"P101", "P202"},
		"user-2": {"P202", "P101"},
	}
	addresses := map[string]string{}
	for u, products := range lines {
		addresses[u] = s.address(t, u)
		for _, id := range products {
			_, err := s.cart.AddItem(ctx, u, id, 1)
			require.NoError(t, err)
		}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed = map[string]*models.Order{}
	)
	for u := range lines {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			order, err := s.checkout.PlaceOrder(ctx, identity(u), placeOrderRequest(addresses[u]))
			if assert.NoError(t, err) {
				mu.Lock()
				placed[u] = order
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 0, testutil.Stock(t, s.db, "P101"))
	assert.Equal(t, 0, testutil.Stock(t, s.db, "P202"))

	// Order lines keep the cart's order and prices.
	for u, products := range lines {
		order := placed[u]
		require.NotNil(t, order, u)
		require.Len(t, order.Items, 2)
		assert.Equal(t, products, []string{order.Items[0].ProductID, order.Items[1].ProductID})
		assert.InDelta(t, 25.5, order.TotalAmount, 1e-9)
	}
	second := placed["user-2"]
	assert.Equal(t, 5.5, second.Items[0].UnitPriceCharged)
	assert.Equal(t, 20.0, second.Items[1].UnitPriceCharged)
}

func TestCheckout_StorageFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")

	_, err := s.cart.AddItem(ctx, "user-1", "P101", 2)
	require.NoError(t, err)
	_, err = s.cart.AddItem(ctx, "user-1", "P202", 1)
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	require.NoError(t, s.db.Callback().Create().Before("gorm:create").Register("test:fail_orders", func(tx *gorm.DB) {
		if tx.Statement.Table == "orders" {
			_ = tx.AddError(diskFull)
		}
	}))

	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, diskFull)

	assert.Equal(t, 5, testutil.Stock(t, s.db, "P101"), "stock reservation must be released")
	assert.Equal(t, 3, testutil.Stock(t, s.db, "P202"))
	assert.Zero(t, s.count(t, &models.Order{}))
	assert.Zero(t, s.count(t, &models.Payment{}))
	assert.Zero(t, s.count(t, &models.OrderItem{}))

	cart, err := s.cart.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.InDelta(t, 45.5, cart.TotalPrice, 1e-9)

	// The same call succeeds once storage recovers.
	require.NoError(t, s.db.Callback().Create().Remove("test:fail_orders"))
	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.NoError(t, err)
	assert.Equal(t, 3, testutil.Stock(t, s.db, "P101"))
}

// The order total is the cart total while each line is charged the catalog
// price read at commit. A price change between add and checkout makes them
// disagree.
func TestCheckout_PriceChangeBetweenAddAndCheckout(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")

	_, err := s.cart.AddItem(ctx, "user-1", "P101", 2)
	require.NoError(t, err)
	require.NoError(t, s.db.Model(&models.Product{}).Where("id = ?", "P101").Update("price", 25).Error)

	order, err := s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.NoError(t, err)

	assert.InDelta(t, 40.0, order.TotalAmount, 1e-9, "total is frozen from the cart")
	require.Len(t, order.Items, 1)
	assert.Equal(t, 25.0, order.Items[0].UnitPriceCharged, "line is charged the current catalog price")
}

func TestCheckout_PublishesOrderPlaced(t *testing.T) {
	ctx := context.Background()
	publisher := new(MockPublisher)
	s := newStack(t, services.NewOrderEvents(publisher, "orders", logging.Discard()))
	seedCatalog(t, s)
	addressID := s.address(t, "user-1")

	_, err := s.cart.AddItem(ctx, "user-1", "P101", 1)
	require.NoError(t, err)

	publisher.On("Publish", "orders", services.RoutingKeyOrderPlaced, mock.MatchedBy(func(body []byte) bool {
		var event services.OrderPlacedEvent
		return json.Unmarshal(body, &event) == nil && event.UserID == "user-1" && len(event.Items) == 1
	})).Return(errors.New("broker unavailable")).Once()

	order, err := s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	require.NoError(t, err, "a failed publish never undoes the order")
	assert.NotEmpty(t, order.ID)
	publisher.AssertExpectations(t)

	// Failed checkouts publish nothing.
	_, err = s.checkout.PlaceOrder(ctx, identity("user-1"), placeOrderRequest(addressID))
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
