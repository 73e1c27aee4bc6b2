package services

import (
	"context"
	"log/slog"

	"storefront/internal/models"
	"storefront/internal/pagination"
	"storefront/internal/repositories"
)

// Analytics is the admin dashboard summary.
type Analytics struct {
	ProductCount int64   `json:"productCount"`
	TotalOrders  int64   `json:"totalOrders"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// OrderService handles reads and status changes of placed orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	events      *OrderEvents
	logger      *slog.Logger
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	productRepo repositories.ProductRepository,
	events *OrderEvents,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		events:      events,
		logger:      logger,
	}
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// ListOrders returns one page of all orders.
func (s *OrderService) ListOrders(ctx context.Context, page pagination.Params) (pagination.Page[models.Order], error) {
	return s.list(ctx, repositories.OrderFilter{}, page)
}

// ListOrdersByEmail returns one page of the orders placed under email.
func (s *OrderService) ListOrdersByEmail(ctx context.Context, email string, page pagination.Params) (pagination.Page[models.Order], error) {
	return s.list(ctx, repositories.OrderFilter{Email: email}, page)
}

// ListOrdersByUserID resolves the user's email and lists their orders.
func (s *OrderService) ListOrdersByUserID(ctx context.Context, userID string, page pagination.Params) (pagination.Page[models.Order], error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return s.ListOrdersByEmail(ctx, user.Email, page)
}

func (s *OrderService) list(ctx context.Context, filter repositories.OrderFilter, page pagination.Params) (pagination.Page[models.Order], error) {
	orders, total, err := s.orderRepo.List(ctx, filter, page)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.NewPage(orders, total, page), nil
}

// UpdateOrderStatus sets an order's status verbatim. Any string is accepted
// and no transition graph is enforced.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("order status updated", slog.String("order_id", id), slog.String("status", status))
	s.events.StatusChanged(id, status)
	return s.orderRepo.GetByID(ctx, id)
}

// TotalRevenue sums the totals of all orders.
func (s *OrderService) TotalRevenue(ctx context.Context) (float64, error) {
	return s.orderRepo.TotalRevenue(ctx)
}

// Analytics collects the dashboard counters.
func (s *OrderService) Analytics(ctx context.Context) (*Analytics, error) {
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{ProductCount: products, TotalOrders: orders, TotalRevenue: revenue}, nil
}
