package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"storefront/internal/models"
)

// Routing keys of the order events.
const (
	RoutingKeyOrderPlaced        = "order.placed"
	RoutingKeyOrderStatusChanged = "order.status_changed"
)

// EventPublisher delivers a message to a broker exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderPlacedEvent is published once an order has been committed.
type OrderPlacedEvent struct {
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Email       string             `json:"email"`
	TotalAmount float64            `json:"totalAmount"`
	Status      string             `json:"orderStatus"`
	Items       []models.OrderItem `json:"items"`
	PlacedAt    time.Time          `json:"placedAt"`
}

// OrderStatusChangedEvent is published after an admin changes an order's status.
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"orderStatus"`
	ChangedAt time.Time `json:"changedAt"`
}

// OrderEvents publishes order events after the fact. Publishing is best
// effort: a failure is logged and never undoes the committed change.
// A nil *OrderEvents or one without a publisher drops every event.
type OrderEvents struct {
	publisher EventPublisher
	exchange  string
	logger    *slog.Logger
}

// NewOrderEvents creates a new OrderEvents.
func NewOrderEvents(publisher EventPublisher, exchange string, logger *slog.Logger) *OrderEvents {
	return &OrderEvents{publisher: publisher, exchange: exchange, logger: logger}
}

// OrderPlaced announces a freshly committed order.
func (e *OrderEvents) OrderPlaced(order *models.Order) {
	e.publish(RoutingKeyOrderPlaced, order.ID, OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Items:       order.Items,
		PlacedAt:    order.OrderDate,
	})
}

// StatusChanged announces a status update.
func (e *OrderEvents) StatusChanged(orderID, status string) {
	e.publish(RoutingKeyOrderStatusChanged, orderID, OrderStatusChangedEvent{
		OrderID:   orderID,
		Status:    status,
		ChangedAt: time.Now().UTC(),
	})
}

func (e *OrderEvents) publish(routingKey, orderID string, event any) {
	if e == nil || e.publisher == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("failed to marshal order event", slog.String("routing_key", routingKey), slog.Any("error", err))
		return
	}
	if err := e.publisher.Publish(e.exchange, routingKey, body); err != nil {
		e.logger.Warn("failed to publish order event",
			slog.String("routing_key", routingKey),
			slog.String("order_id", orderID),
			slog.Any("error", err))
		return
	}
	e.logger.Debug("order event published", slog.String("routing_key", routingKey), slog.String("order_id", orderID))
}
