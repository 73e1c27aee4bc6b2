package models

import "time"

// Order statuses. Accepted is assigned at checkout; the others are set by admins.
const (
	OrderStatusAccepted   = "Accepted"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Order is the immutable snapshot of a cart taken at checkout.
// Status is the only field changed after creation.
type Order struct {
	ID          string      `json:"orderId" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"-" gorm:"type:varchar(36);index;not null"`
	Email       string      `json:"email" gorm:"type:varchar(255);index;not null"`
	OrderDate   time.Time   `json:"orderDate" gorm:"not null"`
	AddressID   string      `json:"addressId" gorm:"type:varchar(36);not null"`
	TotalAmount float64     `json:"totalAmount" gorm:"not null"`
	Status      string      `json:"orderStatus" gorm:"type:varchar(32);not null"`
	PaymentID   string      `json:"-" gorm:"type:varchar(36);uniqueIndex;not null"`
	Payment     *Payment    `json:"payment" gorm:"foreignKey:PaymentID"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`
}

// OrderItem is a frozen copy of a cart line. UnitPriceCharged is the catalog
// price read while the order was committed.
type OrderItem struct {
	ID               uint    `json:"-" gorm:"primaryKey"`
	OrderID          string  `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID        string  `json:"productId" gorm:"type:varchar(36);not null"`
	Quantity         int     `json:"quantity" gorm:"not null"`
	UnitPriceCharged float64 `json:"unitPriceCharged" gorm:"not null"`
}

// Payment records what the payment gateway reported for an order.
type Payment struct {
	ID               string    `json:"paymentId" gorm:"primaryKey;type:varchar(36)"`
	Method           string    `json:"method" gorm:"type:varchar(50);not null"`
	GatewayName      string    `json:"gatewayName" gorm:"type:varchar(100)"`
	GatewayPaymentID string    `json:"gatewayPaymentId" gorm:"type:varchar(255)"`
	GatewayStatus    string    `json:"gatewayStatus" gorm:"type:varchar(50)"`
	GatewayMessage   string    `json:"gatewayMessage"`
	CreatedAt        time.Time `json:"-"`
}
