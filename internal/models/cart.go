package models

import "time"

// Cart is the single active shopping cart of a user.
// TotalPrice always equals the sum of its items' subtotals.
type Cart struct {
	ID         string     `json:"cartId" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"userId" gorm:"type:varchar(36);uniqueIndex;not null"`
	TotalPrice float64    `json:"totalPrice" gorm:"not null;default:0"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

// CartItem is one product line of a cart. UnitPrice is the catalog price
// captured when the line was created or last adjusted.
type CartItem struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	CartID    string    `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice float64   `json:"unitPrice" gorm:"not null"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Subtotal is UnitPrice × Quantity.
func (i CartItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Item returns the line holding productID.
func (c *Cart) Item(productID string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// ItemsTotal recomputes the total from the lines.
func (c *Cart) ItemsTotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}
