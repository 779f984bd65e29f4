package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending is the status of every freshly placed order.
const OrderStatusPending = "pending"

// Order represents a placed order.
type Order struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"not null;index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Status      string          `json:"status" gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	Items       []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is a line of an order. Price is a snapshot taken at purchase time.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
}

// CartLine is one submitted line of a checkout.
type CartLine struct {
	ProductID uint
	Quantity  int
	Price     decimal.Decimal
}

// OrderHistoryItem is an order line joined to its product name.
type OrderHistoryItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderHistory is an order with its lines, as shown to the shopper.
type OrderHistory struct {
	ID          uint               `json:"id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []OrderHistoryItem `json:"items"`
}
