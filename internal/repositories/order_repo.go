package repositories

import (
	"context"

	"marketplace/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	ListForUser(ctx context.Context, userID uint) ([]models.OrderHistory, error)
}

// Tx exposes the repositories bound to one database transaction.
type Tx struct {
	Orders   OrderRepository
	Products ProductRepository
}

// Transactor runs a function inside a single atomic transaction.
// A non-nil error from fn rolls back every write made through tx.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(tx Tx) error) error
}
