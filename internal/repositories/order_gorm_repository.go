package repositories

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
// db may be bound to a transaction.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create inserts the order row only; items are added one by one with AddItem.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// AddItem inserts one order line.
func (r *GORMOrderRepository) AddItem(ctx context.Context, item *models.OrderItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to add item for product %d to order %d: %w", item.ProductID, item.OrderID, err)
	}
	return nil
}

type orderHistoryRow struct {
	OrderID     uint
	TotalAmount decimal.Decimal
	Status      string
	CreatedAt   time.Time
	ProductID   uint
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// ListForUser returns the orders of a user, newest first, with their lines
// joined to product names.
func (r *GORMOrderRepository) ListForUser(ctx context.Context, userID uint) ([]models.OrderHistory, error) {
	var rows []orderHistoryRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.id AS order_id, orders.total_amount, orders.status, orders.created_at, " +
			"order_items.product_id, products.name AS product_name, order_items.quantity, order_items.price").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.user_id = ?", userID).
		Order("orders.created_at DESC, orders.id DESC, order_items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", userID, err)
	}

	history := make([]models.OrderHistory, 0)
	index := make(map[uint]int)
	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			i = len(history)
			index[row.OrderID] = i
			history = append(history, models.OrderHistory{
				ID:          row.OrderID,
				TotalAmount: row.TotalAmount,
				Status:      row.Status,
				CreatedAt:   row.CreatedAt,
			})
		}
		history[i].Items = append(history[i].Items, models.OrderHistoryItem{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			Price:       row.Price,
		})
	}
	return history, nil
}

// GORMTransactor implements Transactor on top of gorm's Transaction helper.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// InTransaction commits when fn returns nil and rolls back otherwise.
func (t *GORMTransactor) InTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Tx{
			Orders:   NewGORMOrderRepository(tx),
			Products: NewGORMProductRepository(tx),
		})
	})
}
