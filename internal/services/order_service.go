package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderCreatedRoutingKey identifies order creation events on every backend.
const OrderCreatedRoutingKey = "order.created"

// EventPublisher delivers serialized domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, body []byte) error
}

// IdempotencyGuard remembers submission keys for a limited time.
type IdempotencyGuard interface {
	// Reserve returns false when key was already reserved.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// PlaceOrderInput is a checkout request.
type PlaceOrderInput struct {
	UserID uint
	Lines  []models.CartLine
	// TotalAmount is the client-computed total; nil skips the comparison.
	TotalAmount *decimal.Decimal
	// IdempotencyKey deduplicates resubmissions when a guard is configured.
	IdempotencyKey string
}

// OrderCreatedEvent is published after an order commits.
type OrderCreatedEvent struct {
	OrderID   uint             `json:"orderID"`
	UserID    uint             `json:"userID"`
	Status    string           `json:"status"`
	Total     decimal.Decimal  `json:"total"`
	Items     []OrderEventItem `json:"items"`
	CreatedAt time.Time        `json:"createdAt"`
}

// OrderEventItem is one line of an OrderCreatedEvent.
type OrderEventItem struct {
	ProductID uint            `json:"productID"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	tx        repositories.Transactor
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	guard     IdempotencyGuard
}

// NewOrderService creates a new OrderService. publisher and guard may be nil.
func NewOrderService(tx repositories.Transactor, orderRepo repositories.OrderRepository, publisher EventPublisher, guard IdempotencyGuard) *OrderService {
	return &OrderService{
		tx:        tx,
		orderRepo: orderRepo,
		publisher: publisher,
		guard:     guard,
	}
}

// ListOrders returns the order history of a user, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]models.OrderHistory, error) {
	return s.orderRepo.ListForUser(ctx, userID)
}

// PlaceOrder records an order and decrements stock for every line in one
// transaction. Either everything is committed or nothing is.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	total, err := validateCart(in.Lines)
	if err != nil {
		return nil, err
	}
	if in.TotalAmount != nil && !in.TotalAmount.Equal(total) {
		return nil, apperror.Invalid("totalAmount", "submitted total %s does not match computed total %s",
			in.TotalAmount.String(), total.String())
	}

	guardKey := ""
	if s.guard != nil && in.IdempotencyKey != "" {
		guardKey = fmt.Sprintf("idempotency:%d:%s", in.UserID, in.IdempotencyKey)
		ok, err := s.guard.Reserve(ctx, guardKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("idempotency key %q already used: %w", in.IdempotencyKey, apperror.ErrDuplicateSubmission)
		}
	}

	order := &models.Order{
		UserID:      in.UserID,
		TotalAmount: total,
		Status:      models.OrderStatusPending,
	}

	err = s.tx.InTransaction(ctx, func(tx repositories.Tx) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		items := make([]models.OrderItem, 0, len(in.Lines))
		for _, line := range in.Lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if err := tx.Orders.AddItem(ctx, &item); err != nil {
				return err
			}
			if err := tx.Products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			items = append(items, item)
		}
		order.Items = items
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint("user_id", in.UserID).Msg("order rolled back")
		if guardKey != "" {
			if releaseErr := s.guard.Release(ctx, guardKey); releaseErr != nil {
				log.Error().Err(releaseErr).Str("key", guardKey).Msg("failed to release idempotency key")
			}
		}
		return nil, &apperror.OrderFailedError{Cause: err}
	}

	log.Info().Uint("order_id", order.ID).Uint("user_id", order.UserID).
		Str("total", order.TotalAmount.StringFixed(2)).Int("lines", len(order.Items)).Msg("order placed")

	s.publishOrderCreated(ctx, order)
	return order, nil
}

// validateCart checks every line and returns the computed total.
func validateCart(lines []models.CartLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, apperror.Invalid("items", "at least one item is required")
	}
	total := decimal.Zero
	for i, line := range lines {
		if line.ProductID == 0 {
			return decimal.Zero, apperror.Invalid(fmt.Sprintf("items[%d].id", i), "is required")
		}
		if line.Quantity <= 0 {
			return decimal.Zero, apperror.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
		if err := validatePrice(fmt.Sprintf("items[%d].price", i), line.Price); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// publishOrderCreated never fails the order: the commit already happened.
func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		log.Debug().Uint("order_id", order.ID).Msg("no event publisher configured, skipping order event")
		return
	}

	event := OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.TotalAmount,
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Uint("order_id", order.ID).Msg("failed to marshal order event")
		return
	}
	if err := s.publisher.Publish(ctx, OrderCreatedRoutingKey, body); err != nil {
		log.Warn().Err(err).Uint("order_id", order.ID).Msg("failed to publish order created event")
		return
	}
	log.Debug().Uint("order_id", order.ID).Msg("published order created event")
}

// HandleOrderEvent decodes an event received by the worker and logs it.
func HandleOrderEvent(key string, body []byte) error {
	if key != "" && key != OrderCreatedRoutingKey {
		return fmt.Errorf("unknown order event %q", key)
	}
	var event OrderCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.OrderID == 0 {
		return errors.New("order event without order id")
	}
	log.Info().
		Uint("order_id", event.OrderID).
		Uint("user_id", event.UserID).
		Str("total", event.Total.StringFixed(2)).
		Int("lines", len(event.Items)).
		Msg("order created event received")
	return nil
}
