package handlers

import (
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader lets clients safely retry a checkout.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes. Any authenticated user may order.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guard middleware.Guard) {
	orderRoutes := router.Group("/orders", guard())
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
}

// OrderItemRequest is one cart line.
type OrderItemRequest struct {
	ID       uint            `json:"id" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price" validate:"dgte0"`
}

// CreateOrderRequest is the checkout body.
type CreateOrderRequest struct {
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount *decimal.Decimal   `json:"totalAmount"`
}

// HandleGetOrders returns the caller's order history.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	claim, err := currentClaim(c)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	orders, err := h.service.ListOrders(c.UserContext(), claim.SubjectID)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	claim, err := currentClaim(c)
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	var req CreateOrderRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	lines := make([]models.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, models.CartLine{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order, err := h.service.PlaceOrder(c.UserContext(), services.PlaceOrderInput{
		UserID:         claim.SubjectID,
		Lines:          lines,
		TotalAmount:    req.TotalAmount,
		IdempotencyKey: c.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return respondError(c, "Failed to create order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"orderId": order.ID,
		"order":   order,
	})
}
