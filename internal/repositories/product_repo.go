package repositories

import (
	"context"

	"marketplace/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetBySeller(ctx context.Context, sellerID uint) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	UpdateOwned(ctx context.Context, id, sellerID uint, fields models.ProductFields) (*models.Product, error)
	// DecrementStock atomically lowers the quantity of a product.
	// It never lets the quantity go negative.
	DecrementStock(ctx context.Context, productID uint, amount int) error
}
