package services

import (
	"context"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/shopspring/decimal"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns every product, or only those of sellerID when it is non-zero.
func (s *ProductService) ListProducts(ctx context.Context, sellerID uint) ([]models.Product, error) {
	if sellerID != 0 {
		return s.repo.GetBySeller(ctx, sellerID)
	}
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct lists a new product owned by sellerID.
func (s *ProductService) CreateProduct(ctx context.Context, sellerID uint, product *models.Product) error {
	if err := validateFields(product.Price, product.Quantity); err != nil {
		return err
	}
	product.ID = 0
	product.SellerID = sellerID
	return s.repo.Create(ctx, product)
}

// UpdateProduct edits a product owned by sellerID.
func (s *ProductService) UpdateProduct(ctx context.Context, id, sellerID uint, fields models.ProductFields) (*models.Product, error) {
	if err := validateFields(fields.Price, fields.Quantity); err != nil {
		return nil, err
	}
	return s.repo.UpdateOwned(ctx, id, sellerID, fields)
}

// CheckAvailability reports whether quantity units of a product are in stock.
// It does not reserve anything; stock only changes when an order is placed.
func (s *ProductService) CheckAvailability(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, apperror.Invalid("quantity", "must be greater than 0")
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Quantity < quantity {
		return nil, apperror.Invalid("quantity", "not enough stock for product %d (requested: %d, available: %d)",
			id, quantity, product.Quantity)
	}
	return product, nil
}

func validateFields(price decimal.Decimal, quantity int) error {
	if err := validatePrice("price", price); err != nil {
		return err
	}
	if quantity < 0 {
		return apperror.Invalid("quantity", "must not be negative")
	}
	return nil
}

// validatePrice rejects amounts the decimal(12,2) columns cannot store exactly.
func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.Invalid(field, "must not be negative")
	}
	if !price.Equal(price.Truncate(2)) {
		return apperror.Invalid(field, "must have at most 2 decimal places")
	}
	return nil
}
