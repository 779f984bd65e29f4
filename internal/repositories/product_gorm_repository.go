package repositories

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/apperror"
	"marketplace/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// db may be bound to a transaction.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetBySeller retrieves the products listed by one seller.
func (r *GORMProductRepository) GetBySeller(ctx context.Context, sellerID uint) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products of seller %d: %w", sellerID, err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateOwned updates the editable fields of a product owned by sellerID.
// A product that is absent or owned by someone else yields apperror.ErrNotFound.
func (r *GORMProductRepository) UpdateOwned(ctx context.Context, id, sellerID uint, fields models.ProductFields) (*models.Product, error) {
	db := r.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, "id = ? AND seller_id = ?", id, sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d not found or does not belong to seller %d: %w", id, sellerID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}

	// Select forces zero values (quantity 0, empty description) to be written.
	res := db.Model(&product).
		Select("Name", "Description", "Price", "Quantity").
		Updates(models.Product{
			Name:        fields.Name,
			Description: fields.Description,
			Price:       fields.Price,
			Quantity:    fields.Quantity,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, res.Error)
	}

	product.Name = fields.Name
	product.Description = fields.Description
	product.Price = fields.Price
	product.Quantity = fields.Quantity
	return &product, nil
}

// DecrementStock lowers the quantity of a product by amount with a single
// conditional UPDATE, so concurrent callers can never drive it negative.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, productID uint, amount int) error {
	if amount <= 0 {
		return apperror.Invalid("quantity", "must be greater than 0")
	}
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock of product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product %d: %w", productID, err)
	}
	if count == 0 {
		return fmt.Errorf("product with ID %d: %w", productID, apperror.ErrNotFound)
	}
	return fmt.Errorf("product %d (requested %d): %w", productID, amount, apperror.ErrInsufficientStock)
}
