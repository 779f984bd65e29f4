package services_test

import (
	"context"
	"fmt"
	"testing"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	all := []models.Product{
		{ID: 1, Name: "Product A", Price: decimal.RequireFromString("10.00"), Quantity: 100, SellerID: 2},
		{ID: 2, Name: "Product B", Price: decimal.RequireFromString("20.00"), Quantity: 50, SellerID: 3},
	}
	mockRepo.On("GetAll", ctx).Return(all, nil).Once()
	mockRepo.On("GetBySeller", ctx, uint(3)).Return(all[1:], nil).Once()

	products, err := service.ListProducts(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = service.ListProducts(ctx, 3)
	assert.NoError(t, err)
	assert.Equal(t, all[1:], products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProduct := &models.Product{ID: 1, Name: "Product A", Price: decimal.NewFromInt(10), Quantity: 100}

	// Test successful retrieval
	mockRepo.On("GetByID", ctx, uint(1)).Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	mockRepo.On("GetByID", ctx, uint(99)).Return(nil, fmt.Errorf("product 99: %w", apperror.ErrNotFound)).Once()
	product, err = service.GetProductByID(ctx, 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("owner comes from the caller", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo)

		newProduct := &models.Product{ID: 55, Name: "New Product", Price: decimal.RequireFromString("49.99"), Quantity: 20, SellerID: 999}
		mockRepo.On("Create", ctx, newProduct).Return(nil).Once()

		err := service.CreateProduct(ctx, 4, newProduct)
		require.NoError(t, err)
		assert.Equal(t, uint(4), newProduct.SellerID)
		assert.Zero(t, newProduct.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects negative values", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo)

		err := service.CreateProduct(ctx, 4, &models.Product{Name: "Bad", Price: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, apperror.ErrValidation)

		err = service.CreateProduct(ctx, 4, &models.Product{Name: "Bad", Quantity: -3})
		assert.ErrorIs(t, err, apperror.ErrValidation)

		err = service.CreateProduct(ctx, 4, &models.Product{Name: "Bad", Price: decimal.RequireFromString("9.999")})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, err.Error(), "2 decimal places")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo)

		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(fmt.Errorf("database error")).Once()
		err := service.CreateProduct(ctx, 4, &models.Product{Name: "Fine"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database error")
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	fields := models.ProductFields{Name: "Renamed", Price: decimal.RequireFromString("12.50"), Quantity: 8}
	updated := &models.Product{ID: 1, Name: "Renamed", Price: fields.Price, Quantity: 8, SellerID: 2}

	mockRepo.On("UpdateOwned", ctx, uint(1), uint(2), fields).Return(updated, nil).Once()
	mockRepo.On("UpdateOwned", ctx, uint(1), uint(3), fields).Return(nil, apperror.ErrNotFound).Once()

	product, err := service.UpdateProduct(ctx, 1, 2, fields)
	assert.NoError(t, err)
	assert.Equal(t, updated, product)

	// Another seller's product is indistinguishable from a missing one.
	_, err = service.UpdateProduct(ctx, 1, 3, fields)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = service.UpdateProduct(ctx, 1, 2, models.ProductFields{Name: "x", Quantity: -1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = service.UpdateProduct(ctx, 1, 2, models.ProductFields{Name: "x", Price: decimal.RequireFromString("0.005")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetByID", ctx, uint(1)).Return(&models.Product{ID: 1, Quantity: 5}, nil)

	product, err := service.CheckAvailability(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Quantity)

	_, err = service.CheckAvailability(ctx, 1, 6)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "not enough stock")

	_, err = service.CheckAvailability(ctx, 1, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	mockRepo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}
