package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals are emitted as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product listed by a seller.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null;check:quantity >= 0"`
	ImageURL    string          `json:"image_url" gorm:"type:varchar(512)"`
	SellerID    uint            `json:"seller_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFields are the seller-editable attributes of a product.
type ProductFields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}
