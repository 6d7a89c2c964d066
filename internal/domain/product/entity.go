// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product listed by a store
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	StoreID       uint           `gorm:"not null;index" json:"store_id"`
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null" json:"price"` // Price in cents
	SalePrice     *int64         `json:"sale_price"`            // Discounted price, must be < Price
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string         `gorm:"size:500" json:"image_url"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	IsFeatured    bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
	Reviews  []Review `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reviews,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Review represents a customer review. One review per user per product.
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index:idx_reviews_product_user,unique" json:"product_id"`
	UserID    uint           `gorm:"not null;index:idx_reviews_product_user,unique" json:"user_id"`
	Rating    int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string         `gorm:"type:text" json:"comment"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }
func (Review) TableName() string   { return "reviews" }

// EffectivePrice returns the sale price when set, otherwise the list price
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

// IsInStock reports whether any units are available
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// IsOnSale reports whether a valid sale price is set
func (p *Product) IsOnSale() bool {
	return p.SalePrice != nil && *p.SalePrice > 0 && *p.SalePrice < p.Price
}

// Patch carries optional field updates for a product. Nil fields are
// left untouched by the persistence layer.
type Patch struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	SalePrice     *int64  `json:"sale_price"`
	CategoryID    *uint   `json:"category_id"`
	StockQuantity *int    `json:"stock_quantity"`
	ImageURL      *string `json:"image_url"`
	IsActive      *bool   `json:"is_active"`
	IsFeatured    *bool   `json:"is_featured"`
}

// Columns translates the patch into a column assignment map
func (p Patch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Description != nil {
		columns["description"] = *p.Description
	}
	if p.Price != nil {
		columns["price"] = *p.Price
	}
	if p.SalePrice != nil {
		columns["sale_price"] = *p.SalePrice
	}
	if p.CategoryID != nil {
		columns["category_id"] = *p.CategoryID
	}
	if p.StockQuantity != nil {
		columns["stock_quantity"] = *p.StockQuantity
	}
	if p.ImageURL != nil {
		columns["image_url"] = *p.ImageURL
	}
	if p.IsActive != nil {
		columns["is_active"] = *p.IsActive
	}
	if p.IsFeatured != nil {
		columns["is_featured"] = *p.IsFeatured
	}
	return columns
}

// RatingSummary aggregates review scores for a product
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
