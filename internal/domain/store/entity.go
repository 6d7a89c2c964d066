// internal/domain/store/entity.go
package store

import (
	"time"

	"gorm.io/gorm"
)

// Store represents a supplier's storefront
type Store struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	LogoURL     string         `gorm:"size:500" json:"logo_url"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for Store
func (Store) TableName() string {
	return "stores"
}

// Patch carries optional field updates for a store. Nil fields are
// left untouched by the persistence layer.
type Patch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
	IsActive    *bool   `json:"is_active"`
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
	if p.LogoURL != nil {
		columns["logo_url"] = *p.LogoURL
	}
	if p.IsActive != nil {
		columns["is_active"] = *p.IsActive
	}
	return columns
}

// StoreDetails is the public read model for a store
type StoreDetails struct {
	Store        Store `json:"store"`
	ProductCount int64 `json:"product_count"`
	OrderCount   int64 `json:"order_count"`
}

// TopStore is one row of the top-stores ranking
type TopStore struct {
	StoreID    uint   `json:"store_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	OrderCount int64  `json:"order_count"`
	Revenue    int64  `json:"revenue"`
}
