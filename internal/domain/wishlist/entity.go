// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/domain/product"
)

// Wishlist is the per-user saved-product list, created lazily on first
// access. Structurally a cart minus quantity and pricing.
type Wishlist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// WishlistItem is a saved product reference. Removal deletes the row
// outright so the (wishlist, product) key is free for a later re-add.
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WishlistID uint      `gorm:"not null;index:idx_wishlist_items_list_product,unique" json:"wishlist_id"`
	ProductID  uint      `gorm:"not null;index:idx_wishlist_items_list_product,unique" json:"product_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Product product.Product `gorm:"foreignKey:ProductID" json:"product"`
}

// TableName overrides
func (Wishlist) TableName() string     { return "wishlists" }
func (WishlistItem) TableName() string { return "wishlist_items" }
