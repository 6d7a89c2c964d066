// internal/domain/cart/entity.go
package cart

import (
	"time"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/domain/product"
)

// Cart is the per-user staging list, created lazily on first access
type Cart struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is one (product, quantity) line of a cart. Re-adding a
// product merges into the existing row; quantity is always positive.
// Removal deletes the row outright so the (cart, product) key is free
// for a later re-add.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"cart_id"`
	ProductID uint      `gorm:"not null;index:idx_cart_items_cart_product,unique" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Product product.Product `gorm:"foreignKey:ProductID" json:"product"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// CartItemResponse is one priced line of the cart read model
type CartItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice int64            `json:"unit_price"` // Effective price at read time
	LineTotal int64            `json:"line_total"`
	Product   *product.Product `json:"product,omitempty"`
}

// CartResponse is the cart read model with derived totals
type CartResponse struct {
	CartID uint               `json:"cart_id"`
	Items  []CartItemResponse `json:"items"`
	Totals CartTotals         `json:"totals"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique items
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`      // In cents
}
