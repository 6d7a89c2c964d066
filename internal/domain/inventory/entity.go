// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementReason classifies why a product's stock changed
type MovementReason string

const (
	ReasonOrder        MovementReason = "order"
	ReasonCancellation MovementReason = "cancellation"
	ReasonAdjustment   MovementReason = "manual_adjustment"
	ReasonRestock      MovementReason = "restock"
)

// StockMovement is an append-only ledger row. Stock itself lives on the
// product row; the ledger exists for supplier-facing audit history.
type StockMovement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	StoreID   uint           `gorm:"not null;index" json:"store_id"`
	Delta     int            `gorm:"not null" json:"delta"` // Negative for outbound
	Reason    MovementReason `gorm:"not null;size:30" json:"reason"`
	Reference string         `gorm:"size:100" json:"reference"` // Order number or note
	CreatedBy uint           `gorm:"index" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName overrides the table name for StockMovement
func (StockMovement) TableName() string {
	return "stock_movements"
}
