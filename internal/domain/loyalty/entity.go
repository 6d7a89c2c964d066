// internal/domain/loyalty/entity.go
package loyalty

import (
	"time"
)

// TransactionType classifies a loyalty ledger entry
type TransactionType string

const (
	TransactionTypeEarn   TransactionType = "earn"
	TransactionTypeRedeem TransactionType = "redeem"
	TransactionTypeRevoke TransactionType = "revoke" // Earn clawed back on cancellation
)

// Transaction is an append-only loyalty ledger row backing the
// user's point balance.
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Type      TransactionType `gorm:"not null;size:10" json:"type"`
	Points    int64           `gorm:"not null" json:"points"` // Always positive; Type carries direction
	Reference string          `gorm:"size:100" json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName overrides the table name for Transaction
func (Transaction) TableName() string {
	return "loyalty_transactions"
}
