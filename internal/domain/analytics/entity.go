// internal/domain/analytics/entity.go
package analytics

import (
	"time"
)

// EventType classifies an analytics event
type EventType string

const (
	EventTypeView      EventType = "view"
	EventTypeClick     EventType = "click"
	EventTypeAddToCart EventType = "add_to_cart"
	EventTypePurchase  EventType = "purchase"
)

// IsValidEventType reports whether t is an accepted event type
func IsValidEventType(t EventType) bool {
	switch t {
	case EventTypeView, EventTypeClick, EventTypeAddToCart, EventTypePurchase:
		return true
	}
	return false
}

// Event is an append-only analytics fact. User, store and product
// references are optional; anonymous events are accepted.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventType EventType `gorm:"not null;size:30;index" json:"event_type"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	StoreID   *uint     `gorm:"index" json:"store_id,omitempty"`
	ProductID *uint     `gorm:"index" json:"product_id,omitempty"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"` // Free-form JSON
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name for Event
func (Event) TableName() string {
	return "analytics_events"
}
