// internal/domain/analytics/service.go
package analytics

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles analytics business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// TrackRequest represents an inbound analytics event
type TrackRequest struct {
	EventType EventType `json:"event_type" binding:"required"`
	StoreID   *uint     `json:"store_id"`
	ProductID *uint     `json:"product_id"`
	Metadata  string    `json:"metadata"`
}

// EventTypeCount is one row of an events-by-type breakdown
type EventTypeCount struct {
	EventType EventType `json:"event_type"`
	Count     int64     `json:"count"`
}

// TopProduct is one row of a most-viewed-or-bought listing
type TopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Events    int64  `json:"events"`
}

// StoreOverview is the supplier-facing 30-day dashboard
type StoreOverview struct {
	StoreID      uint             `json:"store_id"`
	WindowDays   int              `json:"window_days"`
	TotalEvents  int64            `json:"total_events"`
	EventsByType []EventTypeCount `json:"events_by_type"`
	TopProducts  []TopProduct     `json:"top_products"`
	Orders       int64            `json:"orders"`
	Revenue      int64            `json:"revenue"`
}

// TopStore is one row of the admin top-stores listing
type TopStore struct {
	StoreID uint   `json:"store_id"`
	Name    string `json:"name"`
	Orders  int64  `json:"orders"`
	Revenue int64  `json:"revenue"`
}

// GlobalOverview is the admin-facing platform dashboard
type GlobalOverview struct {
	TotalUsers    int64            `json:"total_users"`
	TotalStores   int64            `json:"total_stores"`
	TotalProducts int64            `json:"total_products"`
	TotalOrders   int64            `json:"total_orders"`
	TotalRevenue  int64            `json:"total_revenue"`
	EventsByType  []EventTypeCount `json:"events_by_type"`
	TopStores     []TopStore       `json:"top_stores"`
}

// Track records an analytics event. identity may be nil for anonymous
// traffic.
func (s *Service) Track(identity *auth.Identity, req *TrackRequest) (*Event, error) {
	if !IsValidEventType(req.EventType) {
		return nil, apperrors.Validation("invalid event type %q", req.EventType)
	}

	event := Event{
		EventType: req.EventType,
		StoreID:   req.StoreID,
		ProductID: req.ProductID,
		Metadata:  req.Metadata,
	}
	if identity != nil {
		event.UserID = &identity.UserID
	}

	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	return &event, nil
}

// GetStoreOverview aggregates the last 30 days for the acting
// supplier's store
func (s *Service) GetStoreOverview(identity auth.Identity) (*StoreOverview, error) {
	storeID, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}

	const windowDays = 30
	since := time.Now().AddDate(0, 0, -windowDays)
	overview := StoreOverview{StoreID: storeID, WindowDays: windowDays}

	err = s.db.Model(&Event{}).
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Count(&overview.TotalEvents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	err = s.db.Model(&Event{}).
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Select("event_type, COUNT(*) AS count").
		Group("event_type").
		Order("count DESC").
		Scan(&overview.EventsByType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group events: %w", err)
	}

	err = s.db.Table("analytics_events").
		Select("analytics_events.product_id, products.name, COUNT(*) AS events").
		Joins("JOIN products ON products.id = analytics_events.product_id").
		Where("analytics_events.store_id = ? AND analytics_events.created_at >= ? AND analytics_events.product_id IS NOT NULL", storeID, since).
		Group("analytics_events.product_id, products.name").
		Order("events DESC").
		Limit(5).
		Scan(&overview.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}

	err = s.db.Table("orders").
		Where("store_id = ? AND created_at >= ? AND status != ?", storeID, since, "cancelled").
		Count(&overview.Orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err = s.db.Table("orders").
		Where("store_id = ? AND created_at >= ? AND status != ?", storeID, since, "cancelled").
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&overview.Revenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return &overview, nil
}

// GetGlobalOverview aggregates platform-wide figures; admin only
func (s *Service) GetGlobalOverview(identity auth.Identity) (*GlobalOverview, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}

	overview := GlobalOverview{}
	counts := []struct {
		table  string
		target *int64
	}{
		{"users", &overview.TotalUsers},
		{"stores", &overview.TotalStores},
		{"products", &overview.TotalProducts},
		{"orders", &overview.TotalOrders},
	}
	for _, c := range counts {
		if err := s.db.Table(c.table).Where("deleted_at IS NULL").Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	err := s.db.Table("orders").
		Where("status != ?", "cancelled").
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&overview.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	err = s.db.Model(&Event{}).
		Select("event_type, COUNT(*) AS count").
		Group("event_type").
		Order("count DESC").
		Scan(&overview.EventsByType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group events: %w", err)
	}

	err = s.db.Table("stores").
		Select("stores.id AS store_id, stores.name, COUNT(orders.id) AS orders, COALESCE(SUM(orders.total_amount), 0) AS revenue").
		Joins("LEFT JOIN orders ON orders.store_id = stores.id AND orders.status != ?", "cancelled").
		Where("stores.deleted_at IS NULL").
		Group("stores.id, stores.name").
		Order("orders DESC").
		Limit(5).
		Scan(&overview.TopStores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank stores: %w", err)
	}

	return &overview, nil
}

// storeOwnedBy resolves the store owned by userID through the stores
// table so this package stays free of a store import
func (s *Service) storeOwnedBy(userID uint) (uint, error) {
	var storeID uint
	err := s.db.Table("stores").
		Where("owner_id = ? AND deleted_at IS NULL", userID).
		Select("id").
		Take(&storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound("you do not have a store")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load store: %w", err)
	}
	return storeID, nil
}
