// internal/domain/store/service.go
package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles store business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new store service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateRequest represents store creation data
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

// Create opens a store for the acting supplier. One store per user,
// enforced by an application check.
func (s *Service) Create(identity auth.Identity, req *CreateRequest) (*Store, error) {
	if !identity.IsSupplier() {
		return nil, apperrors.Authorization("only suppliers can create stores")
	}

	var existing Store
	err := s.db.Where("owner_id = ?", identity.UserID).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("you already have a store")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing store: %w", err)
	}

	newStore := Store{
		OwnerID:     identity.UserID,
		Name:        req.Name,
		Slug:        Slugify(req.Name, identity.UserID),
		Description: req.Description,
		LogoURL:     req.LogoURL,
		IsActive:    true,
	}
	if err := s.db.Create(&newStore).Error; err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return &newStore, nil
}

// GetMyStore returns the acting user's store, if any
func (s *Service) GetMyStore(identity auth.Identity) (*Store, error) {
	var ownStore Store
	err := s.db.Where("owner_id = ?", identity.UserID).First(&ownStore).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("you do not have a store")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &ownStore, nil
}

// HasStore reports whether the acting user owns a store
func (s *Service) HasStore(identity auth.Identity) (bool, error) {
	var count int64
	err := s.db.Model(&Store{}).Where("owner_id = ?", identity.UserID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check store: %w", err)
	}
	return count > 0, nil
}

// GetDetails returns the public read model for an active store
func (s *Service) GetDetails(storeID uint) (*StoreDetails, error) {
	var st Store
	err := s.db.Where("id = ? AND is_active = ?", storeID, true).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	details := StoreDetails{Store: st}
	err = s.db.Table("products").
		Where("store_id = ? AND is_active = ? AND deleted_at IS NULL", storeID, true).
		Count(&details.ProductCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	err = s.db.Table("orders").
		Where("store_id = ? AND deleted_at IS NULL", storeID).
		Count(&details.OrderCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	return &details, nil
}

// Update applies a partial update to the acting user's store
func (s *Service) Update(identity auth.Identity, storeID uint, patch *Patch) (*Store, error) {
	var st Store
	err := s.db.First(&st, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	if st.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Authorization("you do not own this store")
	}

	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	if err := s.db.Model(&st).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("failed to update store: %w", err)
	}

	if err := s.db.First(&st, storeID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload store: %w", err)
	}
	return &st, nil
}

// TopStores ranks active stores by completed order volume
func (s *Service) TopStores(limit int) ([]TopStore, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var top []TopStore
	err := s.db.Table("stores").
		Select(`stores.id AS store_id, stores.name, stores.slug,
			COUNT(orders.id) AS order_count,
			COALESCE(SUM(orders.total_amount), 0) AS revenue`).
		Joins("LEFT JOIN orders ON orders.store_id = stores.id AND orders.status <> 'cancelled' AND orders.deleted_at IS NULL").
		Where("stores.is_active = ? AND stores.deleted_at IS NULL", true).
		Group("stores.id, stores.name, stores.slug").
		Order("order_count DESC, revenue DESC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank stores: %w", err)
	}
	return top, nil
}

// Slugify builds a unique, URL-safe slug from a store name
func Slugify(name string, id uint) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "store"
	}
	return fmt.Sprintf("%s-%d", slug, id)
}
