// internal/domain/inventory/service.go
package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service exposes the stock movement ledger to suppliers
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// MovementListRequest represents movement history query parameters
type MovementListRequest struct {
	Page   int            `form:"page,default=1"`
	Limit  int            `form:"limit,default=50"`
	Reason MovementReason `form:"reason"`
}

// MovementListResponse represents a page of ledger rows
type MovementListResponse struct {
	Movements  []StockMovement `json:"movements"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

// GetProductMovements returns the ledger for one product, newest
// first. Only the owning supplier or an admin may read it.
func (s *Service) GetProductMovements(identity auth.Identity, productID uint, req *MovementListRequest) (*MovementListResponse, error) {
	storeID, err := s.productStore(productID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStore(identity, storeID); err != nil {
		return nil, err
	}

	query := s.db.Model(&StockMovement{}).Where("product_id = ?", productID)
	return s.list(query, req)
}

// GetStoreMovements returns the ledger for the acting supplier's whole
// store
func (s *Service) GetStoreMovements(identity auth.Identity, req *MovementListRequest) (*MovementListResponse, error) {
	storeID, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&StockMovement{}).Where("store_id = ?", storeID)
	return s.list(query, req)
}

func (s *Service) list(query *gorm.DB, req *MovementListRequest) (*MovementListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 200 {
		req.Limit = 50
	}
	if req.Reason != "" {
		query = query.Where("reason = ?", req.Reason)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count movements: %w", err)
	}

	var movements []StockMovement
	err := query.
		Order("created_at DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve movements: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &MovementListResponse{
		Movements:  movements,
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) authorizeStore(identity auth.Identity, storeID uint) error {
	if identity.IsAdmin() {
		return nil
	}
	owned, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return err
	}
	if owned != storeID {
		return apperrors.Authorization("you do not own this product")
	}
	return nil
}

func (s *Service) productStore(productID uint) (uint, error) {
	var storeID uint
	err := s.db.Table("products").
		Where("id = ?", productID).
		Select("store_id").
		Take(&storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound("product not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load product: %w", err)
	}
	return storeID, nil
}

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
