// internal/domain/wishlist/service.go
package wishlist

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles wishlist business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	cartService *cart.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		cartService: cart.NewService(db, cfg),
	}
}

// AddItemRequest is the add-to-wishlist payload
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// AddItemResult reports an add outcome. Duplicate adds succeed with
// AlreadyExists set instead of failing.
type AddItemResult struct {
	Item          *WishlistItem `json:"item"`
	AlreadyExists bool          `json:"already_exists"`
}

// ItemResponse is one wishlist line with availability info
type ItemResponse struct {
	ID           uint             `json:"id"`
	ProductID    uint             `json:"product_id"`
	Product      *product.Product `json:"product,omitempty"`
	IsAvailable  bool             `json:"is_available"`
	CurrentPrice int64            `json:"current_price"`
}

// Response is the wishlist read model
type Response struct {
	WishlistID uint           `json:"wishlist_id"`
	Items      []ItemResponse `json:"items"`
	Count      int            `json:"count"`
}

// GetOrCreateWishlist returns the user's wishlist, creating it lazily on
// first access
func (s *Service) GetOrCreateWishlist(identity auth.Identity) (*Wishlist, error) {
	var list Wishlist
	err := s.db.Where("user_id = ?", identity.UserID).First(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		list = Wishlist{UserID: identity.UserID}
		if err := s.db.Create(&list).Error; err != nil {
			return nil, fmt.Errorf("failed to create wishlist: %w", err)
		}
		return &list, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return &list, nil
}

// GetWishlist returns the wishlist read model
func (s *Service) GetWishlist(identity auth.Identity) (*Response, error) {
	list, err := s.GetOrCreateWishlist(identity)
	if err != nil {
		return nil, err
	}

	var items []WishlistItem
	err = s.db.Preload("Product").
		Where("wishlist_id = ?", list.ID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist items: %w", err)
	}

	response := Response{WishlistID: list.ID, Items: []ItemResponse{}}
	for i := range items {
		item := &items[i]
		response.Items = append(response.Items, ItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			Product:      &item.Product,
			IsAvailable:  item.Product.IsActive && item.Product.IsInStock(),
			CurrentPrice: item.Product.EffectivePrice(),
		})
	}
	response.Count = len(response.Items)

	return &response, nil
}

// AddItem saves a product reference. Idempotent: re-adding an existing
// product returns the existing row flagged AlreadyExists.
func (s *Service) AddItem(identity auth.Identity, req *AddItemRequest) (*AddItemResult, error) {
	var p product.Product
	if err := s.db.First(&p, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	list, err := s.GetOrCreateWishlist(identity)
	if err != nil {
		return nil, err
	}

	var existing WishlistItem
	err = s.db.Where("wishlist_id = ? AND product_id = ?", list.ID, req.ProductID).First(&existing).Error
	if err == nil {
		return &AddItemResult{Item: &existing, AlreadyExists: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load wishlist item: %w", err)
	}

	item := WishlistItem{
		WishlistID: list.ID,
		ProductID:  req.ProductID,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return &AddItemResult{Item: &item}, nil
}

// RemoveItem deletes a saved product reference
func (s *Service) RemoveItem(identity auth.Identity, itemID uint) error {
	item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// Clear removes every saved product from the user's wishlist
func (s *Service) Clear(identity auth.Identity) error {
	list, err := s.GetOrCreateWishlist(identity)
	if err != nil {
		return err
	}

	if err := s.db.Where("wishlist_id = ?", list.ID).Delete(&WishlistItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}

// MoveToCart stages a saved product in the cart and removes it from the
// wishlist
func (s *Service) MoveToCart(identity auth.Identity, itemID uint, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return err
	}

	_, err = s.cartService.AddItem(identity, &cart.AddItemRequest{
		ProductID: item.ProductID,
		Quantity:  quantity,
	})
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// ownedItem loads a wishlist item and verifies it belongs to the acting
// user's wishlist
func (s *Service) ownedItem(identity auth.Identity, itemID uint) (*WishlistItem, error) {
	var item WishlistItem
	err := s.db.
		Joins("JOIN wishlists ON wishlists.id = wishlist_items.wishlist_id").
		Where("wishlist_items.id = ? AND wishlists.user_id = ?", itemID, identity.UserID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("wishlist item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist item: %w", err)
	}
	return &item, nil
}
