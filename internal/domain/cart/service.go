// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles cart business logic. Cart stock checks are advisory:
// they do not reserve inventory. The order engine's atomic decrement is
// what settles races at checkout time.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddItemRequest is the add-to-cart payload
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// UpdateItemRequest is the quantity-update payload
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// GetOrCreateCart returns the user's cart, creating it lazily on first
// access
func (s *Service) GetOrCreateCart(identity auth.Identity) (*Cart, error) {
	var userCart Cart
	err := s.db.Where("user_id = ?", identity.UserID).First(&userCart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		userCart = Cart{UserID: identity.UserID}
		if err := s.db.Create(&userCart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &userCart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &userCart, nil
}

// GetCart returns the cart read model with derived totals
func (s *Service) GetCart(identity auth.Identity) (*CartResponse, error) {
	userCart, err := s.GetOrCreateCart(identity)
	if err != nil {
		return nil, err
	}

	var items []CartItem
	err = s.db.Preload("Product").
		Where("cart_id = ?", userCart.ID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	response := CartResponse{CartID: userCart.ID, Items: []CartItemResponse{}}
	for i := range items {
		item := &items[i]
		unitPrice := item.Product.EffectivePrice()
		lineTotal := unitPrice * int64(item.Quantity)
		response.Items = append(response.Items, CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
			Product:   &item.Product,
		})
		response.Totals.ItemCount++
		response.Totals.TotalQuantity += item.Quantity
		response.Totals.SubTotal += lineTotal
	}

	return &response, nil
}

// AddItem stages a product in the cart. Re-adding merges quantities into
// the existing row; the combined quantity is validated against live
// stock.
func (s *Service) AddItem(identity auth.Identity, req *AddItemRequest) (*CartItem, error) {
	var p product.Product
	if err := s.db.First(&p, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !p.IsActive {
		return nil, apperrors.Validation("product '%s' is not available", p.Name)
	}

	userCart, err := s.GetOrCreateCart(identity)
	if err != nil {
		return nil, err
	}

	var item CartItem
	err = s.db.Where("cart_id = ? AND product_id = ?", userCart.ID, req.ProductID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if p.StockQuantity < req.Quantity {
			return nil, apperrors.Validation("insufficient stock for product '%s': available %d, requested %d",
				p.Name, p.StockQuantity, req.Quantity)
		}
		item = CartItem{
			CartID:    userCart.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	default:
		newQuantity := item.Quantity + req.Quantity
		if p.StockQuantity < newQuantity {
			return nil, apperrors.Validation("insufficient stock for product '%s': available %d, requested %d",
				p.Name, p.StockQuantity, newQuantity)
		}
		item.Quantity = newQuantity
		if err := s.db.Model(&item).Update("quantity", newQuantity).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return &item, nil
}

// UpdateItem changes a line's quantity after re-validating against live
// stock. Ownership is checked through the cart join.
func (s *Service) UpdateItem(identity auth.Identity, itemID uint, req *UpdateItemRequest) (*CartItem, error) {
	item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return nil, err
	}

	var p product.Product
	if err := s.db.First(&p, item.ProductID).Error; err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if p.StockQuantity < req.Quantity {
		return nil, apperrors.Validation("insufficient stock for product '%s': available %d, requested %d",
			p.Name, p.StockQuantity, req.Quantity)
	}

	if err := s.db.Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Quantity = req.Quantity
	return item, nil
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(identity auth.Identity, itemID uint) error {
	item, err := s.ownedItem(identity, itemID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear removes every line from the user's cart
func (s *Service) Clear(identity auth.Identity) error {
	userCart, err := s.GetOrCreateCart(identity)
	if err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", userCart.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ownedItem loads a cart item and verifies it belongs to the acting
// user's cart
func (s *Service) ownedItem(identity auth.Identity, itemID uint) (*CartItem, error) {
	var item CartItem
	err := s.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, identity.UserID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}
