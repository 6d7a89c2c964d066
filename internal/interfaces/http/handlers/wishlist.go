// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/wishlist"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *wishlist.Service
	config          *config.Config
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(db *gorm.DB, cfg *config.Config) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlist.NewService(db, cfg),
		config:          cfg,
	}
}

// GetWishlist returns the user's wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	response, err := h.wishlistService.GetWishlist(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": response,
	})
}

// AddItem adds a product to the wishlist; repeats are reported, not
// duplicated
func (h *WishlistHandler) AddItem(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req wishlist.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.wishlistService.AddItem(identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Item added to wishlist"
	if result.AlreadyExists {
		status = http.StatusOK
		message = "Item already in wishlist"
	}

	c.JSON(status, gin.H{
		"message": message,
		"data":    result,
	})
}

// RemoveItem deletes a wishlist entry
func (h *WishlistHandler) RemoveItem(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.wishlistService.RemoveItem(identity, itemID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from wishlist",
	})
}

// ClearWishlist removes every wishlist entry
func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.wishlistService.Clear(identity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist cleared",
	})
}

// MoveToCart moves a wishlist entry into the cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	// Body is optional; a missing quantity defaults to one
	_ = c.ShouldBindJSON(&req)
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	if err := h.wishlistService.MoveToCart(identity, itemID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item moved to cart",
	})
}
