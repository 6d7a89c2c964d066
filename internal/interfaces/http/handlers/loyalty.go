// internal/interfaces/http/handlers/loyalty.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/loyalty"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// LoyaltyHandler handles loyalty point endpoints
type LoyaltyHandler struct {
	loyaltyService *loyalty.Service
	config         *config.Config
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(db *gorm.DB, cfg *config.Config) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyalty.NewService(db, cfg),
		config:         cfg,
	}
}

// GetSummary returns the user's balance and lifetime totals
func (h *LoyaltyHandler) GetSummary(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	summary, err := h.loyaltyService.GetSummary(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// Redeem spends points from the user's balance
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req loyalty.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	transaction, err := h.loyaltyService.Redeem(identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Points redeemed successfully",
		"data":    transaction,
	})
}

// GetHistory lists the user's loyalty ledger
func (h *LoyaltyHandler) GetHistory(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	history, err := h.loyaltyService.GetHistory(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": history,
	})
}
