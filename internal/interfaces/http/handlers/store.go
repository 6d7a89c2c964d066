// internal/interfaces/http/handlers/store.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// StoreHandler handles store endpoints
type StoreHandler struct {
	storeService *store.Service
	config       *config.Config
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(db *gorm.DB, cfg *config.Config) *StoreHandler {
	return &StoreHandler{
		storeService: store.NewService(db, cfg),
		config:       cfg,
	}
}

// CreateStore opens a store for the acting supplier
func (h *StoreHandler) CreateStore(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req store.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.storeService.Create(identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Store created successfully",
		"data":    created,
	})
}

// GetMyStore returns the acting supplier's store
func (h *StoreHandler) GetMyStore(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	myStore, err := h.storeService.GetMyStore(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": myStore,
	})
}

// GetStore returns a store's public details
func (h *StoreHandler) GetStore(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	details, err := h.storeService.GetDetails(storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": details,
	})
}

// UpdateStore applies a partial update to an owned store
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var patch store.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.storeService.Update(identity, storeID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Store updated successfully",
		"data":    updated,
	})
}

// TopStores lists the stores with the most orders
func (h *StoreHandler) TopStores(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	stores, err := h.storeService.TopStores(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stores,
	})
}
