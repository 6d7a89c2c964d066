// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/inventory"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	StoreID    uint   `form:"store_id"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	MinPrice   int64  `form:"min_price"`
	MaxPrice   int64  `form:"max_price"`
	IsFeatured *bool  `form:"is_featured"`
	InStock    *bool  `form:"in_stock"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	SalePrice     *int64 `json:"sale_price"`
	CategoryID    uint   `json:"category_id" binding:"required"`
	StockQuantity int    `json:"stock_quantity" binding:"gte=0"`
	ImageURL      string `json:"image_url"`
	IsFeatured    bool   `json:"is_featured"`
}

// ListResponse represents a product listing with pagination
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ProductDetails is the public read model with review aggregates
type ProductDetails struct {
	Product Product       `json:"product"`
	Rating  RatingSummary `json:"rating"`
}

// StockAdjustRequest is a supplier-initiated stock change
type StockAdjustRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// ProductStats aggregates a store's catalog for the supplier dashboard
type ProductStats struct {
	TotalProducts    int64 `json:"total_products"`
	ActiveProducts   int64 `json:"active_products"`
	OutOfStock       int64 `json:"out_of_stock"`
	FeaturedProducts int64 `json:"featured_products"`
	TotalStock       int64 `json:"total_stock"`
}

// GetProducts retrieves active products with filtering and pagination
func (s *Service) GetProducts(req *ListRequest) (*ListResponse, error) {
	query := s.db.Model(&Product{}).Where("is_active = ?", true)
	return s.list(query, req)
}

// GetAllProducts retrieves products across every store including
// inactive ones; admin only
func (s *Service) GetAllProducts(identity auth.Identity, req *ListRequest) (*ListResponse, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}
	return s.list(s.db.Model(&Product{}), req)
}

// GetMyProducts retrieves the acting supplier's catalog, including
// inactive products
func (s *Service) GetMyProducts(identity auth.Identity, req *ListRequest) (*ListResponse, error) {
	ownStore, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}
	query := s.db.Model(&Product{}).Where("store_id = ?", ownStore.ID)
	return s.list(query, req)
}

func (s *Service) list(query *gorm.DB, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	if req.StoreID > 0 {
		query = query.Where("store_id = ?", req.StoreID)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}
	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}
	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}
	if req.InStock != nil && *req.InStock {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("Category").
		Order(s.buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves one product with its review aggregates
func (s *Service) GetProduct(id uint) (*ProductDetails, error) {
	var p Product
	err := s.db.Preload("Category").Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	rating, err := s.ratingSummary(id)
	if err != nil {
		return nil, err
	}
	return &ProductDetails{Product: p, Rating: *rating}, nil
}

// GetProductBySlug retrieves one product by slug
func (s *Service) GetProductBySlug(slug string) (*ProductDetails, error) {
	var p Product
	err := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return s.GetProduct(p.ID)
}

func (s *Service) ratingSummary(productID uint) (*RatingSummary, error) {
	var summary RatingSummary
	err := s.db.Model(&Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	return &summary, nil
}

// CreateProduct lists a new product in the acting supplier's store
func (s *Service) CreateProduct(identity auth.Identity, req *CreateProductRequest) (*Product, error) {
	ownStore, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}

	if err := validateSalePrice(req.Price, req.SalePrice); err != nil {
		return nil, err
	}

	var category Category
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	p := Product{
		StoreID:       ownStore.ID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Slug:          s.generateSlug(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		SalePrice:     req.SalePrice,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsActive:      true,
		IsFeatured:    req.IsFeatured,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if req.StockQuantity > 0 {
		movement := inventory.StockMovement{
			ProductID: p.ID,
			StoreID:   ownStore.ID,
			Delta:     req.StockQuantity,
			Reason:    inventory.ReasonRestock,
			Reference: "initial stock",
			CreatedBy: identity.UserID,
		}
		if err := s.db.Create(&movement).Error; err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	return &p, nil
}

// UpdateProduct applies a partial update to an owned product
func (s *Service) UpdateProduct(identity auth.Identity, productID uint, patch *Patch) (*Product, error) {
	p, err := s.ownedProduct(identity, productID)
	if err != nil {
		return nil, err
	}

	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	// Pricing rules apply to the merged state, not just the patch
	price := p.Price
	if patch.Price != nil {
		price = *patch.Price
		if price <= 0 {
			return nil, apperrors.Validation("price must be positive")
		}
	}
	salePrice := p.SalePrice
	if patch.SalePrice != nil {
		salePrice = patch.SalePrice
	}
	if err := validateSalePrice(price, salePrice); err != nil {
		return nil, err
	}

	if patch.StockQuantity != nil && *patch.StockQuantity < 0 {
		return nil, apperrors.Validation("stock quantity cannot be negative")
	}

	if err := s.db.Model(p).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := s.db.Preload("Category").First(p, productID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return p, nil
}

// CanDeleteProduct reports whether a product is free of order
// references and may be hard-deleted
func (s *Service) CanDeleteProduct(identity auth.Identity, productID uint) (bool, int64, error) {
	if _, err := s.ownedProduct(identity, productID); err != nil {
		return false, 0, err
	}

	var orderRefs int64
	err := s.db.Table("order_items").Where("product_id = ?", productID).Count(&orderRefs).Error
	if err != nil {
		return false, 0, fmt.Errorf("failed to count order references: %w", err)
	}
	return orderRefs == 0, orderRefs, nil
}

// DeleteProduct removes a product from the catalog. Products referenced
// by order lines are deactivated instead so historical orders keep
// resolving.
func (s *Service) DeleteProduct(identity auth.Identity, productID uint) error {
	p, err := s.ownedProduct(identity, productID)
	if err != nil {
		return err
	}

	var orderRefs int64
	err = s.db.Table("order_items").Where("product_id = ?", productID).Count(&orderRefs).Error
	if err != nil {
		return fmt.Errorf("failed to count order references: %w", err)
	}

	if orderRefs > 0 {
		if err := s.db.Model(p).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate product: %w", err)
		}
		return apperrors.Conflict("product has %d order references and was deactivated instead of deleted", orderRefs)
	}

	if err := s.db.Delete(p).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AdjustStock applies a supplier-initiated stock delta. Negative deltas
// use the same guarded update as order creation so stock never goes
// negative.
func (s *Service) AdjustStock(identity auth.Identity, productID uint, req *StockAdjustRequest) (*Product, error) {
	p, err := s.ownedProduct(identity, productID)
	if err != nil {
		return nil, err
	}
	if req.Delta == 0 {
		return nil, apperrors.Validation("delta must be non-zero")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	query := tx.Model(&Product{}).Where("id = ?", productID)
	if req.Delta < 0 {
		query = query.Where("stock_quantity >= ?", -req.Delta)
	}
	result := query.UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", req.Delta))
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperrors.Conflict("stock adjustment would make stock negative")
	}

	reason := inventory.ReasonAdjustment
	if req.Delta > 0 {
		reason = inventory.ReasonRestock
	}
	movement := inventory.StockMovement{
		ProductID: productID,
		StoreID:   p.StoreID,
		Delta:     req.Delta,
		Reason:    reason,
		Reference: req.Reason,
		CreatedBy: identity.UserID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	if err := s.db.First(p, productID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return p, nil
}

// GetStats aggregates the acting supplier's catalog
func (s *Service) GetStats(identity auth.Identity) (*ProductStats, error) {
	ownStore, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}

	stats := ProductStats{}
	counts := []struct {
		cond   string
		args   []interface{}
		target *int64
	}{
		{"store_id = ?", []interface{}{ownStore.ID}, &stats.TotalProducts},
		{"store_id = ? AND is_active = ?", []interface{}{ownStore.ID, true}, &stats.ActiveProducts},
		{"store_id = ? AND stock_quantity = 0", []interface{}{ownStore.ID}, &stats.OutOfStock},
		{"store_id = ? AND is_featured = ?", []interface{}{ownStore.ID, true}, &stats.FeaturedProducts},
	}
	for _, c := range counts {
		if err := s.db.Model(&Product{}).Where(c.cond, c.args...).Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
	}

	err = s.db.Model(&Product{}).
		Where("store_id = ?", ownStore.ID).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Scan(&stats.TotalStock).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock: %w", err)
	}

	return &stats, nil
}

// ownedProduct loads a product and verifies the acting user owns its
// store
func (s *Service) ownedProduct(identity auth.Identity, productID uint) (*Product, error) {
	var p Product
	err := s.db.First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if identity.IsAdmin() {
		return &p, nil
	}

	var st store.Store
	if err := s.db.First(&st, p.StoreID).Error; err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if st.OwnerID != identity.UserID {
		return nil, apperrors.Authorization("you do not own this product")
	}
	return &p, nil
}

func (s *Service) storeOwnedBy(userID uint) (*store.Store, error) {
	var st store.Store
	err := s.db.Where("owner_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("you do not have a store")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &st, nil
}

func validateSalePrice(price int64, salePrice *int64) error {
	if salePrice == nil {
		return nil
	}
	if *salePrice <= 0 {
		return apperrors.Validation("sale price must be positive")
	}
	if *salePrice >= price {
		return apperrors.Validation("sale price must be less than price")
	}
	return nil
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":     true,
		"updated_at":     true,
		"price":          true,
		"name":           true,
		"stock_quantity": true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

// generateSlug builds a URL-safe slug with a random suffix so names
// never collide across stores
func (s *Service) generateSlug(name string) string {
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
		slug = "product"
	}
	return fmt.Sprintf("%s-%s", slug, uuid.NewString()[:8])
}
