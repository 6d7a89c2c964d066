// internal/domain/product/category_service.go
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

const (
	categoryCacheKey = "catalog:categories:active"
	categoryCacheTTL = 10 * time.Minute
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	redis  *redis.Client
	config *config.Config
}

// NewCategoryService creates a new category service. The redis client
// is optional; without it the service reads straight from the database.
func NewCategoryService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		redis:  redisClient,
		config: cfg,
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryWithProductCount represents a category with its active
// product count
type CategoryWithProductCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories retrieves active categories, served from cache when
// available
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, categoryCacheKey).Result()
		if err == nil {
			var categories []Category
			if jsonErr := json.Unmarshal([]byte(cached), &categories); jsonErr == nil {
				return categories, nil
			}
		}
	}

	var categories []Category
	err := s.db.Model(&Category{}).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	if s.redis != nil {
		if payload, err := json.Marshal(categories); err == nil {
			// Cache write failures are non-fatal
			s.redis.Set(ctx, categoryCacheKey, payload, categoryCacheTTL)
		}
	}

	return categories, nil
}

// GetAllCategories retrieves every category including inactive ones;
// admin only
func (s *CategoryService) GetAllCategories(identity auth.Identity) ([]Category, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}

	var categories []Category
	err := s.db.Model(&Category{}).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategoriesWithProductCount retrieves active categories with their
// active product counts
func (s *CategoryService) GetCategoriesWithProductCount() ([]CategoryWithProductCount, error) {
	var categories []Category
	err := s.db.Model(&Category{}).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	result := make([]CategoryWithProductCount, 0, len(categories))
	for _, cat := range categories {
		var productCount int64
		err := s.db.Model(&Product{}).
			Where("category_id = ? AND is_active = ?", cat.ID, true).
			Count(&productCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
		result = append(result, CategoryWithProductCount{
			Category:     cat,
			ProductCount: productCount,
		})
	}

	return result, nil
}

// GetCategory retrieves a single category by ID
func (s *CategoryService) GetCategory(id uint) (*Category, error) {
	var category Category
	err := s.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// GetCategoryBySlug retrieves a single active category by slug
func (s *CategoryService) GetCategoryBySlug(slug string) (*Category, error) {
	var category Category
	err := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a new category; admin only
func (s *CategoryService) CreateCategory(ctx context.Context, identity auth.Identity, req *CategoryCreateRequest) (*Category, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}

	slug := categorySlug(req.Name)

	var existing Category
	err := s.db.Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("category with similar name already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check category slug: %w", err)
	}

	category := Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCache(ctx)
	return &category, nil
}

// UpdateCategory updates an existing category; admin only
func (s *CategoryService) UpdateCategory(ctx context.Context, identity auth.Identity, id uint, req *CategoryUpdateRequest) (*Category, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}

	category, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = categorySlug(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	if err := s.db.Model(category).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateCache(ctx)
	return category, nil
}

// DeleteCategory removes a category that has no products; admin only
func (s *CategoryService) DeleteCategory(ctx context.Context, identity auth.Identity, id uint) error {
	if !identity.IsAdmin() {
		return apperrors.Authorization("admin access required")
	}

	var productCount int64
	err := s.db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount).Error
	if err != nil {
		return fmt.Errorf("failed to count category products: %w", err)
	}
	if productCount > 0 {
		return apperrors.Conflict("cannot delete category with existing products")
	}

	result := s.db.Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("category not found")
	}

	s.invalidateCache(ctx)
	return nil
}

func (s *CategoryService) invalidateCache(ctx context.Context) {
	if s.redis != nil {
		s.redis.Del(ctx, categoryCacheKey)
	}
}

// categorySlug builds a stable slug from the category name. Uniqueness
// is enforced up front by the slug collision check.
func categorySlug(name string) string {
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
	return strings.Trim(slug, "-")
}
