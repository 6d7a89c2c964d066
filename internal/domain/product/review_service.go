// internal/domain/product/review_service.go
package product

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// ReviewService handles review business logic
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		db: db,
	}
}

// CreateReviewRequest represents review submission data
type CreateReviewRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=2000"`
}

// UpdateReviewRequest represents a partial review edit
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// ReviewListResponse represents a product's reviews with its rating
// aggregate
type ReviewListResponse struct {
	Reviews []Review      `json:"reviews"`
	Rating  RatingSummary `json:"rating"`
}

// CreateReview submits a review for a product. One review per user per
// product.
func (s *ReviewService) CreateReview(identity auth.Identity, req *CreateReviewRequest) (*Review, error) {
	var p Product
	err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	var existing Review
	err = s.db.Where("user_id = ? AND product_id = ?", identity.UserID, req.ProductID).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("you have already reviewed this product")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	review := Review{
		ProductID: req.ProductID,
		UserID:    identity.UserID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return &review, nil
}

// GetProductReviews retrieves a product's reviews newest first
func (s *ReviewService) GetProductReviews(productID uint) (*ReviewListResponse, error) {
	var p Product
	err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	var reviews []Review
	err = s.db.Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	var summary RatingSummary
	err = s.db.Model(&Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return &ReviewListResponse{Reviews: reviews, Rating: summary}, nil
}

// UpdateReview edits the acting user's own review
func (s *ReviewService) UpdateReview(identity auth.Identity, reviewID uint, req *UpdateReviewRequest) (*Review, error) {
	review, err := s.ownReview(identity, reviewID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = strings.TrimSpace(*req.Comment)
	}
	if len(updates) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	if err := s.db.Model(review).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

// DeleteReview removes the acting user's own review. Admins can remove
// any review.
func (s *ReviewService) DeleteReview(identity auth.Identity, reviewID uint) error {
	review, err := s.ownReview(identity, reviewID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *ReviewService) ownReview(identity auth.Identity, reviewID uint) (*Review, error) {
	var review Review
	err := s.db.First(&review, reviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("review not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Authorization("you can only modify your own reviews")
	}
	return &review, nil
}
