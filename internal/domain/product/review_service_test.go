// internal/domain/product/review_service_test.go
package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

func newReviewFixture(t *testing.T) (*ReviewService, *gorm.DB, *Product) {
	t.Helper()

	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	p, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name: "Widget", Price: 1000, CategoryID: cat.ID, StockQuantity: 10,
	})
	require.NoError(t, err)

	return NewReviewService(db), db, p
}

func TestCreateReview(t *testing.T) {
	svc, _, p := newReviewFixture(t)
	reviewer := auth.Identity{UserID: 5, Role: auth.RoleCustomer}

	review, err := svc.CreateReview(reviewer, &CreateReviewRequest{
		ProductID: p.ID, Rating: 4, Comment: "  solid build  ",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "solid build", review.Comment)

	// One review per user per product
	_, err = svc.CreateReview(reviewer, &CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = svc.CreateReview(reviewer, &CreateReviewRequest{ProductID: 404, Rating: 3})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestProductReviewAggregate(t *testing.T) {
	svc, _, p := newReviewFixture(t)

	for i, rating := range []int{5, 4, 3} {
		_, err := svc.CreateReview(auth.Identity{UserID: uint(10 + i), Role: auth.RoleCustomer},
			&CreateReviewRequest{ProductID: p.ID, Rating: rating})
		require.NoError(t, err)
	}

	resp, err := svc.GetProductReviews(p.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Reviews, 3)
	assert.Equal(t, int64(3), resp.Rating.Count)
	assert.InDelta(t, 4.0, resp.Rating.Average, 0.001)
}

func TestUpdateAndDeleteReviewOwnership(t *testing.T) {
	svc, _, p := newReviewFixture(t)
	reviewer := auth.Identity{UserID: 5, Role: auth.RoleCustomer}

	review, err := svc.CreateReview(reviewer, &CreateReviewRequest{ProductID: p.ID, Rating: 2})
	require.NoError(t, err)

	rating := 4
	updated, err := svc.UpdateReview(reviewer, review.ID, &UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	// Strangers cannot edit or delete
	stranger := auth.Identity{UserID: 99, Role: auth.RoleCustomer}
	_, err = svc.UpdateReview(stranger, review.ID, &UpdateReviewRequest{Rating: &rating})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	err = svc.DeleteReview(stranger, review.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	// Admins can moderate
	require.NoError(t, svc.DeleteReview(auth.Identity{UserID: 99, Role: auth.RoleAdmin}, review.ID))

	resp, err := svc.GetProductReviews(p.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Reviews)
}
