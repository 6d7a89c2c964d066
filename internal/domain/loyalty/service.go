// internal/domain/loyalty/service.go
package loyalty

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles loyalty point business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new loyalty service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// RedeemRequest represents a point redemption
type RedeemRequest struct {
	Points    int64  `json:"points" binding:"required,gt=0"`
	Reference string `json:"reference"`
}

// Summary is the customer-facing loyalty balance view
type Summary struct {
	Balance        int64 `json:"balance"`
	LifetimeEarned int64 `json:"lifetime_earned"`
	LifetimeUsed   int64 `json:"lifetime_used"`
}

// GetSummary returns the acting user's balance and lifetime totals
func (s *Service) GetSummary(identity auth.Identity) (*Summary, error) {
	summary := Summary{}

	err := s.db.Table("users").
		Where("id = ?", identity.UserID).
		Select("loyalty_points").
		Take(&summary.Balance).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	var revoked int64
	totals := []struct {
		txType TransactionType
		target *int64
	}{
		{TransactionTypeEarn, &summary.LifetimeEarned},
		{TransactionTypeRedeem, &summary.LifetimeUsed},
		{TransactionTypeRevoke, &revoked},
	}
	for _, t := range totals {
		err := s.db.Model(&Transaction{}).
			Where("user_id = ? AND type = ?", identity.UserID, t.txType).
			Select("COALESCE(SUM(points), 0)").
			Scan(t.target).Error
		if err != nil {
			return nil, fmt.Errorf("failed to sum transactions: %w", err)
		}
	}
	summary.LifetimeEarned -= revoked

	return &summary, nil
}

// Redeem spends points from the acting user's balance. The decrement is
// guarded so the balance never goes negative under concurrent redeems.
func (s *Service) Redeem(identity auth.Identity, req *RedeemRequest) (*Transaction, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Table("users").
		Where("id = ? AND loyalty_points >= ?", identity.UserID, req.Points).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", req.Points))
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to redeem points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperrors.Conflict("insufficient loyalty points")
	}

	transaction := Transaction{
		UserID:    identity.UserID,
		Type:      TransactionTypeRedeem,
		Points:    req.Points,
		Reference: req.Reference,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}
	return &transaction, nil
}

// GetHistory returns the acting user's loyalty ledger newest first
func (s *Service) GetHistory(identity auth.Identity) ([]Transaction, error) {
	var transactions []Transaction
	err := s.db.Where("user_id = ?", identity.UserID).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}
	return transactions, nil
}
