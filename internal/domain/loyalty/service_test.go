// internal/domain/loyalty/service_test.go
package loyalty

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &Transaction{}))

	return NewService(db, &config.Config{}), db
}

func seedBalance(t *testing.T, db *gorm.DB, points int64) auth.Identity {
	t.Helper()

	u := user.User{Email: "member@test.com", Password: "x", LoyaltyPoints: points, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return auth.Identity{UserID: u.ID, Role: auth.RoleCustomer}
}

func TestRedeem(t *testing.T) {
	svc, db := newTestService(t)
	member := seedBalance(t, db, 100)

	entry, err := svc.Redeem(member, &RedeemRequest{Points: 40, Reference: "discount"})
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeRedeem, entry.Type)
	assert.Equal(t, int64(40), entry.Points)

	var fresh user.User
	require.NoError(t, db.First(&fresh, member.UserID).Error)
	assert.Equal(t, int64(60), fresh.LoyaltyPoints)
}

func TestRedeemInsufficientBalance(t *testing.T) {
	svc, db := newTestService(t)
	member := seedBalance(t, db, 10)

	_, err := svc.Redeem(member, &RedeemRequest{Points: 11})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Balance untouched and nothing logged
	var fresh user.User
	require.NoError(t, db.First(&fresh, member.UserID).Error)
	assert.Equal(t, int64(10), fresh.LoyaltyPoints)

	var count int64
	require.NoError(t, db.Model(&Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSummaryAndHistory(t *testing.T) {
	svc, db := newTestService(t)
	member := seedBalance(t, db, 200)

	require.NoError(t, db.Create(&Transaction{UserID: member.UserID, Type: TransactionTypeEarn, Points: 150, Reference: "order-1"}).Error)
	require.NoError(t, db.Create(&Transaction{UserID: member.UserID, Type: TransactionTypeEarn, Points: 50, Reference: "order-2"}).Error)

	_, err := svc.Redeem(member, &RedeemRequest{Points: 30})
	require.NoError(t, err)

	summary, err := svc.GetSummary(member)
	require.NoError(t, err)
	assert.Equal(t, int64(170), summary.Balance)
	assert.Equal(t, int64(200), summary.LifetimeEarned)
	assert.Equal(t, int64(30), summary.LifetimeUsed)

	history, err := svc.GetHistory(member)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestSummaryNetsOutRevokedEarn(t *testing.T) {
	svc, db := newTestService(t)
	member := seedBalance(t, db, 60)

	for _, tx := range []Transaction{
		{UserID: member.UserID, Type: TransactionTypeEarn, Points: 100, Reference: "ORD-1"},
		{UserID: member.UserID, Type: TransactionTypeRevoke, Points: 40, Reference: "ORD-1"},
	} {
		require.NoError(t, db.Create(&tx).Error)
	}

	summary, err := svc.GetSummary(member)
	require.NoError(t, err)
	assert.Equal(t, int64(60), summary.Balance)
	assert.Equal(t, int64(60), summary.LifetimeEarned)
	assert.Zero(t, summary.LifetimeUsed)
}
