// internal/domain/inventory/service_test.go
package inventory

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// productRow and storeRow mirror the columns the ledger queries read
// from their raw-table lookups.
type productRow struct {
	ID      uint `gorm:"primaryKey"`
	StoreID uint
}

func (productRow) TableName() string { return "products" }

type storeRow struct {
	ID        uint `gorm:"primaryKey"`
	OwnerID   uint
	DeletedAt gorm.DeletedAt
}

func (storeRow) TableName() string { return "stores" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&StockMovement{}, &productRow{}, &storeRow{}))

	return NewService(db, &config.Config{}), db
}

func seedLedger(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&storeRow{ID: 1, OwnerID: 10}).Error)
	require.NoError(t, db.Create(&storeRow{ID: 2, OwnerID: 20}).Error)
	require.NoError(t, db.Create(&productRow{ID: 100, StoreID: 1}).Error)
	require.NoError(t, db.Create(&productRow{ID: 200, StoreID: 1}).Error)

	movements := []StockMovement{
		{ProductID: 100, StoreID: 1, Delta: 10, Reason: ReasonRestock, CreatedBy: 10},
		{ProductID: 100, StoreID: 1, Delta: -2, Reason: ReasonOrder, Reference: "order-1", CreatedBy: 5},
		{ProductID: 200, StoreID: 1, Delta: 5, Reason: ReasonRestock, CreatedBy: 10},
	}
	for i := range movements {
		require.NoError(t, db.Create(&movements[i]).Error)
	}
}

func TestGetProductMovements(t *testing.T) {
	svc, db := newTestService(t)
	seedLedger(t, db)
	owner := auth.Identity{UserID: 10, Role: auth.RoleSupplier}

	resp, err := svc.GetProductMovements(owner, 100, &MovementListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Movements, 2)
	assert.Equal(t, int64(2), resp.Total)

	// Filter by reason
	resp, err = svc.GetProductMovements(owner, 100, &MovementListRequest{Reason: ReasonOrder})
	require.NoError(t, err)
	require.Len(t, resp.Movements, 1)
	assert.Equal(t, -2, resp.Movements[0].Delta)

	_, err = svc.GetProductMovements(owner, 404, &MovementListRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestProductMovementsAuthorization(t *testing.T) {
	svc, db := newTestService(t)
	seedLedger(t, db)

	// Another supplier's products are off limits
	_, err := svc.GetProductMovements(auth.Identity{UserID: 20, Role: auth.RoleSupplier}, 100, &MovementListRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	// Admins read any ledger
	_, err = svc.GetProductMovements(auth.Identity{UserID: 99, Role: auth.RoleAdmin}, 100, &MovementListRequest{})
	assert.NoError(t, err)

	// Customers without a store get a not-found from the store lookup
	_, err = svc.GetProductMovements(auth.Identity{UserID: 5, Role: auth.RoleCustomer}, 100, &MovementListRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetStoreMovements(t *testing.T) {
	svc, db := newTestService(t)
	seedLedger(t, db)

	resp, err := svc.GetStoreMovements(auth.Identity{UserID: 10, Role: auth.RoleSupplier}, &MovementListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Movements, 3)

	// Pagination caps and clamps
	resp, err = svc.GetStoreMovements(auth.Identity{UserID: 10, Role: auth.RoleSupplier}, &MovementListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Movements, 1)
	assert.Equal(t, 2, resp.TotalPages)

	_, err = svc.GetStoreMovements(auth.Identity{UserID: 5, Role: auth.RoleCustomer}, &MovementListRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
