// internal/domain/store/service_test.go
package store

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

// productRow and orderRow mirror the columns the store read models
// consult in their raw-table queries.
type productRow struct {
	ID        uint `gorm:"primaryKey"`
	StoreID   uint
	IsActive  bool
	DeletedAt gorm.DeletedAt
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID          uint `gorm:"primaryKey"`
	StoreID     uint
	Status      string
	TotalAmount int64
	DeletedAt   gorm.DeletedAt
}

func (orderRow) TableName() string { return "orders" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Store{}, &productRow{}, &orderRow{}))

	return NewService(db, &config.Config{}), db
}

var supplier = auth.Identity{UserID: 1, Role: auth.RoleSupplier}

func TestCreateStore(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(supplier, &CreateRequest{Name: "Ada's Engines"})
	require.NoError(t, err)
	assert.Equal(t, "adas-engines-1", created.Slug)
	assert.True(t, created.IsActive)

	// One store per supplier
	_, err = svc.Create(supplier, &CreateRequest{Name: "Second Try"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Customers cannot open stores
	_, err = svc.Create(auth.Identity{UserID: 2, Role: auth.RoleCustomer}, &CreateRequest{Name: "Nope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))
}

func TestGetMyStore(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetMyStore(supplier)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	created, err := svc.Create(supplier, &CreateRequest{Name: "Ada's Engines"})
	require.NoError(t, err)

	found, err := svc.GetMyStore(supplier)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	has, err := svc.HasStore(supplier)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGetDetails(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.Create(supplier, &CreateRequest{Name: "Ada's Engines"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&productRow{StoreID: created.ID, IsActive: true}).Error)
	require.NoError(t, db.Create(&productRow{StoreID: created.ID, IsActive: false}).Error)
	require.NoError(t, db.Create(&orderRow{StoreID: created.ID, Status: "pending", TotalAmount: 1000}).Error)

	details, err := svc.GetDetails(created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), details.ProductCount)
	assert.Equal(t, int64(1), details.OrderCount)

	_, err = svc.GetDetails(404)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateStoreOwnership(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(supplier, &CreateRequest{Name: "Ada's Engines"})
	require.NoError(t, err)

	name := "Renamed Engines"
	updated, err := svc.Update(supplier, created.ID, &Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Engines", updated.Name)

	_, err = svc.Update(auth.Identity{UserID: 99, Role: auth.RoleSupplier}, created.ID, &Patch{Name: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	_, err = svc.Update(auth.Identity{UserID: 99, Role: auth.RoleAdmin}, created.ID, &Patch{Name: &name})
	assert.NoError(t, err)
}

func TestTopStores(t *testing.T) {
	svc, db := newTestService(t)

	busy, err := svc.Create(auth.Identity{UserID: 1, Role: auth.RoleSupplier}, &CreateRequest{Name: "Busy"})
	require.NoError(t, err)
	quiet, err := svc.Create(auth.Identity{UserID: 2, Role: auth.RoleSupplier}, &CreateRequest{Name: "Quiet"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&orderRow{StoreID: busy.ID, Status: "delivered", TotalAmount: 1000}).Error)
	}
	require.NoError(t, db.Create(&orderRow{StoreID: busy.ID, Status: "cancelled", TotalAmount: 9999}).Error)
	require.NoError(t, db.Create(&orderRow{StoreID: quiet.ID, Status: "pending", TotalAmount: 500}).Error)

	top, err := svc.TopStores(5)
	require.NoError(t, err)
	require.Len(t, top, 2)

	// Cancelled orders count for nothing
	assert.Equal(t, busy.ID, top[0].StoreID)
	assert.Equal(t, int64(3), top[0].OrderCount)
	assert.Equal(t, int64(3000), top[0].Revenue)
	assert.Equal(t, quiet.ID, top[1].StoreID)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "adas-engines-7", Slugify("Ada's Engines", 7))
	assert.Equal(t, "store-3", Slugify("!!!", 3))
	assert.Equal(t, "my-shop-1", Slugify("  My Shop  ", 1))
}
