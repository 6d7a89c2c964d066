// internal/domain/analytics/service_test.go
package analytics

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Mirror structs for the raw-table aggregates the overviews read.
type userRow struct {
	ID        uint `gorm:"primaryKey"`
	DeletedAt gorm.DeletedAt
}

func (userRow) TableName() string { return "users" }

type storeRow struct {
	ID        uint `gorm:"primaryKey"`
	OwnerID   uint
	Name      string
	DeletedAt gorm.DeletedAt
}

func (storeRow) TableName() string { return "stores" }

type productRow struct {
	ID        uint `gorm:"primaryKey"`
	StoreID   uint
	Name      string
	DeletedAt gorm.DeletedAt
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	ID          uint `gorm:"primaryKey"`
	StoreID     uint
	Status      string
	TotalAmount int64
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
}

func (orderRow) TableName() string { return "orders" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Event{}, &userRow{}, &storeRow{}, &productRow{}, &orderRow{}))

	return NewService(db, &config.Config{}), db
}

func uintPtr(v uint) *uint { return &v }

func TestTrack(t *testing.T) {
	svc, db := newTestService(t)

	// Anonymous event
	event, err := svc.Track(nil, &TrackRequest{EventType: EventTypeView, ProductID: uintPtr(3)})
	require.NoError(t, err)
	assert.Nil(t, event.UserID)

	// Authenticated event carries the user
	identity := auth.Identity{UserID: 42, Role: auth.RoleCustomer}
	event, err = svc.Track(&identity, &TrackRequest{EventType: EventTypeAddToCart, StoreID: uintPtr(1)})
	require.NoError(t, err)
	require.NotNil(t, event.UserID)
	assert.Equal(t, uint(42), *event.UserID)

	var count int64
	require.NoError(t, db.Model(&Event{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestTrackRejectsUnknownEventType(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Track(nil, &TrackRequest{EventType: "page_exploded"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	var count int64
	require.NoError(t, db.Model(&Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetStoreOverview(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&storeRow{ID: 1, OwnerID: 10, Name: "Gadget Hut"}).Error)
	require.NoError(t, db.Create(&productRow{ID: 100, StoreID: 1, Name: "Webcam"}).Error)

	events := []Event{
		{EventType: EventTypeView, StoreID: uintPtr(1), ProductID: uintPtr(100)},
		{EventType: EventTypeView, StoreID: uintPtr(1), ProductID: uintPtr(100)},
		{EventType: EventTypePurchase, StoreID: uintPtr(1), ProductID: uintPtr(100)},
		{EventType: EventTypeView, StoreID: uintPtr(2)}, // other store
	}
	for i := range events {
		require.NoError(t, db.Create(&events[i]).Error)
	}
	require.NoError(t, db.Create(&orderRow{ID: 1, StoreID: 1, Status: "delivered", TotalAmount: 5000}).Error)
	require.NoError(t, db.Create(&orderRow{ID: 2, StoreID: 1, Status: "cancelled", TotalAmount: 9000}).Error)

	overview, err := svc.GetStoreOverview(auth.Identity{UserID: 10, Role: auth.RoleSupplier})
	require.NoError(t, err)
	assert.Equal(t, uint(1), overview.StoreID)
	assert.Equal(t, int64(3), overview.TotalEvents)
	require.NotEmpty(t, overview.EventsByType)
	assert.Equal(t, EventTypeView, overview.EventsByType[0].EventType)
	assert.Equal(t, int64(2), overview.EventsByType[0].Count)
	require.Len(t, overview.TopProducts, 1)
	assert.Equal(t, "Webcam", overview.TopProducts[0].Name)
	assert.Equal(t, int64(3), overview.TopProducts[0].Events)
	assert.Equal(t, int64(1), overview.Orders)
	assert.Equal(t, int64(5000), overview.Revenue)

	_, err = svc.GetStoreOverview(auth.Identity{UserID: 99, Role: auth.RoleSupplier})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetGlobalOverview(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&userRow{ID: 1}).Error)
	require.NoError(t, db.Create(&userRow{ID: 2}).Error)
	require.NoError(t, db.Create(&storeRow{ID: 1, OwnerID: 1, Name: "Gadget Hut"}).Error)
	require.NoError(t, db.Create(&productRow{ID: 100, StoreID: 1, Name: "Webcam"}).Error)
	require.NoError(t, db.Create(&orderRow{ID: 1, StoreID: 1, Status: "delivered", TotalAmount: 5000}).Error)
	require.NoError(t, db.Create(&orderRow{ID: 2, StoreID: 1, Status: "cancelled", TotalAmount: 9000}).Error)

	_, err := svc.GetGlobalOverview(auth.Identity{UserID: 1, Role: auth.RoleSupplier})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	overview, err := svc.GetGlobalOverview(auth.Identity{UserID: 3, Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.TotalUsers)
	assert.Equal(t, int64(1), overview.TotalStores)
	assert.Equal(t, int64(1), overview.TotalProducts)
	assert.Equal(t, int64(2), overview.TotalOrders)
	assert.Equal(t, int64(5000), overview.TotalRevenue)
	require.Len(t, overview.TopStores, 1)
	assert.Equal(t, "Gadget Hut", overview.TopStores[0].Name)
	assert.Equal(t, int64(1), overview.TopStores[0].Orders)
	assert.Equal(t, int64(5000), overview.TopStores[0].Revenue)
}
