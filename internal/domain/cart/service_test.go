// internal/domain/cart/service_test.go
package cart

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&product.Product{}, &Cart{}, &CartItem{}))

	return NewService(db, &config.Config{}), db
}

func seedProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int) *product.Product {
	t.Helper()

	p := product.Product{
		StoreID:       1,
		CategoryID:    1,
		Name:          "Product " + slug,
		Slug:          slug,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

var buyer = auth.Identity{UserID: 7, Role: auth.RoleCustomer}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, db := newTestService(t)
	p := seedProduct(t, db, "widget", 1000, 10)

	first, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	second, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	// Still one row
	var count int64
	require.NoError(t, db.Model(&CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemStockChecks(t *testing.T) {
	svc, db := newTestService(t)
	p := seedProduct(t, db, "widget", 1000, 4)

	_, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 5})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	// Merged quantity would exceed stock
	_, err = svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestAddItemRejectsUnknownAndInactive(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.AddItem(buyer, &AddItemRequest{ProductID: 999, Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	p := seedProduct(t, db, "retired", 1000, 10)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, err = svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestGetCartTotals(t *testing.T) {
	svc, db := newTestService(t)

	salePrice := int64(800)
	onSale := seedProduct(t, db, "on-sale", 1000, 10)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", onSale.ID).Update("sale_price", salePrice).Error)
	regular := seedProduct(t, db, "regular", 500, 10)

	_, err := svc.AddItem(buyer, &AddItemRequest{ProductID: onSale.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(buyer, &AddItemRequest{ProductID: regular.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.GetCart(buyer)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Totals.ItemCount)
	assert.Equal(t, 3, resp.Totals.TotalQuantity)
	assert.Equal(t, int64(2*800+500), resp.Totals.SubTotal)
}

func TestUpdateItem(t *testing.T) {
	svc, db := newTestService(t)
	p := seedProduct(t, db, "widget", 1000, 5)

	item, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(buyer, item.ID, &UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = svc.UpdateItem(buyer, item.ID, &UpdateItemRequest{Quantity: 6})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Another user cannot touch the line
	_, err = svc.UpdateItem(auth.Identity{UserID: 99, Role: auth.RoleCustomer}, item.ID, &UpdateItemRequest{Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRemoveAndClear(t *testing.T) {
	svc, db := newTestService(t)
	p1 := seedProduct(t, db, "one", 1000, 5)
	p2 := seedProduct(t, db, "two", 1000, 5)

	item, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p1.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(buyer, &AddItemRequest{ProductID: p2.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(buyer, item.ID))

	resp, err := svc.GetCart(buyer)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	require.NoError(t, svc.Clear(buyer))

	resp, err = svc.GetCart(buyer)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestReAddAfterRemove(t *testing.T) {
	svc, db := newTestService(t)
	p := seedProduct(t, db, "widget", 1000, 10)

	item, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(buyer, item.ID))

	// The (cart, product) key must be free again after removal
	again, err := svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, again.Quantity)

	require.NoError(t, svc.Clear(buyer))

	again, err = svc.AddItem(buyer, &AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Quantity)

	var rows int64
	require.NoError(t, db.Model(&CartItem{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
