// internal/domain/product/service_test.go
package product

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/inventory"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// orderItemRow mirrors the order_items columns the product service
// consults when deciding delete behavior.
type orderItemRow struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint
	ProductID uint
	Quantity  int
}

func (orderItemRow) TableName() string { return "order_items" }

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&store.Store{},
		&Category{},
		&Product{},
		&Review{},
		&inventory.StockMovement{},
		&orderItemRow{},
	))

	return NewService(db, &config.Config{}), db
}

func seedSupplier(t *testing.T, db *gorm.DB, ownerID uint) (*store.Store, auth.Identity) {
	t.Helper()

	st := store.Store{OwnerID: ownerID, Name: "Test Store", Slug: "test-store", IsActive: true}
	require.NoError(t, db.Create(&st).Error)
	return &st, auth.Identity{UserID: ownerID, Role: auth.RoleSupplier}
}

func seedCategory(t *testing.T, db *gorm.DB) *Category {
	t.Helper()

	c := Category{Name: "Electronics", Slug: "electronics", IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return &c
}

func TestCreateProduct(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	created, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name:          "Wireless Mouse",
		Price:         2999,
		CategoryID:    cat.ID,
		StockQuantity: 20,
	})
	require.NoError(t, err)

	assert.True(t, created.IsActive)
	assert.True(t, strings.HasPrefix(created.Slug, "wireless-mouse-"))
	assert.Equal(t, 20, created.StockQuantity)

	// Initial stock lands in the ledger
	var movement inventory.StockMovement
	require.NoError(t, db.Where("product_id = ?", created.ID).First(&movement).Error)
	assert.Equal(t, inventory.ReasonRestock, movement.Reason)
	assert.Equal(t, 20, movement.Delta)
}

func TestCreateProductValidation(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	// Sale price must undercut the list price
	badSale := int64(3000)
	_, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name:       "Overpriced Sale",
		Price:      2999,
		SalePrice:  &badSale,
		CategoryID: cat.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Unknown category
	_, err = svc.CreateProduct(supplier, &CreateProductRequest{
		Name:       "Orphan",
		Price:      100,
		CategoryID: 404,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// No store for the acting user
	_, err = svc.CreateProduct(auth.Identity{UserID: 99, Role: auth.RoleSupplier}, &CreateProductRequest{
		Name:       "Homeless",
		Price:      100,
		CategoryID: cat.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSlugGeneration(t *testing.T) {
	svc, _ := newTestService(t)

	slug := svc.generateSlug("  Deluxe Kit! (2024)  ")
	assert.True(t, strings.HasPrefix(slug, "deluxe-kit-2024-"))

	// Same name twice yields distinct slugs
	a := svc.generateSlug("Wireless Mouse")
	b := svc.generateSlug("Wireless Mouse")
	assert.NotEqual(t, a, b)

	// Degenerate names still slug
	assert.True(t, strings.HasPrefix(svc.generateSlug("!!!"), "product-"))
}

func TestUpdateProductMergedPricing(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	created, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name:       "Keyboard",
		Price:      5000,
		CategoryID: cat.ID,
	})
	require.NoError(t, err)

	// A sale price valid against the current price is accepted
	sale := int64(4000)
	updated, err := svc.UpdateProduct(supplier, created.ID, &Patch{SalePrice: &sale})
	require.NoError(t, err)
	require.NotNil(t, updated.SalePrice)
	assert.Equal(t, sale, *updated.SalePrice)

	// Dropping the list price below the standing sale price is rejected
	lowPrice := int64(3000)
	_, err = svc.UpdateProduct(supplier, created.ID, &Patch{Price: &lowPrice})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Empty patch
	_, err = svc.UpdateProduct(supplier, created.ID, &Patch{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateProductOwnership(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	created, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name:       "Keyboard",
		Price:      5000,
		CategoryID: cat.ID,
	})
	require.NoError(t, err)

	otherStore := store.Store{OwnerID: 2, Name: "Other", Slug: "other", IsActive: true}
	require.NoError(t, db.Create(&otherStore).Error)

	name := "Hijacked"
	_, err = svc.UpdateProduct(auth.Identity{UserID: 2, Role: auth.RoleSupplier}, created.ID, &Patch{Name: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthorization))

	// Admins bypass the ownership check
	_, err = svc.UpdateProduct(auth.Identity{UserID: 3, Role: auth.RoleAdmin}, created.ID, &Patch{Name: &name})
	assert.NoError(t, err)
}

func TestDeleteProduct(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	clean, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name: "Unordered", Price: 100, CategoryID: cat.ID,
	})
	require.NoError(t, err)

	referenced, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name: "Ordered", Price: 100, CategoryID: cat.ID,
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&orderItemRow{OrderID: 1, ProductID: referenced.ID, Quantity: 1}).Error)

	deletable, refs, err := svc.CanDeleteProduct(supplier, clean.ID)
	require.NoError(t, err)
	assert.True(t, deletable)
	assert.Zero(t, refs)

	deletable, refs, err = svc.CanDeleteProduct(supplier, referenced.ID)
	require.NoError(t, err)
	assert.False(t, deletable)
	assert.Equal(t, int64(1), refs)

	// Unreferenced products are removed outright
	require.NoError(t, svc.DeleteProduct(supplier, clean.ID))
	var count int64
	require.NoError(t, db.Model(&Product{}).Where("id = ?", clean.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Referenced products are deactivated and the caller told why
	err = svc.DeleteProduct(supplier, referenced.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	var fresh Product
	require.NoError(t, db.First(&fresh, referenced.ID).Error)
	assert.False(t, fresh.IsActive)
}

func TestAdjustStock(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	created, err := svc.CreateProduct(supplier, &CreateProductRequest{
		Name: "Widget", Price: 100, CategoryID: cat.ID, StockQuantity: 5,
	})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(supplier, created.ID, &StockAdjustRequest{Delta: 10, Reason: "restock"})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockQuantity)

	updated, err = svc.AdjustStock(supplier, created.ID, &StockAdjustRequest{Delta: -15, Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)

	// The guard refuses to take stock below zero
	_, err = svc.AdjustStock(supplier, created.ID, &StockAdjustRequest{Delta: -1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = svc.AdjustStock(supplier, created.ID, &StockAdjustRequest{Delta: 0})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Ledger carries one row per applied adjustment plus the initial stock
	var movements int64
	require.NoError(t, db.Model(&inventory.StockMovement{}).Where("product_id = ?", created.ID).Count(&movements).Error)
	assert.Equal(t, int64(3), movements)
}

func TestListFilters(t *testing.T) {
	svc, db := newTestService(t)
	_, supplier := seedSupplier(t, db, 1)
	cat := seedCategory(t, db)

	for _, seed := range []struct {
		name  string
		price int64
		stock int
	}{
		{"Cheap Cable", 500, 10},
		{"Mid Keyboard", 5000, 0},
		{"Posh Monitor", 50000, 3},
	} {
		_, err := svc.CreateProduct(supplier, &CreateProductRequest{
			Name: seed.name, Price: seed.price, CategoryID: cat.ID, StockQuantity: seed.stock,
		})
		require.NoError(t, err)
	}

	resp, err := svc.GetProducts(&ListRequest{Page: 1, Limit: 20, MinPrice: 1000, MaxPrice: 10000})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Mid Keyboard", resp.Products[0].Name)

	inStock := true
	resp, err = svc.GetProducts(&ListRequest{Page: 1, Limit: 20, InStock: &inStock})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)

	resp, err = svc.GetProducts(&ListRequest{Page: 1, Limit: 20, Search: "keyboard"})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Mid Keyboard", resp.Products[0].Name)

	resp, err = svc.GetProducts(&ListRequest{Page: 1, Limit: 2, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Cheap Cable", resp.Products[0].Name)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasNext)
}

func TestEffectivePrice(t *testing.T) {
	p := Product{Price: 1000}
	assert.Equal(t, int64(1000), p.EffectivePrice())

	sale := int64(800)
	p.SalePrice = &sale
	assert.Equal(t, int64(800), p.EffectivePrice())
	assert.True(t, p.IsOnSale())
}
