// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/analytics"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/inventory"
	"github.com/your-org/marketplace-backend/internal/domain/loyalty"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ItemRequest is one requested order line
type ItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
	UnitPrice int64 `json:"unit_price" binding:"required,gte=0"`
}

// CreateRequest represents order creation data
type CreateRequest struct {
	Items           []ItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount     *int64        `json:"total_amount"` // Optional; verified against line totals
	ShippingAddress string        `json:"shipping_address" binding:"required"`
	ShippingCity    string        `json:"shipping_city" binding:"required"`
	ShippingPhone   string        `json:"shipping_phone" binding:"required"`
	PaymentMethod   string        `json:"payment_method"`
	OrderNotes      string        `json:"order_notes"`
}

// ShippingRequest is the shipping snapshot for a checkout-from-cart order
type ShippingRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	ShippingCity    string `json:"shipping_city" binding:"required"`
	ShippingPhone   string `json:"shipping_phone" binding:"required"`
	PaymentMethod   string `json:"payment_method"`
	OrderNotes      string `json:"order_notes"`
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int         `form:"page,default=1"`
	Limit  int         `form:"limit,default=20"`
	Status OrderStatus `form:"status"`
}

// ListResponse represents an order listing with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Stats is the supplier dashboard aggregate
type Stats struct {
	TotalOrders      int64 `json:"total_orders"`
	PendingOrders    int64 `json:"pending_orders"`
	ProcessingOrders int64 `json:"processing_orders"`
	ShippedOrders    int64 `json:"shipped_orders"`
	DeliveredOrders  int64 `json:"delivered_orders"`
	CancelledOrders  int64 `json:"cancelled_orders"`
	TotalRevenue     int64 `json:"total_revenue"` // In cents, cancelled orders excluded
	ItemsSold        int64 `json:"items_sold"`
}

// Create places a new order from an explicit item list. The whole
// operation runs in one transaction: either every line's stock is
// decremented and the order persists, or nothing changes.
func (s *Service) Create(identity auth.Identity, req *CreateRequest) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	created, err := s.createInTx(tx, identity, req)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	// Load complete order with relationships
	var result Order
	if err := s.db.Preload("Items").First(&result, created.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load complete order: %w", err)
	}
	return &result, nil
}

// CreateFromCart places an order from the user's persisted cart and
// clears the cart in the same transaction on success.
func (s *Service) CreateFromCart(identity auth.Identity, req *ShippingRequest) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var userCart cart.Cart
	err := tx.Preload("Items.Product").Where("user_id = ?", identity.UserID).First(&userCart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(userCart.Items) == 0) {
		tx.Rollback()
		return nil, apperrors.Validation("cart is empty")
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	createReq := &CreateRequest{
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPhone:   req.ShippingPhone,
		PaymentMethod:   req.PaymentMethod,
		OrderNotes:      req.OrderNotes,
	}
	for _, item := range userCart.Items {
		createReq.Items = append(createReq.Items, ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.EffectivePrice(),
		})
	}

	created, err := s.createInTx(tx, identity, createReq)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Where("cart_id = ?", userCart.ID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	var result Order
	if err := s.db.Preload("Items").First(&result, created.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load complete order: %w", err)
	}
	return &result, nil
}

// createInTx runs the order-creation algorithm inside the caller's
// transaction. The caller commits or rolls back.
func (s *Service) createInTx(tx *gorm.DB, identity auth.Identity, req *CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.Validation("order must contain at least one item")
	}

	products, err := s.loadProducts(tx, req.Items)
	if err != nil {
		return nil, err
	}

	// The set of distinct stores across all items must have exactly one
	// member; the store from the set scopes the whole order.
	storeIDs := map[uint]bool{}
	for _, p := range products {
		storeIDs[p.StoreID] = true
	}
	if len(storeIDs) != 1 {
		return nil, apperrors.Validation("All products must be from the same store")
	}

	var orderStore store.Store
	if err := tx.First(&orderStore, products[req.Items[0].ProductID].StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("store not found")
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if orderStore.OwnerID == identity.UserID {
		return nil, apperrors.Authorization("You cannot purchase products from your own store")
	}

	// Line totals are recomputed per line and summed into the order
	// total; a client-supplied total that disagrees is rejected.
	var totalAmount int64
	for _, item := range req.Items {
		totalAmount += item.UnitPrice * int64(item.Quantity)
	}
	if req.TotalAmount != nil && *req.TotalAmount != totalAmount {
		return nil, apperrors.Validation("total_amount %d does not match sum of line totals %d", *req.TotalAmount, totalAmount)
	}

	pointsEarned := int64(0)
	if s.config.Loyalty.UnitMinor > 0 {
		pointsEarned = totalAmount / s.config.Loyalty.UnitMinor * int64(s.config.Loyalty.EarnPerUnit)
	}

	newOrder := Order{
		OrderNumber:         uuid.NewString(),
		UserID:              identity.UserID,
		StoreID:             orderStore.ID,
		Status:              OrderStatusPending,
		PaymentStatus:       PaymentStatusPaid,
		TotalAmount:         totalAmount,
		ShippingAddress:     req.ShippingAddress,
		ShippingCity:        req.ShippingCity,
		ShippingPhone:       req.ShippingPhone,
		PaymentMethod:       req.PaymentMethod,
		OrderNotes:          req.OrderNotes,
		LoyaltyPointsEarned: pointsEarned,
	}
	if err := tx.Create(&newOrder).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range req.Items {
		p := products[item.ProductID]

		orderItem := OrderItem{
			OrderID:     newOrder.ID,
			ProductID:   item.ProductID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.UnitPrice * int64(item.Quantity),
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		if err := s.decrementStock(tx, p, item.Quantity, newOrder.OrderNumber, identity.UserID); err != nil {
			return nil, err
		}
	}

	history := OrderStatusHistory{
		OrderID:   newOrder.ID,
		Status:    OrderStatusPending,
		Comment:   "Order created",
		CreatedBy: identity.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to create status history: %w", err)
	}

	if pointsEarned > 0 {
		if err := s.creditLoyaltyPoints(tx, identity.UserID, pointsEarned, newOrder.OrderNumber); err != nil {
			return nil, err
		}
	}

	storeID := newOrder.StoreID
	userID := identity.UserID
	event := analytics.Event{
		EventType: analytics.EventTypePurchase,
		UserID:    &userID,
		StoreID:   &storeID,
		Metadata:  fmt.Sprintf(`{"order_number":%q,"total_amount":%d}`, newOrder.OrderNumber, totalAmount),
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to record purchase event: %w", err)
	}

	return &newOrder, nil
}

// loadProducts resolves every requested product, rejecting unknown and
// inactive ones before any write happens
func (s *Service) loadProducts(tx *gorm.DB, items []ItemRequest) (map[uint]*product.Product, error) {
	products := make(map[uint]*product.Product, len(items))
	for _, item := range items {
		if _, seen := products[item.ProductID]; seen {
			return nil, apperrors.Validation("duplicate product %d in order items", item.ProductID)
		}

		var p product.Product
		if err := tx.First(&p, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("product %d not found", item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		if !p.IsActive {
			return nil, apperrors.Validation("product '%s' is no longer available", p.Name)
		}
		products[item.ProductID] = &p
	}
	return products, nil
}

// decrementStock performs the conditional atomic decrement. The guarded
// UPDATE re-checks the current stock at execution time, so stock never
// goes negative under concurrent orders; zero affected rows means the
// stock ran out and the whole order must roll back.
func (s *Service) decrementStock(tx *gorm.DB, p *product.Product, quantity int, reference string, actorID uint) error {
	result := tx.Model(&product.Product{}).
		Where("id = ? AND stock_quantity >= ?", p.ID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to update stock for product %d: %w", p.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("Insufficient stock for product '%s'", p.Name)
	}

	movement := inventory.StockMovement{
		ProductID: p.ID,
		StoreID:   p.StoreID,
		Delta:     -quantity,
		Reason:    inventory.ReasonOrder,
		Reference: reference,
		CreatedBy: actorID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

// creditLoyaltyPoints adds earned points to the user's balance and the
// loyalty ledger
func (s *Service) creditLoyaltyPoints(tx *gorm.DB, userID uint, points int64, reference string) error {
	result := tx.Model(&user.User{}).
		Where("id = ?", userID).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if result.Error != nil {
		return fmt.Errorf("failed to credit loyalty points: %w", result.Error)
	}

	entry := loyalty.Transaction{
		UserID:    userID,
		Type:      loyalty.TransactionTypeEarn,
		Points:    points,
		Reference: reference,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record loyalty transaction: %w", err)
	}
	return nil
}

// revokeLoyaltyPoints claws back the points an order earned when it is
// cancelled. Points the user already spent cannot take the balance
// below zero; the debit is clamped to what remains.
func (s *Service) revokeLoyaltyPoints(tx *gorm.DB, o *Order) error {
	if o.LoyaltyPointsEarned <= 0 {
		return nil
	}

	var balance int64
	err := tx.Model(&user.User{}).
		Where("id = ?", o.UserID).
		Select("loyalty_points").
		Take(&balance).Error
	if err != nil {
		return fmt.Errorf("failed to load loyalty balance: %w", err)
	}

	debit := o.LoyaltyPointsEarned
	if debit > balance {
		debit = balance
	}
	if debit <= 0 {
		return nil
	}

	result := tx.Model(&user.User{}).
		Where("id = ?", o.UserID).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", debit))
	if result.Error != nil {
		return fmt.Errorf("failed to revoke loyalty points: %w", result.Error)
	}

	entry := loyalty.Transaction{
		UserID:    o.UserID,
		Type:      loyalty.TransactionTypeRevoke,
		Points:    debit,
		Reference: o.OrderNumber,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record loyalty transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a single order. Visible only to the buyer and the
// owning store's supplier (and admins).
func (s *Service) GetByID(identity auth.Identity, orderID uint) (*Order, error) {
	var o Order
	err := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&o, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if err := s.authorizeOrderAccess(identity, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// authorizeOrderAccess enforces the order visibility rule
func (s *Service) authorizeOrderAccess(identity auth.Identity, o *Order) error {
	if identity.IsAdmin() || o.UserID == identity.UserID {
		return nil
	}

	var orderStore store.Store
	if err := s.db.First(&orderStore, o.StoreID).Error; err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if orderStore.OwnerID != identity.UserID {
		return apperrors.Authorization("You do not have access to this order")
	}
	return nil
}

// ListForCustomer retrieves orders placed by the acting user
func (s *Service) ListForCustomer(identity auth.Identity, req *ListRequest) (*ListResponse, error) {
	query := s.db.Model(&Order{}).Where("user_id = ?", identity.UserID)
	return s.list(query, req)
}

// ListForSupplier retrieves orders against the acting supplier's store
func (s *Service) ListForSupplier(identity auth.Identity, req *ListRequest) (*ListResponse, error) {
	ownStore, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}
	query := s.db.Model(&Order{}).Where("store_id = ?", ownStore.ID)
	return s.list(query, req)
}

// ListForStore retrieves orders for an explicit store ID. Kept for older
// clients; the store must belong to the acting user unless they are an
// admin.
func (s *Service) ListForStore(identity auth.Identity, storeID uint, req *ListRequest) (*ListResponse, error) {
	if !identity.IsAdmin() {
		var orderStore store.Store
		if err := s.db.First(&orderStore, storeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("store not found")
			}
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
		if orderStore.OwnerID != identity.UserID {
			return nil, apperrors.Authorization("You do not own this store")
		}
	}
	query := s.db.Model(&Order{}).Where("store_id = ?", storeID)
	return s.list(query, req)
}

// ListAll retrieves all orders; admin only
func (s *Service) ListAll(identity auth.Identity, req *ListRequest) (*ListResponse, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}
	return s.list(s.db.Model(&Order{}), req)
}

func (s *Service) list(query *gorm.DB, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Status != "" {
		if !IsValidStatus(req.Status) {
			return nil, apperrors.Validation("unknown order status: %s", req.Status)
		}
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// UpdateStatus transitions the order workflow state. Only the owning
// store's supplier may do this, and only along the allowed transitions.
func (s *Service) UpdateStatus(identity auth.Identity, orderID uint, newStatus OrderStatus, comment string) (*Order, error) {
	if !IsValidStatus(newStatus) {
		return nil, apperrors.Validation("unknown order status: %s", newStatus)
	}

	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if !identity.IsAdmin() {
		var orderStore store.Store
		if err := s.db.First(&orderStore, o.StoreID).Error; err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
		if orderStore.OwnerID != identity.UserID {
			return nil, apperrors.Authorization("Only the store owner can update order status")
		}
	}

	if !CanTransition(o.Status, newStatus) {
		return nil, apperrors.Validation("invalid status transition from %s to %s", o.Status, newStatus)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	updates := map[string]interface{}{"status": newStatus}
	switch newStatus {
	case OrderStatusProcessing:
		updates["processed_at"] = now
	case OrderStatusShipped:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	case OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	// Guarded write: the transition only lands if the status is still
	// the one we validated against, so concurrent updates cannot both
	// win and restore stock twice.
	result := tx.Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperrors.Conflict("order status was changed by another request")
	}

	if newStatus == OrderStatusCancelled {
		if err := s.restoreStock(tx, &o, identity.UserID); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := s.revokeLoyaltyPoints(tx, &o); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	history := OrderStatusHistory{
		OrderID:   orderID,
		Status:    newStatus,
		Comment:   comment,
		CreatedBy: identity.UserID,
		CreatedAt: now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create status history: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	o.Status = newStatus
	return &o, nil
}

// Cancel cancels an order on behalf of the buyer while it is still
// pending or processing. Stock is restored in the same transaction.
func (s *Service) Cancel(identity auth.Identity, orderID uint, reason string) error {
	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("order not found")
		}
		return fmt.Errorf("failed to retrieve order: %w", err)
	}

	if o.UserID != identity.UserID && !identity.IsAdmin() {
		return apperrors.Authorization("You do not have access to this order")
	}
	if !o.CanBeCancelled() {
		return apperrors.Validation("order cannot be cancelled in status %s", o.Status)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       OrderStatusCancelled,
		"cancelled_at": now,
	}

	// Guarded write: stock restoration only follows if this request is
	// the one that actually moved the order to cancelled.
	result := tx.Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return apperrors.Conflict("order status was changed by another request")
	}

	if err := s.restoreStock(tx, &o, identity.UserID); err != nil {
		tx.Rollback()
		return err
	}
	if err := s.revokeLoyaltyPoints(tx, &o); err != nil {
		tx.Rollback()
		return err
	}

	history := OrderStatusHistory{
		OrderID:   orderID,
		Status:    OrderStatusCancelled,
		Comment:   fmt.Sprintf("Order cancelled: %s", reason),
		CreatedBy: identity.UserID,
		CreatedAt: now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create status history: %w", err)
	}

	return tx.Commit().Error
}

// restoreStock returns every order line's quantity to its product and
// records the compensating ledger rows
func (s *Service) restoreStock(tx *gorm.DB, o *Order, actorID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	for _, item := range items {
		result := tx.Model(&product.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to restore stock for product %d: %w", item.ProductID, result.Error)
		}

		movement := inventory.StockMovement{
			ProductID: item.ProductID,
			StoreID:   o.StoreID,
			Delta:     item.Quantity,
			Reason:    inventory.ReasonCancellation,
			Reference: o.OrderNumber,
			CreatedBy: actorID,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}

// GetStats computes the supplier dashboard aggregates for the acting
// user's store
func (s *Service) GetStats(identity auth.Identity) (*Stats, error) {
	ownStore, err := s.storeOwnedBy(identity.UserID)
	if err != nil {
		return nil, err
	}

	stats := Stats{}
	if err := s.db.Model(&Order{}).Where("store_id = ?", ownStore.ID).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	counts := []struct {
		status OrderStatus
		target *int64
	}{
		{OrderStatusPending, &stats.PendingOrders},
		{OrderStatusProcessing, &stats.ProcessingOrders},
		{OrderStatusShipped, &stats.ShippedOrders},
		{OrderStatusDelivered, &stats.DeliveredOrders},
		{OrderStatusCancelled, &stats.CancelledOrders},
	}
	for _, c := range counts {
		err := s.db.Model(&Order{}).
			Where("store_id = ? AND status = ?", ownStore.ID, c.status).
			Count(c.target).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s orders: %w", c.status, err)
		}
	}

	err = s.db.Model(&Order{}).
		Where("store_id = ? AND status <> ?", ownStore.ID, OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	err = s.db.Model(&OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.store_id = ? AND orders.status <> ?", ownStore.ID, OrderStatusCancelled).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&stats.ItemsSold).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum items sold: %w", err)
	}

	return &stats, nil
}

// storeOwnedBy resolves the store owned by the given user
func (s *Service) storeOwnedBy(userID uint) (*store.Store, error) {
	var ownStore store.Store
	if err := s.db.Where("owner_id = ?", userID).First(&ownStore).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("you do not have a store")
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return &ownStore, nil
}
