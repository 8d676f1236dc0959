package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/bozor/internal/database"
	"github.com/example/bozor/internal/events"
	"github.com/example/bozor/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A uniquely named shared-cache DB keeps gorm's pooled connections on
	// the same in-memory database while isolating test functions.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func seedCustomer(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{FirstName: "Test", Phone: uuid.NewString(), Role: models.RoleCustomer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	product := models.Product{Name: name, Slug: uuid.NewString(), Price: price, Quantity: stock, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, customer models.User, product models.Product, qty int, selected bool) models.CartItem {
	t.Helper()
	item := models.CartItem{CustomerID: customer.ID, ProductID: product.ID, Quantity: qty, IsSelected: selected}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
	return item
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	db.Model(&models.Order{}).Count(&count)
	return count
}

func TestPlaceOrderHappyPath(t *testing.T) {
	db := setupTestDB(t)
	bus := events.New()
	svc := NewOrderService(db, bus, nil)

	customer := seedCustomer(t, db)
	lamp := seedProduct(t, db, "Lamp", 300, 10)
	tea := seedProduct(t, db, "Tea", 100, 5)
	seedCartItem(t, db, customer, lamp, 2, true)
	seedCartItem(t, db, customer, tea, 1, true)

	coupon := models.Coupon{Code: "WELCOME50", DiscountAmount: 50, MinimumOrderValue: 500, IsActive: true}
	assert.NoError(t, db.Create(&coupon).Error)

	var removed []uuid.UUID
	bus.On(events.CartChanged, func(p events.Payload) {
		if p.Action == events.ActionRemove {
			removed = append(removed, p.ProductIDs...)
		}
	})
	var placed int
	bus.On(events.OrderPlaced, func(events.Payload) { placed++ })

	expected := 680.0 // 700 - 50 discount + 30 delivery (500..999 band)
	order, err := svc.PlaceOrder(PlaceOrderInput{
		CustomerID:    customer.ID,
		CouponID:      &coupon.ID,
		ExpectedTotal: &expected,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 700.0, order.Subtotal, 0.001)
	assert.InDelta(t, 50.0, order.CouponAmount, 0.001)
	assert.InDelta(t, 30.0, order.DeliveryCharge, 0.001)
	assert.InDelta(t, 680.0, order.TotalAmount, 0.001)
	assert.NotEmpty(t, order.OrderNumber)

	// Discount lands entirely on the largest line.
	assert.Len(t, order.Items, 2)
	byName := map[string]models.OrderItem{}
	for _, item := range order.Items {
		byName[item.ProductName] = item
	}
	assert.InDelta(t, 50.0, byName["Lamp"].ItemDiscount, 0.001)
	assert.InDelta(t, 550.0, byName["Lamp"].ItemTotal, 0.001)
	assert.InDelta(t, 0.0, byName["Tea"].ItemDiscount, 0.001)
	assert.InDelta(t, 100.0, byName["Tea"].ItemTotal, 0.001)

	// Stock was decremented.
	var freshLamp, freshTea models.Product
	db.First(&freshLamp, "id = ?", lamp.ID)
	db.First(&freshTea, "id = ?", tea.ID)
	assert.Equal(t, 8, freshLamp.Quantity)
	assert.Equal(t, 4, freshTea.Quantity)

	// Ordered cart rows are gone.
	var cartLeft int64
	db.Model(&models.CartItem{}).Where("customer_id = ?", customer.ID).Count(&cartLeft)
	assert.Zero(t, cartLeft)

	// Coupon usage was recorded.
	var usage models.CouponUsage
	assert.NoError(t, db.First(&usage, "coupon_id = ? AND customer_id = ?", coupon.ID, customer.ID).Error)

	assert.ElementsMatch(t, []uuid.UUID{lamp.ID, tea.ID}, removed)
	assert.Equal(t, 1, placed)
}

func TestPlaceOrderInsufficientStockAbortsBeforeAnyWrite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	scarce := seedProduct(t, db, "Scarce", 40, 2)
	seedCartItem(t, db, customer, scarce, 5, true)

	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})

	failure, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, FailInsufficientStock, failure.Code)
	assert.Contains(t, failure.Details[0], "available 2, requested 5")
	assert.Zero(t, orderCount(t, db))

	// Stock and cart are untouched.
	var fresh models.Product
	db.First(&fresh, "id = ?", scarce.ID)
	assert.Equal(t, 2, fresh.Quantity)
	var cartLeft int64
	db.Model(&models.CartItem{}).Count(&cartLeft)
	assert.Equal(t, int64(1), cartLeft)
}

func TestPlaceOrderOutOfStockListsProductNames(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	gone := seedProduct(t, db, "Gone", 25, 0)
	seedCartItem(t, db, customer, gone, 1, true)

	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})

	failure, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, FailOutOfStock, failure.Code)
	assert.Contains(t, failure.Details, "Gone")
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrderTotalMismatchAborts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)

	stale := 123.45
	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID, ExpectedTotal: &stale})

	failure, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, FailTotalMismatch, failure.Code)
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrderDropsInactiveCouponSilently(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)

	coupon := models.Coupon{Code: "EXPIRED", DiscountAmount: 100, MinimumOrderValue: 0, IsActive: false}
	assert.NoError(t, db.Create(&coupon).Error)

	order, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID, CouponID: &coupon.ID})

	assert.NoError(t, err)
	assert.Nil(t, order.CouponID)
	assert.Zero(t, order.CouponAmount)
	// 600 subtotal, no discount: 500..999 band ships for 30.
	assert.InDelta(t, 630.0, order.TotalAmount, 0.001)
}

func TestPlaceOrderDropsAlreadyUsedCoupon(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)

	coupon := models.Coupon{Code: "ONCE", DiscountAmount: 100, MinimumOrderValue: 0, IsActive: true}
	assert.NoError(t, db.Create(&coupon).Error)
	assert.NoError(t, db.Create(&models.CouponUsage{CouponID: coupon.ID, CustomerID: customer.ID}).Error)

	order, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID, CouponID: &coupon.ID})

	assert.NoError(t, err)
	assert.Nil(t, order.CouponID)
	assert.Zero(t, order.CouponAmount)
}

func TestPlaceOrderInvalidAddressAborts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	stranger := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)

	address := models.UserAddress{UserID: stranger.ID, AddressLine: "Elsewhere 1"}
	assert.NoError(t, db.Create(&address).Error)

	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID, DeliveryAddressID: &address.ID})

	failure, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, FailInvalidAddress, failure.Code)
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrderKeepsUnselectedRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	ordered := seedProduct(t, db, "Ordered", 600, 3)
	kept := seedProduct(t, db, "Kept", 45, 9)
	seedCartItem(t, db, customer, ordered, 1, true)
	keptRow := seedCartItem(t, db, customer, kept, 2, false)

	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})
	assert.NoError(t, err)

	var remaining []models.CartItem
	db.Where("customer_id = ?", customer.ID).Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, keptRow.ID, remaining[0].ID)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)
	customer := seedCustomer(t, db)

	_, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})

	failure, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, FailEmptyCart, failure.Code)
}

func TestPlaceOrderUsesConfiguredDeliveryRules(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)

	max := 799.0
	assert.NoError(t, db.Create(&models.DeliveryChargeRule{MinCartValue: 0, MaxCartValue: &max, ChargeAmount: 75, IsActive: true}).Error)
	assert.NoError(t, db.Create(&models.DeliveryChargeRule{MinCartValue: 800, ChargeAmount: 0, IsActive: true}).Error)

	order, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})

	assert.NoError(t, err)
	assert.InDelta(t, 75.0, order.DeliveryCharge, 0.001)
	assert.InDelta(t, 675.0, order.TotalAmount, 0.001)
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewOrderService(db, events.New(), nil)

	customer := seedCustomer(t, db)
	seedCartItem(t, db, customer, seedProduct(t, db, "Rug", 600, 3), 1, true)
	order, err := svc.PlaceOrder(PlaceOrderInput{CustomerID: customer.ID})
	assert.NoError(t, err)

	updated, err := svc.UpdateStatus(order.ID, models.OrderStatusShipped)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, err = svc.UpdateStatus(order.ID, "teleported")
	assert.Error(t, err)
}
