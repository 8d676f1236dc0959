package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/events"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/pricing"
)

// totalTolerance bounds float drift when cross-checking totals computed
// at different times.
const totalTolerance = 0.01

// OrderService turns selected cart rows into persisted orders.
//
// Placement is deliberately not wrapped in a transaction: validation
// steps run before any write and abort cleanly, but once the order
// header exists, later failures leave whatever was written in place.
// This mirrors how the storefront has always behaved and admins resolve
// stragglers by hand.
type OrderService struct {
	db       *gorm.DB
	bus      *events.Bus
	notifier *NotifyService
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, bus *events.Bus, notifier *NotifyService) *OrderService {
	return &OrderService{db: db, bus: bus, notifier: notifier}
}

// PlaceOrderInput carries everything the checkout screen knows.
// ExpectedTotal, when set, is the total the customer saw; placement
// aborts if the authoritative total drifted from it.
type PlaceOrderInput struct {
	CustomerID        uuid.UUID
	CartItemIDs       []uuid.UUID
	CouponID          *uuid.UUID
	DeliveryAddressID *uuid.UUID
	ExpectedTotal     *float64
	Notes             string
}

// PlaceOrder runs the placement sequence: stock validation, pricing from
// authoritative rows, coupon re-validation (silently dropped when it no
// longer qualifies), delivery charge, total cross-check, address
// ownership, then the writes: header, coupon usage, items, stock
// deduction, cart cleanup, event publication.
func (s *OrderService) PlaceOrder(in PlaceOrderInput) (*models.Order, error) {
	if in.CustomerID == uuid.Nil {
		return nil, NewFailure(FailNotAuthenticated, "not authenticated")
	}

	cartItems, err := s.loadCartItems(in)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, NewFailure(FailEmptyCart, "no cart items selected")
	}

	// Re-fetch products so stock and prices are authoritative, not
	// whatever the client cached.
	lines, err := s.buildLines(cartItems)
	if err != nil {
		return nil, err
	}

	if err := validateStock(lines); err != nil {
		return nil, err
	}

	subtotal := pricing.Subtotal(lines)

	coupon, discount := s.resolveCoupon(in.CouponID, in.CustomerID, lines)

	rules, err := s.activeDeliveryRules()
	if err != nil {
		return nil, err
	}
	deliveryCharge := pricing.DeliveryCharge(subtotal-discount, rules)

	total := pricing.Total(subtotal, discount, deliveryCharge)
	if in.ExpectedTotal != nil && math.Abs(*in.ExpectedTotal-total) > totalTolerance {
		return nil, NewFailure(FailTotalMismatch,
			fmt.Sprintf("expected total %.2f does not match computed total %.2f", *in.ExpectedTotal, total))
	}

	order := models.Order{
		UserID:         in.CustomerID,
		OrderNumber:    generateOrderNumber(),
		Status:         models.OrderStatusPending,
		PlacedAt:       time.Now(),
		Subtotal:       subtotal,
		CouponAmount:   discount,
		DeliveryCharge: deliveryCharge,
		TotalAmount:    total,
		Notes:          in.Notes,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	if in.DeliveryAddressID != nil {
		var address models.UserAddress
		if err := s.db.First(&address, "id = ? AND user_id = ?", *in.DeliveryAddressID, in.CustomerID).Error; err != nil {
			return nil, NewFailure(FailInvalidAddress, "delivery address does not belong to this account")
		}
		order.DeliveryAddressID = &address.ID
		order.DeliveryAddressLine = address.AddressLine
		order.DeliveryApartment = address.Apartment
		order.DeliveryCity = address.City
		order.DeliveryDistrict = address.District
	}

	// Last read-only step done; everything below mutates.
	if err := s.db.Create(&order).Error; err != nil {
		return nil, err
	}

	if coupon != nil {
		usage := models.CouponUsage{CouponID: coupon.ID, CustomerID: in.CustomerID, OrderID: &order.ID}
		if err := s.db.Create(&usage).Error; err != nil {
			log.Printf("[Order] failed to record usage of coupon %s for order %s: %v", coupon.Code, order.OrderNumber, err)
		}
	}

	items, err := s.writeItems(&order, lines, discount, deliveryCharge)
	if err != nil {
		return nil, err
	}
	order.Items = items

	if err := s.deductStock(lines); err != nil {
		return nil, err
	}

	s.clearOrderedRows(cartItems)

	productIDs := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		productIDs[i] = l.Product.ID
	}
	s.bus.Emit(events.CartChanged, events.Payload{Action: events.ActionRemove, ProductIDs: productIDs})
	s.bus.Emit(events.OrderPlaced, events.Payload{Rows: &order})

	if s.notifier != nil {
		go s.notifier.NotifyNewOrder(&order)
	}

	return &order, nil
}

func (s *OrderService) loadCartItems(in PlaceOrderInput) ([]models.CartItem, error) {
	query := s.db.Where("customer_id = ?", in.CustomerID)
	if len(in.CartItemIDs) > 0 {
		query = query.Where("id IN ?", in.CartItemIDs)
	} else {
		query = query.Where("is_selected = ?", true)
	}

	var items []models.CartItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *OrderService) buildLines(cartItems []models.CartItem) ([]pricing.CartLine, error) {
	lines := make([]pricing.CartLine, 0, len(cartItems))
	for _, item := range cartItems {
		var product models.Product
		err := s.db.Preload("Categories").First(&product, "id = ?", item.ProductID).Error
		if err == gorm.ErrRecordNotFound {
			// Product deleted since it was carted; treated as zero stock.
			product = models.Product{Name: "unknown product", Quantity: 0}
			product.ID = item.ProductID
		} else if err != nil {
			return nil, err
		}
		lines = append(lines, pricing.CartLine{Product: product, Quantity: item.Quantity})
	}
	return lines, nil
}

func validateStock(lines []pricing.CartLine) error {
	var outOfStock, insufficient []string
	for _, l := range lines {
		switch {
		case l.Product.Quantity <= 0:
			outOfStock = append(outOfStock, l.Product.Name)
		case l.Product.Quantity < l.Quantity:
			insufficient = append(insufficient,
				fmt.Sprintf("%s: available %d, requested %d", l.Product.Name, l.Product.Quantity, l.Quantity))
		}
	}

	if len(outOfStock) > 0 {
		return NewFailure(FailOutOfStock, "some products are out of stock", outOfStock...)
	}
	if len(insufficient) > 0 {
		return NewFailure(FailInsufficientStock, "not enough stock for some products", insufficient...)
	}
	return nil
}

// resolveCoupon re-validates the coupon the customer picked. A coupon
// that is missing, inactive, already used, or below its minimum is
// dropped without an error and the order proceeds undiscounted.
func (s *OrderService) resolveCoupon(couponID *uuid.UUID, customerID uuid.UUID, lines []pricing.CartLine) (*models.Coupon, float64) {
	if couponID == nil {
		return nil, 0
	}

	var coupon models.Coupon
	if err := s.db.First(&coupon, "id = ?", *couponID).Error; err != nil {
		log.Printf("[Order] coupon %s not found, placing order without discount", couponID)
		return nil, 0
	}
	if !coupon.IsActive {
		log.Printf("[Order] coupon %s is inactive, placing order without discount", coupon.Code)
		return nil, 0
	}

	used, err := s.usedCouponIDs(customerID)
	if err != nil {
		log.Printf("[Order] failed to load coupon usage for %s: %v", customerID, err)
		return nil, 0
	}

	check := pricing.CheckCoupon(coupon, lines, used)
	if !check.Applicable {
		log.Printf("[Order] coupon %s dropped: %s", coupon.Code, check.Reason)
		return nil, 0
	}

	return &coupon, coupon.DiscountAmount
}

func (s *OrderService) usedCouponIDs(customerID uuid.UUID) (map[uuid.UUID]bool, error) {
	var usages []models.CouponUsage
	if err := s.db.Where("customer_id = ?", customerID).Find(&usages).Error; err != nil {
		return nil, err
	}
	used := make(map[uuid.UUID]bool, len(usages))
	for _, u := range usages {
		used[u.CouponID] = true
	}
	return used, nil
}

func (s *OrderService) activeDeliveryRules() ([]models.DeliveryChargeRule, error) {
	var rules []models.DeliveryChargeRule
	if err := s.db.Where("is_active = ?", true).
		Order("min_cart_value asc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *OrderService) writeItems(order *models.Order, lines []pricing.CartLine, discount, deliveryCharge float64) ([]models.OrderItem, error) {
	amounts := pricing.AttributeDiscount(lines, discount)

	items := make([]models.OrderItem, 0, len(lines))
	var itemsTotal float64
	for i, l := range lines {
		productID := l.Product.ID
		item := models.OrderItem{
			OrderID:      order.ID,
			ProductID:    &productID,
			ProductName:  l.Product.Name,
			UnitPrice:    l.Product.Price,
			Quantity:     l.Quantity,
			ItemSubtotal: amounts[i].ItemSubtotal,
			ItemDiscount: amounts[i].ItemDiscount,
			ItemTotal:    amounts[i].ItemTotal,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, err
		}
		itemsTotal += item.ItemTotal
		items = append(items, item)
	}

	// An oversized coupon leaves part of the discount unattributed in the
	// item breakdown; account for it before comparing against the total.
	unattributed := discount - attributedDiscount(amounts)
	effective := itemsTotal - unattributed
	if effective < 0 {
		effective = 0
	}
	if math.Abs(effective+deliveryCharge-order.TotalAmount) > totalTolerance {
		return nil, NewFailure(FailOrderIntegrity,
			fmt.Sprintf("order %s item totals do not add up to %.2f", order.OrderNumber, order.TotalAmount))
	}

	return items, nil
}

func attributedDiscount(amounts []pricing.LineAmounts) float64 {
	var total float64
	for _, a := range amounts {
		total += a.ItemDiscount
	}
	return total
}

// deductStock decrements product quantities with a conditional UPDATE so
// a concurrent order can never drive stock negative. A failed deduction
// aborts the remaining steps but the already-written order stands.
func (s *OrderService) deductStock(lines []pricing.CartLine) error {
	for _, l := range lines {
		res := s.db.Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", l.Product.ID, l.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", l.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewFailure(FailStockDeduction,
				fmt.Sprintf("stock deduction failed for %s", l.Product.Name))
		}
	}
	return nil
}

func (s *OrderService) clearOrderedRows(cartItems []models.CartItem) {
	ids := make([]uuid.UUID, len(cartItems))
	for i, item := range cartItems {
		ids[i] = item.ID
	}
	// Delete by row id so unselected rows in the same cart survive.
	if err := s.db.Where("id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
		log.Printf("[Order] failed to clear ordered cart rows: %v", err)
	}
}

func generateOrderNumber() string {
	return fmt.Sprintf("#%d", time.Now().UnixNano()%1000000000)
}

// UpdateStatus moves an order along its lifecycle. Admin-only at the
// route level.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, status string) (*models.Order, error) {
	switch status {
	case models.OrderStatusPending, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("unknown order status %q", status)
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&order).Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status
	return &order, nil
}
