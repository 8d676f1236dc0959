package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/bozor/internal/models"
)

func product(name string, price float64, categories ...models.Category) models.Product {
	p := models.Product{Name: name, Price: price, Categories: categories}
	p.ID = uuid.New()
	return p
}

func TestSubtotal(t *testing.T) {
	lines := []CartLine{
		{Product: product("tea", 120), Quantity: 2},
		{Product: product("honey", 85.5), Quantity: 1},
	}

	assert.InDelta(t, 325.5, Subtotal(lines), 1e-9)
	assert.Zero(t, Subtotal(nil))
}

func TestFallbackDeliveryLadder(t *testing.T) {
	cases := map[float64]float64{
		0:    50,
		499:  50,
		500:  30,
		999:  30,
		1000: 0,
		2500: 0,
	}

	for amount, want := range cases {
		assert.Equal(t, want, DeliveryCharge(amount, nil), "amount %v", amount)
	}
}

func TestDeliveryChargeConfiguredRules(t *testing.T) {
	max1 := 299.0
	max2 := 899.0
	rules := []models.DeliveryChargeRule{
		{MinCartValue: 300, MaxCartValue: &max2, ChargeAmount: 25},
		{MinCartValue: 0, MaxCartValue: &max1, ChargeAmount: 60},
		{MinCartValue: 900, ChargeAmount: 0},
	}

	assert.Equal(t, 60.0, DeliveryCharge(150, rules))
	assert.Equal(t, 25.0, DeliveryCharge(300, rules))
	assert.Equal(t, 25.0, DeliveryCharge(899, rules))
	assert.Equal(t, 0.0, DeliveryCharge(5000, rules))
}

func TestCheckCouponMinimumGate(t *testing.T) {
	coupon := models.Coupon{MinimumOrderValue: 500, DiscountAmount: 50}
	coupon.ID = uuid.New()
	lines := []CartLine{{Product: product("soap", 100), Quantity: 3}}

	result := CheckCoupon(coupon, lines, nil)

	assert.False(t, result.Applicable)
	assert.Contains(t, result.Reason, "200")
}

func TestCheckCouponAlreadyUsed(t *testing.T) {
	coupon := models.Coupon{MinimumOrderValue: 100, DiscountAmount: 50}
	coupon.ID = uuid.New()
	lines := []CartLine{{Product: product("soap", 1000), Quantity: 1}}

	result := CheckCoupon(coupon, lines, map[uuid.UUID]bool{coupon.ID: true})

	assert.False(t, result.Applicable)
	assert.True(t, result.Used)
	assert.Equal(t, "already used", result.Reason)
}

func TestCheckCouponEmptyCart(t *testing.T) {
	coupon := models.Coupon{MinimumOrderValue: 0}
	coupon.ID = uuid.New()

	result := CheckCoupon(coupon, nil, nil)

	assert.False(t, result.Applicable)
}

func TestCheckCouponCategoryGate(t *testing.T) {
	books := models.Category{Name: "Books"}
	books.ID = uuid.New()

	coupon := models.Coupon{CategoryID: &books.ID, MinimumOrderValue: 400, DiscountAmount: 40}
	coupon.ID = uuid.New()

	// 600 in total but only 300 from the coupon's category.
	lines := []CartLine{
		{Product: product("novel", 150, books), Quantity: 2},
		{Product: product("mug", 300), Quantity: 1},
	}

	result := CheckCoupon(coupon, lines, nil)
	assert.False(t, result.Applicable)
	assert.Contains(t, result.Reason, "100")

	lines = append(lines, CartLine{Product: product("atlas", 100, books), Quantity: 1})
	assert.True(t, CheckCoupon(coupon, lines, nil).Applicable)
}

func TestSortOffers(t *testing.T) {
	lines := []CartLine{{Product: product("rug", 600), Quantity: 1}}

	applicableSmall := models.Coupon{Code: "SMALL", MinimumOrderValue: 100, DiscountAmount: 20}
	applicableSmall.ID = uuid.New()
	applicableBig := models.Coupon{Code: "BIG", MinimumOrderValue: 100, DiscountAmount: 80}
	applicableBig.ID = uuid.New()
	tooExpensive := models.Coupon{Code: "LOCKED", MinimumOrderValue: 5000, DiscountAmount: 500}
	tooExpensive.ID = uuid.New()
	used := models.Coupon{Code: "SPENT", MinimumOrderValue: 100, DiscountAmount: 999}
	used.ID = uuid.New()

	offers := SortOffers(
		[]models.Coupon{used, tooExpensive, applicableSmall, applicableBig},
		lines,
		map[uuid.UUID]bool{used.ID: true},
	)

	codes := make([]string, len(offers))
	for i, o := range offers {
		codes[i] = o.Coupon.Code
	}

	assert.Equal(t, []string{"BIG", "SMALL", "LOCKED", "SPENT"}, codes)
}

func TestTotalNeverNegative(t *testing.T) {
	assert.Equal(t, 30.0, Total(200, 200, 30))
	assert.Equal(t, 30.0, Total(200, 9999, 30))
	assert.InDelta(t, 130.0, Total(200, 100, 30), 1e-9)
}

func TestAttributeDiscountLargestLine(t *testing.T) {
	lines := []CartLine{
		{Product: product("candle", 50), Quantity: 2},  // 100
		{Product: product("lamp", 300), Quantity: 1},   // 300, largest
		{Product: product("thread", 20), Quantity: 5},  // 100
	}

	amounts := AttributeDiscount(lines, 120)

	assert.Equal(t, 0.0, amounts[0].ItemDiscount)
	assert.Equal(t, 120.0, amounts[1].ItemDiscount)
	assert.Equal(t, 180.0, amounts[1].ItemTotal)
	assert.Equal(t, 0.0, amounts[2].ItemDiscount)
}

func TestAttributeDiscountCappedAtLineValue(t *testing.T) {
	lines := []CartLine{
		{Product: product("pin", 10), Quantity: 1},
		{Product: product("sticker", 5), Quantity: 4}, // 20, largest
	}

	// Discount exceeds the biggest line; the remainder stays unattributed.
	amounts := AttributeDiscount(lines, 100)

	assert.Equal(t, 20.0, amounts[1].ItemDiscount)
	assert.Equal(t, 0.0, amounts[1].ItemTotal)
	assert.Equal(t, 10.0, amounts[0].ItemTotal)
}
