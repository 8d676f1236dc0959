package pricing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/example/bozor/internal/models"
)

// CartLine pairs a product snapshot with the quantity being bought.
// Callers are expected to pass products with Categories loaded when
// category-gated coupons are in play.
type CartLine struct {
	Product  models.Product
	Quantity int
}

// LineTotal returns price multiplied by quantity for one line.
func (l CartLine) LineTotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Subtotal sums price x quantity over all lines. No rounding happens
// here; amounts stay raw until display.
func Subtotal(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}

// MatchedSubtotal returns the portion of the cart that counts toward a
// coupon's minimum: the whole subtotal for global coupons, otherwise only
// lines whose product belongs to the coupon's category.
func MatchedSubtotal(coupon models.Coupon, lines []CartLine) float64 {
	if coupon.CategoryID == nil {
		return Subtotal(lines)
	}

	var total float64
	for _, l := range lines {
		for _, cat := range l.Product.Categories {
			if cat.ID == *coupon.CategoryID {
				total += l.LineTotal()
				break
			}
		}
	}
	return total
}

// Applicability is the result of checking one coupon against a cart.
type Applicability struct {
	Applicable bool   `json:"applicable"`
	Used       bool   `json:"used"`
	Reason     string `json:"reason,omitempty"`
}

// CheckCoupon decides whether a coupon can be applied to the given cart.
// usedCouponIDs holds coupons the customer has already redeemed.
func CheckCoupon(coupon models.Coupon, lines []CartLine, usedCouponIDs map[uuid.UUID]bool) Applicability {
	if usedCouponIDs[coupon.ID] {
		return Applicability{Used: true, Reason: "already used"}
	}

	if len(lines) == 0 {
		return Applicability{Reason: "cart is empty"}
	}

	matched := MatchedSubtotal(coupon, lines)
	if matched < coupon.MinimumOrderValue {
		shortfall := coupon.MinimumOrderValue - matched
		return Applicability{Reason: fmt.Sprintf("add %s more to use this coupon", formatAmount(shortfall))}
	}

	return Applicability{Applicable: true}
}

// Offer is a coupon annotated with its applicability for display.
type Offer struct {
	Coupon        models.Coupon `json:"coupon"`
	Applicability Applicability `json:"applicability"`
}

// SortOffers orders coupons for the checkout screen: applicable first,
// then inapplicable-but-unused, then already-used; ties broken by
// descending discount amount.
func SortOffers(coupons []models.Coupon, lines []CartLine, usedCouponIDs map[uuid.UUID]bool) []Offer {
	offers := make([]Offer, 0, len(coupons))
	for _, coupon := range coupons {
		offers = append(offers, Offer{
			Coupon:        coupon,
			Applicability: CheckCoupon(coupon, lines, usedCouponIDs),
		})
	}

	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.Applicability.Applicable != b.Applicability.Applicable {
			return a.Applicability.Applicable
		}
		if a.Applicability.Used != b.Applicability.Used {
			return b.Applicability.Used
		}
		return a.Coupon.DiscountAmount > b.Coupon.DiscountAmount
	})

	return offers
}

// DeliveryCharge scans rules ascending by MinCartValue and returns the
// charge of the first band containing the post-discount amount. With no
// configured rules the fixed fallback ladder applies.
func DeliveryCharge(amount float64, rules []models.DeliveryChargeRule) float64 {
	if len(rules) == 0 {
		return fallbackDeliveryCharge(amount)
	}

	sorted := make([]models.DeliveryChargeRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinCartValue < sorted[j].MinCartValue
	})

	for _, rule := range sorted {
		if amount < rule.MinCartValue {
			continue
		}
		if rule.MaxCartValue == nil || amount <= *rule.MaxCartValue {
			return rule.ChargeAmount
		}
	}

	return 0
}

// Default ladder when no rules are configured: <500 pays 50, 500-999
// pays 30, 1000 and up ships free.
func fallbackDeliveryCharge(amount float64) float64 {
	switch {
	case amount < 500:
		return 50
	case amount < 1000:
		return 30
	default:
		return 0
	}
}

// Total computes the grand total. The discounted subtotal floors at zero
// so an oversized coupon can never make the order negative.
func Total(subtotal, discount, deliveryCharge float64) float64 {
	discounted := subtotal - discount
	if discounted < 0 {
		discounted = 0
	}
	return discounted + deliveryCharge
}

// LineAmounts is the per-line money breakdown written to order items.
type LineAmounts struct {
	ItemSubtotal float64
	ItemDiscount float64
	ItemTotal    float64
}

// AttributeDiscount assigns the entire discount to the single line with
// the largest subtotal, capped at that line's own value. Any remainder is
// not redistributed to other lines even though it was subtracted from the
// order total.
func AttributeDiscount(lines []CartLine, discount float64) []LineAmounts {
	amounts := make([]LineAmounts, len(lines))
	largest := -1
	for i, l := range lines {
		amounts[i] = LineAmounts{ItemSubtotal: l.LineTotal(), ItemTotal: l.LineTotal()}
		if largest < 0 || amounts[i].ItemSubtotal > amounts[largest].ItemSubtotal {
			largest = i
		}
	}

	if discount > 0 && largest >= 0 {
		applied := discount
		if applied > amounts[largest].ItemSubtotal {
			applied = amounts[largest].ItemSubtotal
		}
		amounts[largest].ItemDiscount = applied
		amounts[largest].ItemTotal = amounts[largest].ItemSubtotal - applied
	}

	return amounts
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%g", v)
}
