package models

import (
	"github.com/google/uuid"
)

// Coupon is a flat-amount discount. A nil CategoryID makes the coupon
// global; otherwise only cart value from products in that category counts
// toward the minimum.
type Coupon struct {
	BaseModel
	Code              string     `gorm:"uniqueIndex" json:"code"`
	Description       string     `json:"description"`
	CategoryID        *uuid.UUID `gorm:"type:uuid" json:"category_id"`
	Category          *Category  `json:"category,omitempty"`
	DiscountAmount    float64    `json:"discount_amount"`
	MinimumOrderValue float64    `json:"minimum_order_value"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
}

// CouponUsage records a coupon redeemed by a customer. One use per
// customer per coupon.
type CouponUsage struct {
	BaseModel
	CouponID   uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_coupon_usage_pair" json:"coupon_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_coupon_usage_pair" json:"customer_id"`
	OrderID    *uuid.UUID `gorm:"type:uuid" json:"order_id"`
}
