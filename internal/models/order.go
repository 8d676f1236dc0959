package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Only admins move an order past pending.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

type Order struct {
	BaseModel
	UserID              uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User                *User       `json:"user,omitempty"`
	OrderNumber         string      `gorm:"uniqueIndex" json:"order_number"`
	Status              string      `json:"status"`
	PlacedAt            time.Time   `json:"placed_at"`
	Subtotal            float64     `json:"subtotal"`
	CouponID            *uuid.UUID  `gorm:"type:uuid" json:"coupon_id"`
	CouponAmount        float64     `json:"coupon_amount"`
	DeliveryCharge      float64     `json:"delivery_charge"`
	TotalAmount         float64     `json:"total_amount"`
	DeliveryAddressID   *uuid.UUID  `gorm:"type:uuid" json:"delivery_address_id"`
	DeliveryAddressLine string      `json:"delivery_address_line"`
	DeliveryApartment   string      `json:"delivery_apartment"`
	DeliveryCity        string      `json:"delivery_city"`
	DeliveryDistrict    string      `json:"delivery_district"`
	Notes               string      `json:"notes"`
	Items               []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots the product at placement time. ItemDiscount is the
// share of the coupon attributed to this line; only the largest line ever
// carries a non-zero value.
type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID    *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName  string     `json:"product_name"`
	UnitPrice    float64    `json:"unit_price"`
	Quantity     int        `json:"quantity"`
	ItemSubtotal float64    `json:"item_subtotal"`
	ItemDiscount float64    `json:"item_discount"`
	ItemTotal    float64    `json:"item_total"`
}
