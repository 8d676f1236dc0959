package models

import (
	"github.com/google/uuid"
)

// CartItem is one line of a customer's cart. The unique index keeps a
// single row per (customer, product); AddToCart relies on it for the
// atomic upsert.
type CartItem struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_customer_product" json:"customer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_customer_product" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	Quantity   int       `json:"quantity"`
	IsSelected bool      `gorm:"default:true" json:"is_selected"`
}

// WishlistItem mirrors CartItem without quantity. Duplicate inserts are
// reported back as "already in wishlist", not as errors.
type WishlistItem struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_wishlist_customer_product" json:"customer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_customer_product" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
}
