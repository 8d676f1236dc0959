package models

// DeliveryChargeRule is one band of the delivery fee schedule. Rules are
// scanned ascending by MinCartValue; the first band containing the
// post-discount amount wins. A nil MaxCartValue means unbounded.
type DeliveryChargeRule struct {
	BaseModel
	MinCartValue float64  `json:"min_cart_value"`
	MaxCartValue *float64 `json:"max_cart_value"`
	ChargeAmount float64  `json:"charge_amount"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`
}
