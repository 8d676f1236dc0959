package models

import (
	"github.com/lib/pq"
)

// Product is a sellable catalog item. Quantity is the live stock counter
// that order placement decrements; it never goes below zero.
type Product struct {
	BaseModel
	Slug        string         `gorm:"uniqueIndex" json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Quantity    int            `json:"quantity"`
	HeroImage   string         `json:"hero_image"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Categories  []Category     `gorm:"many2many:product_categories;" json:"categories,omitempty"`
}

type Category struct {
	BaseModel
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	CardImage   string    `json:"card_image"`
	Products    []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
}
