package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bozor/internal/events"
	"github.com/example/bozor/internal/models"
)

// CartService owns cart mutations and broadcasts them on the bus so
// every open view of the cart stays in sync without refetching.
type CartService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB, bus *events.Bus) *CartService {
	return &CartService{db: db, bus: bus}
}

// AddToCart inserts a cart row or bumps the quantity of an existing one
// in a single statement, leaning on the (customer, product) unique index.
func (s *CartService) AddToCart(customerID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, err
	}

	item := models.CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		IsSelected: true,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	// Re-read: on conflict the returned struct does not carry the
	// accumulated quantity.
	var row models.CartItem
	if err := s.db.Preload("Product").
		First(&row, "customer_id = ? AND product_id = ?", customerID, productID).Error; err != nil {
		return nil, err
	}

	s.bus.Emit(events.CartChanged, events.Payload{
		Action:     events.ActionAdd,
		ProductIDs: []uuid.UUID{productID},
		Rows:       &row,
	})
	return &row, nil
}

// SetQuantity overwrites a cart row's quantity. This is a plain
// read-modify-write across two statements; concurrent edits of the same
// row are last-write-wins.
func (s *CartService) SetQuantity(customerID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	var item models.CartItem
	if err := s.db.First(&item, "id = ? AND customer_id = ?", itemID, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("cart item not found")
		}
		return nil, err
	}

	item.Quantity = quantity
	if err := s.db.Save(&item).Error; err != nil {
		return nil, err
	}

	s.bus.Emit(events.CartChanged, events.Payload{
		Action:     events.ActionAdd,
		ProductIDs: []uuid.UUID{item.ProductID},
		Rows:       &item,
	})
	return &item, nil
}

// SetSelected toggles whether a row participates in checkout.
func (s *CartService) SetSelected(customerID, itemID uuid.UUID, selected bool) error {
	res := s.db.Model(&models.CartItem{}).
		Where("id = ? AND customer_id = ?", itemID, customerID).
		Update("is_selected", selected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item not found")
	}
	return nil
}

// Remove deletes a cart row and broadcasts the removal.
func (s *CartService) Remove(customerID, itemID uuid.UUID) error {
	var item models.CartItem
	if err := s.db.First(&item, "id = ? AND customer_id = ?", itemID, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("cart item not found")
		}
		return err
	}

	if err := s.db.Delete(&item).Error; err != nil {
		return err
	}

	s.bus.Emit(events.CartChanged, events.Payload{
		Action:     events.ActionRemove,
		ProductIDs: []uuid.UUID{item.ProductID},
	})
	return nil
}

// List returns the customer's cart rows with products, and rebroadcasts
// the ground truth so stale listeners resync.
func (s *CartService) List(customerID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.Preload("Product").Preload("Product.Categories").
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	s.bus.Emit(events.CartChanged, events.Payload{
		Action:     events.ActionSync,
		ProductIDs: ids,
		Rows:       items,
	})
	return items, nil
}

// WishlistService owns wishlist mutations.
type WishlistService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewWishlistService constructs WishlistService.
func NewWishlistService(db *gorm.DB, bus *events.Bus) *WishlistService {
	return &WishlistService{db: db, bus: bus}
}

// WishlistAddResult reports whether the product was newly added or was
// already present. Adding twice is a success either way.
type WishlistAddResult struct {
	Item          *models.WishlistItem
	AlreadyExists bool
}

// Add puts a product on the wishlist. An existing row short-circuits
// before any insert; a racing duplicate insert is translated the same
// way via the unique-violation error.
func (s *WishlistService) Add(customerID, productID uuid.UUID) (*WishlistAddResult, error) {
	var existing models.WishlistItem
	err := s.db.First(&existing, "customer_id = ? AND product_id = ?", customerID, productID).Error
	if err == nil {
		return &WishlistAddResult{Item: &existing, AlreadyExists: true}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product not found")
		}
		return nil, err
	}

	item := models.WishlistItem{CustomerID: customerID, ProductID: productID}
	if err := s.db.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &WishlistAddResult{Item: &item, AlreadyExists: true}, nil
		}
		return nil, err
	}

	s.bus.Emit(events.WishlistChanged, events.Payload{
		Action:     events.ActionAdd,
		ProductIDs: []uuid.UUID{productID},
		Rows:       &item,
	})
	return &WishlistAddResult{Item: &item}, nil
}

// Remove deletes a wishlist row by product.
func (s *WishlistService) Remove(customerID, productID uuid.UUID) error {
	res := s.db.Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wishlist item not found")
	}

	s.bus.Emit(events.WishlistChanged, events.Payload{
		Action:     events.ActionRemove,
		ProductIDs: []uuid.UUID{productID},
	})
	return nil
}

// List returns wishlist rows with products and rebroadcasts ground truth.
func (s *WishlistService) List(customerID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := s.db.Preload("Product").
		Where("customer_id = ?", customerID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	s.bus.Emit(events.WishlistChanged, events.Payload{
		Action:     events.ActionSync,
		ProductIDs: ids,
		Rows:       items,
	})
	return items, nil
}
