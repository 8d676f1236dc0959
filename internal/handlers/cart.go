package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/services"
)

// CartHandler exposes the authenticated customer's cart.
type CartHandler struct {
	cart *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// ListCart returns the customer's cart rows with products.
func (h *CartHandler) ListCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.cart.List(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddToCart inserts or tops up a cart row.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.cart.AddToCart(userID, productID, req.Quantity)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

type updateCartItemRequest struct {
	Quantity   *int  `json:"quantity"`
	IsSelected *bool `json:"is_selected"`
}

// UpdateCartItem changes quantity or selection of one row.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity == nil && req.IsSelected == nil {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if req.Quantity != nil {
		if _, err := h.cart.SetQuantity(userID, itemID, *req.Quantity); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.IsSelected != nil {
		if err := h.cart.SetSelected(userID, itemID, *req.IsSelected); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "cart item updated"})
}

// RemoveCartItem deletes one row.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.cart.Remove(userID, itemID); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(fiber.Map{"success": true, "message": "cart item removed"})
}
