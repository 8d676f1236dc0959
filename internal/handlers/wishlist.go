package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/services"
)

// WishlistHandler exposes the authenticated customer's wishlist.
type WishlistHandler struct {
	wishlist *services.WishlistService
}

// NewWishlistHandler constructs WishlistHandler.
func NewWishlistHandler(wishlist *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

// ListWishlist returns wishlist rows with products.
func (h *WishlistHandler) ListWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.wishlist.List(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

type addToWishlistRequest struct {
	ProductID string `json:"product_id"`
}

// AddToWishlist adds a product. A product already on the wishlist is
// reported as a success with already_exists set, never as an error.
func (h *WishlistHandler) AddToWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToWishlistRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	result, err := h.wishlist.Add(userID, productID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	status := fiber.StatusCreated
	if result.AlreadyExists {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(fiber.Map{
		"success":        true,
		"already_exists": result.AlreadyExists,
		"data":           result.Item,
	})
}

// RemoveFromWishlist deletes a wishlist row by product id.
func (h *WishlistHandler) RemoveFromWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("product_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	if err := h.wishlist.Remove(userID, productID); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(fiber.Map{"success": true, "message": "wishlist item removed"})
}
