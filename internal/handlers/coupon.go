package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/pricing"
)

// CouponHandler manages coupon CRUD and the checkout offer list.
type CouponHandler struct {
	db *gorm.DB
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB) *CouponHandler {
	return &CouponHandler{db: db}
}

// ListOffers returns every active coupon annotated with whether the
// customer's current cart qualifies, sorted the way the checkout screen
// displays them: applicable first, used last.
func (h *CouponHandler) ListOffers(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cartItems []models.CartItem
	if err := h.db.Preload("Product").Preload("Product.Categories").
		Where("customer_id = ? AND is_selected = ?", userID, true).
		Find(&cartItems).Error; err != nil {
		return err
	}

	lines := make([]pricing.CartLine, 0, len(cartItems))
	for _, item := range cartItems {
		if item.Product == nil {
			continue
		}
		lines = append(lines, pricing.CartLine{Product: *item.Product, Quantity: item.Quantity})
	}

	var usages []models.CouponUsage
	if err := h.db.Where("customer_id = ?", userID).Find(&usages).Error; err != nil {
		return err
	}
	used := make(map[uuid.UUID]bool, len(usages))
	for _, u := range usages {
		used[u.CouponID] = true
	}

	var coupons []models.Coupon
	if err := h.db.Preload("Category").
		Where("is_active = ?", true).
		Find(&coupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    pricing.SortOffers(coupons, lines, used),
	})
}

// Admin CRUD

func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	var items []models.Coupon
	if err := h.db.Preload("Category").Order("created_at desc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

type couponRequest struct {
	Code              string  `json:"code"`
	Description       string  `json:"description"`
	CategoryID        *string `json:"category_id"`
	DiscountAmount    float64 `json:"discount_amount"`
	MinimumOrderValue float64 `json:"minimum_order_value"`
	IsActive          *bool   `json:"is_active"`
}

func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if req.DiscountAmount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "discount_amount must be positive")
	}

	item := models.Coupon{
		Code:              req.Code,
		Description:       req.Description,
		DiscountAmount:    req.DiscountAmount,
		MinimumOrderValue: req.MinimumOrderValue,
		IsActive:          true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		item.CategoryID = &id
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Coupon
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Code != "" {
		item.Code = req.Code
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.DiscountAmount > 0 {
		item.DiscountAmount = req.DiscountAmount
	}
	item.MinimumOrderValue = req.MinimumOrderValue
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			item.CategoryID = nil
		} else {
			catID, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
			}
			item.CategoryID = &catID
		}
	}

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
