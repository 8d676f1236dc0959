package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/pricing"
)

// DeliveryHandler manages delivery charge rules and quoting.
type DeliveryHandler struct {
	db *gorm.DB
}

// NewDeliveryHandler constructs DeliveryHandler.
func NewDeliveryHandler(db *gorm.DB) *DeliveryHandler {
	return &DeliveryHandler{db: db}
}

// QuoteCharge returns the delivery fee for a given cart amount. Falls
// back to the built-in ladder when no rules are configured.
func (h *DeliveryHandler) QuoteCharge(c *fiber.Ctx) error {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}

	var rules []models.DeliveryChargeRule
	if err := h.db.Where("is_active = ?", true).
		Order("min_cart_value asc").
		Find(&rules).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"amount": amount,
			"charge": pricing.DeliveryCharge(amount, rules),
		},
	})
}

func (h *DeliveryHandler) ListRules(c *fiber.Ctx) error {
	var items []models.DeliveryChargeRule
	if err := h.db.Order("min_cart_value asc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

type deliveryRuleRequest struct {
	MinCartValue float64  `json:"min_cart_value"`
	MaxCartValue *float64 `json:"max_cart_value"`
	ChargeAmount float64  `json:"charge_amount"`
	IsActive     *bool    `json:"is_active"`
}

func (h *DeliveryHandler) CreateRule(c *fiber.Ctx) error {
	var req deliveryRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.MinCartValue < 0 || req.ChargeAmount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "values must not be negative")
	}
	if req.MaxCartValue != nil && *req.MaxCartValue < req.MinCartValue {
		return fiber.NewError(fiber.StatusBadRequest, "max_cart_value below min_cart_value")
	}

	item := models.DeliveryChargeRule{
		MinCartValue: req.MinCartValue,
		MaxCartValue: req.MaxCartValue,
		ChargeAmount: req.ChargeAmount,
		IsActive:     true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *DeliveryHandler) UpdateRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.DeliveryChargeRule
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "delivery rule not found")
		}
		return err
	}

	var req deliveryRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.MaxCartValue != nil && *req.MaxCartValue < req.MinCartValue {
		return fiber.NewError(fiber.StatusBadRequest, "max_cart_value below min_cart_value")
	}

	item.MinCartValue = req.MinCartValue
	item.MaxCartValue = req.MaxCartValue
	item.ChargeAmount = req.ChargeAmount
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *DeliveryHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.DeliveryChargeRule{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
