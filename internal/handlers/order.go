package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type createOrderRequest struct {
	CartItemIDs       []string `json:"cart_item_ids"`
	CouponID          string   `json:"coupon_id"`
	DeliveryAddressID string   `json:"delivery_address_id"`
	ExpectedTotal     *float64 `json:"expected_total"`
	Notes             string   `json:"notes"`
}

// CreateOrder places an order from the customer's selected cart rows.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	input := services.PlaceOrderInput{
		CustomerID:    userID,
		ExpectedTotal: req.ExpectedTotal,
		Notes:         req.Notes,
	}

	for _, raw := range req.CartItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cart item id "+raw)
		}
		input.CartItemIDs = append(input.CartItemIDs, id)
	}
	if req.CouponID != "" {
		id, err := uuid.Parse(req.CouponID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coupon id")
		}
		input.CouponID = &id
	}
	if req.DeliveryAddressID != "" {
		id, err := uuid.Parse(req.DeliveryAddressID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid delivery address id")
		}
		input.DeliveryAddressID = &id
	}

	order, err := h.orders.PlaceOrder(input)
	if err != nil {
		if failure, ok := services.AsFailure(err); ok {
			return c.Status(failureStatus(failure.Code)).JSON(fiber.Map{
				"success": false,
				"error":   failure.Code,
				"message": failure.Message,
				"details": failure.Details,
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":              order.ID,
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"placed_at":       order.PlacedAt,
			"subtotal":        order.Subtotal,
			"coupon_amount":   order.CouponAmount,
			"delivery_charge": order.DeliveryCharge,
			"total":           order.TotalAmount,
		},
	})
}

func failureStatus(code services.FailCode) int {
	switch code {
	case services.FailNotAuthenticated:
		return fiber.StatusUnauthorized
	case services.FailInvalidAddress, services.FailEmptyCart:
		return fiber.StatusBadRequest
	case services.FailOutOfStock, services.FailInsufficientStock, services.FailTotalMismatch:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
