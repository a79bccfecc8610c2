package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/courier/internal/middleware"
	"github.com/example/courier/internal/models"
	"github.com/example/courier/internal/services"
	"github.com/example/courier/internal/utils"
)

// OrderHandler manages orders placed by users and bids accepted by riders.
type OrderHandler struct {
	db       *gorm.DB
	telegram *services.TelegramService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{db: db, telegram: telegram}
}

type createOrderRequest struct {
	PickupLocation     string  `json:"pickup_location" validate:"required,max=255"`
	PackageDescription string  `json:"package_description" validate:"required,max=500"`
	DropOffLocation    string  `json:"drop_off_location" validate:"required,max=255"`
	DropOffPhoneNumber string  `json:"drop_off_phone_number" validate:"required,phone"`
	DropOffContactName string  `json:"drop_off_contact_name" validate:"omitempty,max=120"`
	OfferAmount        float64 `json:"offer_amount" validate:"gt=0"`
	PaymentMethod      string  `json:"payment_method" validate:"required,oneof=cash card transfer"`
}

// CreateOrder lets an authenticated user place a pending order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	order := models.Order{
		UserID:             account.AccountID(),
		PickupLocation:     req.PickupLocation,
		PackageDescription: req.PackageDescription,
		DropOffLocation:    req.DropOffLocation,
		DropOffPhoneNumber: req.DropOffPhoneNumber,
		DropOffContactName: req.DropOffContactName,
		OfferAmount:        req.OfferAmount,
		PaymentMethod:      req.PaymentMethod,
		Status:             models.OrderStatusPending,
	}

	if err := h.db.WithContext(c.UserContext()).Create(&order).Error; err != nil {
		return err
	}

	userName := ""
	if user, ok := account.(*models.User); ok {
		userName = user.Name
	}
	h.telegram.NotifyNewOrder(c.UserContext(), services.OrderNotification{
		OrderID:         order.ID.String(),
		UserName:        userName,
		PickupLocation:  order.PickupLocation,
		DropOffLocation: order.DropOffLocation,
		OfferAmount:     order.OfferAmount,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "order created successfully",
		"data":    order,
	})
}

// ListMyOrders returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	return h.listUserOrders(c, "")
}

// ListCompletedOrders returns the authenticated user's completed orders.
func (h *OrderHandler) ListCompletedOrders(c *fiber.Ctx) error {
	return h.listUserOrders(c, models.OrderStatusCompleted)
}

func (h *OrderHandler) listUserOrders(c *fiber.Ctx, status string) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.db.WithContext(c.UserContext()).Model(&models.Order{}).Where("user_id = ?", account.AccountID())
	if status != "" {
		query = query.Where("status = ?", status)
	}

	return h.paginate(c, query)
}

// paginate runs query for the requested page and writes the list envelope.
func (h *OrderHandler) paginate(c *fiber.Ctx, query *gorm.DB) error {
	pagination := utils.ParsePagination(c)

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Session(&gorm.Session{}).
		Order("created_at desc").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"count":        count,
		"rows":         orders,
		"current_page": pagination.Page,
		"total_pages":  pagination.TotalPages(count),
	})
}

// GetMyOrder returns one order owned by the authenticated user.
func (h *OrderHandler) GetMyOrder(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.findOrder(c, "id")
	if err != nil {
		return err
	}
	if order.UserID != account.AccountID() {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updatePaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card transfer"`
}

// UpdatePaymentMethod changes the payment method of the user's pending
// order.
func (h *OrderHandler) UpdatePaymentMethod(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updatePaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if msg := utils.ValidateStruct(req); msg != "" {
		return validationError(msg)
	}

	order, err := h.ownPendingOrder(c, account)
	if err != nil {
		return err
	}

	res := h.db.WithContext(c.UserContext()).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Update("payment_method", req.PaymentMethod)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "order is no longer pending")
	}
	order.PaymentMethod = req.PaymentMethod

	return c.JSON(fiber.Map{
		"success": true,
		"message": "payment method updated",
		"data":    order,
	})
}

// DeleteOrder removes the user's pending order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.ownPendingOrder(c, account)
	if err != nil {
		return err
	}

	res := h.db.WithContext(c.UserContext()).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "order is no longer pending")
	}

	return c.JSON(fiber.Map{"success": true, "message": "order deleted"})
}

func (h *OrderHandler) ownPendingOrder(c *fiber.Ctx, account models.Account) (*models.Order, error) {
	order, err := h.findOrder(c, "id")
	if err != nil {
		return nil, err
	}
	if order.UserID != account.AccountID() {
		return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	if order.Status != models.OrderStatusPending {
		return nil, fiber.NewError(fiber.StatusConflict, "only pending orders can be changed")
	}
	return order, nil
}

// ListBiddings returns pending orders open for riders to accept.
func (h *OrderHandler) ListBiddings(c *fiber.Ctx) error {
	query := h.db.WithContext(c.UserContext()).Model(&models.Order{}).Where("status = ?", models.OrderStatusPending)
	return h.paginate(c, query)
}

// AcceptBid assigns a pending order to the authenticated rider. Only one
// rider can win: the status check and the update are a single statement.
func (h *OrderHandler) AcceptBid(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	riderID := account.AccountID()
	res := h.db.WithContext(c.UserContext()).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":   models.OrderStatusAccepted,
			"rider_id": riderID,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var existing models.Order
		if err := h.db.WithContext(c.UserContext()).Select("id").First(&existing, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "order not found")
			}
			return err
		}
		return fiber.NewError(fiber.StatusConflict, "order has already been accepted")
	}

	var order models.Order
	if err := h.db.WithContext(c.UserContext()).First(&order, "id = ?", orderID).Error; err != nil {
		return err
	}

	rider, _ := account.(*models.Rider)
	notification := services.OrderNotification{
		OrderID:         order.ID.String(),
		PickupLocation:  order.PickupLocation,
		DropOffLocation: order.DropOffLocation,
		OfferAmount:     order.OfferAmount,
	}
	if rider != nil {
		notification.RiderName = rider.Name
		notification.RiderPhone = rider.Phone
	}
	h.telegram.NotifyBidAccepted(c.UserContext(), notification)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Rider has accepted your order",
		"data":    order,
	})
}

// RiderHistory lists orders the authenticated rider has accepted.
func (h *OrderHandler) RiderHistory(c *fiber.Ctx) error {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.db.WithContext(c.UserContext()).Model(&models.Order{}).Where("rider_id = ?", account.AccountID())
	return h.paginate(c, query)
}

// GetOrderForRider returns an order with the name of the user who placed
// it.
func (h *OrderHandler) GetOrderForRider(c *fiber.Ctx) error {
	order, err := h.findOrder(c, "orderId")
	if err != nil {
		return err
	}

	var owner models.User
	if err := h.db.WithContext(c.UserContext()).Select("id", "name").First(&owner, "id = ?", order.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"owner":   owner.Name,
	})
}

func (h *OrderHandler) findOrder(c *fiber.Ctx, param string) (*models.Order, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.WithContext(c.UserContext()).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}
