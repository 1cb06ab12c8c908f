package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/logging"
	authmw "github.com/svm-engineering/storefront/internal/middleware/auth"
	"github.com/svm-engineering/storefront/internal/models"
	"github.com/svm-engineering/storefront/internal/mykafka"
)

const orderNumberPrefix = "ORD-"

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer

	mu        sync.Mutex
	lastStamp int64
}

// nextOrderNumber derives the human-readable number from the creation
// timestamp. Two creations landing on the same millisecond get distinct
// stamps, so numbers never collide within a process; the unique index on
// order_number backstops across processes.
func (h *OrderHandler) nextOrderNumber() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	stamp := time.Now().UnixMilli()
	if stamp <= h.lastStamp {
		stamp = h.lastStamp + 1
	}
	h.lastStamp = stamp

	s := strconv.FormatInt(stamp, 10)
	return orderNumberPrefix + s[len(s)-8:]
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return errorEnvelope(c, http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		Customer      models.Customer        `json:"customer"`
		Product       models.ProductSnapshot `json:"product"`
		Quantity      int                    `json:"quantity"`
		TotalAmount   float64                `json:"totalAmount"`
		PaymentMethod string                 `json:"paymentMethod"`
	}
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}

	switch {
	case req.Customer.Name == "", req.Customer.Email == "", req.Customer.Phone == "", req.Customer.Address == "":
		return errorEnvelope(c, http.StatusBadRequest, "customer name, email, phone and address are required")
	case req.Product.Name == "":
		return errorEnvelope(c, http.StatusBadRequest, "product is required")
	case req.Quantity < 1:
		return errorEnvelope(c, http.StatusBadRequest, "quantity must be at least 1")
	case !models.ValidPaymentMethod(req.PaymentMethod):
		return errorEnvelope(c, http.StatusBadRequest, "invalid payment method")
	}

	order := models.Order{
		OrderNumber:   h.nextOrderNumber(),
		Customer:      req.Customer,
		Product:       req.Product,
		Quantity:      req.Quantity,
		TotalAmount:   req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		CreatedBy:     userID,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		return internalError(c, "order.create", err)
	}

	h.publish(c, order.ID, map[string]interface{}{
		"type":        "order_created",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      userID,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"order":   order,
	})
}

// ListOrders returns every order, newest first. Admin only.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Order("created_at DESC").Find(&orders).Error; err != nil {
		return internalError(c, "order.list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"orders":  orders,
	})
}

// MyOrders returns the caller's orders: those it created, plus unattributed
// orders whose customer email matches the caller's account email. Pure read,
// no side effects; repair lives in FixMissingCreatedBy.
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return errorEnvelope(c, http.StatusUnauthorized, "authentication required")
	}
	email := authmw.Email(c)

	var orders []models.Order
	err := h.DB.
		Where("created_by = ? OR (created_by = 0 AND customer_email = ?)", userID, email).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return internalError(c, "order.my_orders", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"orders":  orders,
	})
}

// FixMissingCreatedBy claims unattributed orders whose customer email matches
// the caller. Idempotent: a second invocation finds nothing left to heal.
func (h *OrderHandler) FixMissingCreatedBy(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return errorEnvelope(c, http.StatusUnauthorized, "authentication required")
	}
	email := authmw.Email(c)

	res := h.DB.Model(&models.Order{}).
		Where("created_by = 0 AND customer_email = ?", email).
		Update("created_by", userID)
	if res.Error != nil {
		return internalError(c, "order.fix_created_by", res.Error)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"updated": res.RowsAffected,
	})
}

// UpdateStatus moves an order through the status machine. Admin only.
// Illegal transitions (including any move out of delivered or cancelled) are
// rejected.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, err.Error())
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorEnvelope(c, http.StatusNotFound, "Order not found")
		}
		return internalError(c, "order.update_status", err)
	}

	next, err := models.Transition(order.Status, target)
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, err.Error())
	}

	order.Status = next
	if err := h.DB.Save(&order).Error; err != nil {
		return internalError(c, "order.update_status", err)
	}

	h.publish(c, order.ID, map[string]interface{}{
		"type":        "order_status_updated",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      string(order.Status),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}

func (h *OrderHandler) publish(c echo.Context, orderID uint, event map[string]interface{}) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(orderID), event); err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "topic", "order_events", "error", err)
	}
}
