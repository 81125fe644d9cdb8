package handlers

import (
	"fmt"
	"net/http"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrder - POST /api/orders
// Создать заказ и удержать билеты
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]service.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.LineItem{
			EventID:    item.EventID,
			Quantity:   item.Quantity,
			TicketType: item.TicketType,
			SeatID:     item.SeatID,
		})
	}

	order, err := h.services.Reservations.CreateHold(c.Request.Context(), userID, items)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, models.NewOrderResponse(order))
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// ConfirmOrder - POST /api/orders/:id/confirm
// Оплатить удержанный заказ
func (h *Handlers) ConfirmOrder(c *gin.Context) {
	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owned, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	order, err := h.services.Reservations.Confirm(c.Request.Context(), owned.ID, req.PaymentToken)
	if err != nil {
		h.handleServiceError(c, err, "Failed to confirm order")
		return
	}

	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// CancelOrder - POST /api/orders/:id/cancel
// Отменить заказ и освободить места
func (h *Handlers) CancelOrder(c *gin.Context) {
	owned, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	order, err := h.services.Reservations.Cancel(c.Request.Context(), owned.ID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// ownedOrder loads the order from the path and checks that the caller owns it.
// On failure the response is already written.
func (h *Handlers) ownedOrder(c *gin.Context) (*models.Order, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := paramID(c)
	if !ok {
		return nil, false
	}

	order, err := h.services.Reservations.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get order")
		return nil, false
	}
	if order.UserID != userID {
		h.handleServiceError(c, fmt.Errorf("order %d: %w", orderID, apperrors.ErrForbidden), "")
		return nil, false
	}
	return order, true
}
