package handlers

import (
	"net/http"
	"strconv"

	"boxoffice/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent - POST /api/events
// Создать событие
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, models.CreateEventResponse{ID: event.ID})
}

// GetAvailability - GET /api/events/:id/availability?quantity=n
// Проверить, можно ли удержать n билетов
func (h *Handlers) GetAvailability(c *gin.Context) {
	eventID, ok := paramID(c)
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be >= 1"})
		return
	}

	a, err := h.services.Events.CheckAvailability(c.Request.Context(), eventID, quantity)
	if err != nil {
		h.handleServiceError(c, err, "Failed to check availability")
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityResponse{
		EventID:   a.EventID,
		Capacity:  a.Capacity,
		Reserved:  a.Reserved,
		Available: a.Available,
		SalesOpen: a.SalesOpen,
		CanBook:   a.CanBook,
	})
}

// GetBestSeat - GET /api/events/:id/best-seat
func (h *Handlers) GetBestSeat(c *gin.Context) {
	eventID, ok := paramID(c)
	if !ok {
		return
	}

	seat, err := h.services.Events.BestSeat(c.Request.Context(), eventID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to find seat")
		return
	}

	c.JSON(http.StatusOK, seat)
}

// OpenSales - POST /api/events/:id/open
func (h *Handlers) OpenSales(c *gin.Context) {
	h.setSales(c, true)
}

// CloseSales - POST /api/events/:id/close
func (h *Handlers) CloseSales(c *gin.Context) {
	h.setSales(c, false)
}

func (h *Handlers) setSales(c *gin.Context, open bool) {
	eventID, ok := paramID(c)
	if !ok {
		return
	}

	var (
		event *models.Event
		err   error
	)
	if open {
		event, err = h.services.Events.OpenSales(c.Request.Context(), eventID)
	} else {
		event, err = h.services.Events.CloseSales(c.Request.Context(), eventID)
	}
	if err != nil {
		h.handleServiceError(c, err, "Failed to update sales")
		return
	}

	c.JSON(http.StatusOK, event)
}
