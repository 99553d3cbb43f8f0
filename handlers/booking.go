package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/booking"
)

type BookingHandler struct {
	booking booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{booking: svc}
}

// AvailableSlots lists the slots a customer can book right now.
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	slots, err := h.booking.AvailableSlots(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Failed to load slots", zap.Error(err))
		respondError(c, "Failed to load slots", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// SubmitFeedback records how a finished repair went.
func (h *BookingHandler) SubmitFeedback(c *gin.Context) {
	var req models.FeedbackRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.booking.SubmitFeedback(c.Request.Context(), req); err != nil {
		respondError(c, "Failed to submit feedback", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thank you for your feedback!"})
}

func (h *BookingHandler) ListFeedback(c *gin.Context) {
	list, err := h.booking.ListFeedback(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to load feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": list})
}
