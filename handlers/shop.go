package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"autoshop/middleware"
	"autoshop/models"
	"autoshop/services/booking"
	"autoshop/utils"
)

// ShopHandler serves the shop's booking manager.
type ShopHandler struct {
	review       booking.ReviewService
	username     string
	passwordHash []byte
}

func NewShopHandler(review booking.ReviewService, username, passwordHash string) *ShopHandler {
	return &ShopHandler{review: review, username: username, passwordHash: []byte(passwordHash)}
}

// Login checks the shop credentials and returns a bearer token.
func (h *ShopHandler) Login(c *gin.Context) {
	logger := getLogger(c)

	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(h.passwordHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shop login is not configured"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password))
	if !userOK || passErr != nil {
		logger.Warn("Shop login failed", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := utils.GenerateToken(h.username, utils.ShopRole, utils.ShopTokenTTL)
	if err != nil {
		logger.Error("Failed to sign shop token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(utils.ShopTokenTTL.Seconds())})
}

func (h *ShopHandler) ListBookings(c *gin.Context) {
	views, err := h.review.All(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to load bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}

func (h *ShopHandler) PendingBookings(c *gin.Context) {
	views, err := h.review.Pending(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to load bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}

func (h *ShopHandler) AcceptBooking(c *gin.Context) {
	h.decide(c, h.review.Accept)
}

func (h *ShopHandler) DenyBooking(c *gin.Context) {
	h.decide(c, h.review.Deny)
}

func (h *ShopHandler) decide(c *gin.Context, fn func(context.Context, models.RecordID) (*models.BookingView, error)) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking id must be a non-negative number"})
		return
	}
	view, err := fn(c.Request.Context(), models.RecordID(id))
	if err != nil {
		respondError(c, "Failed to update booking", err)
		return
	}
	getLogger(c).Info("Booking decided",
		zap.Int("id", id), zap.String("status", string(view.Status)), zap.String("by", c.GetString(middleware.ShopUserKey)))
	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) Calendar(c *gin.Context) {
	events, err := h.review.CalendarEvents(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to load calendar", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
