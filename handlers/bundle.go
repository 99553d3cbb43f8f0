// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"autoshop/middleware"
	"autoshop/services/booking"
	"autoshop/services/session"
	"autoshop/utils"
)

func init() {
	utils.RegisterConflict(booking.ErrInvalidStatusTransition, booking.ErrSlotConflict, session.ErrInvalidTransition)
}

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	SessionCodec *middleware.SessionCodec

	// Customer session endpoints
	StartSession    gin.HandlerFunc
	GetSession      gin.HandlerFunc
	EndSession      gin.HandlerFunc
	SubmitIdentity  gin.HandlerFunc
	SubmitVehicle   gin.HandlerFunc
	SendMessage     gin.HandlerFunc
	RequestSlots    gin.HandlerFunc
	SelectSlot      gin.HandlerFunc
	CancelSelection gin.HandlerFunc
	ConfirmSlot     gin.HandlerFunc
	NewBooking      gin.HandlerFunc

	// Public booking endpoints
	AvailableSlots  gin.HandlerFunc
	SubmitFeedback  gin.HandlerFunc
	LookupFaultCode gin.HandlerFunc

	// Shop endpoints
	ShopLogin       gin.HandlerFunc
	ListBookings    gin.HandlerFunc
	PendingBookings gin.HandlerFunc
	AcceptBooking   gin.HandlerFunc
	DenyBooking     gin.HandlerFunc
	Calendar        gin.HandlerFunc
	ListFeedback    gin.HandlerFunc

	Health gin.HandlerFunc
}
