package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"autoshop/handlers"
	"autoshop/middleware"
	"autoshop/utils"
)

// RegisterSessionRoutes registers the customer booking conversation.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/session")
	{
		api.POST("", hb.StartSession)

		// Everything else needs the session token.
		api.Use(middleware.CustomerSessionMiddleware(hb.SessionCodec))
		api.GET("", hb.GetSession)
		api.DELETE("", hb.EndSession)
		api.POST("/identity", hb.SubmitIdentity)
		api.POST("/vehicle", hb.SubmitVehicle)
		api.POST("/messages", hb.SendMessage)
		api.POST("/slots/request", hb.RequestSlots)
		api.POST("/slots/select", hb.SelectSlot)
		api.POST("/slots/cancel", hb.CancelSelection)
		api.POST("/confirm", hb.ConfirmSlot)
		api.POST("/new-booking", hb.NewBooking)
	}
}

// RegisterPublicRoutes registers endpoints that need no session.
func RegisterPublicRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/slots", hb.AvailableSlots)
		api.POST("/feedback", hb.SubmitFeedback)
		api.GET("/fault-codes/:code", hb.LookupFaultCode)
	}
}

// RegisterShopRoutes registers the shop booking manager.
func RegisterShopRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/shop")
	{
		api.POST("/login", hb.ShopLogin)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.JWTAuthShopMiddleware())
		protected.GET("/bookings", hb.ListBookings)
		protected.GET("/bookings/pending", hb.PendingBookings)
		protected.POST("/bookings/:id/accept", hb.AcceptBooking)
		protected.POST("/bookings/:id/deny", hb.DenyBooking)
		protected.GET("/calendar", hb.Calendar)
		protected.GET("/feedback", hb.ListFeedback)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", utils.SessionHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	RegisterHealthRoute(r, hb)
	RegisterSessionRoutes(r, hb)
	RegisterPublicRoutes(r, hb)
	RegisterShopRoutes(r, hb)
}
