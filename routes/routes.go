package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/roomly/roomly-be/config"
	"github.com/roomly/roomly-be/controllers"
	"github.com/roomly/roomly-be/middleware"
	"github.com/roomly/roomly-be/websocket"
)

func SetupRoutes(jwtSecret string, authController *controllers.AuthController, bookingController *controllers.BookingController, notificationController *controllers.NotificationController) *gin.Engine {
	r := gin.Default()

	// Public routes
	r.POST("/auth/login", authController.Login)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		protected.POST("/booking", bookingController.CreateBooking)
		protected.GET("/booking/current", bookingController.GetCurrentBookings)
		protected.PATCH("/booking/:id/addTime", bookingController.AddTime)
		protected.PATCH("/booking/:id/endNow", bookingController.EndNow)
		protected.DELETE("/booking/:id", bookingController.CancelBooking)

		protected.POST("/notification", notificationController.Subscribe)
		protected.DELETE("/notification", notificationController.Unsubscribe)
		protected.POST("/notification/test", notificationController.SendTest)

		protected.GET("/rooms", bookingController.GetRooms)

		protected.GET("/ws", websocket.HandleWebSocket(config.WSHub))
	}

	return r
}
