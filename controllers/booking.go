package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/config"
	"github.com/roomly/roomly-be/models"
	"github.com/roomly/roomly-be/services"
	"github.com/roomly/roomly-be/websocket"
)

type BookingController struct {
	orchestrator *services.BookingOrchestrator
	mutator      *services.BookingMutator
	resolver     *services.AvailabilityResolver
	location     *time.Location
}

func NewBookingController(orchestrator *services.BookingOrchestrator, mutator *services.BookingMutator, resolver *services.AvailabilityResolver, location *time.Location) *BookingController {
	if location == nil {
		location = time.Local
	}
	return &BookingController{
		orchestrator: orchestrator,
		mutator:      mutator,
		resolver:     resolver,
		location:     location,
	}
}

type CreateBookingRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	Title    string `json:"title"`
	Duration int    `json:"duration" binding:"required,gt=0"` // minutes
}

type AddTimeRequest struct {
	TimeToAdd int `json:"timeToAdd" binding:"required"` // minutes, may be negative
}

func (bc *BookingController) CreateBooking(c *gin.Context) {
	userID, _ := c.Get("user_id")
	organizer, _ := c.Get("user_email")

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := bc.orchestrator.Create(c.Request.Context(), services.CreateBookingParams{
		UserID:               userID.(uint),
		Organizer:            organizer.(string),
		RoomID:               req.RoomID,
		Title:                req.Title,
		Duration:             time.Duration(req.Duration) * time.Minute,
		SkipConfirmationWait: c.Query("noConfirmation") == "true",
	})
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	bc.broadcast(websocket.EventBookingCreated, booking, "created")
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

func (bc *BookingController) GetCurrentBookings(c *gin.Context) {
	organizer, _ := c.Get("user_email")
	now := time.Now()

	until := services.EndOfDay(now, bc.location)
	if raw := c.Query("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until parameter, expected an RFC3339 instant"})
			return
		}
		until = parsed
	}

	bookings, err := bc.resolver.ListActiveBookings(c.Request.Context(), organizer.(string))
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}
	running := services.CurrentlyRunning(bookings, now)

	// Attach the next conflicting interval per room. Reaching the horizon
	// means no known conflict.
	ids := make([]string, 0, len(running))
	seen := make(map[string]bool, len(running))
	for _, b := range running {
		if b.Room.Email != "" && !seen[b.Room.Email] {
			seen[b.Room.Email] = true
			ids = append(ids, b.Room.Email)
		}
	}
	if len(ids) > 0 {
		conflicts, err := bc.resolver.NextConflict(c.Request.Context(), ids, now, until)
		if err != nil {
			c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
			return
		}
		for i := range running {
			if at, ok := conflicts[running[i].Room.Email]; ok {
				t := at
				running[i].Room.NextConflictStart = &t
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"bookings": running, "until": until})
}

func (bc *BookingController) AddTime(c *gin.Context) {
	userID, _ := c.Get("user_id")
	organizer, _ := c.Get("user_email")

	bookingID := c.Param("id")
	if !models.ValidBookingID(bookingID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req AddTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := bc.mutator.Extend(c.Request.Context(), services.ExtendParams{
		UserID:               userID.(uint),
		Organizer:            organizer.(string),
		BookingID:            bookingID,
		Delta:                time.Duration(req.TimeToAdd) * time.Minute,
		SkipConfirmationWait: c.Query("noConfirmation") == "true",
	})
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	bc.broadcast(websocket.EventBookingExtended, booking, "extended")
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (bc *BookingController) EndNow(c *gin.Context) {
	userID, _ := c.Get("user_id")
	organizer, _ := c.Get("user_email")

	bookingID := c.Param("id")
	if !models.ValidBookingID(bookingID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := bc.mutator.EndNow(c.Request.Context(), userID.(uint), organizer.(string), bookingID)
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	bc.broadcast(websocket.EventBookingEnded, booking, "ended")
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (bc *BookingController) CancelBooking(c *gin.Context) {
	userID, _ := c.Get("user_id")
	organizer, _ := c.Get("user_email")

	bookingID := c.Param("id")
	if !models.ValidBookingID(bookingID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := bc.mutator.Cancel(c.Request.Context(), userID.(uint), organizer.(string), bookingID); err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}

	if config.WSHub != nil {
		config.WSHub.Broadcast(websocket.EventBookingCancelled, websocket.BookingEvent{
			BookingID: bookingID,
			Organizer: organizer.(string),
			Action:    "cancelled",
		})
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Booking cancelled"})
}

func (bc *BookingController) GetRooms(c *gin.Context) {
	rooms, err := bc.resolver.Rooms(c.Request.Context())
	if err != nil {
		c.JSON(apperrors.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (bc *BookingController) broadcast(eventType string, booking models.Booking, action string) {
	if config.WSHub == nil {
		return
	}
	config.WSHub.Broadcast(eventType, websocket.BookingEvent{
		BookingID: booking.ID,
		RoomID:    booking.Room.ID,
		RoomName:  booking.Room.Name,
		Organizer: booking.Organizer,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Action:    action,
	})
}
