package websocket

import "time"

// Event types for WebSocket messages
const (
	// Booking events
	EventBookingCreated   = "booking:created"
	EventBookingExtended  = "booking:extended"
	EventBookingEnded     = "booking:ended"
	EventBookingCancelled = "booking:cancelled"
)

// BookingEvent represents a booking lifecycle event
type BookingEvent struct {
	BookingID string    `json:"booking_id"`
	RoomID    string    `json:"room_id,omitempty"`
	RoomName  string    `json:"room_name,omitempty"`
	Organizer string    `json:"organizer"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
	Action    string    `json:"action"` // created, extended, ended, cancelled
}
