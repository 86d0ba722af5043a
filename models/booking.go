package models

import (
	"regexp"
	"time"
)

// ResourceStatus is the room attendee's acceptance state on the calendar
// event. The room's calendar confirms or declines asynchronously.
type ResourceStatus string

const (
	StatusNeedsAction ResourceStatus = "needsAction"
	StatusAccepted    ResourceStatus = "accepted"
	StatusDeclined    ResourceStatus = "declined"
)

// Booking is the client-facing view of a calendar event that reserves a
// room. The calendar service is the source of truth; bookings are never
// persisted locally.
type Booking struct {
	ID             string         `json:"id"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Organizer      string         `json:"organizer"`
	Room           Room           `json:"room"`
	ResourceStatus ResourceStatus `json:"resource_status"`
	MeetingLink    string         `json:"meeting_link,omitempty"`
}

// Room is a bookable resource from the directory. Location is the display
// identity that correlates a calendar resource attendee to exactly one
// directory entry. The zero value stands in for an unresolved room.
type Room struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Capacity          int        `json:"capacity"`
	Building          string     `json:"building"`
	Floor             string     `json:"floor"`
	Features          []string   `json:"features,omitempty"`
	Location          string     `json:"location"`
	Email             string     `json:"-"` // resource calendar address, used for free/busy lookups
	NextConflictStart *time.Time `json:"next_conflict_start,omitempty"`
}

// IsEmpty reports whether the room is the unresolved sentinel.
func (r Room) IsEmpty() bool {
	return r.ID == "" && r.Location == ""
}

// Calendar event ids are opaque URL-safe tokens.
// The repeat is split because Go's regexp engine caps repeat counts at
// 1000; the two pieces together still match 5 to 1024 characters.
var bookingIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{5,1000}[A-Za-z0-9_-]{0,24}$`)

// ValidBookingID reports whether id is a well-formed booking identifier.
func ValidBookingID(id string) bool {
	return bookingIDPattern.MatchString(id)
}
