package services

import (
	"context"
	"time"

	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/models"
)

// AvailabilityResolver merges raw calendar events with the resource
// directory into normalized bookings, and answers free/busy questions.
type AvailabilityResolver struct {
	calendar  Calendar
	directory Directory
	now       func() time.Time
}

func NewAvailabilityResolver(calendar Calendar, directory Directory) *AvailabilityResolver {
	return &AvailabilityResolver{
		calendar:  calendar,
		directory: directory,
		now:       time.Now,
	}
}

// ListActiveBookings returns the organizer's bookings from now onward.
// Events whose organizer differs, that carry no resource attendee, or whose
// resource cannot be resolved against the directory are dropped.
func (r *AvailabilityResolver) ListActiveBookings(ctx context.Context, organizer string) ([]models.Booking, error) {
	events, err := r.calendar.ListUpcomingEvents(ctx, organizer, r.now())
	if err != nil {
		return nil, err
	}

	rooms, err := r.directory.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	byLocation := make(map[string]gateway.DirectoryRoom, len(rooms))
	for _, room := range rooms {
		byLocation[room.Location] = room
	}

	bookings := make([]models.Booking, 0, len(events))
	for _, ev := range events {
		if ev.Organizer != organizer {
			continue
		}
		ra := ev.ResourceAttendee()
		if ra == nil {
			continue
		}
		room, ok := byLocation[ra.DisplayName]
		if !ok {
			continue
		}
		bookings = append(bookings, Normalize(ev, RoomFromDirectory(room)))
	}
	return bookings, nil
}

// Rooms returns the full bookable room directory.
func (r *AvailabilityResolver) Rooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := r.directory.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomFromDirectory(room))
	}
	return out, nil
}

// ResolveRoom finds the directory room carrying the given display location.
// The zero Room is returned when no directory entry matches.
func (r *AvailabilityResolver) ResolveRoom(ctx context.Context, location string) (models.Room, error) {
	rooms, err := r.directory.ListRooms(ctx)
	if err != nil {
		return models.Room{}, err
	}
	for _, room := range rooms {
		if room.Location == location {
			return RoomFromDirectory(room), nil
		}
	}
	return models.Room{}, nil
}

// CurrentlyRunning filters bookings to those spanning now.
func CurrentlyRunning(bookings []models.Booking, now time.Time) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.StartTime.After(now) && !b.EndTime.Before(now) {
			out = append(out, b)
		}
	}
	return out
}

// NextConflict returns, per resource id, the start of the first busy
// interval at or after from. A result equal to the horizon `to` means no
// conflict is known inside the window; callers must not read it as a real
// conflict.
func (r *AvailabilityResolver) NextConflict(ctx context.Context, resourceIDs []string, from, to time.Time) (map[string]time.Time, error) {
	busy, err := r.calendar.FreeBusy(ctx, resourceIDs, from, to)
	if err != nil {
		return nil, err
	}

	out := make(map[string]time.Time, len(resourceIDs))
	for _, id := range resourceIDs {
		out[id] = firstBusyStart(busy[id], from, to)
	}
	return out, nil
}

func firstBusyStart(windows []gateway.BusyWindow, from, to time.Time) time.Time {
	first := to
	for _, w := range windows {
		if w.Start.Before(from) {
			continue
		}
		if w.Start.Before(first) {
			first = w.Start
		}
	}
	return first
}

// Normalize joins a raw event with its resolved room into the client-facing
// booking shape.
func Normalize(ev gateway.Event, room models.Room) models.Booking {
	status := models.StatusNeedsAction
	if ra := ev.ResourceAttendee(); ra != nil {
		switch models.ResourceStatus(ra.ResponseStatus) {
		case models.StatusAccepted:
			status = models.StatusAccepted
		case models.StatusDeclined:
			status = models.StatusDeclined
		}
	}
	return models.Booking{
		ID:             ev.ID,
		StartTime:      ev.Start,
		EndTime:        ev.End,
		Organizer:      ev.Organizer,
		Room:           room,
		ResourceStatus: status,
		MeetingLink:    ev.MeetingLink,
	}
}

// RoomFromDirectory maps a directory record to the API room shape.
func RoomFromDirectory(room gateway.DirectoryRoom) models.Room {
	return models.Room{
		ID:       room.ID,
		Name:     room.Name,
		Capacity: room.Capacity,
		Building: room.Building,
		Floor:    room.Floor,
		Features: room.Features,
		Location: room.Location,
		Email:    room.Email,
	}
}
