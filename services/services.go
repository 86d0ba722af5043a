// Package services implements the booking orchestration core: availability
// resolution over the external calendar, booking creation with acceptance
// verification and compensation, booking mutation with conflict re-checks,
// and end-of-booking notification scheduling.
package services

import (
	"context"
	"time"

	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/models"
)

// Calendar is the slice of the external calendar service the booking core
// depends on.
type Calendar interface {
	CreateEvent(ctx context.Context, in gateway.EventInput) (gateway.Event, error)
	GetEvent(ctx context.Context, id string) (gateway.Event, error)
	PatchEvent(ctx context.Context, id string, patch gateway.EventPatch) (gateway.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListUpcomingEvents(ctx context.Context, organizer string, from time.Time) ([]gateway.Event, error)
	FreeBusy(ctx context.Context, resourceIDs []string, from, to time.Time) (map[string][]gateway.BusyWindow, error)
}

// Directory resolves bookable rooms.
type Directory interface {
	ListRooms(ctx context.Context) ([]gateway.DirectoryRoom, error)
	GetRoom(ctx context.Context, id string) (gateway.DirectoryRoom, error)
}

// UserStore persists per-user subscription state and live schedule entries.
type UserStore interface {
	GetUser(ctx context.Context, userID uint) (models.User, error)
	UpdateSubscription(ctx context.Context, userID uint, endpoint, p256dh, auth string) error
	ClearSubscription(ctx context.Context, userID uint) error

	CreateScheduleEntry(ctx context.Context, entry models.ScheduleEntry) error
	DeleteScheduleEntry(ctx context.Context, id string) error
	EntryByID(ctx context.Context, id string) (models.ScheduleEntry, error)
	EntryByBooking(ctx context.Context, userID uint, bookingID string) (models.ScheduleEntry, error)
	EntriesByUser(ctx context.Context, userID uint) ([]models.ScheduleEntry, error)
	AllEntries(ctx context.Context) ([]models.ScheduleEntry, error)
}

// EndOfDay returns the next local midnight after t, the default horizon for
// conflict lookups.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day()+1, 0, 0, 0, 0, loc)
}
