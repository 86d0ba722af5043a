package services

import (
	"context"
	"log"
	"time"

	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/models"
)

// NotificationArmer is the slice of the notification scheduler the booking
// services drive: supersede-and-rearm on every end-time change, teardown on
// cancel.
type NotificationArmer interface {
	Schedule(ctx context.Context, userID uint, bookingID, roomName string, end time.Time) error
	Cancel(ctx context.Context, userID uint, bookingID string) error
}

// BookingOrchestrator creates bookings on the external calendar, waits for
// the room to confirm, and compensates when it declines.
type BookingOrchestrator struct {
	calendar  Calendar
	directory Directory
	scheduler NotificationArmer
	policy    RetryPolicy
	now       func() time.Time
}

func NewBookingOrchestrator(calendar Calendar, directory Directory, scheduler NotificationArmer) *BookingOrchestrator {
	return &BookingOrchestrator{
		calendar:  calendar,
		directory: directory,
		scheduler: scheduler,
		policy:    DefaultAcceptancePolicy,
		now:       time.Now,
	}
}

type CreateBookingParams struct {
	UserID               uint
	Organizer            string
	RoomID               string
	Title                string
	Duration             time.Duration
	SkipConfirmationWait bool
}

// Create books a room for [now, now+duration). Unless the caller opted out,
// it waits a bounded time for the room's calendar to confirm; a decline
// rolls the event back and surfaces a conflict. Exhausting the wait leaves
// the booking pending, which is a success.
func (o *BookingOrchestrator) Create(ctx context.Context, p CreateBookingParams) (models.Booking, error) {
	if p.RoomID == "" {
		return models.Booking{}, apperrors.BadRequest("roomId is required")
	}
	if p.Duration <= 0 {
		return models.Booking{}, apperrors.BadRequest("duration must be positive")
	}

	room, err := o.directory.GetRoom(ctx, p.RoomID)
	if err != nil {
		return models.Booking{}, err
	}

	start := o.now()
	end := start.Add(p.Duration)

	ev, err := o.calendar.CreateEvent(ctx, gateway.EventInput{
		Summary: p.Title,
		Start:   start,
		End:     end,
		Attendees: []gateway.Attendee{
			{
				Email:          room.Email,
				DisplayName:    room.Location,
				Resource:       true,
				ResponseStatus: string(models.StatusNeedsAction),
			},
			{
				Email:          p.Organizer,
				ResponseStatus: string(models.StatusAccepted),
			},
		},
	})
	if err != nil {
		return models.Booking{}, err
	}

	if !p.SkipConfirmationWait {
		decision, waitErr := o.awaitResourceDecision(ctx, ev.ID, &ev)
		if waitErr != nil {
			log.Printf("booking %s: acceptance check aborted: %v", ev.ID, waitErr)
		}
		if decision == DecisionDeclined {
			if delErr := o.calendar.DeleteEvent(ctx, ev.ID); delErr != nil {
				log.Printf("booking %s: rollback delete failed, upstream state diverged: %v", ev.ID, delErr)
				return models.Booking{}, apperrors.Internal("failed to roll back declined booking", delErr)
			}
			return models.Booking{}, apperrors.Conflict("room declined the booking")
		}
	}

	booking := Normalize(ev, RoomFromDirectory(room))

	if err := o.scheduler.Schedule(ctx, p.UserID, booking.ID, room.Name, booking.EndTime); err != nil {
		log.Printf("booking %s: failed to arm notification: %v", booking.ID, err)
	}

	return booking, nil
}

// awaitResourceDecision polls the event until the resource attendee answers
// or the policy runs out. Read failures count as still-pending; the latest
// successfully read event is written back through latest.
func (o *BookingOrchestrator) awaitResourceDecision(ctx context.Context, eventID string, latest *gateway.Event) (Decision, error) {
	return o.policy.Await(ctx, func(ctx context.Context) (Decision, error) {
		ev, err := o.calendar.GetEvent(ctx, eventID)
		if err != nil {
			log.Printf("booking %s: acceptance probe failed: %v", eventID, err)
			return DecisionPending, nil
		}
		*latest = ev
		ra := ev.ResourceAttendee()
		if ra == nil {
			return DecisionPending, nil
		}
		switch models.ResourceStatus(ra.ResponseStatus) {
		case models.StatusAccepted:
			return DecisionAccepted, nil
		case models.StatusDeclined:
			return DecisionDeclined, nil
		default:
			return DecisionPending, nil
		}
	})
}
