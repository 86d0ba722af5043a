package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/models"
)

// conflictTolerance absorbs clock and propagation skew when comparing a
// locally computed end time against an upstream-reported busy start.
const conflictTolerance = 15 * time.Second

// BookingMutator extends, shortens, and cancels existing bookings,
// re-validating against upstream free/busy state and reverting on conflict.
// All mutations of one booking serialize on a per-id mutex so a rollback
// can never interleave with a concurrent extension.
type BookingMutator struct {
	calendar  Calendar
	resolver  *AvailabilityResolver
	scheduler NotificationArmer
	policy    RetryPolicy
	location  *time.Location
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBookingMutator(calendar Calendar, resolver *AvailabilityResolver, scheduler NotificationArmer, location *time.Location) *BookingMutator {
	if location == nil {
		location = time.Local
	}
	return &BookingMutator{
		calendar:  calendar,
		resolver:  resolver,
		scheduler: scheduler,
		policy:    DefaultAcceptancePolicy,
		location:  location,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (m *BookingMutator) lock(bookingID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[bookingID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[bookingID] = l
	}
	return l
}

type ExtendParams struct {
	UserID               uint
	Organizer            string
	BookingID            string
	Delta                time.Duration
	Horizon              time.Time // zero means end of local day
	SkipConfirmationWait bool
}

// Extend moves the booking's end by Delta. Positive deltas are re-reviewed
// by the resource calendar: the end is patched optimistically, checked
// against free/busy with the ±15s tolerance band, and reverted if the room
// does not re-accept. Negative deltas shorten without any confirmation.
func (m *BookingMutator) Extend(ctx context.Context, p ExtendParams) (models.Booking, error) {
	if !models.ValidBookingID(p.BookingID) {
		return models.Booking{}, apperrors.BadRequest("malformed booking id")
	}
	if p.Delta == 0 {
		return models.Booking{}, apperrors.BadRequest("timeToAdd must be non-zero")
	}

	l := m.lock(p.BookingID)
	l.Lock()
	defer l.Unlock()

	ev, err := m.calendar.GetEvent(ctx, p.BookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if ev.Organizer != p.Organizer {
		return models.Booking{}, apperrors.NotFound("booking not found")
	}

	oldEnd := ev.End
	newEnd := oldEnd.Add(p.Delta)
	if !newEnd.After(ev.Start) {
		return models.Booking{}, apperrors.BadRequest("booking would end before it starts")
	}

	patch := gateway.EventPatch{End: &newEnd}
	if p.Delta > 0 {
		// An extension of an already-accepted booking is not a fresh
		// request; mark the resource accepted optimistically and let the
		// confirmation step catch a re-decline.
		patch.ResourceStatus = string(models.StatusAccepted)
	}
	updated, err := m.calendar.PatchEvent(ctx, p.BookingID, patch)
	if err != nil {
		return models.Booking{}, err
	}

	if p.Delta > 0 {
		conflicted, err := m.checkRoomIsFree(ctx, updated, oldEnd, newEnd, p.Horizon)
		if err != nil {
			return models.Booking{}, err
		}

		if !p.SkipConfirmationWait {
			decision, waitErr := m.awaitResourceDecision(ctx, p.BookingID, &updated)
			if waitErr != nil {
				log.Printf("booking %s: confirmation check aborted: %v", p.BookingID, waitErr)
			}
			if conflicted || decision != DecisionAccepted {
				m.revertEnd(ctx, p.BookingID, oldEnd)
				return models.Booking{}, apperrors.Conflict("room is not free for the extended time")
			}
		} else if conflicted {
			return models.Booking{}, apperrors.Conflict("room is not free for the extended time")
		}
	}

	booking := m.finishMutation(ctx, p.UserID, updated)
	return booking, nil
}

// EndNow shortens the booking to the current instant and hands the slot
// back to the room's calendar by resetting the resource attendee to
// needsAction.
func (m *BookingMutator) EndNow(ctx context.Context, userID uint, organizer, bookingID string) (models.Booking, error) {
	if !models.ValidBookingID(bookingID) {
		return models.Booking{}, apperrors.BadRequest("malformed booking id")
	}

	l := m.lock(bookingID)
	l.Lock()
	defer l.Unlock()

	ev, err := m.calendar.GetEvent(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if ev.Organizer != organizer {
		return models.Booking{}, apperrors.NotFound("booking not found")
	}

	now := m.now()
	if !now.After(ev.Start) {
		return models.Booking{}, apperrors.BadRequest("booking has not started yet")
	}

	updated, err := m.calendar.PatchEvent(ctx, bookingID, gateway.EventPatch{
		End:            &now,
		ResourceStatus: string(models.StatusNeedsAction),
	})
	if err != nil {
		return models.Booking{}, err
	}

	booking := m.finishMutation(ctx, userID, updated)
	return booking, nil
}

// Cancel deletes the booking upstream and tears down its schedule entry.
// Teardown failure does not fail the cancel; a stray timer firing later is
// harmless because its entry will already be gone.
func (m *BookingMutator) Cancel(ctx context.Context, userID uint, organizer, bookingID string) error {
	if !models.ValidBookingID(bookingID) {
		return apperrors.BadRequest("malformed booking id")
	}

	l := m.lock(bookingID)
	l.Lock()
	defer l.Unlock()

	ev, err := m.calendar.GetEvent(ctx, bookingID)
	if err != nil {
		return err
	}
	if ev.Organizer != organizer {
		return apperrors.NotFound("booking not found")
	}

	if err := m.calendar.DeleteEvent(ctx, bookingID); err != nil {
		return err
	}

	if err := m.scheduler.Cancel(ctx, userID, bookingID); err != nil {
		log.Printf("booking %s: schedule teardown failed after cancel: %v", bookingID, err)
	}
	return nil
}

// checkRoomIsFree queries free/busy from the pre-extension end to the
// horizon and reports whether the first conflict lands before the requested
// new end by more than the tolerance band.
func (m *BookingMutator) checkRoomIsFree(ctx context.Context, ev gateway.Event, oldEnd, newEnd, horizon time.Time) (bool, error) {
	ra := ev.ResourceAttendee()
	if ra == nil {
		return false, apperrors.Internal("event has no resource attendee", nil)
	}
	if horizon.IsZero() {
		horizon = EndOfDay(oldEnd, m.location)
	}

	busy, err := m.calendar.FreeBusy(ctx, []string{ra.Email}, oldEnd, horizon)
	if err != nil {
		return false, err
	}
	conflictAt := firstBusyStart(busy[ra.Email], oldEnd, horizon)
	return conflictAt.Before(newEnd.Add(-conflictTolerance)), nil
}

func (m *BookingMutator) awaitResourceDecision(ctx context.Context, eventID string, latest *gateway.Event) (Decision, error) {
	return m.policy.Await(ctx, func(ctx context.Context) (Decision, error) {
		ev, err := m.calendar.GetEvent(ctx, eventID)
		if err != nil {
			log.Printf("booking %s: confirmation probe failed: %v", eventID, err)
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

// revertEnd is the compensating update after a failed extension. Its own
// failure is logged but does not change the conflict already owed to the
// caller.
func (m *BookingMutator) revertEnd(ctx context.Context, bookingID string, oldEnd time.Time) {
	if _, err := m.calendar.PatchEvent(ctx, bookingID, gateway.EventPatch{End: &oldEnd}); err != nil {
		log.Printf("booking %s: compensating revert failed, upstream state diverged: %v", bookingID, err)
	}
}

// finishMutation reschedules the end-time notification inside the booking's
// critical section and normalizes the response. Room resolution and
// schedule failures degrade gracefully; the mutation itself has succeeded.
func (m *BookingMutator) finishMutation(ctx context.Context, userID uint, ev gateway.Event) models.Booking {
	var room models.Room
	roomName := ""
	if ra := ev.ResourceAttendee(); ra != nil {
		roomName = ra.DisplayName
		resolved, err := m.resolver.ResolveRoom(ctx, ra.DisplayName)
		if err != nil {
			log.Printf("booking %s: room resolution failed: %v", ev.ID, err)
		} else {
			room = resolved
			if room.Name != "" {
				roomName = room.Name
			}
		}
	}

	if err := m.scheduler.Schedule(ctx, userID, ev.ID, roomName, ev.End); err != nil {
		log.Printf("booking %s: failed to rearm notification: %v", ev.ID, err)
	}

	return Normalize(ev, room)
}
