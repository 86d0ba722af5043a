package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/models"
	"github.com/roomly/roomly-be/push"
)

// NotificationScheduler arms one timed notification per live booking, fired
// a fixed lead before the booking's end. The persisted schedule entries are
// the durable record; the in-memory timer table mirrors them and is rebuilt
// from the store at boot via Rehydrate.
type NotificationScheduler struct {
	store  UserStore
	sender push.Sender
	lead   time.Duration
	now    func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer // entry id -> armed job
}

func NewNotificationScheduler(store UserStore, sender push.Sender, lead time.Duration) *NotificationScheduler {
	if lead <= 0 {
		lead = 5 * time.Minute
	}
	return &NotificationScheduler{
		store:  store,
		sender: sender,
		lead:   lead,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

// Rehydrate rebuilds the timer table from persisted entries after a
// restart. Entries whose fire time already passed are discarded instead of
// fired; the notification window is gone.
func (s *NotificationScheduler) Rehydrate(ctx context.Context) error {
	entries, err := s.store.AllEntries(ctx)
	if err != nil {
		return fmt.Errorf("load schedule entries: %w", err)
	}

	now := s.now()
	armed, dropped := 0, 0
	for _, e := range entries {
		if !e.FireAt.After(now) {
			if err := s.store.DeleteScheduleEntry(ctx, e.ID); err != nil {
				log.Printf("notifier: failed to discard stale entry %s: %v", e.ID, err)
			}
			dropped++
			continue
		}
		s.arm(e)
		armed++
	}
	log.Printf("notifier: rehydrated %d timers, discarded %d stale entries", armed, dropped)
	return nil
}

// Subscribe registers the user's push endpoint and grants notification
// permission.
func (s *NotificationScheduler) Subscribe(ctx context.Context, userID uint, endpoint, p256dh, auth string) error {
	if endpoint == "" {
		return apperrors.BadRequest("subscription endpoint is required")
	}
	if err := s.store.UpdateSubscription(ctx, userID, endpoint, p256dh, auth); err != nil {
		return apperrors.Internal("failed to save subscription", err)
	}
	return nil
}

// Unsubscribe drops the user's endpoint and cancels every pending entry.
func (s *NotificationScheduler) Unsubscribe(ctx context.Context, userID uint) error {
	if err := s.CancelAll(ctx, userID); err != nil {
		return err
	}
	if err := s.store.ClearSubscription(ctx, userID); err != nil {
		return apperrors.Internal("failed to clear subscription", err)
	}
	return nil
}

// Schedule arms the end-of-booking notification at end minus the lead.
// A prior entry for the same booking is superseded first, so a reschedule
// can never leave two live timers; no-op when the user has no permission or
// subscription, or when the fire time is already in the past.
func (s *NotificationScheduler) Schedule(ctx context.Context, userID uint, bookingID, roomName string, end time.Time) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return apperrors.Internal("failed to load user", err)
	}
	if !user.NotificationPermission || !user.HasSubscription() {
		return nil
	}

	if err := s.supersede(ctx, userID, bookingID); err != nil {
		return err
	}

	fireAt := end.Add(-s.lead)
	if !fireAt.After(s.now()) {
		return nil
	}

	entry := models.ScheduleEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookingID: bookingID,
		RoomName:  roomName,
		FireAt:    fireAt,
	}
	if err := s.store.CreateScheduleEntry(ctx, entry); err != nil {
		return apperrors.Internal("failed to persist schedule entry", err)
	}
	s.arm(entry)
	return nil
}

// Cancel tears down the entry tracking the given booking, if any.
func (s *NotificationScheduler) Cancel(ctx context.Context, userID uint, bookingID string) error {
	return s.supersede(ctx, userID, bookingID)
}

// CancelAll tears down every entry owned by the user.
func (s *NotificationScheduler) CancelAll(ctx context.Context, userID uint) error {
	entries, err := s.store.EntriesByUser(ctx, userID)
	if err != nil {
		return apperrors.Internal("failed to list schedule entries", err)
	}
	for _, e := range entries {
		s.stopTimer(e.ID)
		if err := s.store.DeleteScheduleEntry(ctx, e.ID); err != nil {
			return apperrors.Internal("failed to remove schedule entry", err)
		}
	}
	return nil
}

// SendNow pushes a notification immediately, outside the timer path.
func (s *NotificationScheduler) SendNow(ctx context.Context, userID uint, payload push.Payload) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return apperrors.Internal("failed to load user", err)
	}
	if !user.HasSubscription() {
		return apperrors.BadRequest("no push subscription registered")
	}
	if err := s.sender.Send(ctx, user.PushEndpoint, user.PushP256dh, user.PushAuth, payload); err != nil {
		return apperrors.Internal("push delivery failed", err)
	}
	return nil
}

func (s *NotificationScheduler) supersede(ctx context.Context, userID uint, bookingID string) error {
	prev, err := s.store.EntryByBooking(ctx, userID, bookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("failed to look up schedule entry", err)
	}
	s.stopTimer(prev.ID)
	if err := s.store.DeleteScheduleEntry(ctx, prev.ID); err != nil {
		return apperrors.Internal("failed to remove schedule entry", err)
	}
	return nil
}

func (s *NotificationScheduler) arm(entry models.ScheduleEntry) {
	d := entry.FireAt.Sub(s.now())
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entry.ID
	s.timers[id] = time.AfterFunc(d, func() { s.fire(id) })
}

func (s *NotificationScheduler) stopTimer(entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[entryID]; ok {
		t.Stop()
		delete(s.timers, entryID)
	}
}

// fire runs on the timer goroutine. An entry that was consumed or cancelled
// in the meantime is a no-op, not an error; delivery failure is logged and
// never retried, because a missed notification is acceptable loss and a
// duplicate is not.
func (s *NotificationScheduler) fire(entryID string) {
	s.mu.Lock()
	delete(s.timers, entryID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	entry, err := s.store.EntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("notifier: entry %s lookup failed on fire: %v", entryID, err)
		}
		return
	}

	user, err := s.store.GetUser(ctx, entry.UserID)
	if err != nil {
		log.Printf("notifier: user %d lookup failed on fire: %v", entry.UserID, err)
	} else if user.HasSubscription() {
		payload := push.Payload{
			Title:     "Booking ending soon",
			Body:      fmt.Sprintf("Your booking of %s ends in %d minutes.", entry.RoomName, int(s.lead.Minutes())),
			BookingID: entry.BookingID,
			RoomName:  entry.RoomName,
		}
		if err := s.sender.Send(ctx, user.PushEndpoint, user.PushP256dh, user.PushAuth, payload); err != nil {
			log.Printf("notifier: push delivery for entry %s failed: %v", entryID, err)
		}
	}

	if err := s.store.DeleteScheduleEntry(ctx, entryID); err != nil {
		log.Printf("notifier: failed to remove fired entry %s: %v", entryID, err)
	}
}

// armedCount reports the live timer count, for tests.
func (s *NotificationScheduler) armedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
