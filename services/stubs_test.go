package services

import (
	"context"
	"sync"
	"time"

	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/gateway"
	"github.com/roomly/roomly-be/models"
	"github.com/roomly/roomly-be/push"
)

// calendarStub records calls and delegates to per-method functions so each
// test scripts exactly the upstream behavior it needs.
type calendarStub struct {
	mu sync.Mutex

	createFn   func(ctx context.Context, in gateway.EventInput) (gateway.Event, error)
	getFn      func(ctx context.Context, id string) (gateway.Event, error)
	patchFn    func(ctx context.Context, id string, patch gateway.EventPatch) (gateway.Event, error)
	deleteFn   func(ctx context.Context, id string) error
	listFn     func(ctx context.Context, organizer string, from time.Time) ([]gateway.Event, error)
	freeBusyFn func(ctx context.Context, ids []string, from, to time.Time) (map[string][]gateway.BusyWindow, error)

	created       []gateway.EventInput
	patches       []gateway.EventPatch
	deleted       []string
	getCalls      int
	freeBusyCalls int
}

func (c *calendarStub) CreateEvent(ctx context.Context, in gateway.EventInput) (gateway.Event, error) {
	c.mu.Lock()
	c.created = append(c.created, in)
	c.mu.Unlock()
	if c.createFn == nil {
		return gateway.Event{}, apperrors.Internal("createFn not scripted", nil)
	}
	return c.createFn(ctx, in)
}

func (c *calendarStub) GetEvent(ctx context.Context, id string) (gateway.Event, error) {
	c.mu.Lock()
	c.getCalls++
	c.mu.Unlock()
	if c.getFn == nil {
		return gateway.Event{}, apperrors.NotFound("event not found")
	}
	return c.getFn(ctx, id)
}

func (c *calendarStub) PatchEvent(ctx context.Context, id string, patch gateway.EventPatch) (gateway.Event, error) {
	c.mu.Lock()
	c.patches = append(c.patches, patch)
	c.mu.Unlock()
	if c.patchFn == nil {
		return gateway.Event{}, apperrors.Internal("patchFn not scripted", nil)
	}
	return c.patchFn(ctx, id, patch)
}

func (c *calendarStub) DeleteEvent(ctx context.Context, id string) error {
	c.mu.Lock()
	c.deleted = append(c.deleted, id)
	c.mu.Unlock()
	if c.deleteFn == nil {
		return nil
	}
	return c.deleteFn(ctx, id)
}

func (c *calendarStub) ListUpcomingEvents(ctx context.Context, organizer string, from time.Time) ([]gateway.Event, error) {
	if c.listFn == nil {
		return nil, nil
	}
	return c.listFn(ctx, organizer, from)
}

func (c *calendarStub) FreeBusy(ctx context.Context, ids []string, from, to time.Time) (map[string][]gateway.BusyWindow, error) {
	c.mu.Lock()
	c.freeBusyCalls++
	c.mu.Unlock()
	if c.freeBusyFn == nil {
		return map[string][]gateway.BusyWindow{}, nil
	}
	return c.freeBusyFn(ctx, ids, from, to)
}

type directoryStub struct {
	rooms   []gateway.DirectoryRoom
	listErr error
	getErr  error
}

func (d *directoryStub) ListRooms(ctx context.Context) ([]gateway.DirectoryRoom, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]gateway.DirectoryRoom, len(d.rooms))
	copy(out, d.rooms)
	return out, nil
}

func (d *directoryStub) GetRoom(ctx context.Context, id string) (gateway.DirectoryRoom, error) {
	if d.getErr != nil {
		return gateway.DirectoryRoom{}, d.getErr
	}
	for _, r := range d.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return gateway.DirectoryRoom{}, apperrors.NotFound("room not found")
}

// armerStub records schedule/cancel calls from the booking services.
type armerStub struct {
	mu          sync.Mutex
	scheduled   []scheduledCall
	cancelled   []string
	scheduleErr error
	cancelErr   error
}

type scheduledCall struct {
	userID    uint
	bookingID string
	roomName  string
	end       time.Time
}

func (a *armerStub) Schedule(ctx context.Context, userID uint, bookingID, roomName string, end time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scheduleErr != nil {
		return a.scheduleErr
	}
	a.scheduled = append(a.scheduled, scheduledCall{userID: userID, bookingID: bookingID, roomName: roomName, end: end})
	return nil
}

func (a *armerStub) Cancel(ctx context.Context, userID uint, bookingID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelErr != nil {
		return a.cancelErr
	}
	a.cancelled = append(a.cancelled, bookingID)
	return nil
}

// storeStub is an in-memory UserStore.
type storeStub struct {
	mu      sync.Mutex
	users   map[uint]models.User
	entries map[string]models.ScheduleEntry

	createErr error
	deleteErr error
}

func newStoreStub() *storeStub {
	return &storeStub{
		users:   make(map[uint]models.User),
		entries: make(map[string]models.ScheduleEntry),
	}
}

func (s *storeStub) GetUser(ctx context.Context, userID uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, apperrors.NotFound("user not found")
	}
	return u, nil
}

func (s *storeStub) UpdateSubscription(ctx context.Context, userID uint, endpoint, p256dh, auth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.ID = userID
	u.PushEndpoint = endpoint
	u.PushP256dh = p256dh
	u.PushAuth = auth
	u.NotificationPermission = true
	s.users[userID] = u
	return nil
}

func (s *storeStub) ClearSubscription(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.PushEndpoint = ""
	u.PushP256dh = ""
	u.PushAuth = ""
	u.NotificationPermission = false
	s.users[userID] = u
	return nil
}

func (s *storeStub) CreateScheduleEntry(ctx context.Context, entry models.ScheduleEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *storeStub) DeleteScheduleEntry(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *storeStub) EntryByID(ctx context.Context, id string) (models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return models.ScheduleEntry{}, apperrors.NotFound("schedule entry not found")
	}
	return e, nil
}

func (s *storeStub) EntryByBooking(ctx context.Context, userID uint, bookingID string) (models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.BookingID == bookingID {
			return e, nil
		}
	}
	return models.ScheduleEntry{}, apperrors.NotFound("schedule entry not found")
}

func (s *storeStub) EntriesByUser(ctx context.Context, userID uint) ([]models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *storeStub) AllEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *storeStub) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *storeStub) singleEntry() (models.ScheduleEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) != 1 {
		return models.ScheduleEntry{}, false
	}
	for _, e := range s.entries {
		return e, true
	}
	return models.ScheduleEntry{}, false
}

// senderStub records pushes.
type senderStub struct {
	mu      sync.Mutex
	sent    []push.Payload
	sendErr error
}

func (p *senderStub) Send(ctx context.Context, endpoint, p256dh, auth string, payload push.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, payload)
	return nil
}

func (p *senderStub) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// fastPolicy keeps acceptance polling near-instant in tests.
var fastPolicy = RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
