package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/roomly/roomly-be/apperrors"
)

// Attendee is a participant record on a calendar event. Resource attendees
// represent the booked room and carry their own acceptance status.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	Resource       bool   `json:"resource,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Organizer   string     `json:"organizer"`
	Attendees   []Attendee `json:"attendees"`
	MeetingLink string     `json:"meetingLink,omitempty"`
}

// ResourceAttendee returns the event's resource attendee, or nil if the
// event has none.
func (e Event) ResourceAttendee() *Attendee {
	for i := range e.Attendees {
		if e.Attendees[i].Resource {
			return &e.Attendees[i]
		}
	}
	return nil
}

// EventInput is the creation payload for a new calendar event.
type EventInput struct {
	Summary   string     `json:"summary"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Attendees []Attendee `json:"attendees"`
}

// EventPatch is a partial update. Zero fields are left untouched upstream.
type EventPatch struct {
	End            *time.Time `json:"end,omitempty"`
	ResourceStatus string     `json:"resourceStatus,omitempty"`
}

// BusyWindow is one busy interval from a free/busy query.
type BusyWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Client talks to the external calendar service. It requires a bearer token
// provisioned out of band.
type Client struct {
	hc      *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	jb, err := json.Marshal(in)
	if err != nil {
		return Event{}, apperrors.Internal("encode event", err)
	}
	status, body, err := c.do(ctx, http.MethodPost, "/v1/events", nil, jb)
	if err != nil {
		return Event{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return Event{}, translateStatus("create event", status, body)
	}
	return decodeEvent(body)
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return Event{}, err
	}
	if status != http.StatusOK {
		return Event{}, translateStatus("get event", status, body)
	}
	return decodeEvent(body)
}

func (c *Client) PatchEvent(ctx context.Context, id string, patch EventPatch) (Event, error) {
	jb, err := json.Marshal(patch)
	if err != nil {
		return Event{}, apperrors.Internal("encode patch", err)
	}
	status, body, err := c.do(ctx, http.MethodPatch, "/v1/events/"+url.PathEscape(id), nil, jb)
	if err != nil {
		return Event{}, err
	}
	if status != http.StatusOK {
		return Event{}, translateStatus("patch event", status, body)
	}
	return decodeEvent(body)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusAccepted {
		return translateStatus("delete event", status, body)
	}
	return nil
}

// ListUpcomingEvents returns the organizer's events that end at or after
// from, soonest first.
func (c *Client) ListUpcomingEvents(ctx context.Context, organizer string, from time.Time) ([]Event, error) {
	params := map[string]string{
		"organizer": organizer,
		"from":      from.UTC().Format(time.RFC3339),
	}
	status, body, err := c.do(ctx, http.MethodGet, "/v1/events", params, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, translateStatus("list events", status, body)
	}
	var res struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, apperrors.Internal("decode events", err)
	}
	return res.Events, nil
}

// FreeBusy runs a batched free/busy query and returns busy windows per
// resource id for [from, to).
func (c *Client) FreeBusy(ctx context.Context, resourceIDs []string, from, to time.Time) (map[string][]BusyWindow, error) {
	req := struct {
		TimeMin time.Time `json:"timeMin"`
		TimeMax time.Time `json:"timeMax"`
		Items   []string  `json:"items"`
	}{TimeMin: from, TimeMax: to, Items: resourceIDs}

	jb, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Internal("encode freebusy request", err)
	}
	status, body, err := c.do(ctx, http.MethodPost, "/v1/freeBusy", nil, jb)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, translateStatus("freebusy", status, body)
	}

	var res struct {
		Calendars map[string]struct {
			Busy []BusyWindow `json:"busy"`
		} `json:"calendars"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, apperrors.Internal("decode freebusy response", err)
	}
	out := make(map[string][]BusyWindow, len(res.Calendars))
	for id, cal := range res.Calendars {
		out[id] = cal.Busy
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, apperrors.Internal("build request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if query != nil {
		q := req.URL.Query()
		for k, v := range query {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, apperrors.Internal("calendar request failed", err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, apperrors.Internal("read calendar response", err)
	}
	return res.StatusCode, b, nil
}

func decodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, apperrors.Internal("decode event", err)
	}
	if ev.ID == "" {
		return Event{}, apperrors.Internal("calendar returned event without id", nil)
	}
	return ev, nil
}
