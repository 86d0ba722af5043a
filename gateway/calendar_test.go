package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roomly/roomly-be/apperrors"
)

func TestClient_CreateEvent(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}

		var in EventInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in.Summary != "Standup" || len(in.Attendees) != 2 {
			t.Errorf("request payload mismatch: %+v", in)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Event{
			ID:        "evt-1",
			Summary:   in.Summary,
			Start:     in.Start,
			End:       in.End,
			Organizer: "me@example.com",
			Attendees: in.Attendees,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")
	ev, err := c.CreateEvent(context.Background(), EventInput{
		Summary: "Standup",
		Start:   start,
		End:     start.Add(time.Hour),
		Attendees: []Attendee{
			{Email: "aurora@resources.example.com", Resource: true, ResponseStatus: "needsAction"},
			{Email: "me@example.com", ResponseStatus: "accepted"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "evt-1" || !ev.End.Equal(start.Add(time.Hour)) {
		t.Fatalf("response mismatch: %+v", ev)
	}
}

func TestClient_GetEvent(t *testing.T) {
	t.Run("decodes the event", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/events/evt-1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(Event{ID: "evt-1", Organizer: "me@example.com"})
		}))
		defer srv.Close()

		ev, err := NewClient(srv.URL, "test-token").GetEvent(context.Background(), "evt-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.ID != "evt-1" {
			t.Fatalf("expected evt-1, got %+v", ev)
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no such event"})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "test-token").GetEvent(context.Background(), "missing")
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("401 maps to unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "bad-token").GetEvent(context.Background(), "evt-1")
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("event without id is an upstream fault", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "test-token").GetEvent(context.Background(), "evt-1")
		if !errors.Is(err, apperrors.ErrInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}

func TestClient_PatchEvent(t *testing.T) {
	end := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/events/evt-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := body["end"]; !ok {
			t.Errorf("patch must carry the end field, got %v", body)
		}
		if _, ok := body["resourceStatus"]; ok {
			t.Errorf("unset fields must be omitted from the patch, got %v", body)
		}

		json.NewEncoder(w).Encode(Event{ID: "evt-1", End: end})
	}))
	defer srv.Close()

	ev, err := NewClient(srv.URL, "test-token").PatchEvent(context.Background(), "evt-1", EventPatch{End: &end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.End.Equal(end) {
		t.Fatalf("expected end %v, got %v", end, ev.End)
	}
}

func TestClient_DeleteEvent(t *testing.T) {
	t.Run("accepts 204", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("unexpected method %s", r.Method)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		if err := NewClient(srv.URL, "test-token").DeleteEvent(context.Background(), "evt-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("409 maps to conflict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		err := NewClient(srv.URL, "test-token").DeleteEvent(context.Background(), "evt-1")
		if !errors.Is(err, apperrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestClient_ListUpcomingEvents(t *testing.T) {
	from := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("organizer") != "me@example.com" {
			t.Errorf("expected organizer filter, got %q", q.Get("organizer"))
		}
		if q.Get("from") != from.Format(time.RFC3339) {
			t.Errorf("expected from=%s, got %q", from.Format(time.RFC3339), q.Get("from"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"events": []Event{{ID: "evt-1"}, {ID: "evt-2"}},
		})
	}))
	defer srv.Close()

	events, err := NewClient(srv.URL, "test-token").ListUpcomingEvents(context.Background(), "me@example.com", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].ID != "evt-1" {
		t.Fatalf("expected two events, got %+v", events)
	}
}

func TestClient_FreeBusy(t *testing.T) {
	from := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/freeBusy" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req struct {
			TimeMin time.Time `json:"timeMin"`
			TimeMax time.Time `json:"timeMax"`
			Items   []string  `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Items) != 1 || req.Items[0] != "aurora@resources.example.com" {
			t.Errorf("request items mismatch: %v", req.Items)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"calendars": map[string]interface{}{
				"aurora@resources.example.com": map[string]interface{}{
					"busy": []BusyWindow{{Start: from.Add(time.Hour), End: from.Add(2 * time.Hour)}},
				},
			},
		})
	}))
	defer srv.Close()

	busy, err := NewClient(srv.URL, "test-token").FreeBusy(context.Background(),
		[]string{"aurora@resources.example.com"}, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	windows := busy["aurora@resources.example.com"]
	if len(windows) != 1 || !windows[0].Start.Equal(from.Add(time.Hour)) {
		t.Fatalf("busy windows mismatch: %+v", windows)
	}
}
