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
)

// DirectoryRoom is a bookable resource as the directory service reports it.
type DirectoryRoom struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Building string   `json:"building"`
	Floor    string   `json:"floor"`
	Features []string `json:"features"`
	// Location is the display identity a calendar resource attendee carries;
	// it is unique per room within the organization.
	Location string `json:"location"`
	// Email is the resource's calendar address, used as the attendee email
	// when creating events.
	Email string `json:"email"`
}

// Directory lists rooms and resolves single rooms by id.
type Directory struct {
	hc      *http.Client
	baseURL string
	token   string
}

func NewDirectory(baseURL, token string) *Directory {
	return &Directory{
		hc:      &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

func (d *Directory) ListRooms(ctx context.Context) ([]DirectoryRoom, error) {
	status, body, err := d.do(ctx, http.MethodGet, "/v1/rooms")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, translateStatus("list rooms", status, body)
	}
	var res struct {
		Rooms []DirectoryRoom `json:"rooms"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return res.Rooms, nil
}

func (d *Directory) GetRoom(ctx context.Context, id string) (DirectoryRoom, error) {
	status, body, err := d.do(ctx, http.MethodGet, "/v1/rooms/"+url.PathEscape(id))
	if err != nil {
		return DirectoryRoom{}, err
	}
	if status != http.StatusOK {
		return DirectoryRoom{}, translateStatus("get room", status, body)
	}
	var room DirectoryRoom
	if err := json.Unmarshal(body, &room); err != nil {
		return DirectoryRoom{}, fmt.Errorf("decode room: %w", err)
	}
	return room, nil
}

func (d *Directory) do(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.token))

	res, err := d.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}
