// Package push delivers Web Push notifications to a user's subscribed
// endpoint. Delivery is fire-and-forget: a failed send is logged by the
// caller and never retried.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Payload is the notification body shown on the device.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"booking_id,omitempty"`
	RoomName  string `json:"room_name,omitempty"`
}

// Sender sends one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, endpoint, p256dh, auth string, payload Payload) error
}

// WebPush sends via the Web Push protocol with VAPID authentication. Key
// material is injected at construction, never read from ambient state.
type WebPush struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
}

func NewWebPush(publicKey, privateKey, subscriber string) *WebPush {
	return &WebPush{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		ttl:        60,
	}
}

func (w *WebPush) Send(ctx context.Context, endpoint, p256dh, auth string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	sub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	res, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		Subscriber:      w.subscriber,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             w.ttl,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push endpoint rejected notification (status=%d)", res.StatusCode)
	}
	return nil
}
