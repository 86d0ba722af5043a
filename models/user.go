package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Subject  string `json:"subject" gorm:"uniqueIndex;not null"` // stable external identity
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	Name     string `json:"name"`

	// Push subscription. Endpoint empty means no subscription registered.
	NotificationPermission bool   `json:"notification_permission" gorm:"default:false"`
	PushEndpoint           string `json:"-"`
	PushP256dh             string `json:"-"`
	PushAuth               string `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	ScheduleEntries []ScheduleEntry `json:"schedule_entries,omitempty"`
}

// HasSubscription reports whether the user registered a push endpoint.
func (u *User) HasSubscription() bool {
	return u.PushEndpoint != ""
}

// ScheduleEntry correlates a booking to an armed notification timer. The row
// id doubles as the in-memory timer job key; at most one live entry exists
// per booking.
type ScheduleEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"` // uuid, shared with the timer job
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	BookingID string    `json:"booking_id" gorm:"not null;index"`
	RoomName  string    `json:"room_name"`
	FireAt    time.Time `json:"fire_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
