// Package store is the gorm-backed persistence for users, their push
// subscriptions, and live schedule entries.
package store

import (
	"context"
	"errors"

	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/config"
	"github.com/roomly/roomly-be/models"
	"gorm.io/gorm"
)

type UserStore struct{}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) GetUser(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := config.DB.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperrors.NotFound("user not found")
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateSubscription stores the push endpoint and keys and grants
// notification permission in the same write.
func (s *UserStore) UpdateSubscription(ctx context.Context, userID uint, endpoint, p256dh, auth string) error {
	return config.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"push_endpoint":           endpoint,
			"push_p256dh":             p256dh,
			"push_auth":               auth,
			"notification_permission": true,
		}).Error
}

func (s *UserStore) ClearSubscription(ctx context.Context, userID uint) error {
	return config.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"push_endpoint":           "",
			"push_p256dh":             "",
			"push_auth":               "",
			"notification_permission": false,
		}).Error
}

func (s *UserStore) CreateScheduleEntry(ctx context.Context, entry models.ScheduleEntry) error {
	return config.DB.WithContext(ctx).Create(&entry).Error
}

func (s *UserStore) DeleteScheduleEntry(ctx context.Context, id string) error {
	return config.DB.WithContext(ctx).Delete(&models.ScheduleEntry{}, "id = ?", id).Error
}

func (s *UserStore) EntryByID(ctx context.Context, id string) (models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	err := config.DB.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScheduleEntry{}, apperrors.NotFound("schedule entry not found")
	}
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	return entry, nil
}

func (s *UserStore) EntryByBooking(ctx context.Context, userID uint, bookingID string) (models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	err := config.DB.WithContext(ctx).
		Where("user_id = ? AND booking_id = ?", userID, bookingID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScheduleEntry{}, apperrors.NotFound("schedule entry not found")
	}
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	return entry, nil
}

func (s *UserStore) EntriesByUser(ctx context.Context, userID uint) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := config.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("fire_at ASC").
		Find(&entries).Error
	return entries, err
}

func (s *UserStore) AllEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := config.DB.WithContext(ctx).Order("fire_at ASC").Find(&entries).Error
	return entries, err
}
