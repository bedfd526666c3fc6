package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukaforge/cadence/internal/schema"
	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// NotificationTypeService owns the notification_types channel table and the
// stored destination values in notification_values.
type NotificationTypeService struct {
	store  store.Store
	logger *slog.Logger
}

// NewNotificationTypeService wires a notification type service.
func NewNotificationTypeService(st store.Store, logger *slog.Logger) *NotificationTypeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationTypeService{store: st, logger: logger}
}

// Get loads one channel by key.
func (s *NotificationTypeService) Get(ctx context.Context, key string) (types.NotificationType, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM notification_types WHERE key = ?", []any{key})
	if err != nil {
		return types.NotificationType{}, fmt.Errorf("loading notification type %q: %w", key, err)
	}
	if len(res.Values) == 0 {
		return types.NotificationType{}, types.ErrNotFound
	}
	return NotificationTypeFromRow(res.Values[0]), nil
}

// GetAll loads every channel in display order.
func (s *NotificationTypeService) GetAll(ctx context.Context) ([]types.NotificationType, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM notification_types ORDER BY sortOrder", nil)
	if err != nil {
		return nil, fmt.Errorf("loading notification types: %w", err)
	}
	channels := make([]types.NotificationType, 0, len(res.Values))
	for _, row := range res.Values {
		channels = append(channels, NotificationTypeFromRow(row))
	}
	return channels, nil
}

// SetEnabled switches one channel on or off.
func (s *NotificationTypeService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx,
		"UPDATE notification_types SET isEnabled = ? WHERE key = ?",
		[]any{boolFlag(enabled), key})
	if err != nil {
		return fmt.Errorf("updating notification type %q: %w", key, err)
	}
	return nil
}

// ValidateValue checks a destination value against the channel's stored
// validation pattern.
func (s *NotificationTypeService) ValidateValue(ctx context.Context, key, value string) (bool, error) {
	channel, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return channel.ValidateValue(value), nil
}

// SaveValue stores the destination for one channel, replacing any previous
// value. The value must pass the channel's validation pattern.
func (s *NotificationTypeService) SaveValue(ctx context.Context, key, value string) error {
	channel, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !channel.ValidateValue(value) {
		return fmt.Errorf("notification value for %q: %s", key, channel.ValidationError)
	}
	if _, err := s.store.Execute(ctx, "DELETE FROM notification_values WHERE typeKey = ?", []any{key}); err != nil {
		return fmt.Errorf("clearing notification value for %q: %w", key, err)
	}
	if _, err := s.store.Execute(ctx,
		"INSERT INTO notification_values (typeKey, value) VALUES (?, ?)",
		[]any{key, value}); err != nil {
		return fmt.Errorf("storing notification value for %q: %w", key, err)
	}
	return nil
}

// LoadValues returns every stored destination keyed by channel.
func (s *NotificationTypeService) LoadValues(ctx context.Context) (map[string]string, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM notification_values", nil)
	if err != nil {
		return nil, fmt.Errorf("loading notification values: %w", err)
	}
	values := make(map[string]string, len(res.Values))
	for _, row := range res.Values {
		values[store.AsString(row["typeKey"])] = store.AsString(row["value"])
	}
	return values, nil
}

// Delete removes a channel. Seeded channels and channels still referenced
// by a task refuse deletion with a typed violation.
func (s *NotificationTypeService) Delete(ctx context.Context, key string) error {
	channel, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if schema.IsDefaultNotificationKey(key) {
		return &types.ProtectedRecordError{Table: "notification_types", Name: channel.Name, Reason: types.ProtectedIsDefault}
	}
	res, err := s.store.Execute(ctx, "SELECT COUNT(*) FROM tasks WHERE notificationType = ?", []any{key})
	if err != nil {
		return fmt.Errorf("checking notification type usage: %w", err)
	}
	if store.ScalarInt(res) > 0 {
		return &types.ProtectedRecordError{Table: "notification_types", Name: channel.Name, Reason: types.ProtectedInUse}
	}
	if _, err := s.store.Execute(ctx, "DELETE FROM notification_types WHERE key = ?", []any{key}); err != nil {
		return fmt.Errorf("deleting notification type %q: %w", key, err)
	}
	s.logger.Info("notification type deleted", "key", key)
	return nil
}
