package schema

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukaforge/cadence/internal/lifecycle"
	"github.com/dukaforge/cadence/internal/store"
)

// Manager applies the schema to a store and seeds reference data.
type Manager struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager returns a manager over st. A nil logger falls back to the
// default logger.
func NewManager(st store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: st, logger: logger, now: time.Now}
}

// Migrate creates any missing tables, then runs the version-gated migration:
// when the stored version is below the target it seeds the default task
// types and notification channels and records the new version. At the
// target version it is a no-op beyond table creation.
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.ensureTables(ctx); err != nil {
		return err
	}
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if version >= targetVersion {
		m.logger.Debug("schema up to date", "version", version)
		return nil
	}

	if err := m.seedDefaults(ctx); err != nil {
		return err
	}
	if _, err := m.store.Execute(ctx, "INSERT INTO database_version (version) VALUES (?)", []any{int64(targetVersion)}); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	m.logger.Info("schema migrated", "from", version, "to", targetVersion)
	return nil
}

// Reinitialize destroys all stored data and rebuilds the demonstration
// state: default reference data plus five sample tasks covering the cycle
// states the task list distinguishes.
func (m *Manager) Reinitialize(ctx context.Context) error {
	if err := m.ensureTables(ctx); err != nil {
		return err
	}
	// Children before parents; predicates are scoped because unscoped
	// deletes are rejected by the store.
	clears := []string{
		"DELETE FROM task_history WHERE id >= 0",
		"DELETE FROM task_cycles WHERE id >= 0",
		"DELETE FROM notification_values WHERE id >= 0",
		"DELETE FROM tasks WHERE id >= 0",
		"DELETE FROM customers WHERE id >= 0",
		"DELETE FROM notification_types WHERE id >= 0",
		"DELETE FROM task_types WHERE id >= 0",
		"DELETE FROM database_version WHERE version >= 0",
	}
	for _, stmt := range clears {
		if _, err := m.store.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("clearing table: %w", err)
		}
	}

	if err := m.seedDefaults(ctx); err != nil {
		return err
	}
	if _, err := m.store.Execute(ctx, "INSERT INTO database_version (version) VALUES (?)", []any{int64(targetVersion)}); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	if err := m.seedSampleData(ctx); err != nil {
		return err
	}
	m.logger.Info("database reinitialized with sample data")
	return nil
}

// Version reads the stored schema version. A fresh database reports zero.
func (m *Manager) Version(ctx context.Context) (int64, error) {
	res, err := m.store.Execute(ctx, "SELECT version FROM database_version ORDER BY version DESC LIMIT 1", nil)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if len(res.Values) == 0 {
		return 0, nil
	}
	version, _ := store.AsInt64(res.Values[0]["version"])
	return version, nil
}

func (m *Manager) ensureTables(ctx context.Context) error {
	for _, stmt := range tableStatements {
		if _, err := m.store.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	return nil
}

func (m *Manager) seedDefaults(ctx context.Context) error {
	for _, tt := range defaultTaskTypes {
		res, err := m.store.Execute(ctx, "SELECT COUNT(*) FROM task_types WHERE name = ?", []any{tt.Name})
		if err != nil {
			return fmt.Errorf("checking task type %q: %w", tt.Name, err)
		}
		if store.ScalarInt(res) > 0 {
			continue
		}
		_, err = m.store.Execute(ctx,
			"INSERT INTO task_types (name, description, isDefault, icon, color) VALUES (?, ?, ?, ?, ?)",
			[]any{tt.Name, tt.Description, boolFlag(tt.IsDefault), tt.Icon, tt.Color})
		if err != nil {
			return fmt.Errorf("seeding task type %q: %w", tt.Name, err)
		}
	}

	for _, nt := range defaultNotificationTypes {
		res, err := m.store.Execute(ctx, "SELECT COUNT(*) FROM notification_types WHERE key = ?", []any{nt.Key})
		if err != nil {
			return fmt.Errorf("checking notification type %q: %w", nt.Key, err)
		}
		if store.ScalarInt(res) > 0 {
			continue
		}
		_, err = m.store.Execute(ctx,
			"INSERT INTO notification_types (key, name, description, icon, color, isEnabled, requiresValue, valueLabel, validationPattern, validationError, sortOrder) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			[]any{nt.Key, nt.Name, nt.Description, nt.Icon, nt.Color, boolFlag(nt.IsEnabled), boolFlag(nt.RequiresValue), nt.ValueLabel, nt.ValidationPattern, nt.ValidationError, int64(nt.Order)})
		if err != nil {
			return fmt.Errorf("seeding notification type %q: %w", nt.Key, err)
		}
	}
	return nil
}

// seedSampleData loads the demonstration set: one customer and five tasks
// whose cycles land in each state the task list distinguishes (overdue,
// in progress, completed with a follow-up cycle, upcoming, skipped).
func (m *Manager) seedSampleData(ctx context.Context) error {
	now := m.now().UTC()

	if _, err := m.store.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{"Sample Customer", "sample@example.com", "123-456-7890", "person-outline", "primary"}); err != nil {
		return fmt.Errorf("seeding sample customer: %w", err)
	}

	type sample struct {
		title            string
		taskType         string
		frequency        string
		start            time.Time
		notificationType string
		notificationTime string
		notes            string
		status           string
		progress         int64
	}
	samples := []sample{
		{
			// A full month plus a week back, so the cycle ended a week ago.
			title: "Overdue Payment Reminder", taskType: "Payment", frequency: "monthly",
			start: now.AddDate(0, -1, -7), notificationType: "email", notificationTime: "09:00",
			notes: "This task is overdue and needs attention", status: "pending",
		},
		{
			title: "In-Progress Update Task", taskType: "Update", frequency: "weekly",
			start: now, notificationType: "push", notificationTime: "10:00",
			notes: "This task is currently in progress", status: "in_progress", progress: 60,
		},
		{
			title: "Completed Daily Check", taskType: "Custom", frequency: "daily",
			start: now, notificationType: "push", notificationTime: "08:00",
			notes: "This task was completed and generated next cycle", status: "completed",
		},
		{
			title: "Upcoming Monthly Review", taskType: "Payment", frequency: "monthly",
			start: now.AddDate(0, 0, 7), notificationType: "email", notificationTime: "14:00",
			notes: "This task is scheduled for the future", status: "pending",
		},
		{
			title: "Skipped Weekly Task", taskType: "Update", frequency: "weekly",
			start: now, notificationType: "push", notificationTime: "15:00",
			notes: "This task was skipped", status: "skipped",
		},
	}

	stamp := now.Format(time.RFC3339)
	for _, s := range samples {
		res, err := m.store.Execute(ctx,
			"INSERT INTO tasks (title, type, customerId, frequency, startDate, notificationType, notificationTime, notificationValue, notes, isArchived) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			[]any{s.title, s.taskType, nil, s.frequency, s.start.Format(time.RFC3339), s.notificationType, s.notificationTime, "", s.notes, int64(0)})
		if err != nil {
			return fmt.Errorf("seeding sample task %q: %w", s.title, err)
		}
		taskID := res.Changes.LastID

		if _, err := m.store.Execute(ctx,
			"INSERT INTO task_history (taskId, timestamp, action, details) VALUES (?, ?, ?, ?)",
			[]any{taskID, stamp, "Created", "Task created"}); err != nil {
			return fmt.Errorf("seeding sample history: %w", err)
		}

		end := lifecycle.Advance(s.start, s.frequency)
		var completedAt any
		if s.status == "completed" {
			completedAt = stamp
		}
		if _, err := m.store.Execute(ctx,
			"INSERT INTO task_cycles (taskId, cycleStartDate, cycleEndDate, status, progress, completedAt) VALUES (?, ?, ?, ?, ?, ?)",
			[]any{taskID, s.start.Format(time.RFC3339), end.Format(time.RFC3339), s.status, s.progress, completedAt}); err != nil {
			return fmt.Errorf("seeding sample cycle: %w", err)
		}

		// A completed cycle always has a successor waiting.
		if s.status == "completed" {
			nextEnd := lifecycle.Advance(end, s.frequency)
			if _, err := m.store.Execute(ctx,
				"INSERT INTO task_cycles (taskId, cycleStartDate, cycleEndDate, status, progress, completedAt) VALUES (?, ?, ?, ?, ?, ?)",
				[]any{taskID, end.Format(time.RFC3339), nextEnd.Format(time.RFC3339), "pending", int64(0), nil}); err != nil {
				return fmt.Errorf("seeding sample next cycle: %w", err)
			}
		}
	}
	return nil
}

func boolFlag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
