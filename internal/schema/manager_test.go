package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukaforge/cadence/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.OpenMemory(store.NewMemorySnapshotStore())
	require.NoError(t, err)
	m := NewManager(st, nil)
	m.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return m
}

func count(t *testing.T, m *Manager, table string) int64 {
	t.Helper()
	res, err := m.store.Execute(context.Background(), "SELECT COUNT(*) FROM "+table+" WHERE id >= 0", nil)
	require.NoError(t, err)
	return store.ScalarInt(res)
}

func TestManager_MigrateSeedsDefaults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))

	assert.EqualValues(t, 3, count(t, m, "task_types"))
	assert.EqualValues(t, 6, count(t, m, "notification_types"))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, targetVersion, version)
}

func TestManager_MigrateIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	assert.EqualValues(t, 3, count(t, m, "task_types"), "seeds must not duplicate")
	assert.EqualValues(t, 6, count(t, m, "notification_types"))
}

func TestManager_MigratePreservesExistingRows(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))
	_, err := m.store.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{"Keeper", "", "", "", ""})
	require.NoError(t, err)

	require.NoError(t, m.Migrate(ctx))
	assert.EqualValues(t, 1, count(t, m, "customers"))
}

func TestManager_VersionOnFreshDatabase(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.ensureTables(context.Background()))

	version, err := m.Version(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
}

func TestManager_Reinitialize(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))
	_, err := m.store.Execute(ctx,
		"INSERT INTO customers (name, email, phone, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{"Doomed", "", "", "", ""})
	require.NoError(t, err)

	require.NoError(t, m.Reinitialize(ctx))

	// Pre-existing data is gone, replaced by the demonstration set: one
	// sample customer, five tasks, six cycles (the completed task carries
	// its successor).
	assert.EqualValues(t, 1, count(t, m, "customers"))
	assert.EqualValues(t, 5, count(t, m, "tasks"))
	assert.EqualValues(t, 6, count(t, m, "task_cycles"))
	assert.EqualValues(t, 5, count(t, m, "task_history"))
	assert.EqualValues(t, 3, count(t, m, "task_types"))
	assert.EqualValues(t, 6, count(t, m, "notification_types"))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, targetVersion, version)

	res, err := m.store.Execute(ctx, "SELECT * FROM task_cycles WHERE status = ?", []any{"completed"})
	require.NoError(t, err)
	require.Len(t, res.Values, 1)
	assert.NotEmpty(t, store.AsString(res.Values[0]["completedAt"]))
}

func TestManager_ReinitializeOverdueSampleIsOverdue(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Reinitialize(ctx))

	res, err := m.store.Execute(ctx, "SELECT * FROM tasks WHERE title = ?", []any{"Overdue Payment Reminder"})
	require.NoError(t, err)
	require.Len(t, res.Values, 1)
	taskID, ok := store.AsInt64(res.Values[0]["id"])
	require.True(t, ok)

	cycles, err := m.store.Execute(ctx, "SELECT * FROM task_cycles WHERE taskId = ?", []any{taskID})
	require.NoError(t, err)
	require.Len(t, cycles.Values, 1)
	assert.Equal(t, "pending", store.AsString(cycles.Values[0]["status"]))

	// The demonstration task must actually land in the overdue bucket: its
	// cycle ended before the seed instant.
	end, err := time.Parse(time.RFC3339, store.AsString(cycles.Values[0]["cycleEndDate"]))
	require.NoError(t, err)
	assert.True(t, end.Before(m.now()), "sample cycle ends at %s, not in the past", end)
}

func TestIsDefaultNotificationKey(t *testing.T) {
	for _, key := range []string{"push", "silent", "email", "sms", "whatsapp", "telegram"} {
		assert.True(t, IsDefaultNotificationKey(key), key)
	}
	assert.False(t, IsDefaultNotificationKey("carrier-pigeon"))
}
