package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukaforge/cadence/internal/store"
	"github.com/dukaforge/cadence/pkg/types"
)

// TaskTypeService owns the task_types reference table. Seeded types are
// flagged default and refuse deletion, as does any type a task still
// references by name.
type TaskTypeService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTaskTypeService wires a task type service.
func NewTaskTypeService(st store.Store, logger *slog.Logger) *TaskTypeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskTypeService{store: st, logger: logger}
}

// Create inserts a user-defined task type and returns its id.
func (s *TaskTypeService) Create(ctx context.Context, tt types.TaskType) (int64, error) {
	if tt.Name == "" {
		return 0, types.ErrInvalidTitle
	}
	res, err := s.store.Execute(ctx,
		"INSERT INTO task_types (name, description, isDefault, icon, color) VALUES (?, ?, ?, ?, ?)",
		[]any{tt.Name, tt.Description, boolFlag(tt.IsDefault), tt.Icon, tt.Color})
	if err != nil {
		return 0, fmt.Errorf("inserting task type: %w", err)
	}
	return res.Changes.LastID, nil
}

// Get loads one task type by id.
func (s *TaskTypeService) Get(ctx context.Context, id int64) (types.TaskType, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM task_types WHERE id = ?", []any{id})
	if err != nil {
		return types.TaskType{}, fmt.Errorf("loading task type %d: %w", id, err)
	}
	if len(res.Values) == 0 {
		return types.TaskType{}, types.ErrNotFound
	}
	return TaskTypeFromRow(res.Values[0]), nil
}

// GetAll loads every task type ordered by name.
func (s *TaskTypeService) GetAll(ctx context.Context) ([]types.TaskType, error) {
	res, err := s.store.Execute(ctx, "SELECT * FROM task_types ORDER BY name", nil)
	if err != nil {
		return nil, fmt.Errorf("loading task types: %w", err)
	}
	taskTypes := make([]types.TaskType, 0, len(res.Values))
	for _, row := range res.Values {
		taskTypes = append(taskTypes, TaskTypeFromRow(row))
	}
	return taskTypes, nil
}

// Update rewrites a task type's fields.
func (s *TaskTypeService) Update(ctx context.Context, tt types.TaskType) error {
	if tt.ID <= 0 {
		return types.ErrInvalidID
	}
	if tt.Name == "" {
		return types.ErrInvalidTitle
	}
	if _, err := s.Get(ctx, tt.ID); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx,
		"UPDATE task_types SET name = ?, description = ?, isDefault = ?, icon = ?, color = ? WHERE id = ?",
		[]any{tt.Name, tt.Description, boolFlag(tt.IsDefault), tt.Icon, tt.Color, tt.ID})
	if err != nil {
		return fmt.Errorf("updating task type %d: %w", tt.ID, err)
	}
	return nil
}

// Delete removes a task type. Default types and types still referenced by a
// task refuse deletion with a typed violation; the row stays present.
func (s *TaskTypeService) Delete(ctx context.Context, id int64) error {
	tt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if tt.IsDefault {
		return &types.ProtectedRecordError{Table: "task_types", Name: tt.Name, Reason: types.ProtectedIsDefault}
	}
	res, err := s.store.Execute(ctx, "SELECT COUNT(*) FROM tasks WHERE type = ?", []any{tt.Name})
	if err != nil {
		return fmt.Errorf("checking task type usage: %w", err)
	}
	if store.ScalarInt(res) > 0 {
		return &types.ProtectedRecordError{Table: "task_types", Name: tt.Name, Reason: types.ProtectedInUse}
	}
	if _, err := s.store.Execute(ctx, "DELETE FROM task_types WHERE id = ?", []any{id}); err != nil {
		return fmt.Errorf("deleting task type %d: %w", id, err)
	}
	s.logger.Info("task type deleted", "taskType", id, "name", tt.Name)
	return nil
}
