package types

// Customer is a reference record a task may point at. Deleting a customer
// nulls the reference on its tasks; it never cascades to them.
type Customer struct {
	ID    int64
	Name  string
	Email string
	Phone string
	Icon  string
	Color string
}

// TaskType is a task category reference record. Seeded rows are flagged as
// defaults and cannot be deleted.
type TaskType struct {
	ID          int64
	Name        string
	Description string
	IsDefault   bool
	Icon        string
	Color       string
}

// TaskHistoryEntry is an immutable audit record appended on task events.
// Entries are never mutated; they are removed only by task cascade.
type TaskHistoryEntry struct {
	ID        int64
	TaskID    int64
	Timestamp string // ISO 8601.
	Action    string // "Created", "Updated", "Completed", ...
	Details   string
}
