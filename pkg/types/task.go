package types

// Recurrence frequencies. A task's frequency drives the cycle date
// arithmetic; it is the only input to it.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// validFrequencies is the set of recognized frequency values.
var validFrequencies = map[string]bool{
	FrequencyDaily:   true,
	FrequencyWeekly:  true,
	FrequencyMonthly: true,
	FrequencyYearly:  true,
}

// IsValidFrequency reports whether f is a recognized recurrence frequency.
func IsValidFrequency(f string) bool {
	return validFrequencies[f]
}

// Task is a recurring obligation. Successive TaskCycles track each
// recurrence window; the task itself carries the template data.
type Task struct {
	ID                int64   // Surrogate key, assigned by the store on insert.
	Title             string  // Human-readable title (required, non-empty).
	Type              string  // TaskType name (foreign reference by name).
	CustomerID        *int64  // Optional owning customer.
	CustomerName      string  // Joined display name; not persisted on tasks.
	Frequency         string  // One of the Frequency constants.
	StartDate         string  // ISO 8601 instant of the first cycle's origin.
	NotificationType  string  // NotificationType key (push, email, ...).
	NotificationTime  string  // HH:MM local delivery time.
	NotificationValue string  // Destination, required iff the type demands one.
	Notes             string
	IsArchived        bool // Soft delete; archived tasks leave active views.
}

// Validate checks the fields task creation requires.
// Returns a sentinel error from this package on failure.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrInvalidTitle
	}
	if !IsValidFrequency(t.Frequency) {
		return ErrInvalidFrequency
	}
	return nil
}
