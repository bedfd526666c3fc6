// Package lifecycle implements the task-cycle state machine: transition
// guards, completion with synchronous next-cycle creation, cycle date
// arithmetic, and the display status derived from raw state and the clock.
package lifecycle

import (
	"log/slog"
	"time"

	"github.com/dukaforge/cadence/pkg/types"
)

// EarlyStartWindow is how far before its official start a pending cycle may
// be moved to in_progress.
const EarlyStartWindow = 3 * 24 * time.Hour

// Advance moves t forward by one recurrence unit. Monthly and yearly steps
// use calendar arithmetic with native month rollover, so Jan 31 + monthly
// normalizes past February rather than skipping a month. An unknown
// frequency advances by one day.
func Advance(t time.Time, frequency string) time.Time {
	switch frequency {
	case types.FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case types.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case types.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case types.FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// ParseTime parses an ISO 8601 instant. Unparseable input falls back to now:
// the condition is logged, never surfaced as an error, so a corrupt date in
// one record cannot take down a whole list load.
func ParseTime(value string, now time.Time, logger *slog.Logger) time.Time {
	if value == "" {
		return now
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unparseable date, substituting now", "value", value, "error", err)
		return now
	}
	return t
}
