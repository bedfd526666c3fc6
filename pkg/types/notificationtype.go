package types

import "regexp"

// NotificationType describes one delivery channel and its value requirements.
// Channels that deliver somewhere off-device (email, sms, ...) require a
// destination value validated against ValidationPattern.
type NotificationType struct {
	ID                int64
	Key               string // Stable key referenced by tasks ("push", "email", ...).
	Name              string
	Description       string
	Icon              string
	Color             string
	IsEnabled         bool
	RequiresValue     bool
	ValueLabel        string
	ValidationPattern string
	ValidationError   string
	Order             int
}

// ValidateValue checks a destination value against the type's requirements.
// Types that need no value accept anything; a required value must be
// non-empty and match the validation pattern when one is set.
func (n *NotificationType) ValidateValue(value string) bool {
	if !n.RequiresValue {
		return true
	}
	if value == "" {
		return false
	}
	if n.ValidationPattern == "" {
		return true
	}
	re, err := regexp.Compile(n.ValidationPattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// NotificationValue is a stored destination for one notification type.
type NotificationValue struct {
	ID      int64
	TypeKey string
	Value   string
}
