// Package schema owns the database layout: table creation, the versioned
// migration that seeds default reference data, and the destructive
// reinitialize used to reset an installation to demonstration state.
package schema

import "github.com/dukaforge/cadence/pkg/types"

// targetVersion is the schema version this build migrates to. The stored
// version starts at zero on a fresh database.
const targetVersion = 1

// tableStatements create every table. All are IF NOT EXISTS so running them
// on every startup is safe.
var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		icon TEXT,
		color TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		customerId INTEGER,
		frequency TEXT NOT NULL CHECK(frequency IN ('daily', 'weekly', 'monthly', 'yearly')),
		startDate TEXT NOT NULL,
		notificationType TEXT,
		notificationTime TEXT,
		notificationValue TEXT,
		notes TEXT,
		isArchived INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (customerId) REFERENCES customers(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS task_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taskId INTEGER NOT NULL,
		cycleStartDate TEXT NOT NULL,
		cycleEndDate TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'in_progress', 'completed', 'skipped')),
		progress INTEGER NOT NULL DEFAULT 0,
		completedAt TEXT,
		FOREIGN KEY (taskId) REFERENCES tasks(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taskId INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		FOREIGN KEY (taskId) REFERENCES tasks(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		isDefault INTEGER NOT NULL DEFAULT 0,
		icon TEXT,
		color TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS notification_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		icon TEXT,
		color TEXT,
		isEnabled INTEGER NOT NULL DEFAULT 0,
		requiresValue INTEGER NOT NULL DEFAULT 0,
		valueLabel TEXT,
		validationPattern TEXT,
		validationError TEXT,
		sortOrder INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS notification_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		typeKey TEXT NOT NULL,
		value TEXT NOT NULL,
		FOREIGN KEY (typeKey) REFERENCES notification_types(key) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS database_version (
		version INTEGER NOT NULL
	)`,
}

// defaultTaskTypes are the protected categories every installation carries.
// They cannot be deleted through the task type service.
var defaultTaskTypes = []types.TaskType{
	{Name: "Payment", Description: "Recurring payments and invoices", IsDefault: true, Icon: "card-outline", Color: "primary"},
	{Name: "Update", Description: "Status updates and check-ins", IsDefault: true, Icon: "refresh-outline", Color: "warning"},
	{Name: "Custom", Description: "Anything else", IsDefault: true, Icon: "create-outline", Color: "tertiary"},
}

// IsDefaultNotificationKey reports whether key names one of the seeded
// delivery channels. Seeded channels refuse deletion.
func IsDefaultNotificationKey(key string) bool {
	for _, nt := range defaultNotificationTypes {
		if nt.Key == key {
			return true
		}
	}
	return false
}

// defaultNotificationTypes are the seeded delivery channels. Channels with
// an off-device destination require a value matching the validation pattern.
var defaultNotificationTypes = []types.NotificationType{
	{
		Key:         "push",
		Name:        "Push",
		Description: "Instant notifications on your device",
		Icon:        "notifications-outline",
		Color:       "primary",
		IsEnabled:   true,
		Order:       1,
	},
	{
		Key:         "silent",
		Name:        "Silent",
		Description: "Quiet notifications without sound",
		Icon:        "alert-outline",
		Color:       "warning",
		IsEnabled:   true,
		Order:       2,
	},
	{
		Key:               "email",
		Name:              "Email",
		Description:       "Get reminders in your inbox",
		Icon:              "mail-outline",
		Color:             "tertiary",
		RequiresValue:     true,
		ValueLabel:        "Email Address",
		ValidationPattern: `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
		ValidationError:   "Please enter a valid email address",
		Order:             3,
	},
	{
		Key:               "sms",
		Name:              "SMS Notifications",
		Description:       "Text message reminders",
		Icon:              "chatbox-outline",
		Color:             "success",
		RequiresValue:     true,
		ValueLabel:        "Phone Number",
		ValidationPattern: `^\+?[1-9]\d{1,14}$`,
		ValidationError:   "Please enter a valid phone number",
		Order:             4,
	},
	{
		Key:               "whatsapp",
		Name:              "WhatsApp Notifications",
		Description:       "Get reminders on WhatsApp",
		Icon:              "logo-whatsapp",
		Color:             "success",
		RequiresValue:     true,
		ValueLabel:        "WhatsApp Number",
		ValidationPattern: `^\+?[1-9]\d{1,14}$`,
		ValidationError:   "Please enter a valid WhatsApp number",
		Order:             5,
	},
	{
		Key:               "telegram",
		Name:              "Telegram Notifications",
		Description:       "Get reminders on Telegram",
		Icon:              "paper-plane-outline",
		Color:             "primary",
		RequiresValue:     true,
		ValueLabel:        "Telegram Username",
		ValidationPattern: `^[a-zA-Z0-9_]{5,32}$`,
		ValidationError:   "Please enter a valid Telegram username (5-32 characters, alphanumeric and underscore)",
		Order:             6,
	},
}
