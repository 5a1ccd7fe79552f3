package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Preferences holds per-user display and notification settings.
type Preferences struct {
	Currency           string `json:"currency"`
	Language           string `json:"language"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	WeeklyReports      bool   `json:"weekly_reports"`
	BudgetAlerts       bool   `json:"budget_alerts"`
}

// DefaultPreferences returns the preferences assigned to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency:           "USD",
		Language:           "en",
		EmailNotifications: true,
		PushNotifications:  true,
		WeeklyReports:      true,
		BudgetAlerts:       true,
	}
}
