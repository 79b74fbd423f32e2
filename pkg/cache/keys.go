package cache

import "fmt"

// Cache key layout. Everything derived from a user's leads lives under
// levrix:<user_id>: so a single pattern delete clears it.
const keyPrefix = "levrix"

// UserPattern matches all per-user derived keys
func UserPattern(userID string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, userID)
}

// DashboardKey caches the dashboard statistics
func DashboardKey(userID string) string {
	return fmt.Sprintf("%s:%s:dashboard", keyPrefix, userID)
}

// ReportKey caches the analytics report
func ReportKey(userID string) string {
	return fmt.Sprintf("%s:%s:report", keyPrefix, userID)
}

// InsightKey caches the AI strategy insight for a given fingerprint of the stats
func InsightKey(userID, fingerprint string) string {
	return fmt.Sprintf("%s:%s:insight:%s", keyPrefix, userID, fingerprint)
}

// ReminderKey dedups follow-up reminders per lead and day
func ReminderKey(leadID, day string) string {
	return fmt.Sprintf("%s:reminder:%s:%s", keyPrefix, leadID, day)
}

// AlertKey dedups critical-lead alerts per user and hour
func AlertKey(userID, hour string) string {
	return fmt.Sprintf("%s:alert:%s:%s", keyPrefix, userID, hour)
}
