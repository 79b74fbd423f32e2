package leads

import "time"

// AgingStatus tells how urgently a lead needs attention
type AgingStatus string

const (
	AgingCritical AgingStatus = "critical"
	AgingWarning  AgingStatus = "warning"
	AgingHealthy  AgingStatus = "healthy"
)

// CriticalAfter is how long an untouched lead may wait before it is critical
const CriticalAfter = 24 * time.Hour

// ClassifyAging returns the first matching status. Critical wins over warning.
func ClassifyAging(lead Lead, now time.Time) AgingStatus {
	created := lead.CreatedAt
	if created.IsZero() {
		created = now
	}

	if lead.LastContacted == nil && now.Sub(created) > CriticalAfter {
		return AgingCritical
	}
	if lead.TaskDueDate != nil && !lead.TaskCompleted && now.After(*lead.TaskDueDate) {
		return AgingWarning
	}
	return AgingHealthy
}
