package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/cache"
	"github.com/levrixhq/levrix/pkg/integrations"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/outreach"
)

const (
	// ReminderTTL keeps a reminder marker long enough to outlive rescheduling churn
	ReminderTTL = 7 * 24 * time.Hour
	AlertTTL    = 2 * time.Hour

	maxAlertNames = 3
)

// LeadStore exposes what the monitor needs from the lead service
type LeadStore interface {
	Owners(ctx context.Context) ([]string, error)
	Stored(ctx context.Context, userID string) ([]leads.Lead, error)
}

// SettingsStore loads a workspace's channel settings
type SettingsStore interface {
	Integrations(ctx context.Context, userID string) (*integrations.Integrations, error)
}

// OwnerDirectory resolves the login email of a workspace owner
type OwnerDirectory interface {
	Email(ctx context.Context, userID string) (string, error)
}

// ReminderMailer emails task reminders
type ReminderMailer interface {
	SendTaskReminder(ctx context.Context, toEmail, leadName, task string, due time.Time) error
}

// Monitor scans every workspace for due follow-ups and neglected leads
type Monitor struct {
	leads    LeadStore
	settings SettingsStore
	owners   OwnerDirectory
	sender   outreach.Sender
	mailer   ReminderMailer
	cache    *cache.Client
	logger   *log.Logger
}

// NewMonitor creates a new monitor instance. cacheClient may be nil, in which
// case reminders are not de-duplicated across runs.
func NewMonitor(leadStore LeadStore, settings SettingsStore, owners OwnerDirectory, sender outreach.Sender, mailer ReminderMailer, cacheClient *cache.Client, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}

	return &Monitor{
		leads:    leadStore,
		settings: settings,
		owners:   owners,
		sender:   sender,
		mailer:   mailer,
		cache:    cacheClient,
		logger:   logger,
	}
}

// claim reports whether this run owns key. Without a cache every run does.
func (m *Monitor) claim(ctx context.Context, key string, ttl time.Duration) bool {
	if m.cache == nil {
		return true
	}
	ok, err := m.cache.SetNX(ctx, key, "1", ttl)
	if err != nil {
		m.logger.Printf("⚠️  Failed to claim %s: %v", key, err)
		return false
	}
	return ok
}

func (m *Monitor) release(ctx context.Context, key string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, key); err != nil {
		m.logger.Printf("⚠️  Failed to release %s: %v", key, err)
	}
}

// dueTask reports whether a lead has an open task due at or before now
func dueTask(l leads.Lead, now time.Time) bool {
	return l.TaskDueDate != nil && !l.TaskCompleted && !l.TaskDueDate.After(now) &&
		l.Status != leads.StatusArchived
}

// smsReady reports whether SMS can reach the admin phone
func smsReady(s *integrations.Integrations) bool {
	return s != nil && s.Connected(integrations.SMS) && strings.TrimSpace(s.SMS.AdminPhone) != ""
}

// SendReminders notifies owners of tasks that have come due. Each lead is
// reminded once per due date. It returns how many reminders went out.
func (m *Monitor) SendReminders(ctx context.Context, now time.Time) (int, error) {
	owners, err := m.leads.Owners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	sent := 0
	for _, userID := range owners {
		rows, err := m.leads.Stored(ctx, userID)
		if err != nil {
			m.logger.Printf("❌ Failed to load leads for %s: %v", userID, err)
			continue
		}

		var settings *integrations.Integrations
		for _, l := range rows {
			if !dueTask(l, now) {
				continue
			}
			key := cache.ReminderKey(l.ID, l.TaskDueDate.UTC().Format(time.RFC3339))
			if !m.claim(ctx, key, ReminderTTL) {
				continue
			}
			if settings == nil {
				settings, err = m.settings.Integrations(ctx, userID)
				if err != nil {
					m.logger.Printf("⚠️  Failed to load settings for %s: %v", userID, err)
					defaults := integrations.Defaults()
					settings = &defaults
				}
			}

			if err := m.remind(ctx, userID, settings, l); err != nil {
				m.logger.Printf("❌ Reminder for lead %s failed: %v", l.ID, err)
				m.release(ctx, key)
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (m *Monitor) remind(ctx context.Context, userID string, settings *integrations.Integrations, l leads.Lead) error {
	task := l.NextFollowUpTask
	if task == "" {
		task = "Follow-up"
	}

	if settings.SMS.TaskRemindersEnabled && smsReady(settings) {
		body := fmt.Sprintf("Levrix reminder: %s with %s is due now.", task, l.Name)
		_, err := m.sender.Dispatch(ctx, settings, outreach.ChannelSMS, outreach.Recipient{Phone: settings.SMS.AdminPhone}, body)
		return err
	}

	if m.mailer == nil {
		return fmt.Errorf("no reminder channel configured")
	}
	to, err := m.owners.Email(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve owner email: %w", err)
	}
	return m.mailer.SendTaskReminder(ctx, to, l.Name, task, *l.TaskDueDate)
}

// SendCriticalAlerts texts the admin phone of every workspace that opted in
// when leads have gone more than a day without contact. It returns how many
// workspaces were alerted.
func (m *Monitor) SendCriticalAlerts(ctx context.Context, now time.Time) (int, error) {
	owners, err := m.leads.Owners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspaces: %w", err)
	}

	alerted := 0
	for _, userID := range owners {
		settings, err := m.settings.Integrations(ctx, userID)
		if err != nil {
			m.logger.Printf("⚠️  Failed to load settings for %s: %v", userID, err)
			continue
		}
		if !settings.SMS.CriticalAlertsEnabled || !smsReady(settings) {
			continue
		}

		rows, err := m.leads.Stored(ctx, userID)
		if err != nil {
			m.logger.Printf("❌ Failed to load leads for %s: %v", userID, err)
			continue
		}
		var names []string
		for _, l := range rows {
			if l.Status == leads.StatusArchived {
				continue
			}
			if leads.ClassifyAging(l, now) == leads.AgingCritical {
				names = append(names, l.Name)
			}
		}
		if len(names) == 0 {
			continue
		}

		key := cache.AlertKey(userID, now.UTC().Format("2006010215"))
		if !m.claim(ctx, key, AlertTTL) {
			continue
		}
		if _, err := m.sender.Dispatch(ctx, settings, outreach.ChannelSMS, outreach.Recipient{Phone: settings.SMS.AdminPhone}, CriticalAlertText(names)); err != nil {
			m.logger.Printf("❌ Critical alert for %s failed: %v", userID, err)
			m.release(ctx, key)
			continue
		}
		alerted++
	}
	return alerted, nil
}

// CriticalAlertText summarizes neglected leads for an SMS
func CriticalAlertText(names []string) string {
	shown := names
	if len(shown) > maxAlertNames {
		shown = shown[:maxAlertNames]
	}
	text := fmt.Sprintf("Levrix alert: %d lead(s) waiting over 24h for first contact: %s", len(names), strings.Join(shown, ", "))
	if extra := len(names) - len(shown); extra > 0 {
		text += fmt.Sprintf(" and %d more", extra)
	}
	return text + "."
}
