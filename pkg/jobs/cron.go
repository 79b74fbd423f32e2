package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedules
const (
	DispatchSchedule  = "@every 1m"
	ReminderSchedule  = "*/5 * * * *"
	AlertSchedule     = "0 * * * *"
	DispatchBatchSize = 100
)

// DueDispatcher sends queued messages whose time has come
type DueDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time, batch int) (int, error)
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron       *cron.Cron
	dispatcher DueDispatcher
	monitor    *Monitor
	logger     *log.Logger
	now        func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(dispatcher DueDispatcher, monitor *Monitor, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger))),
		dispatcher: dispatcher,
		monitor:    monitor,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	if _, err := cm.cron.AddFunc(DispatchSchedule, func() { cm.RunDispatch(context.Background()) }); err != nil {
		return err
	}
	if _, err := cm.cron.AddFunc(ReminderSchedule, func() { cm.RunReminders(context.Background()) }); err != nil {
		return err
	}
	if _, err := cm.cron.AddFunc(AlertSchedule, func() { cm.RunAlerts(context.Background()) }); err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Println("  - Every minute: dispatch scheduled messages")
	cm.logger.Println("  - Every 5 minutes: follow-up reminders")
	cm.logger.Println("  - Hourly: critical lead alerts")

	return nil
}

// RunDispatch sends one batch of due messages
func (cm *CronManager) RunDispatch(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 55*time.Second)
	defer cancel()

	n, err := cm.dispatcher.DispatchDue(ctx, cm.now(), DispatchBatchSize)
	if err != nil {
		cm.logger.Printf("❌ Failed to dispatch due messages: %v", err)
		return n
	}
	if n > 0 {
		cm.logger.Printf("✅ Dispatched %d scheduled messages", n)
	}
	return n
}

// RunReminders sends follow-up reminders that have come due
func (cm *CronManager) RunReminders(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Minute)
	defer cancel()

	n, err := cm.monitor.SendReminders(ctx, cm.now())
	if err != nil {
		cm.logger.Printf("❌ Failed to send reminders: %v", err)
		return n
	}
	if n > 0 {
		cm.logger.Printf("✅ Sent %d follow-up reminders", n)
	}
	return n
}

// RunAlerts sends critical lead alerts
func (cm *CronManager) RunAlerts(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	n, err := cm.monitor.SendCriticalAlerts(ctx, cm.now())
	if err != nil {
		cm.logger.Printf("❌ Failed to send critical alerts: %v", err)
		return n
	}
	if n > 0 {
		cm.logger.Printf("📣 Alerted %d workspaces about critical leads", n)
	}
	return n
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}

// Entries reports how many jobs are registered
func (cm *CronManager) Entries() int {
	return len(cm.cron.Entries())
}
