// Package calendar lays out follow-up tasks and scheduled messages by day.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/outreach"
)

// Event types
const (
	TypeFollowUp = "followup"
	TypeMessage  = "message"
)

// DefaultTask titles follow-ups without a named task
const DefaultTask = "Follow-up"

// Event is one entry on a calendar day
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Task   string    `json:"task,omitempty"`
	Status string    `json:"status,omitempty"`
	Time   string    `json:"time"`
	At     time.Time `json:"at"`
}

// Day is one cell of the month grid
type Day struct {
	Day    int     `json:"day"`
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// Month is a full month of days
type Month struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Days  []Day `json:"days"`
}

// LeadSource loads a user's leads
type LeadSource interface {
	Raw(ctx context.Context, userID string) ([]leads.Lead, error)
}

// MessageSource loads messages scheduled within [from, to)
type MessageSource interface {
	Scheduled(ctx context.Context, userID string, from, to time.Time) ([]outreach.MessageLog, error)
}

// Service builds calendar months
type Service struct {
	leads    LeadSource
	messages MessageSource
	loc      *time.Location
}

// NewService creates a calendar service. Days are cut in UTC.
func NewService(leadSrc LeadSource, messages MessageSource) *Service {
	return &Service{leads: leadSrc, messages: messages, loc: time.UTC}
}

// Month returns the events of a month, one Day per calendar day
func (s *Service) Month(ctx context.Context, userID string, year, month int) (*Month, error) {
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, domain.NewValidationError("year is out of range")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0)

	all, err := s.leads.Raw(ctx, userID)
	if err != nil {
		return nil, err
	}
	var logs []outreach.MessageLog
	if s.messages != nil {
		logs, err = s.messages.Scheduled(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load scheduled messages: %w", err)
		}
	}

	return Build(from, all, logs), nil
}

// Build lays out leads and logs over the month starting at first
func Build(first time.Time, all []leads.Lead, logs []outreach.MessageLog) *Month {
	loc := first.Location()
	next := first.AddDate(0, 1, 0)
	days := next.Add(-time.Nanosecond).Day()

	m := &Month{Year: first.Year(), Month: int(first.Month()), Days: make([]Day, days)}
	for i := range m.Days {
		m.Days[i] = Day{Day: i + 1, Date: first.AddDate(0, 0, i).Format("2006-01-02"), Events: []Event{}}
	}

	place := func(at time.Time, ev Event) {
		at = at.In(loc)
		if at.Before(first) || !at.Before(next) {
			return
		}
		ev.At = at
		ev.Time = at.Format("15:04")
		d := &m.Days[at.Day()-1]
		d.Events = append(d.Events, ev)
	}

	for _, l := range all {
		if l.TaskDueDate == nil {
			continue
		}
		task := l.NextFollowUpTask
		if strings.TrimSpace(task) == "" {
			task = DefaultTask
		}
		place(*l.TaskDueDate, Event{
			ID:    l.ID,
			Type:  TypeFollowUp,
			Title: fmt.Sprintf("%s: %s", task, l.Name),
			Task:  task,
		})
	}

	for _, log := range logs {
		if log.ScheduledAt == nil {
			continue
		}
		place(*log.ScheduledAt, Event{
			ID:     log.ID,
			Type:   TypeMessage,
			Title:  fmt.Sprintf("%s to %s", strings.ToUpper(string(log.Channel)), log.LeadName),
			Status: string(log.Status),
		})
	}

	for i := range m.Days {
		sort.SliceStable(m.Days[i].Events, func(a, b int) bool {
			return m.Days[i].Events[a].At.Before(m.Days[i].Events[b].At)
		})
	}
	return m
}
