package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/integrations"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
	"github.com/levrixhq/levrix/pkg/models"
)

const (
	HistoryPageSize     = 10
	DefaultConcurrency  = 5
	DefaultTimeout      = 15 * time.Second
	DefaultDispatchSize = 100

	// finishTimeout bounds the write that records a claimed message's outcome
	finishTimeout = 5 * time.Second
)

// LeadSource resolves recipients and records contact times
type LeadSource interface {
	Raw(ctx context.Context, userID string) ([]leads.Lead, error)
	MarkContacted(ctx context.Context, userID string, ids []string, at time.Time) error
}

// SettingsSource loads a workspace's channel settings
type SettingsSource interface {
	Integrations(ctx context.Context, userID string) (*integrations.Integrations, error)
}

// Options tune the fan-out
type Options struct {
	Concurrency int
	Timeout     time.Duration
}

// HistoryResult is one page of the message log
type HistoryResult struct {
	Data       []MessageLog          `json:"data"`
	Pagination models.PaginationInfo `json:"pagination"`
}

// Service handles outreach business logic
type Service struct {
	logs     LogStore
	leads    LeadSource
	settings SettingsSource
	sender   Sender
	opts     Options
	log      logger.Logger
	now      func() time.Time
}

// NewService creates an outreach service
func NewService(logs LogStore, leadSrc LeadSource, settings SettingsSource, sender Sender, opts Options, log logger.Logger) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		logs:     logs,
		leads:    leadSrc,
		settings: settings,
		sender:   sender,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Send personalizes content for each lead and dispatches it, or queues it
// when the request is scheduled. Every lead gets its own result; one failure
// never stops the others.
func (s *Service) Send(ctx context.Context, userID string, req SendRequest) ([]SendResult, error) {
	if !req.Channel.Valid() {
		return nil, domain.NewValidationError("channel must be email, sms or whatsapp")
	}
	if len(req.LeadIDs) == 0 {
		return nil, domain.NewValidationError("at least one lead is required")
	}

	settings, err := s.settings.Integrations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load integrations: %w", err)
	}
	if !settings.Connected(string(req.Channel)) {
		return nil, ErrChannelNotConnected
	}

	all, err := s.leads.Raw(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]leads.Lead, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}

	now := s.now()
	results := make([]SendResult, len(req.LeadIDs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, id := range req.LeadIDs {
		lead, ok := byID[id]
		if !ok {
			results[i] = SendResult{LeadID: id, Status: StatusFailed, Error: "lead not found"}
			continue
		}
		g.Go(func() error {
			results[i] = s.sendOne(ctx, userID, settings, lead, req, now)
			return nil
		})
	}
	_ = g.Wait()

	if req.ScheduledAt == nil {
		var contacted []string
		for _, r := range results {
			if r.Status == StatusSent {
				contacted = append(contacted, r.LeadID)
			}
		}
		if err := s.leads.MarkContacted(ctx, userID, contacted, now); err != nil {
			s.log.Error("failed to mark leads contacted", "user_id", userID, "error", err)
		}
	}

	return results, nil
}

func (s *Service) sendOne(ctx context.Context, userID string, settings *integrations.Integrations, lead leads.Lead, req SendRequest, now time.Time) SendResult {
	entry := MessageLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		Channel:   req.Channel,
		Content:   Personalize(req.Content, lead.Name),
		CreatedAt: now,
	}

	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		entry.ScheduledAt = &at
		entry.Status = StatusQueued
	} else {
		providerID, err := s.dispatch(ctx, settings, req.Channel, recipientOf(lead), entry.Content)
		if err != nil {
			entry.Status = StatusFailed
			entry.Error = err.Error()
			s.log.Warn("outreach send failed", "user_id", userID, "lead_id", lead.ID, "channel", req.Channel, "error", err)
		} else {
			entry.Status = StatusSent
			entry.ProviderID = providerID
			sent := now
			entry.SentAt = &sent
		}
		metrics.RecordMessage(string(req.Channel), string(entry.Status))
	}

	result := SendResult{LeadID: lead.ID, Status: entry.Status, Error: entry.Error}
	if err := s.logs.Insert(ctx, &entry); err != nil {
		s.log.Error("failed to log message", "user_id", userID, "lead_id", lead.ID, "error", err)
		if result.Error == "" {
			result.Error = "message log not saved"
		}
		return result
	}
	result.LogID = entry.ID
	return result
}

func (s *Service) dispatch(ctx context.Context, settings *integrations.Integrations, channel Channel, to Recipient, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.sender.Dispatch(ctx, settings, channel, to, content)
}

func recipientOf(l leads.Lead) Recipient {
	return Recipient{Name: l.Name, Email: l.Email, Phone: l.Phone}
}

// DispatchDue sends queued messages whose time has come. It returns how many
// were claimed.
func (s *Service) DispatchDue(ctx context.Context, now time.Time, batch int) (int, error) {
	if batch <= 0 {
		batch = DefaultDispatchSize
	}
	claimed, err := s.logs.ClaimDue(ctx, now, batch)
	if err != nil && len(claimed) == 0 {
		return 0, err
	}
	if err != nil {
		s.log.Warn("partial claim of due messages", "claimed", len(claimed), "error", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	type workspace struct {
		settings *integrations.Integrations
		leads    map[string]leads.Lead
		err      error
	}
	workspaces := make(map[string]*workspace)
	for _, l := range claimed {
		if _, ok := workspaces[l.UserID]; ok {
			continue
		}
		ws := &workspace{leads: map[string]leads.Lead{}}
		ws.settings, ws.err = s.settings.Integrations(ctx, l.UserID)
		if ws.err == nil {
			var rows []leads.Lead
			rows, ws.err = s.leads.Raw(ctx, l.UserID)
			for _, r := range rows {
				ws.leads[r.ID] = r
			}
		}
		workspaces[l.UserID] = ws
	}

	results := make([]Status, len(claimed))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, entry := range claimed {
		ws := workspaces[entry.UserID]
		g.Go(func() error {
			results[i] = s.deliverQueued(ctx, entry, ws.settings, ws.leads, ws.err, now)
			return nil
		})
	}
	_ = g.Wait()

	contacted := map[string][]string{}
	for i, entry := range claimed {
		if results[i] == StatusSent {
			contacted[entry.UserID] = append(contacted[entry.UserID], entry.LeadID)
		}
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	for userID, ids := range contacted {
		if err := s.leads.MarkContacted(mctx, userID, ids, now); err != nil {
			s.log.Error("failed to mark leads contacted", "user_id", userID, "error", err)
		}
	}

	s.log.Info("dispatched due messages", "count", len(claimed))
	return len(claimed), nil
}

func (s *Service) deliverQueued(ctx context.Context, entry MessageLog, settings *integrations.Integrations, byID map[string]leads.Lead, loadErr error, now time.Time) Status {
	var (
		providerID string
		err        = loadErr
	)
	if err == nil {
		lead, ok := byID[entry.LeadID]
		switch {
		case !ok:
			err = errors.New("lead not found")
		case !settings.Connected(string(entry.Channel)):
			err = ErrChannelNotConnected
		default:
			providerID, err = s.dispatch(ctx, settings, entry.Channel, recipientOf(lead), entry.Content)
		}
	}

	// The outcome is written even when the pass deadline has passed, or the
	// row would stay Dispatching until its lease runs out.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	if err != nil && ctx.Err() != nil {
		if rerr := s.logs.Release(fctx, entry.ID); rerr != nil {
			s.log.Error("failed to release queued message", "log_id", entry.ID, "error", rerr)
		}
		s.log.Warn("dispatch pass ended before message was sent", "log_id", entry.ID, "error", err)
		return StatusQueued
	}

	status := StatusSent
	errMsg := ""
	var sentAt *time.Time
	if err != nil {
		status = StatusFailed
		errMsg = err.Error()
	} else {
		sentAt = &now
	}
	metrics.RecordMessage(string(entry.Channel), string(status))

	if ferr := s.logs.Finish(fctx, entry.ID, status, providerID, errMsg, sentAt); ferr != nil {
		s.log.Error("failed to finish queued message", "log_id", entry.ID, "error", ferr)
	}
	return status
}

// History returns a page of the user's message log
func (s *Service) History(ctx context.Context, userID, search string, page int) (*HistoryResult, error) {
	if page < 1 {
		page = 1
	}
	logs, total, err := s.logs.History(ctx, userID, search, (page-1)*HistoryPageSize, HistoryPageSize)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []MessageLog{}
	}
	return &HistoryResult{
		Data:       logs,
		Pagination: models.NewPagination(page, HistoryPageSize, total),
	}, nil
}

// Scheduled returns a user's messages scheduled within [from, to)
func (s *Service) Scheduled(ctx context.Context, userID string, from, to time.Time) ([]MessageLog, error) {
	return s.logs.Scheduled(ctx, userID, from, to)
}
