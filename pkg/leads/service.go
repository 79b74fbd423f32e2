package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
	"github.com/levrixhq/levrix/pkg/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// List filters accepted by Service.List
const (
	FilterAll            = "All"
	FilterCritical       = "Critical"
	FilterWarning        = "Warning"
	FilterFollowUpNeeded = "Follow Up Needed"
	FilterDirty          = "Dirty"
	FilterWon            = "Won"
	FilterLost           = "Lost"
)

// PlanLimiter reports how many leads the user's plan allows. A limit <= 0 is unlimited.
type PlanLimiter interface {
	LeadLimit(ctx context.Context, userID string) (plan string, limit int, err error)
}

// Invalidator drops cached views derived from a user's leads
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// CreateInput is the payload for a new lead
type CreateInput struct {
	Name             string     `json:"name" validate:"required,max=200"`
	Email            string     `json:"email" validate:"omitempty,max=254"`
	Phone            string     `json:"phone" validate:"omitempty,max=40"`
	Source           Source     `json:"source" validate:"omitempty,oneof=Facebook Google Manual Referral"`
	Status           Status     `json:"status" validate:"omitempty"`
	Stage            Stage      `json:"stage" validate:"omitempty"`
	Notes            string     `json:"notes"`
	PropertyAddress  string     `json:"propertyAddress"`
	CampaignSource   string     `json:"campaignSource"`
	PriorityScore    *int       `json:"priorityScore" validate:"omitempty,min=0,max=100"`
	Sentiment        Sentiment  `json:"sentiment" validate:"omitempty,oneof=Positive Neutral Negative"`
	NextFollowUpTask string     `json:"nextFollowUpTask"`
	TaskDueDate      *time.Time `json:"taskDueDate"`
}

// UpdateInput patches a lead. Nil fields are left alone.
type UpdateInput struct {
	Name             *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Email            *string    `json:"email" validate:"omitempty,max=254"`
	Phone            *string    `json:"phone" validate:"omitempty,max=40"`
	Source           *Source    `json:"source"`
	Status           *Status    `json:"status"`
	Stage            *Stage     `json:"stage"`
	Notes            *string    `json:"notes"`
	PropertyAddress  *string    `json:"propertyAddress"`
	CampaignSource   *string    `json:"campaignSource"`
	PriorityScore    *int       `json:"priorityScore" validate:"omitempty,min=0,max=100"`
	Sentiment        *Sentiment `json:"sentiment"`
	NextFollowUpTask *string    `json:"nextFollowUpTask"`
	TaskDueDate      *time.Time `json:"taskDueDate"`
	TaskCompleted    *bool      `json:"taskCompleted"`
}

// Filter selects a page of leads
type Filter struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// ListResult is one page of lead views
type ListResult struct {
	Data       []LeadView            `json:"data"`
	Pagination models.PaginationInfo `json:"pagination"`
	DirtyCount int                   `json:"dirtyCount"`
}

// Service handles lead business logic
type Service struct {
	repo     Repository
	books    *Books
	verifier EmailVerifier
	limiter  PlanLimiter
	cache    Invalidator
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a new lead service. verifier, limiter and cache may be nil.
func NewService(repo Repository, verifier EmailVerifier, limiter PlanLimiter, cache Invalidator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		books:    NewBooks(),
		verifier: verifier,
		limiter:  limiter,
		cache:    cache,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetVerifier installs the remote email check after construction
func (s *Service) SetVerifier(v EmailVerifier) {
	s.verifier = v
}

// Book returns the working set of a user
func (s *Service) Book(userID string) *Book {
	return s.books.For(userID)
}

// Now returns the service clock
func (s *Service) Now() time.Time {
	return s.now()
}

// refresh reconciles the user's book with the store
func (s *Service) refresh(ctx context.Context, userID string) (*Book, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}
	book := s.books.For(userID)
	book.Load(rows)
	return book, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate lead caches", "user_id", userID, "error", err)
	}
}

func (s *Service) checkLimit(ctx context.Context, userID string) error {
	if s.limiter == nil {
		return nil
	}

	plan, limit, err := s.limiter.LeadLimit(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve plan: %w", err)
	}
	if limit <= 0 {
		return nil
	}

	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return err
	}
	if count >= limit {
		return domain.NewPlanLimitError(plan, limit, "leads")
	}
	return nil
}

// Create standardizes, validates and stores a new lead. The lead is staged in
// the user's book under a temp id and swapped for the stored row once the
// insert succeeds.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*LeadView, error) {
	name := StandardizeName(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}

	if err := s.checkLimit(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	lead := Lead{
		ID:               TempIDPrefix + uuid.NewString(),
		UserID:           userID,
		Name:             name,
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		Source:           in.Source,
		CampaignSource:   in.CampaignSource,
		PropertyAddress:  in.PropertyAddress,
		Status:           in.Status,
		Stage:            in.Stage,
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
		TaskDueDate:      in.TaskDueDate,
		PriorityScore:    in.PriorityScore,
		Sentiment:        in.Sentiment,
		NextFollowUpTask: in.NextFollowUpTask,
	}
	if !lead.Source.Valid() {
		lead.Source = SourceManual
	}
	if !lead.Status.Valid() {
		lead.Status = StatusNew
	}
	if !lead.Stage.Valid() {
		lead.Stage = StageInquiry
	}
	if !lead.Sentiment.Valid() {
		lead.Sentiment = SentimentNeutral
	}
	if strings.Contains(lead.Notes, MetadataMarker) {
		lead.Notes, _, _ = DecodeNotes(lead.Notes)
	}

	book := s.books.For(userID)
	tempID := lead.ID
	seq := book.Stage(lead)

	lead.EmailRejected = EmailRejected(ctx, s.verifier, lead.Email)

	saved := lead
	saved.ID = uuid.NewString()
	if err := s.repo.Insert(ctx, &saved); err != nil {
		book.Rollback(tempID, seq)
		s.log.Error("lead insert failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	book.Confirm(tempID, seq, saved)

	metrics.RecordLeadCreated(string(saved.Source))
	s.invalidate(ctx, userID)

	if _, err := s.refresh(ctx, userID); err != nil {
		s.log.Warn("failed to reload leads after create", "user_id", userID, "error", err)
	}
	view := s.viewOf(saved, book.Snapshot())
	return &view, nil
}

// Get returns a lead with its computed health
func (s *Service) Get(ctx context.Context, userID, id string) (*LeadView, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	lead, ok := book.Get(id)
	if !ok {
		return nil, domain.NewNotFoundError("lead")
	}
	view := s.viewOf(lead, book.Snapshot())
	return &view, nil
}

// Update applies a patch. The name is re-standardized and the email
// re-validated. On a store failure the book is rolled back and reloaded.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*LeadView, error) {
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		if in.Name != nil {
			name := StandardizeName(strings.TrimSpace(*in.Name))
			if name == "" {
				return domain.NewValidationError("name is required")
			}
			l.Name = name
		}
		if in.Email != nil {
			l.Email = strings.TrimSpace(*in.Email)
		}
		if in.Phone != nil {
			l.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Source != nil {
			if !in.Source.Valid() {
				return domain.NewValidationError("unknown source")
			}
			l.Source = *in.Source
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return domain.NewValidationError("unknown status")
			}
			l.Status = *in.Status
		}
		if in.Stage != nil {
			if !in.Stage.Valid() {
				return domain.NewValidationError("unknown stage")
			}
			l.Stage = *in.Stage
		}
		if in.Notes != nil {
			notes, _, _ := DecodeNotes(strings.TrimSpace(*in.Notes))
			l.Notes = notes
		}
		if in.PropertyAddress != nil {
			l.PropertyAddress = *in.PropertyAddress
		}
		if in.CampaignSource != nil {
			l.CampaignSource = *in.CampaignSource
		}
		if in.PriorityScore != nil {
			score := clampScore(*in.PriorityScore)
			l.PriorityScore = &score
		}
		if in.Sentiment != nil {
			if !in.Sentiment.Valid() {
				return domain.NewValidationError("unknown sentiment")
			}
			l.Sentiment = *in.Sentiment
		}
		if in.NextFollowUpTask != nil {
			l.NextFollowUpTask = *in.NextFollowUpTask
		}
		if in.TaskDueDate != nil {
			due := in.TaskDueDate.UTC()
			l.TaskDueDate = &due
		}
		if in.TaskCompleted != nil {
			l.TaskCompleted = *in.TaskCompleted
		}

		l.EmailRejected = EmailRejected(ctx, s.verifier, l.Email)
		return nil
	})
}

// UpdateStatus moves a lead to status
func (s *Service) UpdateStatus(ctx context.Context, userID, id string, status Status) (*LeadView, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("unknown status")
	}
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		l.Status = status
		return nil
	})
}

// Archive hides a lead without deleting it
func (s *Service) Archive(ctx context.Context, userID, id string) (*LeadView, error) {
	return s.UpdateStatus(ctx, userID, id, StatusArchived)
}

// AdvanceStage moves a lead one step down the pipeline
func (s *Service) AdvanceStage(ctx context.Context, userID, id string) (*LeadView, error) {
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		l.Stage = l.Stage.Next()
		return nil
	})
}

// ScheduleTask sets the next follow-up task and reopens it
func (s *Service) ScheduleTask(ctx context.Context, userID, id, task string, due time.Time) (*LeadView, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, domain.NewValidationError("task is required")
	}
	if due.IsZero() {
		return nil, domain.NewValidationError("due date is required")
	}
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		d := due.UTC()
		l.NextFollowUpTask = task
		l.TaskDueDate = &d
		l.TaskCompleted = false
		return nil
	})
}

// CompleteTask marks the follow-up task as done
func (s *Service) CompleteTask(ctx context.Context, userID, id string) (*LeadView, error) {
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		l.TaskCompleted = true
		return nil
	})
}

// AppendNote adds a line to the free-text notes
func (s *Service) AppendNote(ctx context.Context, userID, id, line string) (*LeadView, error) {
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		if l.Notes == "" {
			l.Notes = line
		} else {
			l.Notes = l.Notes + "\n\n" + line
		}
		return nil
	})
}

// Enrich applies fields produced by the assistant
func (s *Service) Enrich(ctx context.Context, userID, id string, fn func(l *Lead)) (*LeadView, error) {
	return s.mutate(ctx, userID, id, func(l *Lead) error {
		fn(l)
		if l.PriorityScore != nil {
			score := clampScore(*l.PriorityScore)
			l.PriorityScore = &score
		}
		return nil
	})
}

// mutate stages fn's result, persists it, then confirms or rolls back
func (s *Service) mutate(ctx context.Context, userID, id string, fn func(l *Lead) error) (*LeadView, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, ok := book.Get(id)
	if !ok {
		return nil, domain.NewNotFoundError("lead")
	}

	next := current
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	seq := book.Stage(next)
	if err := s.repo.Update(ctx, &next); err != nil {
		book.Rollback(id, seq)
		if _, rerr := s.refresh(ctx, userID); rerr != nil {
			s.log.Warn("failed to reload leads after update failure", "user_id", userID, "error", rerr)
		}
		if errors.Is(err, ErrLeadNotFound) {
			return nil, domain.NewNotFoundError("lead")
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	book.Confirm(id, seq, next)
	s.invalidate(ctx, userID)

	view := s.viewOf(next, book.Snapshot())
	return &view, nil
}

// MarkContacted stamps the contact time on the given leads
func (s *Service) MarkContacted(ctx context.Context, userID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.repo.MarkContacted(ctx, userID, ids, at); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// All returns every lead view of a user, newest first
func (s *Service) All(ctx context.Context, userID string) ([]LeadView, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(book.Snapshot()), nil
}

// Raw returns the user's leads without derived fields
func (s *Service) Raw(ctx context.Context, userID string) ([]Lead, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	return book.Snapshot(), nil
}

// Stored returns the user's leads as persisted, without touching the
// in-memory book. Background passes read through here.
func (s *Service) Stored(ctx context.Context, userID string) ([]Lead, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}
	return rows, nil
}

// List returns a filtered page of lead views
func (s *Service) List(ctx context.Context, userID string, f Filter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	all, err := s.All(ctx, userID)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	dirty := 0
	matched := make([]LeadView, 0, len(all))
	for _, v := range all {
		if v.Health.Dirty() {
			dirty++
		}
		if matchesSearch(v.Lead, search) && matchesFilter(v, f.Status) {
			matched = append(matched, v)
		}
	}

	start, end := models.Window(f.Page, f.Limit, len(matched))
	return &ListResult{
		Data:       matched[start:end],
		Pagination: models.NewPagination(f.Page, f.Limit, len(matched)),
		DirtyCount: dirty,
	}, nil
}

func matchesSearch(l Lead, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), term) ||
		strings.Contains(strings.ToLower(l.Email), term) ||
		strings.Contains(strings.ToLower(l.PropertyAddress), term)
}

func matchesFilter(v LeadView, filter string) bool {
	switch filter {
	case "", FilterAll:
		return true
	case FilterCritical:
		return v.AgingStatus == AgingCritical
	case FilterWarning:
		return v.AgingStatus == AgingWarning
	case FilterFollowUpNeeded:
		return v.Status == StatusFollowUpNeeded || (v.TaskDueDate != nil && !v.TaskCompleted)
	case FilterDirty:
		return v.Health.Dirty()
	case FilterWon:
		return v.Status == StatusWon
	case FilterLost:
		return v.Status == StatusLost
	default:
		return v.Status == Status(filter)
	}
}

// Duplicates returns groups of lead ids that share a phone or email.
// Groups are connected components, so A~B and B~C end up together.
func (s *Service) Duplicates(ctx context.Context, userID string) ([][]string, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	return DuplicateGroups(book.Snapshot()), nil
}

// DuplicateGroups groups leads connected by the duplicate relation
func DuplicateGroups(all []Lead) [][]string {
	health := AnalyzeAll(all)
	seen := make(map[string]bool, len(all))
	var groups [][]string

	for _, l := range all {
		if seen[l.ID] || !health[l.ID].IsDuplicate {
			continue
		}

		var group []string
		queue := []string{l.ID}
		seen[l.ID] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			group = append(group, id)
			for _, dup := range health[id].DuplicateIDs {
				if !seen[dup] {
					seen[dup] = true
					queue = append(queue, dup)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// DirtyCount returns how many leads raise a data-quality flag
func (s *Service) DirtyCount(ctx context.Context, userID string) (int, error) {
	all, err := s.All(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range all {
		if v.Health.Dirty() {
			n++
		}
	}
	return n, nil
}

// StandardizeAll rewrites every name that is not in standard form and
// returns the ids it changed. Failures are logged and skipped.
func (s *Service) StandardizeAll(ctx context.Context, userID string) ([]string, error) {
	book, err := s.refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, l := range book.Snapshot() {
		if l.Name == StandardizeName(l.Name) || IsTempID(l.ID) {
			continue
		}
		if _, err := s.mutate(ctx, userID, l.ID, func(x *Lead) error {
			x.Name = StandardizeName(x.Name)
			return nil
		}); err != nil {
			s.log.Warn("failed to standardize lead", "lead_id", l.ID, "error", err)
			continue
		}
		changed = append(changed, l.ID)
	}
	return changed, nil
}

// Owners lists every user that has leads
func (s *Service) Owners(ctx context.Context) ([]string, error) {
	return s.repo.Owners(ctx)
}

func (s *Service) viewOf(l Lead, all []Lead) LeadView {
	return LeadView{
		Lead:        l,
		Health:      AnalyzeHealth(l, all),
		AgingStatus: ClassifyAging(l, s.now()),
	}
}

func (s *Service) views(all []Lead) []LeadView {
	health := AnalyzeAll(all)
	now := s.now()
	out := make([]LeadView, len(all))
	for i, l := range all {
		out[i] = LeadView{Lead: l, Health: health[l.ID], AgingStatus: ClassifyAging(l, now)}
	}
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
