package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/ai/assistant"
	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
)

// Services lists every configurable section
var Services = []string{Email, SMS, WhatsApp, Google, Facebook}

// Status messages written by Test
const (
	MsgSimulated      = "Simulated connection established successfully."
	MsgLocalSimulated = "Local validation successful (Simulation Mode)."
	MsgTimedOut       = "Validation engine timed out. Please retry."
	MsgVerified       = "Live connection verified."
	MsgRetest         = "Credentials changed. Run a connection test."
)

// Store loads and saves a workspace's settings
type Store interface {
	Integrations(ctx context.Context, userID string) (*Integrations, error)
	SaveIntegrations(ctx context.Context, userID string, in *Integrations) error
}

// Validator judges credentials
type Validator interface {
	ValidateCredentials(ctx context.Context, service string, data any) (*assistant.Validation, error)
}

// Fabricator produces a sample lead for a platform sync
type Fabricator interface {
	FabricateLead(ctx context.Context, platform string) assistant.FabricatedLead
}

// LeadCreator stores synced leads
type LeadCreator interface {
	Create(ctx context.Context, userID string, in leads.CreateInput) (*leads.LeadView, error)
}

// TestResult is the outcome of a connection test
type TestResult struct {
	Service   string `json:"service"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// Service handles integration settings
type Service struct {
	store      Store
	validator  Validator
	fabricator Fabricator
	leads      LeadCreator
	log        logger.Logger
	now        func() time.Time
}

// NewService creates an integrations service
func NewService(store Store, validator Validator, fabricator Fabricator, leadCreator LeadCreator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:      store,
		validator:  validator,
		fabricator: fabricator,
		leads:      leadCreator,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the user's settings
func (s *Service) Get(ctx context.Context, userID string) (*Integrations, error) {
	return s.store.Integrations(ctx, userID)
}

// Save stores new settings. Connection state is owned by Test: it is carried
// over from the stored document, and reset when a section's credentials change.
func (s *Service) Save(ctx context.Context, userID string, in Integrations) (*Integrations, error) {
	stored, err := s.store.Integrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.keepStatus(stored)
	if err := s.store.SaveIntegrations(ctx, userID, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (i *Integrations) keepStatus(stored *Integrations) {
	for _, svc := range Services {
		newSection, _ := i.Section(svc)
		oldSection, _ := stored.Section(svc)
		st, _ := i.StatusOf(svc)
		old, _ := stored.StatusOf(svc)

		enabled := st.Enabled
		*st = *old
		st.Enabled = enabled
		if !sameCredentials(newSection, oldSection) && st.Connected {
			st.Connected = false
			st.StatusMessage = MsgRetest
		}
	}
	i.Google.LastSync = stored.Google.LastSync
}

// preferenceKeys are toggles that do not affect whether credentials work
var preferenceKeys = map[string]bool{
	"adminPhone":            true,
	"criticalAlertsEnabled": true,
	"taskRemindersEnabled":  true,
}

func sameCredentials(a, b any) bool {
	return credentialKey(a) == credentialKey(b)
}

func credentialKey(section any) string {
	raw, err := json.Marshal(section)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for k := range fields {
		if (statusKeys[k] && k != "provider") || preferenceKeys[k] {
			delete(fields, k)
		}
	}
	out, _ := json.Marshal(fields)
	return string(out)
}

// Test validates a service's credentials and records the verdict
func (s *Service) Test(ctx context.Context, userID, service string) (*TestResult, error) {
	settings, err := s.store.Integrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	section, ok := settings.Section(service)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown integration %q", service))
	}

	connected, message := s.judge(ctx, service, section)

	st, _ := settings.StatusOf(service)
	st.Connected = connected
	st.StatusMessage = message
	st.LastTested = s.now().Format(time.RFC3339)
	if err := s.store.SaveIntegrations(ctx, userID, settings); err != nil {
		return nil, err
	}

	metrics.RecordIntegrationTest(service, connected)
	s.log.Info("integration tested", "user_id", userID, "service", service, "connected", connected)
	return &TestResult{Service: service, Connected: connected, Message: message}, nil
}

func (s *Service) judge(ctx context.Context, service string, section any) (bool, string) {
	mock := IsMockData(section)

	if s.validator == nil {
		if mock {
			return true, MsgLocalSimulated
		}
		return false, MsgTimedOut
	}

	v, err := s.validator.ValidateCredentials(ctx, service, section)
	if err != nil {
		if mock {
			return true, MsgLocalSimulated
		}
		return false, MsgTimedOut
	}
	if mock && !v.Valid {
		return true, MsgSimulated
	}
	if v.Error != "" {
		return v.Valid, v.Error
	}
	return v.Valid, MsgVerified
}

// Sync pulls one new lead from a connected ad platform
func (s *Service) Sync(ctx context.Context, userID, platform string) (*leads.LeadView, error) {
	var source leads.Source
	switch platform {
	case Facebook:
		source = leads.SourceFacebook
	case Google:
		source = leads.SourceGoogle
	default:
		return nil, domain.NewValidationError("platform must be facebook or google")
	}

	settings, err := s.store.Integrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !settings.Connected(platform) {
		return nil, domain.NewBadRequestError(fmt.Sprintf("%s not active.", strings.ToUpper(platform)))
	}

	fab := s.fabricator.FabricateLead(ctx, platform)
	view, err := s.leads.Create(ctx, userID, leads.CreateInput{
		Name:            fab.Name,
		Email:           fab.Email,
		Phone:           fab.Phone,
		Source:          source,
		Status:          leads.StatusNew,
		Stage:           leads.StageInquiry,
		PropertyAddress: fab.Interest,
	})
	if err != nil {
		return nil, err
	}

	if platform == Google {
		settings.Google.LastSync = s.now().Format(time.RFC3339)
		if err := s.store.SaveIntegrations(ctx, userID, settings); err != nil {
			s.log.Warn("failed to stamp google sync time", "user_id", userID, "error", err)
		}
	}
	return view, nil
}
