// Package inbound accepts leads pushed by ad platforms and landing pages.
package inbound

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
)

// TokenPrefix starts every verify token
const TokenPrefix = "levrix_secure_"

// SubscribeMode is the only hub.mode accepted by the handshake
const SubscribeMode = "subscribe"

// RoutePath is the webhook path below the public base URL
const RoutePath = "/api/v1/webhooks/lead-inbound/"

var ErrInvalidToken = errors.New("invalid verify token")

// VerifyToken derives a user's webhook token from their login email
func VerifyToken(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	return TokenPrefix + local
}

// Payload is the body posted by a lead source
type Payload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Source   string `json:"source"`
	Campaign string `json:"campaign"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

// Info is shown on the settings page
type Info struct {
	URL         string `json:"url"`
	VerifyToken string `json:"verifyToken"`
}

// OwnerLookup resolves the login email of a workspace owner
type OwnerLookup interface {
	Email(ctx context.Context, userID string) (string, error)
}

// LeadCreator stores inbound leads
type LeadCreator interface {
	Create(ctx context.Context, userID string, in leads.CreateInput) (*leads.LeadView, error)
}

// Service handles inbound webhooks
type Service struct {
	owners  OwnerLookup
	leads   LeadCreator
	baseURL string
	log     logger.Logger
}

// NewService creates an inbound service. baseURL is the public API origin.
func NewService(owners OwnerLookup, leadCreator LeadCreator, baseURL string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		owners:  owners,
		leads:   leadCreator,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Info returns the webhook URL and token for userID
func (s *Service) Info(userID, email string) Info {
	return Info{URL: s.baseURL + RoutePath + userID, VerifyToken: VerifyToken(email)}
}

// authorize checks token against the owner's expected token
func (s *Service) authorize(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return ErrInvalidToken
	}
	email, err := s.owners.Email(ctx, userID)
	if err != nil {
		return ErrInvalidToken
	}
	want := VerifyToken(email)
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Handshake answers a platform subscription check with its challenge
func (s *Service) Handshake(ctx context.Context, userID, mode, token, challenge string) (string, error) {
	if mode != SubscribeMode {
		return "", domain.NewBadRequestError("hub.mode must be subscribe")
	}
	if err := s.authorize(ctx, userID, token); err != nil {
		return "", domain.NewForbiddenError(err.Error())
	}
	return challenge, nil
}

// Receive stores a lead pushed to userID's webhook
func (s *Service) Receive(ctx context.Context, userID, token string, p Payload) (*leads.LeadView, error) {
	if err := s.authorize(ctx, userID, token); err != nil {
		metrics.RecordInbound(false)
		return nil, domain.NewForbiddenError(err.Error())
	}

	name := norm.NFC.String(strings.TrimSpace(p.Name))
	if name == "" {
		metrics.RecordInbound(false)
		return nil, domain.NewValidationError("name is required")
	}

	view, err := s.leads.Create(ctx, userID, leads.CreateInput{
		Name:            name,
		Email:           strings.TrimSpace(p.Email),
		Phone:           strings.TrimSpace(p.Phone),
		Source:          ParseSource(p.Source),
		Status:          leads.StatusNew,
		Stage:           leads.StageInquiry,
		CampaignSource:  strings.TrimSpace(p.Campaign),
		PropertyAddress: norm.NFC.String(strings.TrimSpace(p.Property)),
		Notes:           strings.TrimSpace(p.Message),
	})
	if err != nil {
		metrics.RecordInbound(false)
		return nil, fmt.Errorf("failed to store inbound lead: %w", err)
	}

	metrics.RecordInbound(true)
	s.log.Info("inbound lead received", "user_id", userID, "lead_id", view.ID, "source", string(view.Source))
	return view, nil
}

// ParseSource maps a free-form source name to a lead source, Manual when unknown
func ParseSource(raw string) leads.Source {
	for _, src := range []leads.Source{leads.SourceFacebook, leads.SourceGoogle, leads.SourceManual, leads.SourceReferral} {
		if strings.EqualFold(strings.TrimSpace(raw), string(src)) {
			return src
		}
	}
	return leads.SourceManual
}
