// Package assistant implements the generative features of the CRM. Every
// feature degrades to a local answer when the model is missing or fails.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/levrixhq/levrix/pkg/ai/llm"
	"github.com/levrixhq/levrix/pkg/cache"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
)

// ErrUnavailable is returned by features that have no meaningful local answer
var ErrUnavailable = errors.New("AI assistant is not configured")

// Defaults and fallbacks
const (
	DefaultPriority = 50
	InsightTTL      = 10 * time.Minute
	DefaultTimeout  = 30 * time.Second

	InsightFallback  = "The strategy engine is currently re-calibrating. Please try again in a moment."
	NextStepFallback = "Schedule a follow-up call within 24 hours to confirm budget, timeline and preferred neighborhoods."

	InsightPrefix = "AI Insight: "
	VoicePrefix   = "Voice Summary: "
)

// Feature names used in metrics
const (
	FeaturePriority   = "priority"
	FeatureCompose    = "compose"
	FeatureNextStep   = "next_step"
	FeatureVoice      = "voice_note"
	FeatureInsight    = "insight"
	FeatureValidate   = "validate"
	FeatureFabricate  = "fabricate"
	FeatureEmailCheck = "email_check"
	FeatureMarketing  = "marketing"
)

// Service wraps an llm.Client with prompts, parsing and fallbacks
type Service struct {
	llm     llm.Client
	cache   *cache.Client
	timeout time.Duration
	log     logger.Logger
}

// NewService creates an assistant. client and cacheClient may be nil.
func NewService(client llm.Client, cacheClient *cache.Client, timeout time.Duration, log logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{llm: client, cache: cacheClient, timeout: timeout, log: log}
}

// Enabled reports whether a model is configured
func (s *Service) Enabled() bool {
	return s.llm != nil
}

func (s *Service) generate(ctx context.Context, feature string, req llm.Request) (string, error) {
	if s.llm == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.Generate(ctx, req)
	if err != nil {
		s.log.Warn("AI call failed", "feature", feature, "error", err)
		return "", err
	}
	return resp.Text, nil
}

func (s *Service) generateJSON(ctx context.Context, feature string, req llm.Request, dest any) error {
	text, err := s.generate(ctx, feature, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), dest); err != nil {
		s.log.Warn("AI returned malformed JSON", "feature", feature, "error", err)
		return fmt.Errorf("failed to parse %s response: %w", feature, err)
	}
	return nil
}

var firstNumber = regexp.MustCompile(`-?\d+`)

// ScorePriority rates a lead 0-100. Unparseable answers score DefaultPriority.
func (s *Service) ScorePriority(ctx context.Context, lead leads.Lead) int {
	notes, _, _ := leads.DecodeNotes(lead.Notes)
	text, err := s.generate(ctx, FeaturePriority, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.PriorityPrompt(lead.Name, string(lead.Stage), lead.PropertyAddress, notes),
	})
	if err != nil {
		metrics.RecordAICall(FeaturePriority, true)
		return DefaultPriority
	}

	score, err := strconv.Atoi(firstNumber.FindString(text))
	if err != nil {
		metrics.RecordAICall(FeaturePriority, true)
		return DefaultPriority
	}
	metrics.RecordAICall(FeaturePriority, false)
	return min(max(score, 0), 100)
}

// SmartCompose drafts an outreach message that keeps the name placeholder
func (s *Service) SmartCompose(ctx context.Context, lead leads.Lead, channel string) string {
	notes, _, _ := leads.DecodeNotes(lead.Notes)
	text, err := s.generate(ctx, FeatureCompose, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.ComposePrompt(channel, lead.Name, string(lead.Status), notes),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		metrics.RecordAICall(FeatureCompose, true)
		return composeFallback(channel)
	}
	metrics.RecordAICall(FeatureCompose, false)
	return keepPlaceholder(text, lead.Name)
}

// keepPlaceholder puts {{name}} back where the model wrote the real name
func keepPlaceholder(draft, name string) string {
	if strings.Contains(draft, "{{name}}") {
		return draft
	}
	if name != "" && strings.Contains(draft, name) {
		return strings.ReplaceAll(draft, name, "{{name}}")
	}
	return "Hi {{name}},\n\n" + draft
}

func composeFallback(channel string) string {
	if channel == "email" {
		return "Subject: Following up on your property search\n\nHi {{name}},\n\nThank you for your interest. I'd love to learn more about what you're looking for and share a few listings that match. Would you have ten minutes for a quick call this week?\n\nBest regards"
	}
	return "Hi {{name}}, thanks for your interest! Do you have a few minutes this week for a quick call about your property search?"
}

// SuggestNextStep returns a follow-up suggestion for a lead
func (s *Service) SuggestNextStep(ctx context.Context, lead leads.Lead) string {
	notes, _, _ := leads.DecodeNotes(lead.Notes)
	text, err := s.generate(ctx, FeatureNextStep, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.NextStepPrompt(lead.Name, lead.PropertyAddress, notes),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		metrics.RecordAICall(FeatureNextStep, true)
		return NextStepFallback
	}
	metrics.RecordAICall(FeatureNextStep, false)
	return strings.TrimSpace(text)
}

// VoiceNote is what a recorded interaction boils down to
type VoiceNote struct {
	Summary   string          `json:"summary"`
	NextStep  string          `json:"nextStep"`
	Sentiment leads.Sentiment `json:"sentiment"`
}

var voiceSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"summary":   {Type: llm.TypeString},
		"nextStep":  {Type: llm.TypeString},
		"sentiment": {Type: llm.TypeString, Enum: []string{"Positive", "Neutral", "Negative"}},
	},
	Required: []string{"summary", "nextStep", "sentiment"},
}

// ExtractVoiceNote summarizes an audio recording of a conversation
func (s *Service) ExtractVoiceNote(ctx context.Context, audio []byte, mimeType string) VoiceNote {
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	var note VoiceNote
	err := s.generateJSON(ctx, FeatureVoice, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.VoiceNotePrompt,
		Audio:  &llm.Audio{Data: audio, MIMEType: mimeType},
		Schema: voiceSchema,
	}, &note)
	if err != nil || strings.TrimSpace(note.Summary) == "" {
		metrics.RecordAICall(FeatureVoice, true)
		return VoiceNote{
			Summary:   "Voice note recorded. Automatic summary unavailable.",
			NextStep:  "Review the voice note and log the key details",
			Sentiment: leads.SentimentNeutral,
		}
	}
	if !note.Sentiment.Valid() {
		note.Sentiment = leads.SentimentNeutral
	}
	metrics.RecordAICall(FeatureVoice, false)
	return note
}

// ApplyVoiceNote writes a voice note onto a lead
func ApplyVoiceNote(l *leads.Lead, note VoiceNote) {
	line := VoicePrefix + note.Summary
	if l.Notes == "" {
		l.Notes = line
	} else {
		l.Notes += "\n" + line
	}
	l.NextFollowUpTask = note.NextStep
	l.Sentiment = note.Sentiment
	l.TaskCompleted = false
}

// InsightStats is the pipeline snapshot an insight is computed for
type InsightStats struct {
	Total    int `json:"total"`
	Won      int `json:"won"`
	Critical int `json:"critical"`
}

var (
	markdownSymbols = regexp.MustCompile("[*#_~`>]")
	listNumbering   = regexp.MustCompile(`(?m)^[0-9]+[.)]\s+`)
)

// CleanInsight strips markdown symbols and list numbering
func CleanInsight(text string) string {
	text = markdownSymbols.ReplaceAllString(text, "")
	text = listNumbering.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// DashboardInsight returns tactical advice for the pipeline. Answers are
// cached per user and snapshot; the fallback text is never cached.
func (s *Service) DashboardInsight(ctx context.Context, userID string, stats InsightStats) string {
	key := cache.InsightKey(userID, fmt.Sprintf("%d-%d-%d", stats.Total, stats.Won, stats.Critical))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			metrics.RecordCacheHit("insight")
			return cached
		}
		metrics.RecordCacheMiss("insight")
	}

	text, err := s.generate(ctx, FeatureInsight, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.InsightPrompt(stats.Total, stats.Won, stats.Critical),
	})
	clean := CleanInsight(text)
	if err != nil || clean == "" {
		metrics.RecordAICall(FeatureInsight, true)
		return InsightFallback
	}
	metrics.RecordAICall(FeatureInsight, false)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, clean, InsightTTL); err != nil {
			s.log.Warn("failed to cache insight", "user_id", userID, "error", err)
		}
	}
	return clean
}

// Validation is the model's verdict on a credential set
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

var validationSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"valid": {Type: llm.TypeBoolean},
		"error": {Type: llm.TypeString},
	},
	Required: []string{"valid"},
}

// ValidateCredentials asks the model whether credentials look plausible.
// The caller decides what a failure means.
func (s *Service) ValidateCredentials(ctx context.Context, service string, data any) (*Validation, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	var out Validation
	if err := s.generateJSON(ctx, FeatureValidate, llm.Request{
		System: llm.ValidatorSystemPrompt,
		Prompt: llm.ValidatePrompt(service, string(raw)),
		Schema: validationSchema,
	}, &out); err != nil {
		metrics.RecordAICall(FeatureValidate, true)
		return nil, err
	}
	metrics.RecordAICall(FeatureValidate, false)
	return &out, nil
}

// FabricatedLead is a sample lead from an ad platform
type FabricatedLead struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Interest string `json:"interest"`
}

var fabricatedSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"name":     {Type: llm.TypeString},
		"email":    {Type: llm.TypeString},
		"phone":    {Type: llm.TypeString},
		"interest": {Type: llm.TypeString},
	},
}

// FabricateLead produces one plausible lead for a platform sync. Without a
// model the lead comes from gofakeit.
func (s *Service) FabricateLead(ctx context.Context, platform string) FabricatedLead {
	var out FabricatedLead
	err := s.generateJSON(ctx, FeatureFabricate, llm.Request{
		Prompt: llm.FabricateLeadPrompt(platform),
		Schema: fabricatedSchema,
	}, &out)
	if err != nil || strings.TrimSpace(out.Name) == "" {
		metrics.RecordAICall(FeatureFabricate, true)
		return fakeLead()
	}
	metrics.RecordAICall(FeatureFabricate, false)
	return out
}

func fakeLead() FabricatedLead {
	addr := gofakeit.Address()
	return FabricatedLead{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Phone:    gofakeit.Phone(),
		Interest: fmt.Sprintf("%s, %s", addr.Street, addr.City),
	}
}

type emailVerdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// ClassifyEmail asks the model whether an address is deliverable
func (s *Service) ClassifyEmail(ctx context.Context, email string) (bool, error) {
	var v emailVerdict
	err := s.generateJSON(ctx, FeatureEmailCheck, llm.Request{
		Prompt: llm.EmailCheckPrompt(email),
		JSON:   true,
	}, &v)
	if err != nil {
		metrics.RecordAICall(FeatureEmailCheck, true)
		return false, err
	}
	metrics.RecordAICall(FeatureEmailCheck, false)
	return v.Valid, nil
}

// Verify implements leads.EmailVerifier
func (s *Service) Verify(ctx context.Context, email string) (bool, error) {
	return s.ClassifyEmail(ctx, email)
}

// Flyer is print copy for a listing
type Flyer struct {
	Headline string   `json:"headline"`
	Body     string   `json:"body"`
	Features []string `json:"features"`
}

// MarketingCopy is social and print copy for a listing
type MarketingCopy struct {
	Instagram string `json:"ig"`
	Facebook  string `json:"fb"`
	LinkedIn  string `json:"li"`
	Flyer     Flyer  `json:"flyer"`
}

var marketingSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"ig": {Type: llm.TypeString},
		"fb": {Type: llm.TypeString},
		"li": {Type: llm.TypeString},
		"flyer": {
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"headline": {Type: llm.TypeString},
				"body":     {Type: llm.TypeString},
				"features": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
			},
			Required: []string{"headline", "body", "features"},
		},
	},
	Required: []string{"ig", "fb", "li", "flyer"},
}

// MarketingCopy writes listing copy for a property description
func (s *Service) MarketingCopy(ctx context.Context, description string) (*MarketingCopy, error) {
	var out MarketingCopy
	if err := s.generateJSON(ctx, FeatureMarketing, llm.Request{
		System: llm.AgentSystemPrompt,
		Prompt: llm.MarketingCopyPrompt(description),
		Schema: marketingSchema,
	}, &out); err != nil {
		metrics.RecordAICall(FeatureMarketing, true)
		return nil, err
	}
	if len(out.Flyer.Features) > 5 {
		out.Flyer.Features = out.Flyer.Features[:5]
	}
	metrics.RecordAICall(FeatureMarketing, false)
	return &out, nil
}

// MarketingImage renders a listing photo
func (s *Service) MarketingImage(ctx context.Context, description string) (*llm.Image, error) {
	if s.llm == nil {
		return nil, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, 2*s.timeout)
	defer cancel()
	img, err := s.llm.GenerateImage(ctx, llm.MarketingImagePrompt(description))
	metrics.RecordAICall("marketing_image", err != nil)
	return img, err
}
