package handlers

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/ai/assistant"
	"github.com/levrixhq/levrix/pkg/analytics"
	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/leads"
)

// maxVoiceNote bounds uploaded recordings
const maxVoiceNote = 10 << 20

// AIHandler exposes the assistant features
type AIHandler struct {
	leads     *leads.Service
	assistant *assistant.Service
	analytics *analytics.Service
	validator *validator.Validate
}

// NewAIHandler creates a new AI handler
func NewAIHandler(leadService *leads.Service, assistantService *assistant.Service, analyticsService *analytics.Service) *AIHandler {
	return &AIHandler{
		leads:     leadService,
		assistant: assistantService,
		analytics: analyticsService,
		validator: validator.New(),
	}
}

// ComposeRequest asks for a draft message for one lead
type ComposeRequest struct {
	LeadID  string `json:"leadId" validate:"required"`
	Channel string `json:"channel" validate:"required,oneof=email sms whatsapp"`
}

// ComposeResponse is a draft that still carries the {{name}} placeholder
type ComposeResponse struct {
	Draft string `json:"draft"`
}

// NextStepResponse is the suggestion and the lead it was noted on
type NextStepResponse struct {
	Suggestion string          `json:"suggestion"`
	Lead       *leads.LeadView `json:"lead"`
}

// VoiceResponse is the extracted note and the updated lead
type VoiceResponse struct {
	Note assistant.VoiceNote `json:"note"`
	Lead *leads.LeadView     `json:"lead"`
}

// InsightResponse is advice for the pipeline as a whole
type InsightResponse struct {
	Insight string `json:"insight"`
}

// Score godoc
// @Summary Score a lead's priority
// @Tags AI
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id}/ai/score [post]
func (h *AIHandler) Score(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	view, err := h.leads.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	score := h.assistant.ScorePriority(ctx, view.Lead)
	updated, err := h.leads.Enrich(ctx, userID, view.ID, func(l *leads.Lead) {
		l.PriorityScore = &score
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// NextStep godoc
// @Summary Suggest the next step for a lead
// @Description The suggestion is also appended to the lead's notes
// @Tags AI
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} NextStepResponse
// @Router /leads/{id}/ai/next-step [post]
func (h *AIHandler) NextStep(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	view, err := h.leads.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}

	suggestion := h.assistant.SuggestNextStep(ctx, view.Lead)
	updated, err := h.leads.AppendNote(ctx, userID, view.ID, assistant.InsightPrefix+suggestion)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, NextStepResponse{Suggestion: suggestion, Lead: updated})
}

// Voice godoc
// @Summary Turn a recorded conversation into notes
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param audio formData file true "Recording"
// @Success 200 {object} VoiceResponse
// @Router /leads/{id}/ai/voice [post]
func (h *AIHandler) Voice(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return errors.BadRequestError(c, "missing_audio", "An audio file is required")
	}
	if file.Size > maxVoiceNote {
		return errors.BadRequestError(c, "audio_too_large", "Recordings are limited to 10 MB")
	}
	src, err := file.Open()
	if err != nil {
		return errors.InternalError(c, err)
	}
	defer src.Close()
	audio, err := io.ReadAll(io.LimitReader(src, maxVoiceNote))
	if err != nil {
		return errors.InternalError(c, err)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.leads.Get(ctx, userID, id); err != nil {
		return errors.FromDomain(c, err)
	}

	note := h.assistant.ExtractVoiceNote(ctx, audio, file.Header.Get(echo.HeaderContentType))
	updated, err := h.leads.Enrich(ctx, userID, id, func(l *leads.Lead) {
		assistant.ApplyVoiceNote(l, note)
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, VoiceResponse{Note: note, Lead: updated})
}

// Compose godoc
// @Summary Draft an outreach message
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ComposeRequest true "Lead and channel"
// @Success 200 {object} ComposeResponse
// @Router /outreach/compose [post]
func (h *AIHandler) Compose(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req ComposeRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	view, err := h.leads.Get(ctx, userID, req.LeadID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, ComposeResponse{Draft: h.assistant.SmartCompose(ctx, view.Lead, req.Channel)})
}

// Insights godoc
// @Summary Strategy advice for the pipeline
// @Tags AI
// @Produce json
// @Security BearerAuth
// @Success 200 {object} InsightResponse
// @Router /analytics/insights [post]
func (h *AIHandler) Insights(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	dash, err := h.analytics.Dashboard(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	insight := h.assistant.DashboardInsight(ctx, userID, assistant.InsightStats{
		Total:    dash.TotalLeads,
		Won:      dash.Won,
		Critical: dash.Critical,
	})
	return c.JSON(http.StatusOK, InsightResponse{Insight: insight})
}
