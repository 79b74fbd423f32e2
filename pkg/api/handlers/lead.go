package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/export"
	"github.com/levrixhq/levrix/pkg/leads"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	leads     *leads.Service
	exporter  *export.Service
	validator *validator.Validate
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *leads.Service, exporter *export.Service) *LeadHandler {
	return &LeadHandler{
		leads:     leadService,
		exporter:  exporter,
		validator: validator.New(),
	}
}

// StatusRequest changes a lead's status
type StatusRequest struct {
	Status leads.Status `json:"status" validate:"required"`
}

// TaskRequest schedules a follow-up
type TaskRequest struct {
	Task    string    `json:"task" validate:"required,max=200"`
	DueDate time.Time `json:"dueDate" validate:"required"`
}

// DuplicatesResponse lists groups of leads sharing a phone or email
type DuplicatesResponse struct {
	Groups [][]string `json:"groups"`
}

// StandardizeResponse lists the leads whose fields were cleaned
type StandardizeResponse struct {
	Updated []string `json:"updated"`
	Count   int      `json:"count"`
}

// List godoc
// @Summary List leads
// @Description Search by name, email or address and filter by status or aging
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Param status query string false "All, Critical, Warning, Follow Up Needed, Dirty, Won, Lost or a status"
// @Param page query integer false "Page number" default(1)
// @Param limit query integer false "Results per page" default(10)
// @Success 200 {object} leads.ListResult
// @Router /leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	result, err := h.leads.List(ctx, userID, leads.Filter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", leads.DefaultPageSize),
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body leads.CreateInput true "Lead"
// @Success 201 {object} leads.LeadView
// @Failure 403 {object} models.ErrorResponse "Plan limit reached"
// @Router /leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req leads.CreateInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.Create(ctx, userID, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// Get godoc
// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} leads.LeadView
// @Failure 404 {object} models.ErrorResponse
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update godoc
// @Summary Update a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body leads.UpdateInput true "Fields to change"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id} [patch]
func (h *LeadHandler) Update(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req leads.UpdateInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.Update(ctx, userID, c.Param("id"), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateStatus godoc
// @Summary Change a lead's status
// @Description Archived hides the lead; leads are never deleted
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id}/status [post]
func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.UpdateStatus(ctx, userID, c.Param("id"), req.Status)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Advance godoc
// @Summary Move a lead to the next pipeline stage
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id}/advance [post]
func (h *LeadHandler) Advance(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.AdvanceStage(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ScheduleTask godoc
// @Summary Schedule a follow-up task
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body TaskRequest true "Task"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id}/task [post]
func (h *LeadHandler) ScheduleTask(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.ScheduleTask(ctx, userID, c.Param("id"), req.Task, req.DueDate)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// CompleteTask godoc
// @Summary Complete the follow-up task
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} leads.LeadView
// @Router /leads/{id}/task/complete [post]
func (h *LeadHandler) CompleteTask(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.leads.CompleteTask(ctx, userID, c.Param("id"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Duplicates godoc
// @Summary Duplicate groups
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DuplicatesResponse
// @Router /leads/duplicates [get]
func (h *LeadHandler) Duplicates(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	groups, err := h.leads.Duplicates(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	if groups == nil {
		groups = [][]string{}
	}
	return c.JSON(http.StatusOK, DuplicatesResponse{Groups: groups})
}

// Standardize godoc
// @Summary Clean names and phone numbers of every lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StandardizeResponse
// @Router /leads/standardize [post]
func (h *LeadHandler) Standardize(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, 30*time.Second)
	defer cancel()

	ids, err := h.leads.StandardizeAll(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, StandardizeResponse{Updated: ids, Count: len(ids)})
}

// Export godoc
// @Summary Export leads
// @Tags Leads
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Router /leads/export [get]
func (h *LeadHandler) Export(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return errors.BadRequestError(c, "invalid_format", "format must be csv or xlsx")
	}

	ctx, cancel := withTimeout(c, 30*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := h.exporter.Export(ctx, userID, format, &buf); err != nil {
		return errors.FromDomain(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(format, time.Now().UTC())+`"`)
	return c.Blob(http.StatusOK, export.ContentType(format), buf.Bytes())
}
