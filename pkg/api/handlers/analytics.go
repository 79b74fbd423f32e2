package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/analytics"
	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/calendar"
)

// AnalyticsHandler serves the dashboard, the report and the calendar
type AnalyticsHandler struct {
	analytics *analytics.Service
	calendar  *calendar.Service
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *analytics.Service, calendarService *calendar.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analyticsService,
		calendar:  calendarService,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard godoc
// @Summary Pipeline dashboard
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Dashboard
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	dash, err := h.analytics.Dashboard(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, dash)
}

// Report godoc
// @Summary Performance report
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Report
// @Router /analytics/report [get]
func (h *AnalyticsHandler) Report(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	report, err := h.analytics.Report(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Calendar godoc
// @Summary Follow-ups and scheduled messages of a month
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param year query integer false "Year, defaults to the current one"
// @Param month query integer false "Month 1-12, defaults to the current one"
// @Success 200 {object} calendar.Month
// @Router /calendar [get]
func (h *AnalyticsHandler) Calendar(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	now := h.now()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	m, err := h.calendar.Month(ctx, userID, year, month)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
