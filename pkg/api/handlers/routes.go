package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Leads        *LeadHandler
	AI           *AIHandler
	Outreach     *OutreachHandler
	Analytics    *AnalyticsHandler
	Integrations *IntegrationHandler
	Team         *TeamHandler
	Billing      *BillingHandler
	Webhooks     *WebhookHandler
	Marketing    *MarketingHandler
}

// RouteMiddleware are the per-group middlewares main wires in
type RouteMiddleware struct {
	// JWT authenticates the private group
	JWT echo.MiddlewareFunc
	// Auth throttles login and registration
	Auth echo.MiddlewareFunc
	// Webhook throttles public webhooks
	Webhook echo.MiddlewareFunc
	// User throttles authenticated callers after JWT has identified them
	User echo.MiddlewareFunc
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// Register mounts every route under v1
func (h *Handlers) Register(v1 *echo.Group, mw RouteMiddleware) {
	// Public
	authGroup := v1.Group("/auth", chain(mw.Auth)...)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	v1.GET("/billing/plans", h.Billing.Plans)

	hooks := v1.Group("/webhooks", chain(mw.Webhook)...)
	hooks.POST("/stripe", h.Billing.Webhook)
	hooks.GET("/lead-inbound/:userId", h.Webhooks.Handshake)
	hooks.POST("/lead-inbound/:userId", h.Webhooks.Receive)

	// Private
	private := v1.Group("", chain(mw.JWT, mw.User)...)

	private.POST("/auth/logout", h.Auth.Logout)
	private.GET("/webhooks/info", h.Webhooks.Info)

	private.GET("/profile", h.Profile.Get)
	private.PATCH("/profile", h.Profile.Update)

	private.GET("/leads", h.Leads.List)
	private.POST("/leads", h.Leads.Create)
	private.GET("/leads/duplicates", h.Leads.Duplicates)
	private.POST("/leads/standardize", h.Leads.Standardize)
	private.GET("/leads/export", h.Leads.Export)
	private.GET("/leads/:id", h.Leads.Get)
	private.PATCH("/leads/:id", h.Leads.Update)
	private.POST("/leads/:id/status", h.Leads.UpdateStatus)
	private.POST("/leads/:id/advance", h.Leads.Advance)
	private.POST("/leads/:id/task", h.Leads.ScheduleTask)
	private.POST("/leads/:id/task/complete", h.Leads.CompleteTask)
	private.POST("/leads/:id/ai/score", h.AI.Score)
	private.POST("/leads/:id/ai/next-step", h.AI.NextStep)
	private.POST("/leads/:id/ai/voice", h.AI.Voice)

	private.POST("/outreach/send", h.Outreach.Send)
	private.POST("/outreach/compose", h.AI.Compose)
	private.GET("/outreach/history", h.Outreach.History)

	private.GET("/analytics/dashboard", h.Analytics.Dashboard)
	private.GET("/analytics/report", h.Analytics.Report)
	private.POST("/analytics/insights", h.AI.Insights)
	private.GET("/calendar", h.Analytics.Calendar)

	private.GET("/integrations", h.Integrations.Get)
	private.PUT("/integrations", h.Integrations.Save)
	private.POST("/integrations/:service/test", h.Integrations.Test)
	private.POST("/integrations/:service/sync", h.Integrations.Sync)

	private.GET("/team", h.Team.List)
	private.POST("/team", h.Team.Invite)
	private.DELETE("/team/:id", h.Team.Remove)

	private.POST("/billing/checkout", h.Billing.Checkout)

	private.POST("/marketing/generate", h.Marketing.Generate)
}
