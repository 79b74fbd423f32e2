package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/email"
	"github.com/levrixhq/levrix/pkg/metrics"
	"github.com/levrixhq/levrix/pkg/models"
)

// ErrNotConfigured is returned for paid checkouts when Stripe has no key
var ErrNotConfigured = errors.New("billing is not configured")

// PlanStore reads and writes a user's subscription plan
type PlanStore interface {
	Plan(ctx context.Context, userID string) (string, error)
	SetPlan(ctx context.Context, userID, plan, stripeCustomerID string) error
}

// EmailSender delivers billing notifications
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

// SessionCreator opens a Stripe Checkout session
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	BaseURL       string
}

// Service handles plan changes and Stripe billing
type Service struct {
	plans         PlanStore
	catalog       *Catalog
	config        *StripeConfig
	email         EmailSender
	createSession SessionCreator
}

// NewService creates a new billing service
func NewService(plans PlanStore, catalog *Catalog, config *StripeConfig) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if config == nil {
		config = &StripeConfig{}
	}
	if config.SecretKey != "" {
		stripe.Key = config.SecretKey
	}

	return &Service{
		plans:         plans,
		catalog:       catalog,
		config:        config,
		createSession: checkoutsession.New,
	}
}

// SetEmailSender sets the email sender for billing notifications.
func (s *Service) SetEmailSender(e EmailSender) {
	s.email = e
}

// SetSessionCreator replaces the Stripe Checkout call
func (s *Service) SetSessionCreator(fn SessionCreator) {
	s.createSession = fn
}

// Catalog returns the plan catalog
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Checkout switches a user to plan. Free plans are applied immediately.
// Paid plans open a Stripe Checkout session and are applied by the webhook.
func (s *Service) Checkout(ctx context.Context, userID, userEmail, planName string) (*models.CheckoutResponse, error) {
	plan, ok := s.catalog.Find(planName)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown plan %q", planName))
	}

	if plan.Free() {
		if err := s.plans.SetPlan(ctx, userID, plan.Name, ""); err != nil {
			return nil, fmt.Errorf("failed to apply plan: %w", err)
		}
		log.Printf("✅ Plan applied without checkout: user_id=%s, plan=%s", userID, plan.Name)
		return &models.CheckoutResponse{Plan: plan.Name, Applied: true}, nil
	}

	if s.config.SecretKey == "" {
		return nil, domain.NewBadRequestError(ErrNotConfigured.Error())
	}

	metadata := map[string]string{
		"user_id": userID,
		"plan":    plan.Name,
		"email":   userEmail,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(plan.Price) * 100),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Levrix " + plan.Name),
					},
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		SuccessURL: stripe.String(s.config.SuccessURL),
		CancelURL:  stripe.String(s.config.CancelURL),
		Metadata:   metadata,
	}
	if userEmail != "" {
		params.CustomerEmail = stripe.String(userEmail)
	}

	sess, err := s.createSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	metrics.RecordCheckout(plan.Name)

	return &models.CheckoutResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
		ExpiresAt: sess.ExpiresAt,
		Plan:      plan.Name,
	}, nil
}

// HandleWebhook processes Stripe webhook events
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return domain.NewBadRequestError(fmt.Sprintf("webhook signature verification failed: %v", err))
	}

	log.Printf("📨 Stripe webhook received: %s", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		log.Printf("⚠️  Unhandled webhook event type: %s", event.Type)
	}

	return nil
}

// handleCheckoutCompleted handles checkout.session.completed event
func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	userID := sess.Metadata["user_id"]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	if userID == "" {
		return domain.NewBadRequestError("user_id not found in metadata")
	}
	plan, ok := s.catalog.Find(sess.Metadata["plan"])
	if !ok {
		return domain.NewBadRequestError(fmt.Sprintf("unknown plan %q in metadata", sess.Metadata["plan"]))
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if err := s.plans.SetPlan(ctx, userID, plan.Name, customerID); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	log.Printf("✅ Checkout completed: user_id=%s, plan=%s", userID, plan.Name)

	s.notify(ctx, sess.Metadata["email"], func() (string, string, string) {
		return buildPlanActivatedEmail(plan, s.config.BaseURL)
	})
	return nil
}

// handleSubscriptionDeleted moves the user back to the free plan
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := sub.Metadata["user_id"]
	if userID == "" {
		log.Printf("⚠️  Subscription %s has no user_id metadata", sub.ID)
		return nil
	}

	free := s.catalog.Plans[0]
	if err := s.plans.SetPlan(ctx, userID, free.Name, ""); err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}
	log.Printf("❌ Subscription deleted: %s, user_id=%s moved to %s", sub.ID, userID, free.Name)

	s.notify(ctx, sub.Metadata["email"], func() (string, string, string) {
		return buildPlanCancelledEmail(free, s.config.BaseURL)
	})
	return nil
}

func (s *Service) notify(ctx context.Context, to string, build func() (subject, html, text string)) {
	if s.email == nil || to == "" {
		return
	}
	subject, html, text := build()
	if _, err := s.email.Send(ctx, email.Message{To: to, Subject: subject, HTML: html, Text: text}); err != nil {
		log.Printf("⚠️  Failed to send billing email to %s: %v", to, err)
	}
}
