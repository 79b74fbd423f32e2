// Package profile stores workspace settings: branding, plan and integrations.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/levrixhq/levrix/pkg/database"
	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/integrations"
)

// DefaultPlan is assigned at registration
const DefaultPlan = "Starter"

// Profile is the settings row of an account
type Profile struct {
	UserID           string                    `json:"userId"`
	FullName         string                    `json:"fullName"`
	CompanyName      string                    `json:"companyName"`
	LogoURL          string                    `json:"logoUrl"`
	SubscriptionPlan string                    `json:"subscriptionPlan"`
	StripeCustomerID string                    `json:"-"`
	Integrations     integrations.Integrations `json:"integrations"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

// UpdateInput patches a profile. Nil fields are left alone.
type UpdateInput struct {
	FullName         *string                    `json:"fullName" validate:"omitempty,max=120"`
	CompanyName      *string                    `json:"companyName" validate:"omitempty,max=120"`
	LogoURL          *string                    `json:"logoUrl" validate:"omitempty,max=2048"`
	SubscriptionPlan *string                    `json:"subscriptionPlan" validate:"omitempty,oneof=Starter Growth Enterprise"`
	Integrations     *integrations.Integrations `json:"integrations"`
}

// Store reads and writes profile rows
type Store struct {
	db  *database.Client
	now func() time.Time
}

// NewStore creates a profile store
func NewStore(db *database.Client) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the profile of a user
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p        Profile
		settings string
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT user_id, full_name, company_name, logo_url, subscription_plan, stripe_customer_id, integrations, updated_at
		 FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FullName, &p.CompanyName, &p.LogoURL, &p.SubscriptionPlan, &p.StripeCustomerID, &settings, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("profile")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p.SubscriptionPlan == "" {
		p.SubscriptionPlan = DefaultPlan
	}
	p.Integrations = integrations.Parse(settings)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Update applies a patch and returns the stored profile
func (s *Store) Update(ctx context.Context, userID string, in UpdateInput) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		p.FullName = *in.FullName
	}
	if in.CompanyName != nil {
		p.CompanyName = *in.CompanyName
	}
	if in.LogoURL != nil {
		p.LogoURL = *in.LogoURL
	}
	if in.SubscriptionPlan != nil {
		p.SubscriptionPlan = *in.SubscriptionPlan
	}
	if in.Integrations != nil {
		p.Integrations = *in.Integrations
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) save(ctx context.Context, p *Profile) error {
	settings, err := p.Integrations.Encode()
	if err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE profiles SET full_name = $1, company_name = $2, logo_url = $3, subscription_plan = $4,
		 stripe_customer_id = $5, integrations = $6, updated_at = $7 WHERE user_id = $8`,
		p.FullName, p.CompanyName, p.LogoURL, p.SubscriptionPlan, p.StripeCustomerID, settings, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("profile")
	}
	return nil
}

// Integrations returns a user's channel settings
func (s *Store) Integrations(ctx context.Context, userID string) (*integrations.Integrations, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &p.Integrations, nil
}

// SaveIntegrations replaces a user's channel settings
func (s *Store) SaveIntegrations(ctx context.Context, userID string, in *integrations.Integrations) error {
	_, err := s.Update(ctx, userID, UpdateInput{Integrations: in})
	return err
}

// Plan returns the subscription plan name of a user
func (s *Store) Plan(ctx context.Context, userID string) (string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.SubscriptionPlan, nil
}

// SetPlan records a subscription change
func (s *Store) SetPlan(ctx context.Context, userID, plan, stripeCustomerID string) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	p.SubscriptionPlan = plan
	if stripeCustomerID != "" {
		p.StripeCustomerID = stripeCustomerID
	}
	return s.save(ctx, p)
}

// Names returns the display name and company of a workspace owner
func (s *Store) Names(ctx context.Context, userID string) (string, string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return p.FullName, p.CompanyName, nil
}
