package billing

import (
	"context"
	"fmt"
)

// Limits resolves a user's plan limits from the catalog. It satisfies the
// lead service's plan limiter and the team service's member limiter.
type Limits struct {
	plans   PlanStore
	catalog *Catalog
}

// NewLimits creates a limits adapter
func NewLimits(plans PlanStore, catalog *Catalog) *Limits {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Limits{plans: plans, catalog: catalog}
}

func (l *Limits) plan(ctx context.Context, userID string) (Plan, error) {
	name, err := l.plans.Plan(ctx, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to get plan: %w", err)
	}
	return l.catalog.Resolve(name), nil
}

// LeadLimit returns the plan name and lead cap. Zero is unlimited.
func (l *Limits) LeadLimit(ctx context.Context, userID string) (string, int, error) {
	p, err := l.plan(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	return p.Name, p.LeadLimit, nil
}

// TeamLimit returns the plan name and team size cap, owner included. Zero is unlimited.
func (l *Limits) TeamLimit(ctx context.Context, userID string) (string, int, error) {
	p, err := l.plan(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	return p.Name, p.TeamLimit, nil
}
