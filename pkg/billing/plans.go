package billing

import (
	_ "embed"
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/levrixhq/levrix/pkg/models"
)

// Plan names
const (
	PlanStarter    = "Starter"
	PlanGrowth     = "Growth"
	PlanEnterprise = "Enterprise"
)

//go:embed plans.yaml
var plansYAML []byte

// Plan is one subscription tier
type Plan struct {
	Name      string   `yaml:"name"`
	Price     int      `yaml:"price"`
	LeadLimit int      `yaml:"lead_limit"`
	TeamLimit int      `yaml:"team_limit"`
	Popular   bool     `yaml:"popular"`
	Features  []string `yaml:"features"`
}

// Free reports whether the plan can be applied without checkout
func (p Plan) Free() bool {
	return p.Price == 0
}

// PriceLabel renders the monthly price, e.g. "$49/mo"
func (p Plan) PriceLabel() string {
	return FormatPrice(p.Price)
}

// Catalog is the ordered list of plans
type Catalog struct {
	Plans []Plan `yaml:"plans"`
}

// ParseCatalog reads a catalog from YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(c.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}
	return &c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(plansYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Find looks a plan up by name
func (c *Catalog) Find(name string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// Resolve returns the named plan, or the first (free) plan for unknown names
func (c *Catalog) Resolve(name string) Plan {
	if p, ok := c.Find(name); ok {
		return p
	}
	return c.Plans[0]
}

// Pricing renders the catalog for the API
func (c *Catalog) Pricing() *models.PricingResponse {
	out := &models.PricingResponse{}
	for _, p := range c.Plans {
		out.Tiers = append(out.Tiers, models.PricingTier{
			Name:       p.Name,
			Price:      p.Price,
			PriceLabel: p.PriceLabel(),
			LeadsLimit: p.LeadLimit,
			TeamLimit:  p.TeamLimit,
			Popular:    p.Popular,
			Features:   p.Features,
		})
	}
	return out
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders whole US dollars per month with digit grouping
func FormatPrice(dollars int) string {
	if dollars == 0 {
		return "Free"
	}
	return pricePrinter.Sprintf("$%d/mo", dollars)
}
