// Package testdata generates realistic sample leads for seeding and demos.
package testdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/levrixhq/levrix/pkg/leads"
)

// LeadGeneratorConfig configures lead generation parameters
type LeadGeneratorConfig struct {
	Count int
	// Seed makes a run reproducible. Zero picks a random seed.
	Seed int64
	Now  time.Time

	EmailChance float64 // 0.0-1.0 (probability of having email)
	PhoneChance float64
	TaskChance  float64
	// DirtyChance is the probability of a lead carrying a data-quality problem
	DirtyChance float64
}

// DefaultConfig returns a mix resembling a real inbox
func DefaultConfig(count int) LeadGeneratorConfig {
	return LeadGeneratorConfig{
		Count:       count,
		Now:         time.Now().UTC(),
		EmailChance: 0.9,
		PhoneChance: 0.8,
		TaskChance:  0.4,
		DirtyChance: 0.1,
	}
}

var campaigns = map[leads.Source][]string{
	leads.SourceFacebook: {"Spring Open House", "First-Time Buyers", "Luxury Condos Retargeting"},
	leads.SourceGoogle:   {"Search - Homes For Sale", "Search - Sell My House", "Performance Max Listings"},
	leads.SourceReferral: {"Past Client Referral", "Agent Network"},
	leads.SourceManual:   {""},
}

var followUpTasks = []string{
	"Call back", "Send listings", "Schedule viewing", "Send comparables", "Confirm mortgage pre-approval",
}

var inquiries = []string{
	"Is this property still available?",
	"Can we book a viewing this weekend?",
	"What are the HOA fees?",
	"Looking for 3 bedrooms near good schools.",
	"Not interested anymore, thanks.",
}

var sources = []leads.Source{leads.SourceFacebook, leads.SourceGoogle, leads.SourceReferral, leads.SourceManual}

var stageByStatus = map[leads.Status]leads.Stage{
	leads.StatusNew:       leads.StageInquiry,
	leads.StatusContacted: leads.StageFirstContact,
	leads.StatusQualified: leads.StagePropertyViewing,
	leads.StatusProposal:  leads.StageOfferMade,
	leads.StatusWon:       leads.StageClosed,
	leads.StatusLost:      leads.StageInquiry,
}

var statuses = []leads.Status{
	leads.StatusNew, leads.StatusNew, leads.StatusNew, leads.StatusContacted,
	leads.StatusQualified, leads.StatusProposal, leads.StatusWon, leads.StatusLost,
}

// Generator produces leads from one faker so a seed reproduces a whole batch
type Generator struct {
	faker  *gofakeit.Faker
	config LeadGeneratorConfig
}

// NewGenerator creates a generator for config
func NewGenerator(config LeadGeneratorConfig) *Generator {
	if config.Now.IsZero() {
		config.Now = time.Now().UTC()
	}
	return &Generator{faker: gofakeit.New(config.Seed), config: config}
}

func (g *Generator) chance(p float64) bool {
	return g.faker.Float64Range(0, 1) < p
}

// PropertyAddress returns a street address in the form used for listings
func (g *Generator) PropertyAddress() string {
	return fmt.Sprintf("%d %s", g.faker.Number(1, 9999), g.faker.StreetName()+" "+g.faker.StreetSuffix())
}

// Lead creates a single lead input with realistic data
func (g *Generator) Lead() leads.CreateInput {
	f := g.faker
	first, last := f.FirstName(), f.LastName()
	source := sources[f.Number(0, len(sources)-1)]
	status := statuses[f.Number(0, len(statuses)-1)]
	names := campaigns[source]

	in := leads.CreateInput{
		Name:           first + " " + last,
		Source:         source,
		Status:         status,
		Stage:          stageByStatus[status],
		CampaignSource: names[f.Number(0, len(names)-1)],
		Notes:          inquiries[f.Number(0, len(inquiries)-1)],
	}
	if g.chance(0.8) {
		in.PropertyAddress = g.PropertyAddress()
	}

	if g.chance(g.config.EmailChance) {
		in.Email = strings.ToLower(fmt.Sprintf("%s.%s@%s", first, last, f.DomainName()))
	}
	if g.chance(g.config.PhoneChance) {
		in.Phone = f.Phone()
	}

	if g.chance(g.config.TaskChance) {
		task := followUpTasks[f.Number(0, len(followUpTasks)-1)]
		due := g.config.Now.Add(time.Duration(f.Number(-48, 96)) * time.Hour).Truncate(time.Hour)
		in.NextFollowUpTask = task
		in.TaskDueDate = &due
	}

	if g.chance(g.config.DirtyChance) {
		g.dirty(&in)
	}
	return in
}

// dirty introduces one data-quality problem the health checks should catch
func (g *Generator) dirty(in *leads.CreateInput) {
	switch g.faker.Number(0, 2) {
	case 0:
		in.Name = strings.ToLower(in.Name) + "  "
	case 1:
		in.Email = strings.ReplaceAll(in.Email, "@", "") + "@"
	default:
		in.Phone = "555-" + in.Phone
	}
}

// Leads creates config.Count leads. Roughly one in twenty repeats an earlier
// lead's phone so duplicate detection has something to find.
func (g *Generator) Leads() []leads.CreateInput {
	out := make([]leads.CreateInput, 0, g.config.Count)
	for i := 0; i < g.config.Count; i++ {
		in := g.Lead()
		if i > 0 && g.chance(g.config.DirtyChance/2) {
			prev := out[g.faker.Number(0, i-1)]
			in.Phone = prev.Phone
			in.Email = prev.Email
		}
		out = append(out, in)
	}
	return out
}

// LeadCreator persists one lead
type LeadCreator interface {
	Create(ctx context.Context, userID string, in leads.CreateInput) (*leads.LeadView, error)
}

// BulkInsertLeads creates leads for userID one by one and stops at the first
// failure. It returns how many were stored.
func BulkInsertLeads(ctx context.Context, creator LeadCreator, userID string, inputs []leads.CreateInput) (int, error) {
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := creator.Create(ctx, userID, in); err != nil {
			return i, fmt.Errorf("failed to insert lead %d (%s): %w", i, in.Name, err)
		}
	}
	return len(inputs), nil
}
