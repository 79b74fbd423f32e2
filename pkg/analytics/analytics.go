// Package analytics derives dashboard and report figures from a user's leads.
package analytics

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/cache"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
)

// CacheTTL is how long computed figures are served from redis
const CacheTTL = 2 * time.Minute

// GeneralInterest labels leads without a property address
const GeneralInterest = "General Interest"

const topProperties = 5

// StageCount is one bar of the pipeline chart
type StageCount struct {
	Stage leads.Stage `json:"stage"`
	Count int         `json:"count"`
}

// Dashboard holds the headline pipeline figures
type Dashboard struct {
	TotalLeads     int          `json:"totalLeads"`
	NewToday       int          `json:"newToday"`
	Won            int          `json:"won"`
	ConversionRate int          `json:"conversionRate"`
	Critical       int          `json:"critical"`
	Stages         []StageCount `json:"stages"`
}

// PropertyCount is how many leads asked about one property
type PropertyCount struct {
	Property string `json:"property"`
	Leads    int    `json:"leads"`
}

// CampaignStats is the outcome of one campaign
type CampaignStats struct {
	Campaign   string `json:"campaign"`
	Leads      int    `json:"leads"`
	Won        int    `json:"won"`
	Conversion int    `json:"conversion"`
}

// Report holds the deeper performance figures
type Report struct {
	TotalLeads             int             `json:"totalLeads"`
	AvgFirstContactMinutes int             `json:"avgFirstContactMinutes"`
	AvgFirstContactHours   float64         `json:"avgFirstContactHours"`
	FollowUpRate           int             `json:"followUpRate"`
	LostNoResponse         int             `json:"lostNoResponse"`
	LostNoResponseRate     int             `json:"lostNoResponseRate"`
	Contacted              int             `json:"contacted"`
	ConversionRate         int             `json:"conversionRate"`
	TopProperties          []PropertyCount `json:"topProperties"`
	Campaigns              []CampaignStats `json:"campaigns"`
}

// percent rounds part/whole to a whole percentage. An empty whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// BuildDashboard computes dashboard figures at now
func BuildDashboard(all []leads.Lead, now time.Time) Dashboard {
	d := Dashboard{TotalLeads: len(all)}

	counts := make(map[leads.Stage]int)
	y, m, day := now.Date()
	for _, l := range all {
		ly, lm, ld := l.CreatedAt.In(now.Location()).Date()
		if ly == y && lm == m && ld == day {
			d.NewToday++
		}
		if l.Status == leads.StatusWon {
			d.Won++
		}
		if leads.ClassifyAging(l, now) == leads.AgingCritical {
			d.Critical++
		}
		counts[l.Stage]++
	}

	d.ConversionRate = percent(d.Won, d.TotalLeads)
	for _, st := range leads.Stages() {
		d.Stages = append(d.Stages, StageCount{Stage: st, Count: counts[st]})
	}
	return d
}

// BuildReport computes the analytics report
func BuildReport(all []leads.Lead) Report {
	r := Report{TotalLeads: len(all)}

	var (
		contactTotal time.Duration
		contactN     int
		withTasks    int
		completed    int
		won          int
	)
	properties := make(map[string]int)
	campaigns := make(map[string]*CampaignStats)

	for _, l := range all {
		if !l.CreatedAt.IsZero() && l.FirstContactedAt != nil {
			contactTotal += l.FirstContactedAt.Sub(l.CreatedAt)
			contactN++
		}
		if l.TaskDueDate != nil || l.NextFollowUpTask != "" {
			withTasks++
			if l.TaskCompleted {
				completed++
			}
		}
		if l.Status == leads.StatusLost &&
			(l.FirstContactedAt == nil || strings.Contains(strings.ToLower(l.Notes), "no response")) {
			r.LostNoResponse++
		}
		if l.LastContacted != nil {
			r.Contacted++
		}
		if l.Status == leads.StatusWon {
			won++
		}

		prop := strings.TrimSpace(l.PropertyAddress)
		if prop == "" {
			prop = GeneralInterest
		}
		properties[prop]++

		if l.CampaignSource != "" {
			c, ok := campaigns[l.CampaignSource]
			if !ok {
				c = &CampaignStats{Campaign: l.CampaignSource}
				campaigns[l.CampaignSource] = c
			}
			c.Leads++
			if l.Status == leads.StatusWon {
				c.Won++
			}
		}
	}

	if contactN > 0 {
		avg := contactTotal / time.Duration(contactN)
		r.AvgFirstContactMinutes = int(math.Round(avg.Minutes()))
		r.AvgFirstContactHours = math.Round(avg.Hours()*10) / 10
	}
	r.FollowUpRate = percent(completed, withTasks)
	r.LostNoResponseRate = percent(r.LostNoResponse, len(all))
	r.ConversionRate = percent(won, len(all))

	for name, n := range properties {
		r.TopProperties = append(r.TopProperties, PropertyCount{Property: name, Leads: n})
	}
	sort.Slice(r.TopProperties, func(i, j int) bool {
		a, b := r.TopProperties[i], r.TopProperties[j]
		if a.Leads != b.Leads {
			return a.Leads > b.Leads
		}
		return a.Property < b.Property
	})
	if len(r.TopProperties) > topProperties {
		r.TopProperties = r.TopProperties[:topProperties]
	}

	for _, c := range campaigns {
		c.Conversion = percent(c.Won, c.Leads)
		r.Campaigns = append(r.Campaigns, *c)
	}
	sort.Slice(r.Campaigns, func(i, j int) bool {
		a, b := r.Campaigns[i], r.Campaigns[j]
		if a.Conversion != b.Conversion {
			return a.Conversion > b.Conversion
		}
		return a.Campaign < b.Campaign
	})
	return r
}

// LeadSource loads a user's leads
type LeadSource interface {
	Raw(ctx context.Context, userID string) ([]leads.Lead, error)
}

// Service serves cached analytics
type Service struct {
	leads LeadSource
	cache *cache.Client
	log   logger.Logger
	now   func() time.Time
}

// NewService creates an analytics service. cacheClient may be nil.
func NewService(source LeadSource, cacheClient *cache.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		leads: source,
		cache: cacheClient,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Dashboard returns the user's dashboard figures
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var out Dashboard
	err := s.cached(ctx, "dashboard", cache.DashboardKey(userID), &out, func(all []leads.Lead) any {
		out = BuildDashboard(all, s.now())
		return out
	}, userID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Report returns the user's analytics report
func (s *Service) Report(ctx context.Context, userID string) (*Report, error) {
	var out Report
	err := s.cached(ctx, "report", cache.ReportKey(userID), &out, func(all []leads.Lead) any {
		out = BuildReport(all)
		return out
	}, userID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// cached fills dest from key or, on a miss, from build over the user's leads
func (s *Service) cached(ctx context.Context, kind, key string, dest any, build func([]leads.Lead) any, userID string) error {
	if s.cache != nil {
		err := s.cache.GetJSON(ctx, key, dest)
		if err == nil {
			metrics.RecordCacheHit(kind)
			return nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("analytics cache read failed", "key", key, "error", err)
		}
		metrics.RecordCacheMiss(kind)
	}

	all, err := s.leads.Raw(ctx, userID)
	if err != nil {
		return err
	}
	value := build(all)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, value, CacheTTL); err != nil {
			s.log.Warn("analytics cache write failed", "key", key, "error", err)
		}
	}
	return nil
}
