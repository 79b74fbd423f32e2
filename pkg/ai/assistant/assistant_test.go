package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/ai/llm"
	"github.com/levrixhq/levrix/pkg/cache"
	"github.com/levrixhq/levrix/pkg/leads"
)

func reply(text string) *llm.Fake {
	return &llm.Fake{GenerateFunc: func(llm.Request) (string, error) { return text, nil }}
}

func failing() *llm.Fake {
	return &llm.Fake{GenerateFunc: func(llm.Request) (string, error) { return "", errors.New("deadline exceeded") }}
}

func sampleLead() leads.Lead {
	return leads.Lead{
		ID: "l1", Name: "Jane Doe", Stage: leads.StagePropertyViewing, Status: leads.StatusContacted,
		PropertyAddress: "124 Park Ave", Notes: "Wants a garden",
	}
}

func TestScorePriority(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		client llm.Client
		want   int
	}{
		{"plain number", reply("87"), 87},
		{"number in prose", reply("Score: 72/100"), 72},
		{"clamped high", reply("140"), 100},
		{"unparseable", reply("high priority"), DefaultPriority},
		{"model error", failing(), DefaultPriority},
		{"no model", nil, DefaultPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.client, nil, time.Second, nil)
			assert.Equal(t, tt.want, svc.ScorePriority(ctx, sampleLead()))
		})
	}
}

func TestScorePriority_PromptCarriesLead(t *testing.T) {
	fake := reply("60")
	svc := NewService(fake, nil, time.Second, nil)
	lead := sampleLead()
	lead.Notes = leads.EncodeNotes("Wants a garden", leads.Metadata{NextFollowUpTask: "Call"})

	svc.ScorePriority(context.Background(), lead)
	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "124 Park Ave")
	assert.Contains(t, reqs[0].Prompt, "Wants a garden")
	assert.NotContains(t, reqs[0].Prompt, leads.MetadataMarker)
}

func TestSmartCompose_KeepsPlaceholder(t *testing.T) {
	ctx := context.Background()

	svc := NewService(reply("Hi {{name}}, are you free Tuesday?"), nil, time.Second, nil)
	assert.Equal(t, "Hi {{name}}, are you free Tuesday?", svc.SmartCompose(ctx, sampleLead(), "sms"))

	svc = NewService(reply("Hi Jane Doe, are you free Tuesday?"), nil, time.Second, nil)
	assert.Equal(t, "Hi {{name}}, are you free Tuesday?", svc.SmartCompose(ctx, sampleLead(), "sms"))

	svc = NewService(reply("Are you free Tuesday?"), nil, time.Second, nil)
	assert.True(t, strings.HasPrefix(svc.SmartCompose(ctx, sampleLead(), "sms"), "Hi {{name}},"))

	svc = NewService(nil, nil, time.Second, nil)
	draft := svc.SmartCompose(ctx, sampleLead(), "email")
	assert.Contains(t, draft, "{{name}}")
	assert.True(t, strings.HasPrefix(draft, "Subject:"))
}

func TestSuggestNextStep(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "Book a second viewing.", NewService(reply(" Book a second viewing. "), nil, time.Second, nil).SuggestNextStep(ctx, sampleLead()))
	assert.Equal(t, NextStepFallback, NewService(failing(), nil, time.Second, nil).SuggestNextStep(ctx, sampleLead()))
}

func TestExtractVoiceNote(t *testing.T) {
	ctx := context.Background()
	fake := reply(`{"summary":"Loved the kitchen","nextStep":"Send comps","sentiment":"Positive"}`)
	svc := NewService(fake, nil, time.Second, nil)

	note := svc.ExtractVoiceNote(ctx, []byte{0x1a, 0x45}, "")
	assert.Equal(t, VoiceNote{Summary: "Loved the kitchen", NextStep: "Send comps", Sentiment: leads.SentimentPositive}, note)

	req := fake.Requests()[0]
	require.NotNil(t, req.Audio)
	assert.Equal(t, "audio/webm", req.Audio.MIMEType)
	require.NotNil(t, req.Schema)
	assert.Equal(t, []string{"summary", "nextStep", "sentiment"}, req.Schema.Required)

	odd := NewService(reply(`{"summary":"ok","nextStep":"x","sentiment":"Ecstatic"}`), nil, time.Second, nil).ExtractVoiceNote(ctx, nil, "audio/ogg")
	assert.Equal(t, leads.SentimentNeutral, odd.Sentiment)

	fallback := NewService(reply("not json"), nil, time.Second, nil).ExtractVoiceNote(ctx, nil, "")
	assert.Equal(t, leads.SentimentNeutral, fallback.Sentiment)
	assert.NotEmpty(t, fallback.Summary)
}

func TestApplyVoiceNote(t *testing.T) {
	l := leads.Lead{Notes: "First call", TaskCompleted: true}
	ApplyVoiceNote(&l, VoiceNote{Summary: "Wants 3 beds", NextStep: "Send listings", Sentiment: leads.SentimentPositive})

	assert.Equal(t, "First call\nVoice Summary: Wants 3 beds", l.Notes)
	assert.Equal(t, "Send listings", l.NextFollowUpTask)
	assert.Equal(t, leads.SentimentPositive, l.Sentiment)
	assert.False(t, l.TaskCompleted)
}

func TestCleanInsight(t *testing.T) {
	in := "1. **Call** your #hot leads\n2) Use `_templates_`\n> Stay ~consistent~"
	assert.Equal(t, "Call your hot leads\nUse templates\n Stay consistent", CleanInsight(in))
}

func TestDashboardInsight_CachesAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rc, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rc.Close()

	ctx := context.Background()
	fake := reply("**Focus** on the three at-risk buyers today.")
	svc := NewService(fake, rc, time.Second, nil)
	stats := InsightStats{Total: 10, Won: 2, Critical: 3}

	first := svc.DashboardInsight(ctx, "u1", stats)
	assert.Equal(t, "Focus on the three at-risk buyers today.", first)
	second := svc.DashboardInsight(ctx, "u1", stats)
	assert.Equal(t, first, second)
	assert.Len(t, fake.Requests(), 1, "second call served from cache")

	ttl := mr.TTL(cache.InsightKey("u1", "10-2-3"))
	assert.Equal(t, InsightTTL, ttl)

	svc.DashboardInsight(ctx, "u1", InsightStats{Total: 11, Won: 2, Critical: 3})
	assert.Len(t, fake.Requests(), 2, "new snapshot misses the cache")
}

func TestDashboardInsight_FallbackNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rc, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rc.Close()

	svc := NewService(failing(), rc, time.Second, nil)
	assert.Equal(t, InsightFallback, svc.DashboardInsight(context.Background(), "u1", InsightStats{}))
	assert.False(t, mr.Exists(cache.InsightKey("u1", "0-0-0")))
}

func TestValidateCredentials(t *testing.T) {
	ctx := context.Background()
	v, err := NewService(reply(`{"valid":false,"error":"SID must start with AC"}`), nil, time.Second, nil).
		ValidateCredentials(ctx, "sms", map[string]string{"accountSid": "XX"})
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, "SID must start with AC", v.Error)

	_, err = NewService(nil, nil, time.Second, nil).ValidateCredentials(ctx, "sms", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFabricateLead(t *testing.T) {
	ctx := context.Background()
	got := NewService(reply(`{"name":"Omar Ali","email":"omar@mail.com","phone":"555-0100","interest":"Lakeview condo"}`), nil, time.Second, nil).
		FabricateLead(ctx, "facebook")
	assert.Equal(t, FabricatedLead{Name: "Omar Ali", Email: "omar@mail.com", Phone: "555-0100", Interest: "Lakeview condo"}, got)

	fake := NewService(nil, nil, time.Second, nil).FabricateLead(ctx, "google")
	assert.NotEmpty(t, fake.Name)
	assert.Contains(t, fake.Email, "@")
	assert.NotEmpty(t, fake.Interest)
}

func TestClassifyEmail_IsEmailVerifier(t *testing.T) {
	var _ leads.EmailVerifier = (*Service)(nil)
	ctx := context.Background()

	ok, err := NewService(reply(`{"valid":false,"reason":"disposable"}`), nil, time.Second, nil).Verify(ctx, "x@mailinator.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewService(nil, nil, time.Second, nil).Verify(ctx, "jane@realty.com")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, leads.EmailRejected(ctx, NewService(nil, nil, time.Second, nil), "jane@realty.com"), "fails open")
}

func TestMarketingCopy(t *testing.T) {
	ctx := context.Background()
	svc := NewService(reply(`{"ig":"#dreamhome","fb":"Just listed","li":"New listing","flyer":{"headline":"Twilight Villa","body":"Stunning","features":["a","b","c","d","e","f"]}}`), nil, time.Second, nil)

	out, err := svc.MarketingCopy(ctx, "villa with pool")
	require.NoError(t, err)
	assert.Equal(t, "#dreamhome", out.Instagram)
	assert.Equal(t, "Twilight Villa", out.Flyer.Headline)
	assert.Len(t, out.Flyer.Features, 5)

	_, err = NewService(failing(), nil, time.Second, nil).MarketingCopy(ctx, "villa")
	assert.Error(t, err)
}

func TestMarketingImage(t *testing.T) {
	fake := &llm.Fake{ImageFunc: func(prompt string) (*llm.Image, error) {
		assert.Contains(t, prompt, "twilight")
		return &llm.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}, nil
	}}
	img, err := NewService(fake, nil, time.Second, nil).MarketingImage(context.Background(), "villa")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = NewService(nil, nil, time.Second, nil).MarketingImage(context.Background(), "villa")
	assert.ErrorIs(t, err, ErrUnavailable)
}
