package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_Modes(t *testing.T) {
	console := NewService("noreply@levrix.io", "Levrix", "https://app.levrix.io/", "")
	assert.False(t, console.useSendGrid)
	assert.Equal(t, "https://app.levrix.io", console.frontendURL)

	live := NewService("noreply@levrix.io", "Levrix", "https://app.levrix.io", "SG.key")
	assert.True(t, live.useSendGrid)
}

func TestSend_ConsoleMode(t *testing.T) {
	svc := NewService("noreply@levrix.io", "Levrix", "https://app.levrix.io", "")

	id, err := svc.Send(context.Background(), Message{To: "jo@realty.com", Subject: "Hi", Text: "Hello Jo"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSend_RequiresRecipient(t *testing.T) {
	svc := NewService("noreply@levrix.io", "Levrix", "https://app.levrix.io", "")
	_, err := svc.Send(context.Background(), Message{Subject: "Hi"})
	assert.Error(t, err)
}

func TestTemplates_ConsoleMode(t *testing.T) {
	svc := NewService("noreply@levrix.io", "Levrix", "https://app.levrix.io", "")
	ctx := context.Background()

	assert.NoError(t, svc.SendTeamInvite(ctx, "agent@realty.com", "Dana", "Harbour Realty", "Agent"))
	assert.NoError(t, svc.SendTaskReminder(ctx, "owner@realty.com", "Jo Anne", "", time.Now()))
	assert.NoError(t, svc.SendWelcomeEmail(ctx, "owner@realty.com", ""))
}

func TestTextToHTML(t *testing.T) {
	assert.Equal(t, "<html><body><p>a &lt;b&gt;<br>c</p></body></html>", textToHTML("a <b>\nc"))
}
