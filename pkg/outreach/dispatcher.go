package outreach

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/levrixhq/levrix/pkg/email"
	"github.com/levrixhq/levrix/pkg/integrations"
	"github.com/levrixhq/levrix/pkg/phone"
	"github.com/levrixhq/levrix/pkg/sms"
	"github.com/levrixhq/levrix/pkg/whatsapp"
)

// DefaultSubject is used when an email body carries no "Subject:" line
const DefaultSubject = "Following up on your property inquiry"

// Sender delivers one message over a workspace's configured channel
type Sender interface {
	Dispatch(ctx context.Context, settings *integrations.Integrations, channel Channel, to Recipient, content string) (providerID string, err error)
}

// Dispatcher routes messages to SendGrid, Twilio or the WhatsApp Cloud API
// using the credentials stored in the workspace's integrations.
type Dispatcher struct {
	email       *email.Service
	twilioURL   string
	whatsappURL string
	http        *http.Client
	region      string
}

// NewDispatcher creates a dispatcher. Empty base URLs use the public APIs.
func NewDispatcher(emailSvc *email.Service, twilioBaseURL, whatsappBaseURL string, httpClient *http.Client) *Dispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Dispatcher{
		email:       emailSvc,
		twilioURL:   twilioBaseURL,
		whatsappURL: whatsappBaseURL,
		http:        httpClient,
		region:      phone.DefaultRegion,
	}
}

// Dispatch sends content to the recipient. Simulated connections succeed
// with a "sim-" provider id and no network call.
func (d *Dispatcher) Dispatch(ctx context.Context, settings *integrations.Integrations, channel Channel, to Recipient, content string) (string, error) {
	if !channel.Valid() {
		return "", ErrUnknownChannel
	}
	if settings == nil || !settings.Connected(string(channel)) {
		return "", ErrChannelNotConnected
	}
	if settings.Simulated(string(channel)) {
		return "sim-" + uuid.NewString(), nil
	}

	switch channel {
	case ChannelEmail:
		return d.sendEmail(ctx, settings, to, content)
	case ChannelSMS:
		return d.sendSMS(ctx, settings, to, content)
	default:
		return d.sendWhatsApp(ctx, settings, to, content)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, settings *integrations.Integrations, to Recipient, content string) (string, error) {
	if strings.TrimSpace(to.Email) == "" {
		return "", ErrNoDestination
	}
	if d.email == nil {
		return "", fmt.Errorf("email service is not configured")
	}
	subject, body := splitSubject(content, DefaultSubject)
	return d.email.Send(ctx, email.Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: subject,
		Text:    body,
		From:    settings.Email.FromEmail,
		APIKey:  settings.Email.APIKey,
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, settings *integrations.Integrations, to Recipient, content string) (string, error) {
	if strings.TrimSpace(to.Phone) == "" {
		return "", ErrNoDestination
	}
	number, err := phone.ToE164(to.Phone, d.region)
	if err != nil {
		return "", err
	}
	provider := sms.NewTwilioProvider(d.twilioURL, settings.SMS.AccountSID, settings.SMS.AuthToken, d.http)
	res, err := provider.SendSMS(ctx, number, settings.SMS.SenderID, content)
	if err != nil {
		return "", err
	}
	return res.SID, nil
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, settings *integrations.Integrations, to Recipient, content string) (string, error) {
	if strings.TrimSpace(to.Phone) == "" {
		return "", ErrNoDestination
	}
	id, err := phone.WhatsAppID(to.Phone, d.region)
	if err != nil {
		return "", err
	}
	client := whatsapp.NewClient(d.whatsappURL, settings.WhatsApp.PhoneNumberID, settings.WhatsApp.AccessToken, d.http)
	return client.SendText(ctx, id, content)
}
