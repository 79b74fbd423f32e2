// Package outreach sends and schedules messages to leads and keeps the
// message log.
package outreach

import (
	"errors"
	"strings"
	"time"
)

// Channel is a delivery medium
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether c is a known channel
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

// Status is the delivery state of a logged message
type Status string

const (
	StatusQueued    Status = "Queued"
	StatusSent      Status = "Sent"
	StatusDelivered Status = "Delivered"
	StatusFailed    Status = "Failed"

	// StatusDispatching marks a queued message claimed by a scheduler pass
	StatusDispatching Status = "Dispatching"
)

// NamePlaceholder is substituted with the lead's name
const NamePlaceholder = "{{name}}"

var (
	ErrChannelNotConnected = errors.New("channel integration is not connected")
	ErrUnknownChannel      = errors.New("unknown channel")
	ErrNoDestination       = errors.New("lead has no address for this channel")
)

// MessageLog is one outbound message. Content is stored after substitution.
type MessageLog struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	LeadID      string     `json:"leadId"`
	LeadName    string     `json:"leadName"`
	Channel     Channel    `json:"channel"`
	Status      Status     `json:"status"`
	Content     string     `json:"content"`
	Error       string     `json:"error,omitempty"`
	ProviderID  string     `json:"providerId,omitempty"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// SendRequest is a bulk send or schedule
type SendRequest struct {
	LeadIDs     []string   `json:"leadIds" validate:"required,min=1,max=500,dive,required"`
	Content     string     `json:"content" validate:"required,max=5000"`
	Channel     Channel    `json:"channel" validate:"required,oneof=email sms whatsapp"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// SendResult is the outcome for one lead of a bulk send
type SendResult struct {
	LeadID string `json:"leadId"`
	LogID  string `json:"logId,omitempty"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Recipient is where a message goes
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Personalize replaces every name placeholder in template
func Personalize(template, name string) string {
	return strings.ReplaceAll(template, NamePlaceholder, name)
}

// splitSubject takes a leading "Subject: ..." line off an email body
func splitSubject(content, fallback string) (string, string) {
	first, rest, found := strings.Cut(content, "\n")
	if !strings.HasPrefix(strings.ToLower(first), "subject:") {
		return fallback, content
	}
	subject := strings.TrimSpace(first[len("subject:"):])
	if subject == "" {
		subject = fallback
	}
	if !found {
		return subject, ""
	}
	return subject, strings.TrimLeft(rest, "\r\n")
}
