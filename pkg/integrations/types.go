// Package integrations holds the per-workspace channel settings and the
// credential check and platform sync built on them.
package integrations

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Service names
const (
	Email    = "email"
	SMS      = "sms"
	WhatsApp = "whatsapp"
	Google   = "google"
	Facebook = "facebook"
)

// Status is shared by every section
type Status struct {
	Enabled       bool   `json:"enabled"`
	Connected     bool   `json:"connected"`
	StatusMessage string `json:"statusMessage,omitempty"`
	LastTested    string `json:"lastTested,omitempty"`
}

// EmailSettings configures outbound email
type EmailSettings struct {
	Status
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	FromEmail string `json:"fromEmail"`
}

// SMSSettings configures Twilio
type SMSSettings struct {
	Status
	Provider              string `json:"provider"`
	AccountSID            string `json:"accountSid"`
	AuthToken             string `json:"authToken"`
	SenderID              string `json:"senderId"`
	AdminPhone            string `json:"adminPhone"`
	CriticalAlertsEnabled bool   `json:"criticalAlertsEnabled"`
	TaskRemindersEnabled  bool   `json:"taskRemindersEnabled"`
}

// WhatsAppSettings configures the Cloud API
type WhatsAppSettings struct {
	Status
	BusinessID    string `json:"businessId"`
	AccessToken   string `json:"accessToken"`
	PhoneNumberID string `json:"phoneNumberId"`
}

// GoogleSettings configures Google Ads lead sync
type GoogleSettings struct {
	Status
	CustomerID     string `json:"customerId"`
	DeveloperToken string `json:"developerToken"`
	LastSync       string `json:"lastSync,omitempty"`
}

// FacebookSettings configures Facebook lead sync
type FacebookSettings struct {
	Status
	PageID      string `json:"pageId"`
	PageName    string `json:"pageName,omitempty"`
	AccessToken string `json:"accessToken"`
}

// Integrations is the JSON document stored on the profile row
type Integrations struct {
	Email    EmailSettings    `json:"email"`
	SMS      SMSSettings      `json:"sms"`
	WhatsApp WhatsAppSettings `json:"whatsapp"`
	Google   GoogleSettings   `json:"google"`
	Facebook FacebookSettings `json:"facebook"`
}

// Defaults returns the settings of a new workspace: everything off
func Defaults() Integrations {
	return Integrations{
		Email: EmailSettings{Provider: "sendgrid"},
		SMS:   SMSSettings{Provider: "twilio"},
	}
}

// Parse decodes stored settings. Empty or broken documents yield Defaults.
func Parse(raw string) Integrations {
	out := Defaults()
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "null" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Defaults()
	}
	return out
}

// Encode serializes settings for storage
func (i Integrations) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("failed to encode integrations: %w", err)
	}
	return string(b), nil
}

// StatusOf returns the shared status block of a service
func (i *Integrations) StatusOf(service string) (*Status, bool) {
	switch service {
	case Email:
		return &i.Email.Status, true
	case SMS:
		return &i.SMS.Status, true
	case WhatsApp:
		return &i.WhatsApp.Status, true
	case Google:
		return &i.Google.Status, true
	case Facebook:
		return &i.Facebook.Status, true
	}
	return nil, false
}

// Section returns the full settings block of a service, for validation prompts
func (i *Integrations) Section(service string) (any, bool) {
	switch service {
	case Email:
		return i.Email, true
	case SMS:
		return i.SMS, true
	case WhatsApp:
		return i.WhatsApp, true
	case Google:
		return i.Google, true
	case Facebook:
		return i.Facebook, true
	}
	return nil, false
}

// Connected reports whether service has passed its credential check
func (i *Integrations) Connected(service string) bool {
	st, ok := i.StatusOf(service)
	return ok && st.Connected
}

// IsMockData reports whether credentials look like test or demo values.
// Only credential values are inspected; status fields such as lastTested
// would otherwise match on their key names.
func IsMockData(section any) bool {
	b, err := json.Marshal(section)
	if err != nil {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return false
	}
	for key, v := range fields {
		if statusKeys[key] {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(s)
		for _, marker := range mockMarkers {
			if strings.Contains(s, marker) {
				return true
			}
		}
	}
	return false
}

var mockMarkers = []string{"test", "demo", "12345", "placeholder"}

var statusKeys = map[string]bool{
	"enabled":       true,
	"connected":     true,
	"statusMessage": true,
	"lastTested":    true,
	"lastSync":      true,
	"provider":      true,
}

// Simulated reports whether sends on service should succeed without a network
// call: the channel is connected but its credentials are placeholders, or the
// Twilio account SID is too short to be real.
func (i *Integrations) Simulated(service string) bool {
	if !i.Connected(service) {
		return false
	}
	switch service {
	case SMS:
		return len(i.SMS.AccountSID) <= 5 || IsMockData(i.SMS)
	case WhatsApp:
		return i.WhatsApp.AccessToken == "" || i.WhatsApp.PhoneNumberID == "" || IsMockData(i.WhatsApp)
	case Email:
		return IsMockData(i.Email)
	}
	return true
}
