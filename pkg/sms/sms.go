// Package sms sends text messages through Twilio's REST API.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is Twilio's public API host
const DefaultBaseURL = "https://api.twilio.com"

var (
	// ErrMissingCredentials is returned when the account SID or token is blank
	ErrMissingCredentials = errors.New("twilio credentials are missing")
	// ErrInvalidPhoneNumber is returned for an empty destination
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
)

// SMSProvider defines the interface for SMS delivery providers
type SMSProvider interface {
	SendSMS(ctx context.Context, to, from, body string) (*SMSResult, error)
}

// SMSResult holds the result of sending an SMS
type SMSResult struct {
	SID         string
	Status      string
	DateCreated time.Time
}

// ProviderError is a non-2xx answer from Twilio
type ProviderError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("twilio returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("twilio returned HTTP %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// TwilioProvider posts to /2010-04-01/Accounts/{sid}/Messages.json with basic auth
type TwilioProvider struct {
	baseURL    string
	accountSID string
	authToken  string
	client     *http.Client
}

// NewTwilioProvider creates a provider for one Twilio account.
// An empty baseURL uses DefaultBaseURL; a nil client uses http.DefaultClient.
func NewTwilioProvider(baseURL, accountSID, authToken string, client *http.Client) *TwilioProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TwilioProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		client:     client,
	}
}

type twilioMessage struct {
	SID         string `json:"sid"`
	Status      string `json:"status"`
	DateCreated string `json:"date_created"`
}

// SendSMS sends body to the E.164 number to
func (p *TwilioProvider) SendSMS(ctx context.Context, to, from, body string) (*SMSResult, error) {
	if p.accountSID == "" || p.authToken == "" {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(to) == "" {
		return nil, ErrInvalidPhoneNumber
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call twilio: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, perr)
		return nil, perr
	}

	var msg twilioMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode twilio response: %w", err)
	}

	result := &SMSResult{SID: msg.SID, Status: msg.Status}
	if t, err := time.Parse(time.RFC1123Z, msg.DateCreated); err == nil {
		result.DateCreated = t
	}
	return result, nil
}
