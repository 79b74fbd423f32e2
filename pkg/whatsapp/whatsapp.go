// Package whatsapp sends text messages through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the Graph API root the Cloud API lives under
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// ErrMissingCredentials is returned when the phone number id or token is blank
var ErrMissingCredentials = errors.New("whatsapp credentials are missing")

// Client calls the Cloud API for one business phone number
type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

// NewClient creates a Cloud API client
func NewClient(baseURL, phoneNumberID, accessToken string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		http:          httpClient,
	}
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error"`
}

// APIError is the error object the Graph API returns
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp returned HTTP %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// SendText sends body to the recipient's WhatsApp id (digits, no plus) and returns the message id
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	if c.phoneNumberID == "" || c.accessToken == "" {
		return "", ErrMissingCredentials
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode whatsapp message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call whatsapp: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read whatsapp response: %w", err)
	}

	var out sendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := out.Error
		if apiErr == nil {
			apiErr = &APIError{Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.StatusCode = resp.StatusCode
		return "", apiErr
	}

	if len(out.Messages) == 0 {
		return "", errors.New("whatsapp response carried no message id")
	}
	return out.Messages[0].ID, nil
}
