// Package llm wraps the generative model providers behind one small interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrEmptyResponse is returned when a model answers with nothing usable
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client generates text and images
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// Schema types
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Schema describes the JSON shape a structured response must follow
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Audio is an inline recording sent alongside the prompt
type Audio struct {
	Data     []byte
	MIMEType string
}

// Request is one generation call. A non-nil Schema asks for JSON output.
type Request struct {
	System string
	Prompt string
	Audio  *Audio
	Schema *Schema
	JSON   bool
}

// Response carries the generated text
type Response struct {
	Text string
}

// Image is a generated picture
type Image struct {
	Data     []byte
	MIMEType string
}

// Config selects and tunes a provider
type Config struct {
	Provider     string
	GeminiAPIKey string
	OpenAIAPIKey string
	TextModel    string
	ImageModel   string
}

var newGeminiClient = NewGeminiClient

// New returns the configured client, or nil when the selected provider has
// no API key. Callers treat a nil client as "use the local fallback".
func New(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		c, err := newGeminiClient(ctx, cfg.GeminiAPIKey, cfg.TextModel, cfg.ImageModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.TextModel, ""), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// ExtractJSON trims any prose around the outermost JSON object in text
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}
