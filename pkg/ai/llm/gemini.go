package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultGeminiTextModel  = "gemini-3-flash-preview"
	DefaultGeminiImageModel = "gemini-2.5-flash-image"
)

// GeminiClient calls the Gemini API through google.golang.org/genai
type GeminiClient struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if textModel == "" {
		textModel = DefaultGeminiTextModel
	}
	if imageModel == "" {
		imageModel = DefaultGeminiImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	log.Printf("✅ Gemini client initialized (model: %s)", textModel)
	return &GeminiClient{client: client, textModel: textModel, imageModel: imageModel}, nil
}

// Generate sends a text (and optional audio) prompt
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	parts := []*genai.Part{}
	if req.Audio != nil && len(req.Audio.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Audio.Data, req.Audio.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil || req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if req.Schema != nil {
		config.ResponseSchema = toGenaiSchema(req.Schema)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		log.Printf("❌ Gemini generate failed: %v (duration: %v)", err, time.Since(start))
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return &Response{Text: text}, nil
}

// GenerateImage renders prompt with the image model and returns the first inline image
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini image generation failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &Image{Data: part.InlineData.Data, MIMEType: mime}, nil
			}
		}
	}
	return nil, ErrEmptyResponse
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
