package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no text model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI client. baseURL overrides the API
// host and is empty in production.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	log.Printf("✅ OpenAI client initialized (model: %s)", model)
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// Generate runs a chat completion. Audio is transcribed with Whisper first
// and handed to the model as text.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	system := req.System
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema: %w", err)
		}
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object matching this JSON schema: " + string(schema))
	}

	prompt := req.Prompt
	if req.Audio != nil && len(req.Audio.Data) > 0 {
		transcript, err := c.transcribe(ctx, req.Audio)
		if err != nil {
			return nil, err
		}
		prompt = "Transcript of a voice note:\n" + transcript + "\n\n" + prompt
	}

	messages := []openai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if req.Schema != nil || req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		log.Printf("❌ OpenAI chat failed: %v (duration: %v)", err, time.Since(start))
		return nil, fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return &Response{Text: text}, nil
}

func (c *OpenAIClient) transcribe(ctx context.Context, audio *Audio) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "voice-note" + audioExt(audio.MIMEType),
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}
	return resp.Text, nil
}

func audioExt(mime string) string {
	switch {
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"):
		return ".mp3"
	case strings.Contains(mime, "wav"):
		return ".wav"
	case strings.Contains(mime, "ogg"):
		return ".ogg"
	case strings.Contains(mime, "mp4"), strings.Contains(mime, "m4a"):
		return ".m4a"
	default:
		return ".webm"
	}
}

// GenerateImage renders a wide DALL·E 3 image
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{Data: data, MIMEType: "image/png"}, nil
}
