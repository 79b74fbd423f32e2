// Package marketing turns a property description into a listing image and social copy.
package marketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/levrixhq/levrix/pkg/ai/assistant"
	"github.com/levrixhq/levrix/pkg/ai/llm"
	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/storage"
)

// ErrStudioUnavailable is returned when neither the image nor the copy could be produced
var ErrStudioUnavailable = errors.New("marketing studio is unavailable, please try again")

// Generator produces the two halves of a campaign
type Generator interface {
	MarketingImage(ctx context.Context, description string) (*llm.Image, error)
	MarketingCopy(ctx context.Context, description string) (*assistant.MarketingCopy, error)
}

// Request is the studio input
type Request struct {
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

// Result is a generated campaign. Either half may be missing.
type Result struct {
	ImageURL   string                   `json:"imageUrl,omitempty"`
	Copy       *assistant.MarketingCopy `json:"copy,omitempty"`
	ImageError string                   `json:"imageError,omitempty"`
	CopyError  string                   `json:"copyError,omitempty"`
}

// Service runs the marketing studio
type Service struct {
	gen   Generator
	store storage.Uploader
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a marketing studio. A nil store inlines images as data URIs.
func NewService(gen Generator, store storage.Uploader, log logger.Logger) *Service {
	if store == nil {
		store = storage.InlineStore{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{gen: gen, store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Generate builds the image and the copy concurrently
func (s *Service) Generate(ctx context.Context, userID, description string) (*Result, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.NewValidationError("description is required")
	}

	var (
		res               Result
		imageErr, copyErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.ImageURL, imageErr = s.image(gctx, userID, description)
		return nil
	})
	g.Go(func() error {
		res.Copy, copyErr = s.gen.MarketingCopy(gctx, description)
		return nil
	})
	_ = g.Wait()

	if imageErr != nil {
		s.log.Warn("marketing image failed", "user_id", userID, "error", imageErr)
		res.ImageError = "Image generation failed."
	}
	if copyErr != nil {
		s.log.Warn("marketing copy failed", "user_id", userID, "error", copyErr)
		res.CopyError = "Copy generation failed."
	}
	if imageErr != nil && copyErr != nil {
		return nil, domain.NewBadRequestError(ErrStudioUnavailable.Error())
	}
	return &res, nil
}

func (s *Service) image(ctx context.Context, userID, description string) (string, error) {
	img, err := s.gen.MarketingImage(ctx, description)
	if err != nil {
		return "", err
	}
	if img == nil || len(img.Data) == 0 {
		return "", llm.ErrEmptyResponse
	}

	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	key := fmt.Sprintf("marketing/%s/%s-%s%s", userID, s.now().Format("20060102"), uuid.NewString(), extension(mime))

	url, err := s.store.Put(ctx, key, img.Data, mime)
	if err != nil {
		s.log.Warn("image upload failed, inlining", "user_id", userID, "error", err)
		return storage.DataURI(mime, img.Data), nil
	}
	return url, nil
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
