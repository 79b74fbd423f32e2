package secrets

import (
	"context"
	"errors"

	"github.com/levrixhq/levrix/config"
)

// Overlay replaces credential fields of cfg with values found in src and
// returns how many were applied. Keys src does not hold keep their value.
func Overlay(ctx context.Context, src Source, cfg *config.Config) (int, error) {
	fields := map[string]*string{
		"DATABASE_URL":          &cfg.DatabaseURL,
		"REDIS_URL":             &cfg.RedisURL,
		"JWT_SECRET":            &cfg.JWTSecret,
		"STRIPE_SECRET_KEY":     &cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &cfg.StripeWebhookSecret,
		"SENDGRID_API_KEY":      &cfg.SendGridAPIKey,
		"GEMINI_API_KEY":        &cfg.GeminiAPIKey,
		"OPENAI_API_KEY":        &cfg.OpenAIAPIKey,
		"AWS_ACCESS_KEY_ID":     &cfg.AWSAccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &cfg.AWSSecretAccessKey,
		"SENTRY_DSN":            &cfg.SentryDSN,
	}

	applied := 0
	for key, field := range fields {
		v, err := src.Secret(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return applied, err
		}
		*field = v
		applied++
	}
	return applied, nil
}
