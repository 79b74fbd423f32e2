// Package secrets resolves credentials from the environment or from a JSON
// bundle stored in AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

const (
	BackendEnv = "env"
	BackendAWS = "aws"
)

var ErrNotFound = errors.New("secret not found")

// Source looks up one secret by key
type Source interface {
	Secret(ctx context.Context, key string) (string, error)
}

// Config selects the backend
type Config struct {
	Backend   string
	AWSRegion string
	// SecretID names the Secrets Manager entry holding a JSON object of keys
	SecretID string
	CacheTTL time.Duration
}

// New returns the Source for cfg.Backend
func New(cfg Config) (Source, error) {
	switch cfg.Backend {
	case "", BackendEnv:
		return EnvSource{}, nil
	case BackendAWS, "aws-secrets-manager":
		if cfg.SecretID == "" {
			return nil, fmt.Errorf("a secret id is required for the %s backend", BackendAWS)
		}
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		log.Printf("🔐 Using AWS Secrets Manager (region: %s, secret: %s)", cfg.AWSRegion, cfg.SecretID)
		return NewAWSSource(secretsmanager.New(sess), cfg.SecretID, cfg.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvSource reads secrets from environment variables
type EnvSource struct{}

func (EnvSource) Secret(_ context.Context, key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// AWSSource reads keys from one JSON secret and caches the bundle for ttl
type AWSSource struct {
	client   secretsmanageriface.SecretsManagerAPI
	secretID string
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	bundle    map[string]string
	expiresAt time.Time
}

// NewAWSSource wraps a Secrets Manager client. A zero ttl means five minutes.
func NewAWSSource(client secretsmanageriface.SecretsManagerAPI, secretID string, ttl time.Duration) *AWSSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSource{client: client, secretID: secretID, ttl: ttl, now: time.Now}
}

func (s *AWSSource) Secret(ctx context.Context, key string) (string, error) {
	bundle, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	v, ok := bundle[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Refresh drops the cached bundle
func (s *AWSSource) Refresh() {
	s.mu.Lock()
	s.bundle = nil
	s.mu.Unlock()
}

func (s *AWSSource) load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bundle != nil && s.now().Before(s.expiresAt) {
		return s.bundle, nil
	}

	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", s.secretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", s.secretID)
	}

	var bundle map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &bundle); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object of strings: %w", s.secretID, err)
	}

	s.bundle = bundle
	s.expiresAt = s.now().Add(s.ttl)
	return bundle, nil
}
