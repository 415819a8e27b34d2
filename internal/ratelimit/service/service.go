package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bloodlink/internal/ratelimit/metrics"
	"bloodlink/internal/ratelimit/models"
)

// BucketStore is a sliding window counter keyed by string.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// Config is the per-class allowance. Users and anonymous IPs share it.
type Config struct {
	Read  models.Limit
	Write models.Limit
}

func DefaultConfig() Config {
	return Config{
		Read:  models.Limit{Requests: 120, Window: time.Minute},
		Write: models.Limit{Requests: 30, Window: time.Minute},
	}
}

// Service checks callers against their class allowance.
type Service struct {
	buckets BucketStore
	config  Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(buckets BucketStore, opts ...Option) *Service {
	s := &Service{
		buckets: buckets,
		config:  DefaultConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckUserRateLimit checks an authenticated user.
func (s *Service) CheckUserRateLimit(ctx context.Context, userID string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, models.Key("user", class, userID), class)
}

// CheckIPRateLimit checks a caller without an identity.
func (s *Service) CheckIPRateLimit(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	return s.check(ctx, models.Key("ip", class, ip), class)
}

// ResetUser clears both class buckets for a user.
func (s *Service) ResetUser(ctx context.Context, userID string) error {
	for _, class := range []models.EndpointClass{models.ClassRead, models.ClassWrite} {
		if err := s.buckets.Reset(ctx, models.Key("user", class, userID)); err != nil {
			return fmt.Errorf("reset %s bucket: %w", class, err)
		}
	}
	return nil
}

func (s *Service) check(ctx context.Context, key string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, err := s.limitFor(class)
	if err != nil {
		return nil, err
	}
	result, err := s.buckets.Allow(ctx, key, limit.Requests, limit.Window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return nil, fmt.Errorf("check rate limit: %w", err)
	}
	s.metrics.ObserveDecision(string(class), result.Allowed)
	if !result.Allowed {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"event", "rate_limit_exceeded",
			"class", class,
			"limit", limit.Requests,
		)
	}
	return result, nil
}

func (s *Service) limitFor(class models.EndpointClass) (models.Limit, error) {
	switch class {
	case models.ClassRead:
		return s.config.Read, nil
	case models.ClassWrite:
		return s.config.Write, nil
	default:
		return models.Limit{}, fmt.Errorf("unknown endpoint class %q", class)
	}
}
