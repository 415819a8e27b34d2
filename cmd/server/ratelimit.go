package main

import (
	"log/slog"

	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/redis"
	ratelimitmetrics "bloodlink/internal/ratelimit/metrics"
	ratelimitmw "bloodlink/internal/ratelimit/middleware"
	"bloodlink/internal/ratelimit/models"
	ratelimitservice "bloodlink/internal/ratelimit/service"
	"bloodlink/internal/ratelimit/store/bucket"
)

// newRateLimiter shares buckets through Redis when it is configured.
func newRateLimiter(cfg config.RateLimitConfig, rc *redis.Client, m *metrics.Metrics, log *slog.Logger) *ratelimitmw.Middleware {
	var store ratelimitservice.BucketStore = bucket.NewInMemoryBucketStore()
	if rc != nil {
		store = bucket.NewRedisBucketStore(rc.Client)
	}
	svc := ratelimitservice.New(store,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(ratelimitmetrics.New(m.Registry)),
		ratelimitservice.WithConfig(ratelimitservice.Config{
			Read:  models.Limit{Requests: cfg.ReadRequests, Window: cfg.Window},
			Write: models.Limit{Requests: cfg.WriteRequests, Window: cfg.Window},
		}),
	)
	return ratelimitmw.New(svc, log, ratelimitmw.WithDisabled(cfg.Disabled))
}
