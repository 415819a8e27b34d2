package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"

	activity "bloodlink/internal/audit"
	dirservice "bloodlink/internal/directory/service"
	donorhandler "bloodlink/internal/donor/handler"
	donorservice "bloodlink/internal/donor/service"
	invhandler "bloodlink/internal/inventory/handler"
	invservice "bloodlink/internal/inventory/service"
	jwttoken "bloodlink/internal/jwt_token"
	"bloodlink/internal/nearby/cache"
	nearbyhandler "bloodlink/internal/nearby/handler"
	nearbymetrics "bloodlink/internal/nearby/metrics"
	nearbyservice "bloodlink/internal/nearby/service"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/redis"
	reqhandler "bloodlink/internal/request/handler"
	reqmetrics "bloodlink/internal/request/metrics"
	reqservice "bloodlink/internal/request/service"
	httptransport "bloodlink/internal/transport/http"
	"bloodlink/pkg/platform/audit/publisher"
)

const activityBuffer = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("bloodlink stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := map[string]httptransport.HealthCheck{}

	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer st.close()
	m.SetDependency("postgres", st.db != nil)
	if st.db != nil {
		checks["postgres"] = st.db.PingContext
	}

	if cfg.SeedFile != "" {
		f, err := loadFixtures(cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := seed(ctx, st, f)
		if err != nil {
			return err
		}
		log.Info("fixtures loaded", "file", cfg.SeedFile, "entities", n)
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	m.SetDependency("redis", rc != nil)
	if rc != nil {
		defer rc.Close()
		checks["redis"] = rc.Health
	}

	relayDone, kafka, err := maybeStartRelay(ctx, cfg.Kafka, st, log)
	if err != nil {
		return err
	}
	m.SetDependency("kafka", kafka != nil)

	pub := publisher.NewPublisher(st.activity,
		publisher.WithAsyncBuffer(activityBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(m.Registry)),
	)
	recorder := activity.NewRecorder(pub, activity.WithLogger(log), activity.WithRegisterer(m.Registry))

	donors := donorservice.New(st.donors, donorservice.WithLogger(log))
	inventory := invservice.New(st.inventory,
		invservice.WithLogger(log),
		invservice.WithActivityRecorder(recorder),
	)
	requests := reqservice.New(st.requests, st.donations, st.donors, st.directory, inventory, st.tx,
		reqservice.WithLogger(log),
		reqservice.WithActivityRecorder(recorder),
		reqservice.WithMetrics(reqmetrics.New(m.Registry)),
	)
	nearbyOpts := []nearbyservice.Option{
		nearbyservice.WithLogger(log),
		nearbyservice.WithActivityRecorder(recorder),
		nearbyservice.WithMetrics(nearbymetrics.New(m.Registry)),
	}
	if rc != nil {
		nearbyOpts = append(nearbyOpts, nearbyservice.WithCandidateCache(cache.NewRedisCache(rc.Client, cfg.Resolver.CandidateCacheTTL)))
	}
	nearby := nearbyservice.New(st.donors, st.directory, st.distances, nearbyOpts...)
	actors := dirservice.NewResolver(st.directory, st.donors)

	limiter := newRateLimiter(cfg.RateLimit, rc, m, log)

	tokens := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer))
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Tokens:    tokens,
		Checks:    checks,
		RateLimit: limiter.RateLimit,
		Modules: []httptransport.Registrar{
			reqhandler.New(requests, actors, log),
			nearbyhandler.New(nearby, actors, log),
			invhandler.New(inventory, actors, log),
			donorhandler.New(donors, log),
			activity.NewHandler(st.activity, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting bloodlink", "addr", cfg.Addr, "postgres", st.db != nil, "redis", rc != nil, "kafka", kafka != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	// Flush queued activity before the pool closes.
	pub.Close()
	stop()
	if relayDone != nil {
		if err := <-relayDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("outbox relay stopped", "error", err)
		}
		kafka.Close()
	}
	return nil
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*stores, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return newMemoryStores(), nil
	}
	return newPostgresStores(ctx, cfg)
}

// maybeStartRelay runs the outbox relay only when both Kafka and Postgres are
// configured; the outbox table lives in Postgres.
func maybeStartRelay(ctx context.Context, cfg config.KafkaConfig, st *stores, log *slog.Logger) (<-chan error, *kgo.Client, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}
	if st.db == nil {
		log.Warn("KAFKA_BROKERS set without DATABASE_URL, outbox relay disabled")
		return nil, nil, nil
	}
	client, done, err := startRelay(ctx, cfg, st.db, log)
	if err != nil {
		return nil, nil, err
	}
	return done, client, nil
}
