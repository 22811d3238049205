package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"farmgate/backend/internal/access/store"
	"farmgate/backend/internal/audit"
	auditrepo "farmgate/backend/internal/audit/repository"
	"farmgate/backend/internal/config"
	"farmgate/backend/internal/db"
	"farmgate/backend/internal/health"
	identityrepo "farmgate/backend/internal/identity/repository"
	"farmgate/backend/internal/logging"
	"farmgate/backend/internal/membership"
	membershiprepo "farmgate/backend/internal/membership/repository"
	"farmgate/backend/internal/navigator"
	orgrepo "farmgate/backend/internal/organization/repository"
	"farmgate/backend/internal/policy/engine"
	policyrepo "farmgate/backend/internal/policy/repository"
	"farmgate/backend/internal/preferences"
	prefsrepo "farmgate/backend/internal/preferences/repository"
	"farmgate/backend/internal/security"
	"farmgate/backend/internal/server"
	"farmgate/backend/internal/server/handler"
	"farmgate/backend/internal/server/middleware"
	"farmgate/backend/internal/session"
	"farmgate/backend/internal/telemetry"
	otelsetup "farmgate/backend/internal/telemetry/otel"
	"farmgate/backend/internal/telemetry/producer"
)

// shutdownDrainDuration bounds how long in-flight requests and streams get to finish.
const shutdownDrainDuration = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, syncLogs, err := logging.Install(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer syncLogs()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer shutdownWithTimeout(logger, "otel", providers.Shutdown)

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	var rdb redis.UniversalClient
	cache := session.Cache(session.NewMemoryCache())
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		cache = session.NewRedisCache(rdb)
	} else {
		logger.Warn("REDIS_URL not set; session cache and rate limits are per process")
	}

	signer, publicKey, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("jwt keys: set JWT_PUBLIC_KEY or JWT_PRIVATE_KEY: %w", err)
	}
	tokens := security.NewTokenProvider(signer, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		return err
	}
	defer kafkaProducer.Close()
	emitter := telemetry.Multi{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitter = append(emitter, kafkaProducer)
	}

	memberships := membershiprepo.NewPostgresRepository(conn)
	evaluator, err := engine.NewOPAEvaluator(ctx, policyrepo.NewPostgresRepository(conn))
	if err != nil {
		return err
	}
	sessions := session.NewService(tokens, identityrepo.NewPostgresRepository(conn), cache, session.Options{
		FreshTTL: cfg.FreshTTL(),
		StaleTTL: cfg.StaleTTL(),
	})
	nav := navigator.New(sessions, membership.NewRepositorySource(memberships), store.NewRegistry(), navigator.Options{
		Emitter: emitter,
	})
	actions := membership.NewService(memberships, orgrepo.NewPostgresRepository(conn), evaluator, nav)
	checker := health.NewChecker(conn, evaluator)

	streamsDone := make(chan struct{})
	h := handler.New(handler.Deps{
		Navigator:   nav,
		Memberships: actions,
		Preferences: preferences.NewService(prefsrepo.NewPostgresRepository(conn), preferences.Options{}),
		Health:      checker,
		Done:        streamsDone,
	})
	router := server.NewRouter(server.Deps{
		Handler:     h,
		Verifier:    tokens,
		Sessions:    sessions,
		Audit:       audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIP),
		RateLimiter: middleware.NewRateLimiter(rdb, cfg.MutationRateLimit),
		Logger:      logger,
		ServiceName: cfg.ServiceName,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for active requests, so open profile streams are ended first.
	httpServer.RegisterOnShutdown(func() { close(streamsDone) })

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer, hs := server.NewGRPCServer()
		go checker.Watch(ctx, hs, server.HealthServiceName, 15*time.Second)
		go func() {
			logger.Info("grpc health server listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		defer grpcServer.GracefulStop()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainDuration)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	return nil
}

func shutdownWithTimeout(logger *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
