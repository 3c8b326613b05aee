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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc/credentials"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/usecase"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/service"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/artifact"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/config"
	infraKafka "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/kafka"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/memory"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/messaging"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/ml"
	infraPostgres "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/postgres"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/telemetry"
	grpcPresentation "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/presentation/grpc"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/presentation/rest"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/auth"
	pkgkafka "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/kafka"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/observability"
	pgpkg "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/postgres"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/tlsutil"
)

const shutdownTimeout = 15 * time.Second

// closablePublisher is an event publisher that owns a connection.
type closablePublisher interface {
	port.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := observability.InitLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("churn service failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("churn service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting churn service",
		"environment", cfg.Environment,
		"http_addr", cfg.HTTPAddress(),
		"grpc_addr", cfg.GRPCAddress(),
	)

	// Telemetry.
	tracerProvider, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(logger, "tracer provider", tracerProvider.Shutdown)

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(logger, "meter provider", meterProvider.Shutdown)

	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		return err
	}

	// Artifacts are loaded once; a failure here is fatal.
	var s3Source artifact.Source
	if artifact.IsS3(cfg.SchemaURI, cfg.ModelBundleURI) {
		src, err := artifact.NewS3SourceFromEnv(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		s3Source = src
	}
	artifacts, err := artifact.NewLoader(artifact.NewRouter(s3Source), logger).Load(ctx, cfg.SchemaURI, cfg.ModelBundleURI)
	if err != nil {
		return err
	}

	var churnModel port.ChurnModel = artifacts.Pipeline
	if cfg.CacheSize > 0 {
		cached, err := ml.NewCachedModel(artifacts.Pipeline, cfg.CacheSize)
		if err != nil {
			return err
		}
		churnModel = cached
	}

	reconciler, err := service.NewInferenceReconciler(artifacts.Schema, churnModel, logger,
		service.WithTimeout(cfg.InferenceTimeout))
	if err != nil {
		return fmt.Errorf("failed to create reconciler: %w", err)
	}

	// Prediction store.
	repo, pool, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	// Event publishing.
	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		ClientID:      cfg.ServiceName,
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
		SASLEnabled:   cfg.Kafka.SASLUsername != "",
		TLS:           cfg.Kafka.TLS,
	}
	publisher, err := newPublisher(kafkaCfg, cfg.Kafka.EventsTopic, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	// Use cases.
	predictUC := usecase.NewPredictChurn(reconciler, repo, publisher, metrics, logger)
	getUC := usecase.NewGetPrediction(repo)
	listUC := usecase.NewListCustomerPredictions(repo)
	describeUC := usecase.NewDescribeSchema(reconciler, artifacts.Pipeline.FeatureNames())

	// Optional auth, TLS and rate limiting.
	jwtService, err := newJWTService(cfg.Auth)
	if err != nil {
		return err
	}
	if jwtService == nil {
		logger.Warn("authentication disabled: no JWT key material configured")
	}

	var grpcCreds credentials.TransportCredentials
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLS.Enabled() {
		grpcCreds, err = tlsutil.ServerCredentials(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return err
		}
		httpServer.TLSConfig, err = tlsutil.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return err
		}
	}

	var limiter *rest.ClientRateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter, err = rest.NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
		if err != nil {
			return err
		}
	}

	// HTTP surface.
	httpServer.Handler = rest.NewRouter(rest.RouterConfig{
		Predictions: rest.NewPredictionHandler(predictUC, getUC, listUC, describeUC, logger),
		Form:        rest.NewFormHandler(predictUC, describeUC, artifacts.Pipeline.Categories(), logger),
		Health:      rest.NewHealthHandler(cfg.ServiceName, map[string]rest.Check{"store": repo.Ping}, logger),
		Metrics:     metricsHandler,
		Limiter:     limiter,
		JWT:         jwtService,
		Logger:      logger,
	})

	// gRPC surface.
	grpcServer := grpcPresentation.NewServer(
		grpcPresentation.NewChurnHandler(predictUC, getUC, listUC, logger),
		grpcPresentation.ServerConfig{
			Addr:        cfg.GRPCAddress(),
			JWT:         jwtService,
			Credentials: grpcCreds,
			Reflection:  cfg.Environment == "development",
		},
		logger,
	)

	// Streaming scoring.
	var consumer *pkgkafka.Consumer
	if kafkaCfg.Enabled() && cfg.Kafka.ScoringTopic != "" {
		handler := infraKafka.NewScoringHandler(predictUC, logger)
		consumer, err = pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.ScoringTopic, handler.Handle, logger)
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr, "tls", cfg.TLS.Enabled())
		var err error
		if cfg.TLS.Enabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if consumer != nil {
		logger.Info("scoring consumer starting", "topic", cfg.Kafka.ScoringTopic)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("scoring consumer error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error, shutting down", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	grpcServer.Stop()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close scoring consumer", "error", err)
		}
	}
	return runErr
}

func newRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.PredictionRepository, *pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, predictions are kept in memory", "capacity", cfg.MemoryCapacity)
		return memory.NewPredictionRepository(cfg.MemoryCapacity), nil, nil
	}

	if cfg.Database.RunMigrations {
		if err := pgpkg.RunMigrations(cfg.Database.URL, infraPostgres.Migrations, infraPostgres.MigrationsDir); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{
		URL:            cfg.Database.URL,
		MaxConns:       int32(cfg.Database.MaxConns),
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database")
	return infraPostgres.NewPredictionRepository(pool), pool, nil
}

func newPublisher(cfg pkgkafka.Config, topic string, logger *slog.Logger) (closablePublisher, error) {
	if !cfg.Enabled() {
		logger.Warn("KAFKA_BROKERS not set, domain events are logged only")
		return messaging.NewLogPublisher(logger), nil
	}
	producer, err := pkgkafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing domain events to kafka", "brokers", cfg.Brokers, "topic", topic)
	return infraKafka.NewPublisher(producer, topic, logger), nil
}

// newJWTService returns nil when auth is not configured. A public key
// selects validation-only mode; otherwise the shared secret is used.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer}
	if cfg.JWTPublicKeyFile != "" {
		keyData, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	} else {
		jwtCfg.Secret = cfg.JWTSecret
	}
	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	return svc, nil
}

func shutdownWithTimeout(logger *slog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error("shutdown failed", "component", name, "error", err)
	}
}
