package main

import (
	"context"
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/dunamismax/pixeledge/internal/config"
	"github.com/dunamismax/pixeledge/internal/edge"
	"github.com/dunamismax/pixeledge/internal/storage"
	"github.com/dunamismax/pixeledge/internal/telemetry"
	"github.com/dunamismax/pixeledge/internal/transform"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), telemetry.TraceConfig{
		ServiceName:  cfg.Telemetry.ServiceName,
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, sugar)
	if err != nil {
		sugar.Fatalw("setup tracing", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			sugar.Errorw("shutdown tracing", "error", err)
		}
	}()

	if err := transform.Startup(); err != nil {
		sugar.Fatalw("start image runtime", "error", err)
	}
	defer transform.Shutdown()

	fetcher := storage.NewClient(storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		DefaultRegion: cfg.Storage.DefaultRegion,
		UseSSL:        cfg.Storage.UseSSL,
	})
	executor := transform.NewExecutor(transform.NewCodec())

	handler := edge.NewHandler(sugar, fetcher, executor, transform.GIFAnimationDetector{}).
		WithTracer(otel.Tracer("pixeledge/edge"))

	awslambda.Start(handler.Handle)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
