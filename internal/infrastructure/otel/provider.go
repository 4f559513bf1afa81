package otel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bravo68web/ghcrm/internal/config"
)

// ServiceVersion is reported as service.version on exported records
var ServiceVersion = "dev"

// Config holds OpenTelemetry provider configuration
type Config struct {
	// Endpoint is the OTEL collector endpoint (e.g., "localhost:4317")
	Endpoint string

	// ServiceName is the name of the service for OTEL
	ServiceName string

	// Environment is the deployment environment (the server mode)
	Environment string

	// Insecure disables TLS for the OTEL connection
	Insecure bool

	// UseHTTP uses HTTP instead of gRPC for the OTEL exporter
	UseHTTP bool

	// BatchTimeout is the maximum time to wait before sending a batch
	BatchTimeout time.Duration
}

// ConfigFrom maps the application config onto provider settings
func ConfigFrom(cfg *config.Config) *Config {
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = "ghcrm"
	}

	return &Config{
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  serviceName,
		Environment:  cfg.Server.Mode,
		Insecure:     cfg.Telemetry.Insecure,
		UseHTTP:      strings.EqualFold(cfg.Telemetry.Protocol, "http"),
		BatchTimeout: 5 * time.Second,
	}
}

// Provider manages OpenTelemetry log provider
type Provider struct {
	config      *Config
	logProvider *sdklog.LoggerProvider
	logger      log.Logger
}

// NewProvider creates a log provider exporting to the configured collector
func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry endpoint is required")
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	batchOpts := []sdklog.BatchProcessorOption{}
	if cfg.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}

	logProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, batchOpts...)),
	)

	return &Provider{
		config:      cfg,
		logProvider: logProvider,
		logger:      logProvider.Logger(cfg.ServiceName),
	}, nil
}

func createExporter(ctx context.Context, cfg *Config) (sdklog.Exporter, error) {
	if cfg.UseHTTP {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, opts...)
	}

	if cfg.Insecure {
		conn, err := grpc.NewClient(
			cfg.Endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		return otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
	}

	return otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(cfg.Endpoint))
}

// Logger returns the OTEL logger
func (p *Provider) Logger() log.Logger {
	return p.logger
}

// Shutdown flushes pending records and stops the exporter
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.logProvider.Shutdown(ctx)
}

// ForceFlush forces a flush of all pending logs
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.logProvider.ForceFlush(ctx)
}

// Close implements io.Closer for the provider
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Shutdown(ctx)
}

var _ io.Closer = (*Provider)(nil)
