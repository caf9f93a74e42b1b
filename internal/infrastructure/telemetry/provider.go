// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling. Every provider degrades to a no-op when disabled.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Config is shared by the trace, metric and log exporters
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Environment       string
	Insecure          bool
}

// newResource describes this process to the collector
func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(cfg.Environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// grpcOptions builds the exporter dial options of any of the three OTLP
// gRPC exporters, which share the same option shape.
func grpcOptions[O any](cfg Config, endpoint func(string) O, insecure func() O) []O {
	opts := []O{endpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, insecure())
	}
	return opts
}

// lifecycle is the stop half every provider shares. A nil stop means the
// provider never started.
type lifecycle struct {
	signal string
	logger *zap.Logger
	stop   func(context.Context) error
}

func newLifecycle(signal string, logger *zap.Logger) lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return lifecycle{signal: signal, logger: logger}
}

func (l *lifecycle) started() bool { return l.stop != nil }

// Shutdown flushes and stops the provider within shutdownTimeout
func (l *lifecycle) Shutdown(ctx context.Context) error {
	if l.stop == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := l.stop(ctx); err != nil {
		return fmt.Errorf("shutdown %s provider: %w", l.signal, err)
	}
	l.logger.Info("telemetry provider stopped", zap.String("signal", l.signal))
	return nil
}
