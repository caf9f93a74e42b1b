package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StackConfig switches each signal independently on top of the shared
// exporter settings.
type StackConfig struct {
	Config
	Metrics         bool
	MetricsInterval time.Duration
	Profiling       ProfilerConfig
}

// Stack is the process telemetry: log bridge, traces, metrics and profiles
type Stack struct {
	Logs     *LoggerProvider
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Profiler *Profiler
}

// StartStack brings up every provider. When one fails the ones already
// running are shut down before the error is returned.
func StartStack(ctx context.Context, cfg StackConfig, logger *zap.Logger) (*Stack, error) {
	s := &Stack{}
	var err error

	if s.Logs, err = NewLoggerProvider(ctx, cfg.Config, logger); err != nil {
		return nil, err
	}
	if s.Tracer, err = NewTracerProvider(ctx, cfg.Config, logger); err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}
	metricsCfg := MetricsConfig{Config: cfg.Config, ExportInterval: cfg.MetricsInterval}
	metricsCfg.Enabled = cfg.Enabled && cfg.Metrics
	if s.Meter, err = NewMeterProvider(ctx, metricsCfg, logger); err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}
	if s.Profiler, err = NewProfiler(cfg.Profiling, logger); err != nil {
		return nil, errors.Join(err, s.Shutdown(ctx))
	}
	if s.Profiler.IsEnabled() {
		s.Tracer.EnableSpanProfiles()
	}
	return s, nil
}

// Shutdown stops the providers in reverse start order and joins their errors
func (s *Stack) Shutdown(ctx context.Context) error {
	var errs []error
	if s.Profiler != nil {
		errs = append(errs, s.Profiler.Shutdown(ctx))
	}
	if s.Meter != nil {
		errs = append(errs, s.Meter.Shutdown(ctx))
	}
	if s.Tracer != nil {
		errs = append(errs, s.Tracer.Shutdown(ctx))
	}
	if s.Logs != nil {
		errs = append(errs, s.Logs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
