package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider ships zap entries to the collector through the otelzap bridge
type LoggerProvider struct {
	lifecycle
	provider *sdklog.LoggerProvider
	scope    string
}

func NewLoggerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{lifecycle: newLifecycle("logs", logger), scope: cfg.ServiceName}
	if !cfg.Enabled {
		return lp, nil
	}

	exporter, err := otlploggrpc.New(ctx, grpcOptions(cfg, otlploggrpc.WithEndpoint, otlploggrpc.WithInsecure)...)
	if err != nil {
		return nil, fmt.Errorf("otlp log exporter: %w", err)
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	lp.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	lp.stop = lp.provider.Shutdown
	global.SetLoggerProvider(lp.provider)
	return lp, nil
}

// Core feeds the bridge from level upwards. Tee it next to the console core
// with logger.New; a disabled provider yields a nop core.
func (lp *LoggerProvider) Core(level zapcore.Level) zapcore.Core {
	if !lp.IsEnabled() {
		return zapcore.NewNopCore()
	}
	bridge := otelzap.NewCore(lp.scope, otelzap.WithLoggerProvider(lp.provider))
	filtered, err := zapcore.NewIncreaseLevelCore(bridge, level)
	if err != nil {
		// the bridge already drops below level
		lp.logger.Debug("otel log core keeps its own level", zap.Error(err))
		return bridge
	}
	return filtered
}

func (lp *LoggerProvider) IsEnabled() bool { return lp.started() }
