package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBName          string
	SlowQueryThresh time.Duration // default 200ms
	// WithQueryVariables puts bound values into span statements. Development only.
	WithQueryVariables bool
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// RegisterDBTracing installs otelgorm on db plus a callback that marks slow
// queries and row-lock contention on the statement span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if !cfg.WithQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	const key = startKey("otel_query_start")
	after := func(tx *gorm.DB) { annotateSpan(tx, key, cfg.SlowQueryThresh) }
	if err := registerTimed(db, "otel_annotate", key, after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.Bool("with_query_variables", cfg.WithQueryVariables),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, key startKey, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.RowsAffected))

	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == "55P03" {
			span.SetAttributes(attribute.Bool("db.lock_not_available", true))
		}
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if elapsed, ok := elapsedSince(ctx, key); ok && elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

type startKey string

func elapsedSince(ctx context.Context, key startKey) (time.Duration, bool) {
	start, ok := ctx.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// registerTimed stamps the start time under key before every gorm operation
// and runs after once it finished, ahead of otelgorm ending the span.
func registerTimed(db *gorm.DB, prefix string, key startKey, after func(*gorm.DB)) error {
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, key, time.Now())
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register(prefix+":after_create", after),
		cb.Query().After("gorm:query").Before("otel:after:select").Register(prefix+":after_query", after),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(prefix+":after_update", after),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(prefix+":after_delete", after),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(prefix+":after_row", after),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(prefix+":after_raw", after),
	)
}
