package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics records query latency and connection pool usage.
type DBMetrics struct {
	queries      *Counter
	duration     *Histogram
	slowQueries  *Counter
	slowThresh   time.Duration
	registration metric.Registration
}

// RegisterDBMetrics instruments db: a counter and latency histogram per
// operation from gorm callbacks, and pool gauges observed at export time.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, slowThresh time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if slowThresh <= 0 {
		slowThresh = 200 * time.Millisecond
	}

	m := &DBMetrics{slowThresh: slowThresh}
	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, "db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets...); err != nil {
		return nil, err
	}
	if m.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold", "{query}"); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		return nil
	}, conns, maxConns)
	if err != nil {
		return nil, err
	}

	const key = startKey("db_metrics_start")
	after := func(tx *gorm.DB) {
		elapsed, ok := elapsedSince(tx.Statement.Context, key)
		if !ok {
			return
		}
		m.record(tx.Statement.Context, detectOperation(tx.Statement.SQL.String()), tx.Statement.Table, elapsed)
	}
	if err := registerTimed(db, "db_metrics", key, after); err != nil {
		return nil, err
	}

	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", slowThresh))
	return m, nil
}

func (m *DBMetrics) record(ctx context.Context, operation, table string, elapsed time.Duration) {
	op := AttrDBOperation.String(operation)
	m.queries.Inc(ctx, op)
	m.duration.RecordDuration(ctx, elapsed, op)
	if elapsed > m.slowThresh {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Inc(ctx, op, AttrDBTable.String(table))
	}
}

// Stop unregisters the pool gauges
func (m *DBMetrics) Stop() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

func detectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}
