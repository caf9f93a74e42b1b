package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sequenceRow struct {
	Name      string `gorm:"primaryKey"`
	LastValue int
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&sequenceRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, nil))
	assert.Nil(t, db.Callback().Query().Get("otel_annotate:after_query"))
}

func TestRegisterDBTracing_AnnotatesSpans(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		DBName:          "voucherdesk",
		SlowQueryThresh: time.Nanosecond,
		TracerProvider:  tp,
	}, nil))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&sequenceRow{Name: "VCH", LastValue: 1}).Error)
	err := db.WithContext(ctx).Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	parent.End()

	var insert, failed sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.sql.table" && kv.Value.AsString() == "sequence_rows" {
				insert = s
			}
		}
		if s.Status().Code == codes.Error {
			failed = s
		}
	}
	require.NotNil(t, insert, "insert span")
	assert.Contains(t, insert.Attributes(), attribute.Bool("db.slow_query", true))
	assert.Contains(t, insert.Attributes(), attribute.Int64("db.rows_affected", 1))
	require.NotNil(t, failed, "failed span")
	assert.NotContains(t, failed.Attributes(), attribute.Bool("db.lock_not_available", true))
}

func TestRegisterDBMetrics(t *testing.T) {
	db := setupTestDB(t)
	reader, provider := newManualMeter(t)

	m, err := RegisterDBMetrics(db, provider.Meter("db.client"), time.Nanosecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Stop() })

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&sequenceRow{Name: "FN", LastValue: 3}).Error)
	var row sequenceRow
	require.NoError(t, db.WithContext(ctx).First(&row, "name = ?", "FN").Error)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumWhere(t, data["db_query_total"], AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(1), sumWhere(t, data["db_query_total"], AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(2), sumWhere(t, data["db_slow_query_total"], AttrDBTable.String("sequence_rows")))

	gauge, ok := data["db_pool_connections_max"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
}

func TestDetectOperation(t *testing.T) {
	tests := map[string]string{
		"select 1":                      "SELECT",
		"  INSERT INTO vouchers":        "INSERT",
		"UPDATE vouchers SET":           "UPDATE",
		"DELETE FROM particulars":       "DELETE",
		"WITH x AS (SELECT 1) SELECT 1": "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperation(sql), sql)
	}
}
