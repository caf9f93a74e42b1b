package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnly(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2026, 3, 14, 23, 45, 0, 0, ist)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), DateOnly(in))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.December, d.Month())

	_, err = ParseDate("31/12/2026")
	assert.True(t, IsKind(err, KindValidation))
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2026, time.December)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
