package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-09")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.June, Day: 9}, d)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2025-06-09", d.String())

	_, err = ParseDate("09-06-2025")
	assert.Error(t, err)
	_, err = ParseDate("2025-02-30")
	assert.Error(t, err)
}

func TestDateOrdering(t *testing.T) {
	a, _ := ParseDate("2025-06-09")
	b, _ := ParseDate("2025-06-10")
	c, _ := ParseDate("2025-07-01")

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, c.After(a))
	assert.False(t, a.Before(a))
}

func TestDateAddDays(t *testing.T) {
	d, _ := ParseDate("2025-01-31")
	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	assert.Equal(t, "2025-01-30", d.AddDays(-1).String())

	// leap year rollover
	d, _ = ParseDate("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
}

func TestDateScan(t *testing.T) {
	// a date column comes back as midnight UTC; the time component must be
	// dropped, not converted
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-09", d.String())

	require.NoError(t, d.Scan("2025-06-10"))
	assert.Equal(t, "2025-06-10", d.String())
}
