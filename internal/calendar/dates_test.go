package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDateRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	t.Run("valid explicit range passes through unchanged", func(t *testing.T) {
		start, end, cerr := resolveDateRange("2026-01-05", "2026-02-01", 7, now)
		require.Nil(t, cerr)
		assert.Equal(t, "2026-01-05", start)
		assert.Equal(t, "2026-02-01", end)
	})

	t.Run("equal start and end is valid", func(t *testing.T) {
		start, end, cerr := resolveDateRange("2026-01-05", "2026-01-05", 7, now)
		require.Nil(t, cerr)
		assert.Equal(t, start, end)
	})

	t.Run("absent start defaults to current UTC date", func(t *testing.T) {
		start, end, cerr := resolveDateRange("", "", 7, now)
		require.Nil(t, cerr)
		assert.Equal(t, "2026-03-10", start)
		assert.Equal(t, "2026-03-17", end)
	})

	t.Run("absent end defaults to start plus look-ahead", func(t *testing.T) {
		start, end, cerr := resolveDateRange("2026-06-28", "", 5, now)
		require.Nil(t, cerr)
		assert.Equal(t, "2026-06-28", start)
		assert.Equal(t, "2026-07-03", end)
	})

	t.Run("negative look-ahead clamps to zero", func(t *testing.T) {
		start, end, cerr := resolveDateRange("2026-06-28", "", -3, now)
		require.Nil(t, cerr)
		assert.Equal(t, start, end)
	})

	t.Run("start after end is rejected", func(t *testing.T) {
		_, _, cerr := resolveDateRange("2026-02-01", "2026-01-05", 7, now)
		require.NotNil(t, cerr)
		assert.Equal(t, "invalid_date_range", cerr.kind)
	})

	t.Run("impossible calendar date is rejected", func(t *testing.T) {
		_, _, cerr := resolveDateRange("2026-02-30", "", 7, now)
		require.NotNil(t, cerr)
		assert.Equal(t, "invalid_start_date", cerr.kind)
	})

	t.Run("malformed end date is rejected", func(t *testing.T) {
		_, _, cerr := resolveDateRange("2026-01-05", "02/01/2026", 7, now)
		require.NotNil(t, cerr)
		assert.Equal(t, "invalid_end_date", cerr.kind)
	})
}

func TestParseISODate(t *testing.T) {
	valid := []string{"2026-01-01", "2024-02-29", "1999-12-31"}
	for _, s := range valid {
		_, ok := parseISODate(s)
		assert.True(t, ok, s)
	}

	invalid := []string{"2026-02-30", "2026-13-01", "2026-1-1", "20260101", "not-a-date", ""}
	for _, s := range invalid {
		_, ok := parseISODate(s)
		assert.False(t, ok, s)
	}
}
