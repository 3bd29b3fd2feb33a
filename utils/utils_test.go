package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrimToNil(t *testing.T) {
	assert.Nil(t, TrimToNil(nil))
	assert.Nil(t, TrimToNil(ToPtr("   ")))
	assert.Equal(t, "note", *TrimToNil(ToPtr("  note ")))
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, DaysToDuration(7))
	assert.Equal(t, 24*time.Hour, HoursToDuration(24))
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestFormatRFC3339Ptr(t *testing.T) {
	assert.Nil(t, FormatRFC3339Ptr(nil))
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T10:00:00Z", *FormatRFC3339Ptr(&ts))
}
