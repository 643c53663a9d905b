package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimeRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      string
	}{
		{"hours minutes seconds", now.Add(2*time.Hour + 15*time.Minute + 30*time.Second), "2h 15m 30s"},
		{"minutes seconds", now.Add(45*time.Minute + 5*time.Second), "45m 5s"},
		{"seconds only", now.Add(42 * time.Second), "42s"},
		{"exactly now", now, "EXPIRED"},
		{"already past", now.Add(-time.Minute), "EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatTimeRemaining(tt.expiresAt, now))
		})
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"whole hours", 2 * time.Hour, "2h"},
		{"hours and minutes", 90 * time.Minute, "1h 30m"},
		{"minutes only", 45 * time.Minute, "45m"},
		{"zero", 0, "0m"},
		{"negative clamps to zero", -time.Hour, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatDurationShort(tt.d))
		})
	}
}
