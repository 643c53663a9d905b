package utils

import (
	"fmt"
	"time"

	"github.com/availboard/availbot/availbot/config"
)

// FormatTimeRemaining renders the gap between now and expiry as a compact
// countdown, or EXPIRED once it has passed.
func FormatTimeRemaining(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return config.ExpiredLabel
	}

	total := int(remaining.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatDurationShort renders a duration as "2h" or "1h 30m" for button
// labels and confirmations.
func FormatDurationShort(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Minutes())
	hours := total / 60
	minutes := total % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
